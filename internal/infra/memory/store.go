// Package memory はプロセス内に保持するストア。STORE=memory とテストで使う。
// トランザクションは持たないので、WithinTx の途中で失敗しても書いた分は残る。
package memory

import (
	"context"
	"sync"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type Store struct {
	mu sync.RWMutex

	orders map[string]model.Order

	//番号がキー
	tables   map[int]model.Table
	tableSeq int64

	menu    map[int64]model.MenuItem
	menuSeq int64

	admins   map[int64]model.AdminUser
	adminSeq int64

	audits   []model.AuditLog
	auditSeq int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders: map[string]model.Order{},
		tables: map[int]model.Table{},
		menu:   map[int64]model.MenuItem{},
		admins: map[int64]model.AdminUser{},
		now:    time.Now,
	}
}

func (s *Store) Orders() repo.OrderRepository         { return &orderRepo{s: s} }
func (s *Store) Tables() repo.TableRepository         { return &tableRepo{s: s} }
func (s *Store) MenuItems() repo.MenuItemRepository   { return &menuItemRepo{s: s} }
func (s *Store) AdminUsers() repo.AdminUserRepository { return &adminUserRepo{s: s} }
func (s *Store) AuditLogs() repo.AuditLogRepository   { return &auditLogRepo{s: s} }

// WithinTx はそのまま fn を呼ぶ（ロールバックなし）
func (s *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
