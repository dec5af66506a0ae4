package repository

import (
	"context"
	"time"

	"qrmenu/internal/domain/model"
)

const (
	AuditLogDefaultLimit = 50
	AuditLogMaxLimit     = 200
)

// 監査ログの絞り込み。nilの条件は無視する。
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// Window は範囲外のlimit/offsetを既定値に丸めて返す
func (f AuditLogFilter) Window() (limit int, offset int) {
	limit = f.Limit
	if limit <= 0 || limit > AuditLogMaxLimit {
		limit = AuditLogDefaultLimit
	}
	return limit, max(f.Offset, 0)
}

// 管理者操作ログ。追記のみで、更新・削除はしない。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
