package repository

import (
	"context"
	"time"

	"qrmenu/internal/domain/model"
)

// 注文一覧の絞り込み条件。Limitが0以下なら全件。
type OrderListFilter struct {
	Statuses    []model.OrderStatus
	TableNumber *int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	Limit       int
}

// 注文の保存・取得の約束
type OrderRepository interface {
	Create(ctx context.Context, order model.Order) error
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	//新しい順。totalは絞り込み後の件数
	List(ctx context.Context, f OrderListFilter) ([]model.Order, int64, error)

	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, updatedAt time.Time) error
	Delete(ctx context.Context, orderID string) error
}
