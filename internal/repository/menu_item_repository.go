package repository

import (
	"context"

	"qrmenu/internal/domain/model"
)

// メニュー一覧の検索条件
type MenuItemListQuery struct {
	Category      *model.MenuCategory
	AvailableOnly bool

	//名前・説明の部分一致（大文字小文字を区別しない）
	Search string
}

type MenuItemRepository interface {
	//カテゴリ→名前の順
	List(ctx context.Context, q MenuItemListQuery) ([]model.MenuItem, error)
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)

	Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error)
	Update(ctx context.Context, item model.MenuItem) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
