package repository

import (
	"context"

	"qrmenu/internal/domain/model"
)

type TableListFilter struct {
	Status *model.TableStatus
}

// テーブルの保存・取得。番号で引く。
type TableRepository interface {
	List(ctx context.Context, f TableListFilter) ([]model.Table, error)
	FindByNumber(ctx context.Context, number int) (model.Table, error)

	//トランザクション内で行ロックを取って読む
	FindByNumberForUpdate(ctx context.Context, number int) (model.Table, error)

	Create(ctx context.Context, table model.Table) (model.Table, error)

	//番号・人数・場所・QRをID指定で更新
	Update(ctx context.Context, table model.Table) error

	//occupied + 注文の参照をセット
	Occupy(ctx context.Context, number int, orderID string) error

	//free + 注文の参照をクリア
	Free(ctx context.Context, number int) error

	//状態だけ変える（参照はそのまま）
	SetStatus(ctx context.Context, number int, status model.TableStatus) error

	Delete(ctx context.Context, number int) error
	Count(ctx context.Context) (int64, error)
}
