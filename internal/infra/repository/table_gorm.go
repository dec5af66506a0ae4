package repository

import (
	"context"
	"errors"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TableGormRepository struct {
	db *gorm.DB
}

// DI
func NewTableGormRepository(db *gorm.DB) *TableGormRepository {
	return &TableGormRepository{db: db}
}

// 番号順に返す
func (r *TableGormRepository) List(ctx context.Context, f repo.TableListFilter) ([]model.Table, error) {
	q := r.db.WithContext(ctx).Model(&model.Table{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}

	var list []model.Table
	if err := q.Order("number asc").Find(&list).Error; err != nil {
		return []model.Table{}, err
	}
	return list, nil
}

func (r *TableGormRepository) FindByNumber(ctx context.Context, number int) (model.Table, error) {
	return r.findByNumber(r.db.WithContext(ctx), number)
}

// SELECT ... FOR UPDATE
func (r *TableGormRepository) FindByNumberForUpdate(ctx context.Context, number int) (model.Table, error) {
	return r.findByNumber(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), number)
}

func (r *TableGormRepository) findByNumber(q *gorm.DB, number int) (model.Table, error) {
	var t model.Table
	err := q.Where("number = ?", number).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Table{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Table{}, err
	}
	return t, nil
}

func (r *TableGormRepository) Create(ctx context.Context, table model.Table) (model.Table, error) {
	err := r.db.WithContext(ctx).Create(&table).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Table{}, repo.ErrDuplicate
	}
	if err != nil {
		return model.Table{}, err
	}
	return table, nil
}

func (r *TableGormRepository) Update(ctx context.Context, table model.Table) error {
	res := r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("id = ?", table.ID).
		Updates(map[string]interface{}{
			"number":     table.Number,
			"capacity":   table.Capacity,
			"location":   table.Location,
			"qr_code":    table.QRCode,
			"updated_at": table.UpdatedAt,
		})

	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return repo.ErrDuplicate
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TableGormRepository) Occupy(ctx context.Context, number int, orderID string) error {
	return r.updateByNumber(ctx, number, map[string]interface{}{
		"status":           model.TableStatusOccupied,
		"current_order_id": orderID,
	})
}

func (r *TableGormRepository) Free(ctx context.Context, number int) error {
	return r.updateByNumber(ctx, number, map[string]interface{}{
		"status":           model.TableStatusFree,
		"current_order_id": nil,
	})
}

func (r *TableGormRepository) SetStatus(ctx context.Context, number int, status model.TableStatus) error {
	return r.updateByNumber(ctx, number, map[string]interface{}{
		"status": status,
	})
}

// upsertはしない。無ければErrNotFound
func (r *TableGormRepository) updateByNumber(ctx context.Context, number int, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.Table{}).
		Where("number = ?", number).
		Updates(fields)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TableGormRepository) Delete(ctx context.Context, number int) error {
	res := r.db.WithContext(ctx).Where("number = ?", number).Delete(&model.Table{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *TableGormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Table{}).Count(&n).Error
	return n, err
}
