package repository

import (
	"context"
	"errors"
	"time"

	"qrmenu/internal/domain/model"
	domainrepo "qrmenu/internal/repository"

	"gorm.io/gorm"
)

type adminUserGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewAdminUserGormRepository(db *gorm.DB) domainrepo.AdminUserRepository {
	return &adminUserGormRepository{db: db}
}

// Create はユーザーを新規作成
func (r *adminUserGormRepository) Create(ctx context.Context, user *model.AdminUser) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainrepo.ErrDuplicate
	}
	return err
}

// IDでユーザーを1件取得
func (r *adminUserGormRepository) FindByID(ctx context.Context, id int64) (*model.AdminUser, error) {
	return r.findOne(r.db.WithContext(ctx).Where("id = ?", id))
}

// usernameでユーザーを1件取得
func (r *adminUserGormRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	return r.findOne(r.db.WithContext(ctx).Where("username = ?", username))
}

func (r *adminUserGormRepository) findOne(q *gorm.DB) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainrepo.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// パスワード更新とtoken_versionの+1を同時に行う。
func (r *adminUserGormRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&model.AdminUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"token_version": gorm.Expr("token_version + ?", 1),
		})

	if res.Error != nil {
		return res.Error
	}

	// 0件更新は「対象がない」
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}

func (r *adminUserGormRepository) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.AdminUser{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrNotFound
	}
	return nil
}
