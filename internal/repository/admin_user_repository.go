package repository

import (
	"context"
	"time"

	"qrmenu/internal/domain/model"
)

// 管理者ユーザーの保存・取得を約束
type AdminUserRepository interface {
	//新規作成
	Create(ctx context.Context, user *model.AdminUser) error
	// IDから1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.AdminUser, error)
	// ユーザー名から1件取得する。
	FindByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	// パスワード変更。token_versionも＋１して古いトークンを無効にする
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	// 最終ログイン時刻
	TouchLastLogin(ctx context.Context, userID int64, at time.Time) error
}
