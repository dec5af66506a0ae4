package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

const minPasswordLen = 6

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

type AdminUserDTO struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"tokenVersion"`
	LastLoginAt  *time.Time `json:"lastLoginAt"`
}

type AccessTokenDTO struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresIn   int       `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	User  AdminUserDTO   `json:"user"`
	Token AccessTokenDTO `json:"token"`
}

type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

type AuthUsecase struct {
	users    repo.AdminUserRepository
	hasher   PasswordHasher
	verifier PasswordVerifier
	issuer   AccessTokenIssuer
	clock    Clock
	log      *slog.Logger
}

// DI
func NewAuthUsecase(
	users repo.AdminUserRepository,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	clock Clock,
	log *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
		log:      log,
	}
}

func toAdminUserDTO(u *model.AdminUser) AdminUserDTO {
	return AdminUserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
		LastLoginAt:  u.LastLoginAt,
	}
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	//ユーザー取得
	user, err := u.users.FindByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//パスワード照合
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		u.log.Warn("admin login failed", "action", "admin_login_failed", "username", username)
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//last_login更新（失敗してもログインは通す）
	now := u.clock.Now()
	if err := u.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		u.log.Warn("touch last login failed", "action", "admin_touch_last_login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	u.log.Info("admin logged in", "action", "admin_login", "user_id", user.ID)
	return LoginOutput{
		User: toAdminUserDTO(user),
		Token: AccessTokenDTO{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(expiresAt.Sub(now).Seconds()),
			ExpiresAt:   expiresAt,
		},
	}, nil
}

func (u *AuthUsecase) Profile(ctx context.Context, userID int64) (AdminUserDTO, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return AdminUserDTO{}, err
	}
	return toAdminUserDTO(user), nil
}

// パスワード変更。token_versionが上がるので発行済みのトークンは使えなくなる。
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID int64, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return NewHTTPError(http.StatusBadRequest, "current and new password are required")
	}
	if len([]rune(in.NewPassword)) < minPasswordLen {
		return NewHTTPError(http.StatusBadRequest, "new password must be at least 6 characters")
	}

	user, err := u.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if !u.verifier.Verify(in.CurrentPassword, user.PasswordHash) {
		return NewHTTPError(http.StatusBadRequest, "current password is incorrect")
	}

	hash, err := u.hasher.Hash(in.NewPassword)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.log.Info("admin password changed", "action", "admin_password_changed", "user_id", user.ID)
	return nil
}

// 初期管理者がいなければ作る。作ったらtrue。
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, username string, password string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return false, errors.New("admin username and password are required")
	}

	_, err := u.users.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return false, err
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return false, err
	}
	if err := u.users.Create(ctx, &model.AdminUser{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}); err != nil {
		//同時起動で先に作られた
		if errors.Is(err, repo.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	u.log.Info("admin user created", "action", "admin_seeded", "username", username)
	return true, nil
}

func (u *AuthUsecase) findUser(ctx context.Context, userID int64) (*model.AdminUser, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return user, nil
}
