package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"qrmenu/internal/domain/model"
	"qrmenu/internal/logger"
	repo "qrmenu/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAdminUserRepo struct {
	mock.Mock
}

func (m *mockAdminUserRepo) Create(ctx context.Context, user *model.AdminUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockAdminUserRepo) FindByID(ctx context.Context, userID int64) (*model.AdminUser, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.AdminUser)
	return u, args.Error(1)
}

func (m *mockAdminUserRepo) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*model.AdminUser)
	return u, args.Error(1)
}

func (m *mockAdminUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *mockAdminUserRepo) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

// "hash:"+平文 をハッシュとみなす
type fakePassword struct{}

func (fakePassword) Hash(plain string) (string, error) { return "hash:" + plain, nil }
func (fakePassword) Verify(plain, hashed string) bool  { return hashed == "hash:"+plain }

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	args := m.Called(userID, role, tokenVersion, now)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func newAuthUsecase(users *mockAdminUserRepo, issuer *mockIssuer) *AuthUsecase {
	return NewAuthUsecase(users, fakePassword{}, fakePassword{}, issuer, newFixedClock(baseTime), logger.Nop())
}

func adminUser() *model.AdminUser {
	return &model.AdminUser{ID: 1, Username: "admin", PasswordHash: "hash:admin123", Role: model.RoleAdmin, TokenVersion: 2}
}

func TestLogin_Success(t *testing.T) {
	users := &mockAdminUserRepo{}
	issuer := &mockIssuer{}
	u := newAuthUsecase(users, issuer)
	ctx := context.Background()

	users.On("FindByUsername", ctx, "admin").Return(adminUser(), nil)
	users.On("TouchLastLogin", ctx, int64(1), baseTime).Return(nil)
	issuer.On("Issue", int64(1), model.RoleAdmin, 2, baseTime).Return("signed", baseTime.Add(12*time.Hour), nil)

	out, err := u.Login(ctx, LoginInput{Username: " admin ", Password: "admin123"})
	require.NoError(t, err)

	assert.Equal(t, "signed", out.Token.AccessToken)
	assert.Equal(t, "Bearer", out.Token.TokenType)
	assert.Equal(t, 12*3600, out.Token.ExpiresIn)
	assert.Equal(t, "admin", out.User.Username)
	require.NotNil(t, out.User.LastLoginAt)
	assert.Equal(t, baseTime, *out.User.LastLoginAt)
	users.AssertExpectations(t)
	issuer.AssertExpectations(t)
}

func TestLogin_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		u := newAuthUsecase(&mockAdminUserRepo{}, &mockIssuer{})
		_, err := u.Login(ctx, LoginInput{Username: "admin"})
		requireHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByUsername", ctx, "ghost").Return(nil, repo.ErrNotFound)
		u := newAuthUsecase(users, &mockIssuer{})

		_, err := u.Login(ctx, LoginInput{Username: "ghost", Password: "x"})
		requireHTTPStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByUsername", ctx, "admin").Return(adminUser(), nil)
		issuer := &mockIssuer{}
		u := newAuthUsecase(users, issuer)

		_, err := u.Login(ctx, LoginInput{Username: "admin", Password: "nope"})
		requireHTTPStatus(t, err, http.StatusUnauthorized)
		issuer.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("db error", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByUsername", ctx, "admin").Return(nil, errors.New("conn refused"))
		u := newAuthUsecase(users, &mockIssuer{})

		_, err := u.Login(ctx, LoginInput{Username: "admin", Password: "admin123"})
		requireHTTPStatus(t, err, http.StatusInternalServerError)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByID", ctx, int64(1)).Return(adminUser(), nil)
		users.On("UpdatePassword", ctx, int64(1), "hash:newpass1").Return(nil)
		u := newAuthUsecase(users, &mockIssuer{})

		err := u.ChangePassword(ctx, 1, ChangePasswordInput{CurrentPassword: "admin123", NewPassword: "newpass1"})
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("too short", func(t *testing.T) {
		u := newAuthUsecase(&mockAdminUserRepo{}, &mockIssuer{})
		err := u.ChangePassword(ctx, 1, ChangePasswordInput{CurrentPassword: "admin123", NewPassword: "12345"})
		requireHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("wrong current", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByID", ctx, int64(1)).Return(adminUser(), nil)
		u := newAuthUsecase(users, &mockIssuer{})

		err := u.ChangePassword(ctx, 1, ChangePasswordInput{CurrentPassword: "bad", NewPassword: "newpass1"})
		requireHTTPStatus(t, err, http.StatusBadRequest)
		users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	users := &mockAdminUserRepo{}
	users.On("FindByID", ctx, int64(1)).Return(adminUser(), nil)
	users.On("FindByID", ctx, int64(2)).Return(nil, repo.ErrNotFound)
	u := newAuthUsecase(users, &mockIssuer{})

	p, err := u.Profile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.TokenVersion)

	_, err = u.Profile(ctx, 2)
	requireHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when missing", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByUsername", ctx, "admin").Return(nil, repo.ErrNotFound)
		users.On("Create", ctx, mock.MatchedBy(func(u *model.AdminUser) bool {
			return u.Username == "admin" && u.PasswordHash == "hash:admin123" && u.Role == model.RoleAdmin
		})).Return(nil)
		u := newAuthUsecase(users, &mockIssuer{})

		created, err := u.EnsureAdmin(ctx, "admin", "admin123")
		require.NoError(t, err)
		assert.True(t, created)
		users.AssertExpectations(t)
	})

	t.Run("keeps existing", func(t *testing.T) {
		users := &mockAdminUserRepo{}
		users.On("FindByUsername", ctx, "admin").Return(adminUser(), nil)
		u := newAuthUsecase(users, &mockIssuer{})

		created, err := u.EnsureAdmin(ctx, "admin", "other")
		require.NoError(t, err)
		assert.False(t, created)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
