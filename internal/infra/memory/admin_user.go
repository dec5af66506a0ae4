package memory

import (
	"context"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type adminUserRepo struct {
	s *Store
}

func (r *adminUserRepo) Create(ctx context.Context, user *model.AdminUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.admins {
		if u.Username == user.Username {
			return repo.ErrDuplicate
		}
	}

	r.s.adminSeq++
	user.ID = r.s.adminSeq
	now := r.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	u := *user
	u.LastLoginAt = clonePtr(user.LastLoginAt)
	r.s.admins[u.ID] = u
	return nil
}

func (r *adminUserRepo) FindByID(ctx context.Context, userID int64) (*model.AdminUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.admins[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	u.LastLoginAt = clonePtr(u.LastLoginAt)
	return &u, nil
}

func (r *adminUserRepo) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.admins {
		if u.Username == username {
			u.LastLoginAt = clonePtr(u.LastLoginAt)
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *adminUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.admins[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.TokenVersion++
	u.UpdatedAt = r.s.now()
	r.s.admins[userID] = u
	return nil
}

func (r *adminUserRepo) TouchLastLogin(ctx context.Context, userID int64, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.admins[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.LastLoginAt = &at
	r.s.admins[userID] = u
	return nil
}
