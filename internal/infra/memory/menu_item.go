package memory

import (
	"context"
	"sort"
	"strings"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type menuItemRepo struct {
	s *Store
}

func cloneMenuItem(m model.MenuItem) model.MenuItem {
	m.Image = clonePtr(m.Image)
	return m
}

func (r *menuItemRepo) List(ctx context.Context, q repo.MenuItemListQuery) ([]model.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))

	list := make([]model.MenuItem, 0, len(r.s.menu))
	for _, m := range r.s.menu {
		if q.Category != nil && m.Category != *q.Category {
			continue
		}
		if q.AvailableOnly && !m.IsAvailable {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(m.Name), search) &&
			!strings.Contains(strings.ToLower(m.Description), search) {
			continue
		}
		list = append(list, cloneMenuItem(m))
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *menuItemRepo) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.menu[id]
	if !ok {
		return model.MenuItem{}, repo.ErrNotFound
	}
	return cloneMenuItem(m), nil
}

func (r *menuItemRepo) Create(ctx context.Context, item model.MenuItem) (model.MenuItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.menuSeq++
	item.ID = r.s.menuSeq
	now := r.s.now()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now
	}
	r.s.menu[item.ID] = cloneMenuItem(item)
	return cloneMenuItem(item), nil
}

func (r *menuItemRepo) Update(ctx context.Context, item model.MenuItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.menu[item.ID]
	if !ok {
		return repo.ErrNotFound
	}
	item.CreatedAt = cur.CreatedAt
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = r.s.now()
	}
	r.s.menu[item.ID] = cloneMenuItem(item)
	return nil
}

func (r *menuItemRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.menu[id]
	if !ok {
		return repo.ErrNotFound
	}
	m.IsAvailable = available
	m.UpdatedAt = r.s.now()
	r.s.menu[id] = m
	return nil
}

func (r *menuItemRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.menu[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.menu, id)
	return nil
}

func (r *menuItemRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.menu)), nil
}
