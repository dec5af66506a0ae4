package memory

import (
	"context"
	"sort"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type orderRepo struct {
	s *Store
}

func cloneOrder(o model.Order) model.Order {
	if o.Items != nil {
		items := make([]model.OrderItem, len(o.Items))
		for i, it := range o.Items {
			it.MenuItemID = clonePtr(it.MenuItemID)
			items[i] = it
		}
		o.Items = items
	}
	o.Notes = clonePtr(o.Notes)
	return o
}

func (r *orderRepo) Create(ctx context.Context, order model.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[order.ID]; ok {
		return repo.ErrDuplicate
	}
	for _, o := range r.s.orders {
		if o.OrderNumber == order.OrderNumber {
			return repo.ErrDuplicate
		}
	}

	now := r.s.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, o := range r.s.orders {
		if o.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *orderRepo) List(ctx context.Context, f repo.OrderListFilter) ([]model.Order, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]model.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if !matchOrder(o, f) {
			continue
		}
		list = append(list, cloneOrder(o))
	}

	//新しい順
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})

	total := int64(len(list))
	if f.Limit > 0 {
		page := f.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * f.Limit
		if start >= len(list) {
			return []model.Order{}, total, nil
		}
		end := start + f.Limit
		if end > len(list) {
			end = len(list)
		}
		list = list[start:end]
	}
	return list, total, nil
}

func matchOrder(o model.Order, f repo.OrderListFilter) bool {
	if len(f.Statuses) > 0 {
		hit := false
		for _, s := range f.Statuses {
			if o.Status == s {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.TableNumber != nil && o.TableNumber != *f.TableNumber {
		return false
	}
	if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && !o.CreatedAt.Before(*f.CreatedTo) {
		return false
	}
	return true
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, updatedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	r.s.orders[orderID] = o
	return nil
}

func (r *orderRepo) Delete(ctx context.Context, orderID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orders[orderID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.orders, orderID)
	return nil
}
