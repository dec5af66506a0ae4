package memory

import (
	"context"
	"sort"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

type tableRepo struct {
	s *Store
}

func cloneTable(t model.Table) model.Table {
	t.Location = clonePtr(t.Location)
	t.CurrentOrderID = clonePtr(t.CurrentOrderID)
	return t
}

func (r *tableRepo) List(ctx context.Context, f repo.TableListFilter) ([]model.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]model.Table, 0, len(r.s.tables))
	for _, t := range r.s.tables {
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		list = append(list, cloneTable(t))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	return list, nil
}

func (r *tableRepo) FindByNumber(ctx context.Context, number int) (model.Table, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tables[number]
	if !ok {
		return model.Table{}, repo.ErrNotFound
	}
	return cloneTable(t), nil
}

// 行ロックはない。呼び出し側のテーブル単位ロックに任せる
func (r *tableRepo) FindByNumberForUpdate(ctx context.Context, number int) (model.Table, error) {
	return r.FindByNumber(ctx, number)
}

func (r *tableRepo) Create(ctx context.Context, table model.Table) (model.Table, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tables[table.Number]; ok {
		return model.Table{}, repo.ErrDuplicate
	}

	r.s.tableSeq++
	table.ID = r.s.tableSeq
	now := r.s.now()
	if table.CreatedAt.IsZero() {
		table.CreatedAt = now
	}
	if table.UpdatedAt.IsZero() {
		table.UpdatedAt = now
	}
	r.s.tables[table.Number] = cloneTable(table)
	return cloneTable(table), nil
}

func (r *tableRepo) Update(ctx context.Context, table model.Table) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var cur model.Table
	found := false
	for _, t := range r.s.tables {
		if t.ID == table.ID {
			cur, found = t, true
			break
		}
	}
	if !found {
		return repo.ErrNotFound
	}
	if table.Number != cur.Number {
		if _, taken := r.s.tables[table.Number]; taken {
			return repo.ErrDuplicate
		}
		delete(r.s.tables, cur.Number)
	}

	cur.Number = table.Number
	cur.Capacity = table.Capacity
	cur.Location = clonePtr(table.Location)
	cur.QRCode = table.QRCode
	cur.UpdatedAt = r.s.now()
	r.s.tables[cur.Number] = cur
	return nil
}

func (r *tableRepo) Occupy(ctx context.Context, number int, orderID string) error {
	return r.mutate(number, func(t *model.Table) {
		t.Status = model.TableStatusOccupied
		id := orderID
		t.CurrentOrderID = &id
	})
}

func (r *tableRepo) Free(ctx context.Context, number int) error {
	return r.mutate(number, func(t *model.Table) {
		t.Status = model.TableStatusFree
		t.CurrentOrderID = nil
	})
}

func (r *tableRepo) SetStatus(ctx context.Context, number int, status model.TableStatus) error {
	return r.mutate(number, func(t *model.Table) {
		t.Status = status
	})
}

func (r *tableRepo) mutate(number int, fn func(t *model.Table)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tables[number]
	if !ok {
		return repo.ErrNotFound
	}
	fn(&t)
	t.UpdatedAt = r.s.now()
	r.s.tables[number] = t
	return nil
}

func (r *tableRepo) Delete(ctx context.Context, number int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tables[number]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.tables, number)
	return nil
}

func (r *tableRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.tables)), nil
}
