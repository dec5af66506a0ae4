package memory

import (
	"context"
	"testing"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrders_CopiesOnReadAndWrite(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	items := []model.OrderItem{{Name: "Tea", Quantity: 1, Price: 5000}}
	require.NoError(t, s.Orders().Create(ctx, model.Order{ID: "a", OrderNumber: "ORD-1", TableNumber: 1, Items: items, Status: model.OrderStatusPending}))

	items[0].Name = "changed"
	got, err := s.Orders().FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Tea", got.Items[0].Name)
	assert.False(t, got.CreatedAt.IsZero())

	got.Items[0].Quantity = 99
	again, err := s.Orders().FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.Items[0].Quantity)
}

func TestOrders_UniqueAndMissing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Orders().Create(ctx, model.Order{ID: "a", OrderNumber: "ORD-1"}))
	assert.ErrorIs(t, s.Orders().Create(ctx, model.Order{ID: "b", OrderNumber: "ORD-1"}), repo.ErrDuplicate)

	ok, err := s.Orders().ExistsByOrderNumber(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Orders().FindByID(ctx, "zzz")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, s.Orders().UpdateStatus(ctx, "zzz", model.OrderStatusReady, time.Now()), repo.ErrNotFound)
	assert.ErrorIs(t, s.Orders().Delete(ctx, "zzz"), repo.ErrNotFound)
}

func TestOrders_ListFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	for i, st := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusReady, model.OrderStatusCompleted} {
		require.NoError(t, s.Orders().Create(ctx, model.Order{
			ID:          string(rune('a' + i)),
			OrderNumber: "ORD-" + string(rune('a'+i)),
			TableNumber: i + 1,
			Status:      st,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, total, err := s.Orders().List(ctx, repo.OrderListFilter{Statuses: model.ActiveOrderStatuses})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "b", list[0].ID)

	from := base.Add(time.Hour)
	to := base.Add(2 * time.Hour)
	list, _, err = s.Orders().List(ctx, repo.OrderListFilter{CreatedFrom: &from, CreatedTo: &to})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)

	list, total, err = s.Orders().List(ctx, repo.OrderListFilter{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, list)
}

func TestTables_Lifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	tables := s.Tables()

	created, err := tables.Create(ctx, model.Table{Number: 5, Status: model.TableStatusFree, Capacity: 4})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	_, err = tables.Create(ctx, model.Table{Number: 5})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	require.NoError(t, tables.Occupy(ctx, 5, "order-1"))
	got, err := tables.FindByNumber(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, model.TableStatusOccupied, got.Status)
	assert.Equal(t, "order-1", *got.CurrentOrderID)

	require.NoError(t, tables.SetStatus(ctx, 5, model.TableStatusReserved))
	got, _ = tables.FindByNumber(ctx, 5)
	assert.Equal(t, model.TableStatusReserved, got.Status)
	assert.NotNil(t, got.CurrentOrderID)

	require.NoError(t, tables.Free(ctx, 5))
	got, _ = tables.FindByNumber(ctx, 5)
	assert.Equal(t, model.TableStatusFree, got.Status)
	assert.Nil(t, got.CurrentOrderID)

	//存在しない番号は作らない
	assert.ErrorIs(t, tables.Occupy(ctx, 9, "x"), repo.ErrNotFound)
	n, err := tables.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTables_UpdateRenumber(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	a, err := s.Tables().Create(ctx, model.Table{Number: 1})
	require.NoError(t, err)
	_, err = s.Tables().Create(ctx, model.Table{Number: 2})
	require.NoError(t, err)

	a.Number = 2
	assert.ErrorIs(t, s.Tables().Update(ctx, a), repo.ErrDuplicate)

	a.Number = 3
	require.NoError(t, s.Tables().Update(ctx, a))
	_, err = s.Tables().FindByNumber(ctx, 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	got, err := s.Tables().FindByNumber(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
}

func TestAdminUsers(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	u := &model.AdminUser{Username: "admin", PasswordHash: "h", Role: model.RoleAdmin}
	require.NoError(t, s.AdminUsers().Create(ctx, u))
	assert.NotZero(t, u.ID)
	assert.ErrorIs(t, s.AdminUsers().Create(ctx, &model.AdminUser{Username: "admin"}), repo.ErrDuplicate)

	require.NoError(t, s.AdminUsers().UpdatePassword(ctx, u.ID, "h2"))
	got, err := s.AdminUsers().FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.Equal(t, 1, got.TokenVersion)

	_, err = s.AdminUsers().FindByID(ctx, 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestWithinTx_UsesStore(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Tables().Create(ctx, model.Table{Number: 1})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Tables().Occupy(ctx, 1, "o")
	})
	require.NoError(t, err)
	got, _ := s.Tables().FindByNumber(ctx, 1)
	assert.Equal(t, model.TableStatusOccupied, got.Status)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, s.WithinTx(cctx, func(repo.TxRepos) error { return nil }), context.Canceled)
}
