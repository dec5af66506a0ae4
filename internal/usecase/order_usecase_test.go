package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_OccupiesTable(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	out, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	assert.Equal(t, int64(10000), out.TotalAmount)
	assert.Equal(t, int64(2), out.TotalItems)
	assert.Equal(t, model.OrderStatusPending, out.Status)
	assert.True(t, strings.HasPrefix(out.OrderNumber, "ORD-20260310-"), out.OrderNumber)
	assert.Len(t, out.OrderNumber, len("ORD-20260310-0000"))

	tb := f.table(t, 5)
	assert.Equal(t, model.TableStatusOccupied, tb.Status)
	require.NotNil(t, tb.CurrentOrderID)
	assert.Equal(t, out.ID, *tb.CurrentOrderID)

	assert.Equal(t, []model.OrderEventType{model.OrderEventCreated}, f.events.types())
}

func TestCreateOrder_ItemsAreTrimmedAndNotesKept(t *testing.T) {
	f := newOrderFixture(t, 1)
	notes := "  no wasabi  "
	menuID := int64(3)

	out, err := f.orders.CreateOrder(context.Background(), CreateOrderInput{
		TableNumber: 1,
		Items: []OrderItemInput{
			{MenuItemID: &menuID, Name: " Salmon Sushi ", Quantity: 1, Price: 15000},
			{Name: "Green Tea", Quantity: 3, Price: 5000},
		},
		Notes: &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30000), out.TotalAmount)
	assert.Equal(t, "Salmon Sushi", out.Items[0].Name)
	require.NotNil(t, out.Items[0].MenuItemID)
	assert.Equal(t, int64(3), *out.Items[0].MenuItemID)
	require.NotNil(t, out.Notes)
	assert.Equal(t, "no wasabi", *out.Notes)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateOrderInput
	}{
		{"no table", CreateOrderInput{Items: []OrderItemInput{{Name: "Tea", Quantity: 1, Price: 1}}}},
		{"no items", CreateOrderInput{TableNumber: 5}},
		{"empty name", CreateOrderInput{TableNumber: 5, Items: []OrderItemInput{{Name: "  ", Quantity: 1, Price: 1}}}},
		{"zero quantity", CreateOrderInput{TableNumber: 5, Items: []OrderItemInput{{Name: "Tea", Quantity: 0, Price: 1}}}},
		{"zero price", CreateOrderInput{TableNumber: 5, Items: []OrderItemInput{{Name: "Tea", Quantity: 1, Price: 0}}}},
		{"notes too long", CreateOrderInput{TableNumber: 5, Items: []OrderItemInput{{Name: "Tea", Quantity: 1, Price: 1}}, Notes: ptr(strings.Repeat("a", 501))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, 5)

			_, err := f.orders.CreateOrder(context.Background(), tt.in)
			requireHTTPStatus(t, err, http.StatusBadRequest)

			tb := f.table(t, 5)
			assert.Equal(t, model.TableStatusFree, tb.Status)
			assert.Nil(t, tb.CurrentOrderID)
			assertNoOrders(t, f)
		})
	}
}

func TestCreateOrder_UnknownTable(t *testing.T) {
	f := newOrderFixture(t, 5)

	_, err := f.orders.CreateOrder(context.Background(), teaOrder(99))
	requireHTTPStatus(t, err, http.StatusNotFound)

	assertNoOrders(t, f)
	assert.Empty(t, f.events.types())
}

func TestCreateOrder_SecondOrderOverwritesCurrentOrder(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	first, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)
	second, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
	tb := f.table(t, 5)
	require.NotNil(t, tb.CurrentOrderID)
	assert.Equal(t, second.ID, *tb.CurrentOrderID)
}

func TestCreateOrder_RetriesTakenOrderNumber(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	seq := []int{7, 7, 8}
	f.orders.numbers.intn = func(int) int {
		n := seq[0]
		seq = seq[1:]
		return n
	}

	first, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)
	second, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	assert.Equal(t, "ORD-20260310-0007", first.OrderNumber)
	assert.Equal(t, "ORD-20260310-0008", second.OrderNumber)
}

func TestCreateOrder_OrderNumbersExhausted(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()
	f.orders.numbers.intn = func(int) int { return 1 }

	_, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	_, err = f.orders.CreateOrder(ctx, teaOrder(5))
	requireHTTPStatus(t, err, http.StatusInternalServerError)
}

func TestCreateOrder_ConcurrentSameTable(t *testing.T) {
	f := newOrderFixture(t, 3)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.orders.CreateOrder(ctx, teaOrder(3))
			if err != nil {
				errs <- err
				return
			}
			ids <- out.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("create order: %v", err)
	}

	created := map[string]bool{}
	for id := range ids {
		created[id] = true
	}
	assert.Len(t, created, n)

	list, total, err := f.store.Orders().List(ctx, repo.OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(n), total)
	numbers := map[string]bool{}
	for _, o := range list {
		numbers[o.OrderNumber] = true
	}
	assert.Len(t, numbers, n)

	tb := f.table(t, 3)
	assert.Equal(t, model.TableStatusOccupied, tb.Status)
	require.NotNil(t, tb.CurrentOrderID)
	assert.True(t, created[*tb.CurrentOrderID])
	assert.Zero(t, f.locker.size())
}

func TestUpdateStatus_FullLifecycleFreesTable(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	for _, st := range []model.OrderStatus{model.OrderStatusPreparing, model.OrderStatusReady} {
		f.clock.Advance(time.Minute)
		out, err := f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: string(st)})
		require.NoError(t, err)
		assert.Equal(t, st, out.Status)
		assert.Equal(t, f.clock.Now(), out.UpdatedAt)
		assert.Equal(t, model.TableStatusOccupied, f.table(t, 5).Status)
	}

	out, err := f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, out.Status)

	tb := f.table(t, 5)
	assert.Equal(t, model.TableStatusFree, tb.Status)
	assert.Nil(t, tb.CurrentOrderID)

	assert.Equal(t, []model.OrderEventType{
		model.OrderEventCreated,
		model.OrderEventStatusChanged,
		model.OrderEventStatusChanged,
		model.OrderEventStatusChanged,
	}, f.events.types())
	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, model.OrderStatusReady, last.PreviousStatus)
	assert.Equal(t, model.OrderStatusCompleted, last.Status)
}

func TestUpdateStatus_Rules(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: "ready"})
	requireHTTPStatus(t, err, http.StatusConflict)

	_, err = f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: "done"})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	_, err = f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: ""})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	_, err = f.orders.UpdateStatus(ctx, 0, "missing", UpdateOrderStatusInput{Status: "preparing"})
	requireHTTPStatus(t, err, http.StatusNotFound)

	//同じ状態は成功扱いで何も変えない
	out, err := f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, out.Status)
	assert.Equal(t, []model.OrderEventType{model.OrderEventCreated}, f.events.types())

	stored, err := f.store.Orders().FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, stored.Status)
}

func TestUpdateStatus_CompletedCannotGoBack(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)
	for _, st := range []string{"preparing", "ready", "completed"} {
		_, err := f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: st})
		require.NoError(t, err)
	}

	_, err = f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: "pending"})
	requireHTTPStatus(t, err, http.StatusConflict)
}

func TestUpdateStatus_WritesAuditLog(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	_, err = f.orders.UpdateStatus(ctx, 42, o.ID, UpdateOrderStatusInput{Status: "preparing"})
	require.NoError(t, err)

	logs, err := f.store.AuditLogs().List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int64(42), logs[0].ActorUserID)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, logs[0].Action)
	assert.Equal(t, o.ID, logs[0].ResourceID)
	assert.JSONEq(t, `{"status":"pending"}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"status":"preparing"}`, logs[0].AfterJSON)
}

func TestUpdateStatus_CompletedWithMissingTable(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)
	require.NoError(t, f.store.Tables().Delete(ctx, 5))

	for _, st := range []string{"preparing", "ready", "completed"} {
		_, err := f.orders.UpdateStatus(ctx, 0, o.ID, UpdateOrderStatusInput{Status: st})
		require.NoError(t, err)
	}
}

func TestDeleteOrder_FreesTable(t *testing.T) {
	f := newOrderFixture(t, 5)
	ctx := context.Background()

	o, err := f.orders.CreateOrder(ctx, teaOrder(5))
	require.NoError(t, err)

	require.NoError(t, f.orders.DeleteOrder(ctx, 7, o.ID))

	_, err = f.orders.GetOrder(ctx, o.ID)
	requireHTTPStatus(t, err, http.StatusNotFound)

	tb := f.table(t, 5)
	assert.Equal(t, model.TableStatusFree, tb.Status)
	assert.Nil(t, tb.CurrentOrderID)

	logs, err := f.store.AuditLogs().List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionDeleteOrder, logs[0].Action)

	assert.Equal(t, []model.OrderEventType{model.OrderEventCreated, model.OrderEventDeleted}, f.events.types())

	err = f.orders.DeleteOrder(ctx, 7, o.ID)
	requireHTTPStatus(t, err, http.StatusNotFound)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	f := newOrderFixture(t, 5)
	f.events.err = errors.New("broker down")

	out, err := f.orders.CreateOrder(context.Background(), teaOrder(5))
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
}

func TestListOrders(t *testing.T) {
	f := newOrderFixture(t, 1, 2)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		table := 1
		if i%2 == 1 {
			table = 2
		}
		o, err := f.orders.CreateOrder(ctx, teaOrder(table))
		require.NoError(t, err)
		ids = append(ids, o.ID)
		f.clock.Advance(time.Second)
	}
	_, err := f.orders.UpdateStatus(ctx, 0, ids[0], UpdateOrderStatusInput{Status: "preparing"})
	require.NoError(t, err)

	all, err := f.orders.ListOrders(ctx, ListOrdersInput{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
	require.Len(t, all.Items, 5)
	assert.Equal(t, ids[4], all.Items[0].ID)

	page2, err := f.orders.ListOrders(ctx, ListOrdersInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page2.Total)
	require.Len(t, page2.Items, 2)
	assert.Equal(t, ids[2], page2.Items[0].ID)

	table2 := 2
	byTable, err := f.orders.ListOrders(ctx, ListOrdersInput{Page: 1, Limit: 50, TableNumber: &table2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byTable.Total)

	preparing, err := f.orders.ListOrders(ctx, ListOrdersInput{Page: 1, Limit: 50, Status: "preparing"})
	require.NoError(t, err)
	require.Len(t, preparing.Items, 1)
	assert.Equal(t, ids[0], preparing.Items[0].ID)

	_, err = f.orders.ListOrders(ctx, ListOrdersInput{Page: 0, Limit: 50})
	requireHTTPStatus(t, err, http.StatusBadRequest)
	_, err = f.orders.ListOrders(ctx, ListOrdersInput{Page: 1, Limit: 101})
	requireHTTPStatus(t, err, http.StatusBadRequest)
	_, err = f.orders.ListOrders(ctx, ListOrdersInput{Page: 1, Limit: 10, Status: "cooking"})
	requireHTTPStatus(t, err, http.StatusBadRequest)
}

func TestListTodayActiveAndStats(t *testing.T) {
	f := newOrderFixture(t, 1)
	ctx := context.Background()

	//前日の注文
	f.clock.Advance(-24 * time.Hour)
	_, err := f.orders.CreateOrder(ctx, CreateOrderInput{TableNumber: 1, Items: []OrderItemInput{{Name: "Old", Quantity: 1, Price: 99999}}})
	require.NoError(t, err)
	f.clock.Advance(24 * time.Hour)

	a, err := f.orders.CreateOrder(ctx, CreateOrderInput{TableNumber: 1, Items: []OrderItemInput{{Name: "A", Quantity: 1, Price: 1000}}})
	require.NoError(t, err)
	_, err = f.orders.CreateOrder(ctx, CreateOrderInput{TableNumber: 1, Items: []OrderItemInput{{Name: "B", Quantity: 1, Price: 2001}}})
	require.NoError(t, err)

	for _, st := range []string{"preparing", "ready", "completed"} {
		_, err := f.orders.UpdateStatus(ctx, 0, a.ID, UpdateOrderStatusInput{Status: st})
		require.NoError(t, err)
	}

	today, err := f.orders.ListToday(ctx)
	require.NoError(t, err)
	assert.Len(t, today, 2)

	active, err := f.orders.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byTable, err := f.orders.ListByTable(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byTable, 3)

	st, err := f.orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, OrderStats{
		TodayOrders:       2,
		ActiveOrders:      2,
		TotalRevenue:      3001,
		AverageOrderValue: 1501,
	}, st)
}

func TestStats_Empty(t *testing.T) {
	f := newOrderFixture(t)

	st, err := f.orders.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OrderStats{}, st)
}

func assertNoOrders(t *testing.T, f *orderFixture) {
	t.Helper()
	_, total, err := f.store.Orders().List(context.Background(), repo.OrderListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func ptr[T any](v T) *T { return &v }
