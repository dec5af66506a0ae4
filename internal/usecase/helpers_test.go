package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"qrmenu/internal/domain/model"
	"qrmenu/internal/infra/memory"
	"qrmenu/internal/logger"

	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock { return &fixedClock{t: t} }

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("order-%04d", g.n)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []model.OrderEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.OrderEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type orderFixture struct {
	store  *memory.Store
	clock  *fixedClock
	events *recordingPublisher
	locker *TableLocker
	orders *OrderUsecase
	tables *TableUsecase
}

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

func newOrderFixture(t *testing.T, tableNumbers ...int) *orderFixture {
	t.Helper()

	store := memory.NewStore()
	clock := newFixedClock(baseTime)
	events := &recordingPublisher{}
	locker := NewTableLocker()
	log := logger.Nop()

	f := &orderFixture{
		store:  store,
		clock:  clock,
		events: events,
		locker: locker,
		orders: NewOrderUsecase(store, store.Orders(), locker, NewOrderNumberGenerator(clock), &seqIDs{}, clock, events, log),
		tables: NewTableUsecase(store, store.Tables(), store.Orders(), locker, clock, "http://localhost:3000", log),
	}
	for _, n := range tableNumbers {
		f.addTable(t, n)
	}
	return f
}

func (f *orderFixture) addTable(t *testing.T, number int) {
	t.Helper()
	_, err := f.store.Tables().Create(context.Background(), model.Table{
		Number:   number,
		Status:   model.TableStatusFree,
		Capacity: 4,
		QRCode:   model.NewQRCodeToken(number, baseTime),
	})
	require.NoError(t, err)
}

func (f *orderFixture) table(t *testing.T, number int) model.Table {
	t.Helper()
	tb, err := f.store.Tables().FindByNumber(context.Background(), number)
	require.NoError(t, err)
	return tb
}

func teaOrder(table int) CreateOrderInput {
	return CreateOrderInput{
		TableNumber: table,
		Items:       []OrderItemInput{{Name: "Tea", Quantity: 2, Price: 5000}},
	}
}

func requireHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	he, ok := AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, status, he.Status, he.Message)
}
