package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanAdvanceTo(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusPreparing, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusPending, OrderStatusReady, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusReady, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusCompleted, false},
		{OrderStatus("cooking"), OrderStatusReady, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanAdvanceTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCompleted.Valid())
	assert.False(t, OrderStatus("").Valid())
	assert.False(t, OrderStatus("PENDING").Valid())
}

func TestCalcTotal(t *testing.T) {
	items := []OrderItem{
		{Name: "Tea", Quantity: 2, Price: 5000},
		{Name: "Gyudon", Quantity: 1, Price: 22000},
	}
	assert.Equal(t, int64(32000), CalcTotal(items))
	assert.Equal(t, int64(0), CalcTotal(nil))

	o := Order{Items: items}
	assert.Equal(t, int64(3), o.TotalItems())
}
