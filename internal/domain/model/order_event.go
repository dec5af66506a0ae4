package model

import "time"

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "created"
	OrderEventStatusChanged OrderEventType = "status_changed"
	OrderEventDeleted       OrderEventType = "deleted"
)

// キッチン表示などへ流す注文イベント
type OrderEvent struct {
	Type           OrderEventType `json:"type"`
	OrderID        string         `json:"orderId"`
	OrderNumber    string         `json:"orderNumber"`
	TableNumber    int            `json:"tableNumber"`
	Status         OrderStatus    `json:"status"`
	PreviousStatus OrderStatus    `json:"previousStatus,omitempty"`
	TotalAmount    int64          `json:"totalAmount"`
	OccurredAt     time.Time      `json:"occurredAt"`
}

func NewOrderEvent(t OrderEventType, o Order, prev OrderStatus, at time.Time) OrderEvent {
	return OrderEvent{
		Type:           t,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		TableNumber:    o.TableNumber,
		Status:         o.Status,
		PreviousStatus: prev,
		TotalAmount:    o.TotalAmount,
		OccurredAt:     at,
	}
}
