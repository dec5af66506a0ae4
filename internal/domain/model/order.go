package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
)

// 進む順番（戻り・飛ばしは不可）
var orderStatusFlow = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusCompleted,
}

// 未完了の状態
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusReady,
}

func (s OrderStatus) Valid() bool {
	return s.step() >= 0
}

func (s OrderStatus) step() int {
	for i, v := range orderStatusFlow {
		if v == s {
			return i
		}
	}
	return -1
}

// Next は次に進める状態を返す。completedなら false。
func (s OrderStatus) Next() (OrderStatus, bool) {
	i := s.step()
	if i < 0 || i+1 >= len(orderStatusFlow) {
		return "", false
	}
	return orderStatusFlow[i+1], true
}

// CanAdvanceTo は1段階だけ前に進む遷移か
func (s OrderStatus) CanAdvanceTo(to OrderStatus) bool {
	next, ok := s.Next()
	return ok && next == to
}

// 注文明細。注文に埋め込まれ、単独では扱わない。
type OrderItem struct {
	MenuItemID *int64 `json:"menuItemId,omitempty"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	Price      int64  `json:"price"`
}

type Order struct {
	ID          string      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string      `gorm:"type:varchar(32);not null;uniqueIndex" json:"orderNumber"`
	TableNumber int         `gorm:"not null;index:idx_orders_table_created,priority:1" json:"tableNumber"`
	Items       []OrderItem `gorm:"type:jsonb;serializer:json;not null" json:"items"`
	TotalAmount int64       `gorm:"not null" json:"totalAmount"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Notes       *string     `gorm:"type:varchar(500)" json:"notes"`
	CreatedAt   time.Time   `gorm:"not null;index:idx_orders_table_created,priority:2" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"not null" json:"updatedAt"`
}

// 合計金額 = Σ(数量×単価)
func CalcTotal(items []OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Quantity * it.Price
	}
	return total
}

func (o Order) TotalItems() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
