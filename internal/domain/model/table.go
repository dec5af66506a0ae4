package model

import (
	"fmt"
	"time"
)

type TableStatus string

const (
	TableStatusFree     TableStatus = "free"
	TableStatusOccupied TableStatus = "occupied"
	TableStatusReserved TableStatus = "reserved"
)

func (s TableStatus) Valid() bool {
	switch s {
	case TableStatusFree, TableStatusOccupied, TableStatusReserved:
		return true
	}
	return false
}

const (
	TableCapacityMin = 1
	TableCapacityMax = 20
)

// 物理的なテーブル。Numberが識別キーで、IDは保存用。
type Table struct {
	ID       int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Number   int         `gorm:"not null;uniqueIndex" json:"number"`
	Status   TableStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Capacity int         `gorm:"not null" json:"capacity"`
	Location *string     `gorm:"type:varchar(100)" json:"location"`
	QRCode   string      `gorm:"type:varchar(64);not null" json:"qrCode"`

	//進行中の注文（参照のみ）
	CurrentOrderID *string `gorm:"type:uuid;index" json:"currentOrder"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// QRに埋め込むトークン
func NewQRCodeToken(number int, now time.Time) string {
	return fmt.Sprintf("table-%d-%d", number, now.UnixMilli())
}
