package model

import "time"

type MenuCategory string

const (
	MenuCategorySushi MenuCategory = "sushi"
	MenuCategoryRamen MenuCategory = "ramen"
	MenuCategoryMain  MenuCategory = "main"
	MenuCategoryDrink MenuCategory = "drink"
)

func (c MenuCategory) Valid() bool {
	switch c {
	case MenuCategorySushi, MenuCategoryRamen, MenuCategoryMain, MenuCategoryDrink:
		return true
	}
	return false
}

type MenuItem struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"type:varchar(100);not null" json:"name"`
	Description string       `gorm:"type:varchar(500);not null" json:"description"`
	Price       int64        `gorm:"not null" json:"price"`
	Image       *string      `gorm:"type:text" json:"image"`
	Category    MenuCategory `gorm:"type:varchar(20);not null;index:idx_menu_category_available,priority:1" json:"category"`
	IsAvailable bool         `gorm:"not null;index:idx_menu_category_available,priority:2" json:"isAvailable"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updatedAt"`
}
