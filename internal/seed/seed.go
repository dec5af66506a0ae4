// Package seed は初期データ（テーブルとメニュー）を入れる。
// 既にデータがあるコレクションには触らない。
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"qrmenu/internal/domain/model"
	repo "qrmenu/internal/repository"
)

const DefaultTableCount = 10

type Result struct {
	Tables    int
	MenuItems int
}

func Run(ctx context.Context, tables repo.TableRepository, menu repo.MenuItemRepository, now time.Time, log *slog.Logger) (Result, error) {
	var res Result

	n, err := tables.Count(ctx)
	if err != nil {
		return res, err
	}
	if n == 0 {
		for i := 1; i <= DefaultTableCount; i++ {
			if _, err := tables.Create(ctx, defaultTable(i, now)); err != nil {
				return res, fmt.Errorf("seed table %d: %w", i, err)
			}
			res.Tables++
		}
	}

	n, err = menu.Count(ctx)
	if err != nil {
		return res, err
	}
	if n == 0 {
		for _, item := range starterMenu {
			item.IsAvailable = true
			item.CreatedAt = now
			item.UpdatedAt = now
			if _, err := menu.Create(ctx, item); err != nil {
				return res, fmt.Errorf("seed menu %q: %w", item.Name, err)
			}
			res.MenuItems++
		}
	}

	log.Info("seed finished", "action", "seed", "tables", res.Tables, "menu_items", res.MenuItems)
	return res, nil
}

func defaultTable(number int, now time.Time) model.Table {
	loc := fmt.Sprintf("Floor 1 - Table %d", number)
	return model.Table{
		Number:    number,
		Status:    model.TableStatusFree,
		Capacity:  4,
		Location:  &loc,
		QRCode:    model.NewQRCodeToken(number, now),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var starterMenu = []model.MenuItem{
	{Name: "Salmon Sushi", Description: "Fresh salmon, rice, nori", Price: 15000, Category: model.MenuCategorySushi},
	{Name: "Tuna Sushi", Description: "Fresh tuna, rice, nori", Price: 18000, Category: model.MenuCategorySushi},
	{Name: "California Roll", Description: "Avocado, cucumber, crab, rice", Price: 12000, Category: model.MenuCategorySushi},
	{Name: "Tonkotsu Ramen", Description: "Pork broth, noodles, egg", Price: 25000, Category: model.MenuCategoryRamen},
	{Name: "Miso Ramen", Description: "Miso broth, noodles, vegetables", Price: 22000, Category: model.MenuCategoryRamen},
	{Name: "Shoyu Ramen", Description: "Soy sauce broth, noodles, pork", Price: 23000, Category: model.MenuCategoryRamen},
	{Name: "Teriyaki Tamago", Description: "Teriyaki egg, rice, vegetables", Price: 18000, Category: model.MenuCategoryMain},
	{Name: "Karaage Don", Description: "Fried chicken, rice, vegetables", Price: 20000, Category: model.MenuCategoryMain},
	{Name: "Gyudon", Description: "Beef, rice, onion", Price: 22000, Category: model.MenuCategoryMain},
	{Name: "Green Tea", Description: "Japanese green tea", Price: 5000, Category: model.MenuCategoryDrink},
	{Name: "Matcha Latte", Description: "Matcha, milk, sugar", Price: 8000, Category: model.MenuCategoryDrink},
	{Name: "Sakura Soda", Description: "Sakura flavored soda", Price: 6000, Category: model.MenuCategoryDrink},
}
