package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"qrmenu/internal/config"
	"qrmenu/internal/infra/db"
	infraRepo "qrmenu/internal/infra/repository"
	"qrmenu/internal/logger"
	"qrmenu/internal/seed"

	"github.com/joho/godotenv"
)

// DBにテーブルとメニューを入れる（空のときだけ）
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New("qrmenu-seed", !cfg.IsProduction())

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Error("db connect failed", "action", "seed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Error("db migrate failed", "action", "seed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := seed.Run(ctx, infraRepo.NewTableGormRepository(gormDB), infraRepo.NewMenuItemGormRepository(gormDB), time.Now(), log)
	if err != nil {
		log.Error("seed failed", "action", "seed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("seeded %d tables, %d menu items\n", res.Tables, res.MenuItems)
}
