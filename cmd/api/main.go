package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"qrmenu/internal/config"
	"qrmenu/internal/infra/auth"
	"qrmenu/internal/infra/db"
	"qrmenu/internal/infra/memory"
	"qrmenu/internal/infra/messaging"
	infraRepo "qrmenu/internal/infra/repository"
	"qrmenu/internal/logger"
	"qrmenu/internal/seed"
	"qrmenu/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New("qrmenu-api", !cfg.IsProduction())

	if err := run(cfg, log); err != nil {
		log.Error("service stopped with error", "action", "service_stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := storeDeps(ctx, cfg, log)
	if err != nil {
		return err
	}

	//注文イベント（RabbitMQが無ければ流さない）
	if cfg.RabbitMQURL != "" {
		pub, err := messaging.Dial(cfg.RabbitMQURL, log)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		defer pub.Close()
		deps.Events = pub
	} else {
		deps.Events = messaging.NopPublisher{}
	}

	app := server.Build(cfg, log, deps)

	//初期管理者
	created, err := app.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		log.Info("admin user created", "action", "admin_seeded", "username", cfg.AdminUsername)
	}

	return server.Run(ctx, app.Echo, cfg.Addr(), log)
}

// STOREに応じてrepositoryを組み立てる
func storeDeps(ctx context.Context, cfg config.Config, log *slog.Logger) (server.Deps, error) {
	clock := auth.RealClock{}
	ids := auth.UUIDGenerator{}

	if cfg.Store == config.StoreMemory {
		st := memory.NewStore()
		if _, err := seed.Run(ctx, st.Tables(), st.MenuItems(), clock.Now(), log); err != nil {
			return server.Deps{}, fmt.Errorf("seed: %w", err)
		}
		log.Warn("using in-memory store, data is lost on restart", "action", "store_selected", "store", cfg.Store)
		return server.Deps{
			Tx:         st,
			Orders:     st.Orders(),
			Tables:     st.Tables(),
			MenuItems:  st.MenuItems(),
			AdminUsers: st.AdminUsers(),
			AuditLogs:  st.AuditLogs(),
			Clock:      clock,
			IDs:        ids,
		}, nil
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return server.Deps{}, fmt.Errorf("db connect: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return server.Deps{}, fmt.Errorf("db migrate: %w", err)
	}
	log.Info("database ready", "action", "store_selected", "store", cfg.Store)

	return server.Deps{
		Tx:         infraRepo.NewTxManagerGorm(gormDB),
		Orders:     infraRepo.NewOrderGormRepository(gormDB),
		Tables:     infraRepo.NewTableGormRepository(gormDB),
		MenuItems:  infraRepo.NewMenuItemGormRepository(gormDB),
		AdminUsers: infraRepo.NewAdminUserGormRepository(gormDB),
		AuditLogs:  infraRepo.NewAuditLogGormRepository(gormDB),
		Clock:      clock,
		IDs:        ids,
	}, nil
}
