package server

import (
	"log/slog"
	"time"

	"qrmenu/internal/config"
	"qrmenu/internal/handler"
	"qrmenu/internal/infra/auth"
	"qrmenu/internal/middleware"
	repo "qrmenu/internal/repository"
	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// ストア実装（postgres or memory）ごとに差し替える部品
type Deps struct {
	Tx         repo.TransactionManager
	Orders     repo.OrderRepository
	Tables     repo.TableRepository
	MenuItems  repo.MenuItemRepository
	AdminUsers repo.AdminUserRepository
	AuditLogs  repo.AuditLogRepository
	Events     usecase.OrderEventPublisher
	Clock      usecase.Clock
	IDs        usecase.IDGenerator

	//0ならbcrypt.DefaultCost
	BcryptCost int
}

type App struct {
	Echo   *echo.Echo
	Orders *usecase.OrderUsecase
	Tables *usecase.TableUsecase
	Menu   *usecase.MenuUsecase
	Auth   *usecase.AuthUsecase
	Audit  *usecase.AuditLogUsecase
}

// Build はusecase・handler・ルートを組み立てる
func Build(cfg config.Config, log *slog.Logger, d Deps) *App {
	if d.Clock == nil {
		d.Clock = auth.RealClock{}
	}
	if d.IDs == nil {
		d.IDs = auth.UUIDGenerator{}
	}
	cost := d.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	//テーブル単位のロックは注文とテーブルで共有
	locker := usecase.NewTableLocker()
	password := auth.NewBcryptPassword(cost)
	issuer := auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)

	orderUC := usecase.NewOrderUsecase(d.Tx, d.Orders, locker, usecase.NewOrderNumberGenerator(d.Clock), d.IDs, d.Clock, d.Events, log)
	tableUC := usecase.NewTableUsecase(d.Tx, d.Tables, d.Orders, locker, d.Clock, cfg.FrontendURL, log)
	menuUC := usecase.NewMenuUsecase(d.MenuItems, d.Clock, log)
	authUC := usecase.NewAuthUsecase(d.AdminUsers, password, password, issuer, d.Clock, log)
	auditUC := usecase.NewAuditLogUsecase(d.AuditLogs)

	e := New(cfg, log)
	RegisterRoutes(e, Handlers{
		Orders: handler.NewOrderHandler(orderUC),
		Tables: handler.NewTableHandler(tableUC),
		Menu:   handler.NewMenuHandler(menuUC),
		Auth:   handler.NewAuthHandler(authUC),
		Audit:  handler.NewAuditLogHandler(auditUC),
		Health: handler.NewHealthHandler(time.Now()),
	}, middleware.AdminOnly(cfg, d.AdminUsers), RateLimiter(cfg.RateLimitPerMinute))

	return &App{
		Echo:   e,
		Orders: orderUC,
		Tables: tableUC,
		Menu:   menuUC,
		Auth:   authUC,
		Audit:  auditUC,
	}
}
