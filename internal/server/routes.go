package server

import (
	"qrmenu/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Orders *handler.OrderHandler
	Tables *handler.TableHandler
	Menu   *handler.MenuHandler
	Auth   *handler.AuthHandler
	Audit  *handler.AuditLogHandler
	Health *handler.HealthHandler
}

// /api 以下にまとめて登録。adminOnlyは管理者ルートにだけ付く。
func RegisterRoutes(e *echo.Echo, h Handlers, adminOnly []echo.MiddlewareFunc, apiMiddleware ...echo.MiddlewareFunc) *echo.Group {
	api := e.Group("/api", apiMiddleware...)

	h.Health.RegisterRoutes(api)
	h.Auth.RegisterRoutes(api, adminOnly...)
	h.Orders.RegisterRoutes(api, adminOnly...)
	h.Tables.RegisterRoutes(api, adminOnly...)
	h.Menu.RegisterRoutes(api, adminOnly...)
	h.Audit.RegisterRoutes(api, adminOnly...)

	return api
}
