package middleware

import (
	"net/http"

	"qrmenu/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AuthJWTの後ろに置く。role無しは401、admin以外は403。
func AdminRoleGuard() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			switch model.Role(role) {
			case "":
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			case model.RoleAdmin:
				return next(c)
			default:
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
		}
	}
}
