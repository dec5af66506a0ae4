package middleware

import (
	"net/http"

	"qrmenu/internal/repository"

	"github.com/labstack/echo/v4"
)

// パスワード変更でtoken_versionが上がると、それ以前のトークンは通さない
func TokenVersionGuard(users repository.AdminUserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, tv, ok := tokenSubject(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//削除済みの管理者も401
			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil || user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

// AuthJWTがcontextに入れた sub と tv
func tokenSubject(c echo.Context) (int64, int, bool) {
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return 0, 0, false
	}
	tv, ok := c.Get(CtxTokenVersionKey).(int)
	if !ok || tv < 0 {
		return 0, 0, false
	}
	return userID, tv, true
}
