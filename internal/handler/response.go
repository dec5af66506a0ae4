package handler

import (
	"net/http"
	"strconv"

	"qrmenu/internal/middleware"
	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全APIで共通のレスポンス形
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Total   *int64 `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeData(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func writeList[T any](c echo.Context, items []T) error {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: items, Count: &n})
}

func writeMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

func writeFail(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{Success: false, Message: message})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return writeFail(c, he.Status, he.Message)
	}

	//500
	c.Logger().Error(err)
	return writeFail(c, http.StatusInternalServerError, "internal error")
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	v := c.Get(middleware.CtxUserIDKey)
	if v == nil {
		return 0, false
	}

	id, ok := v.(int64)
	if !ok {
		return 0, false
	}

	return id, true
}

// パスのテーブル番号（1以上）
func tableNumberParam(c echo.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func availableOnly(c echo.Context) bool {
	return c.QueryParam("available") == "true"
}
