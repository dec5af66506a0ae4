package handler

import (
	"net/http"

	"qrmenu/internal/domain/model"
	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
)

type TableHandler struct {
	uc *usecase.TableUsecase
}

func NewTableHandler(uc *usecase.TableUsecase) *TableHandler {
	return &TableHandler{uc: uc}
}

type TableCreateRequest struct {
	Number   int     `json:"number"`
	Capacity int     `json:"capacity"`
	Location *string `json:"location"`
}

type TableUpdateRequest struct {
	Number   *int    `json:"number"`
	Capacity *int    `json:"capacity"`
	Location *string `json:"location"`
}

type TableStatusUpdateRequest struct {
	Status string `json:"status"`
}

// 参照は公開、変更は管理者のみ。テーブルは番号で指定する。
func (h *TableHandler) RegisterRoutes(api *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	api.GET("/tables", h.list)
	api.GET("/tables/:number", h.detail)
	api.GET("/tables/:number/orders", h.orders)

	api.POST("/tables", h.create, adminOnly...)
	api.PUT("/tables/:number", h.update, adminOnly...)
	api.DELETE("/tables/:number", h.delete, adminOnly...)
	api.PATCH("/tables/:number/status", h.updateStatus, adminOnly...)
	api.POST("/tables/:number/free", h.setStatus(model.TableStatusFree), adminOnly...)
	api.POST("/tables/:number/occupy", h.setStatus(model.TableStatusOccupied), adminOnly...)
	api.POST("/tables/:number/reserve", h.setStatus(model.TableStatusReserved), adminOnly...)
	api.PATCH("/tables/:number/qr-code", h.regenerateQRCode, adminOnly...)
}

func (h *TableHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *TableHandler) detail(c echo.Context) error {
	n, ok := tableNumberParam(c, "number")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}
	out, err := h.uc.Get(c.Request().Context(), n)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "")
}

func (h *TableHandler) orders(c echo.Context) error {
	n, ok := tableNumberParam(c, "number")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}
	out, err := h.uc.Orders(c.Request().Context(), n)
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *TableHandler) create(c echo.Context) error {
	var req TableCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateTableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusCreated, out, "table created")
}

func (h *TableHandler) update(c echo.Context) error {
	n, ok := tableNumberParam(c, "number")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}

	var req TableUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Update(c.Request().Context(), n, usecase.UpdateTableInput{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "table updated")
}

func (h *TableHandler) delete(c echo.Context) error {
	n, ok := tableNumberParam(c, "number")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}
	if err := h.uc.Delete(c.Request().Context(), n); err != nil {
		return writeError(c, err)
	}
	return writeMessage(c, "table deleted")
}

func (h *TableHandler) updateStatus(c echo.Context) error {
	var req TableStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}
	return h.applyStatus(c, req.Status)
}

func (h *TableHandler) setStatus(st model.TableStatus) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.applyStatus(c, string(st))
	}
}

func (h *TableHandler) applyStatus(c echo.Context, status string) error {
	n, ok := tableNumberParam(c, "number")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return writeFail(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.uc.SetStatus(c.Request().Context(), adminID, n, status)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "table status updated")
}

func (h *TableHandler) regenerateQRCode(c echo.Context) error {
	n, ok := tableNumberParam(c, "number")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}
	out, err := h.uc.RegenerateQRCode(c.Request().Context(), n)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "qr code regenerated")
}
