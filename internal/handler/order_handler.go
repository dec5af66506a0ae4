package handler

import (
	"net/http"
	"strconv"

	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

type OrderCreateRequest struct {
	TableNumber int                      `json:"tableNumber"`
	Items       []usecase.OrderItemInput `json:"items"`
	Notes       *string                  `json:"notes"`
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

// 注文の作成と1件取得は客（QR）から、それ以外は管理者のみ
func (h *OrderHandler) RegisterRoutes(api *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	api.POST("/orders", h.create)
	api.GET("/orders/:id", h.detail)

	api.GET("/orders", h.list, adminOnly...)
	api.GET("/orders/today", h.today, adminOnly...)
	api.GET("/orders/active", h.active, adminOnly...)
	api.GET("/orders/stats/summary", h.stats, adminOnly...)
	api.GET("/orders/table/:tableNumber", h.byTable, adminOnly...)
	api.PATCH("/orders/:id/status", h.updateStatus, adminOnly...)
	api.DELETE("/orders/:id", h.delete, adminOnly...)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		TableNumber: req.TableNumber,
		Items:       req.Items,
		Notes:       req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusCreated, out, "order created")
}

func (h *OrderHandler) detail(c echo.Context) error {
	out, err := h.uc.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "")
}

func (h *OrderHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return writeFail(c, http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return writeFail(c, http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}

	var table *int
	if v := c.QueryParam("table"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return writeFail(c, http.StatusBadRequest, "invalid table")
		}
		table = &n
	}

	out, err := h.uc.ListOrders(c.Request().Context(), usecase.ListOrdersInput{
		Status:      c.QueryParam("status"),
		TableNumber: table,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return writeError(c, err)
	}

	n := len(out.Items)
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: out.Items, Count: &n, Total: &out.Total})
}

func (h *OrderHandler) today(c echo.Context) error {
	out, err := h.uc.ListToday(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *OrderHandler) active(c echo.Context) error {
	out, err := h.uc.ListActive(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *OrderHandler) byTable(c echo.Context) error {
	n, ok := tableNumberParam(c, "tableNumber")
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid table number")
	}
	out, err := h.uc.ListByTable(c.Request().Context(), n)
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *OrderHandler) stats(c echo.Context) error {
	out, err := h.uc.Stats(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "")
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	//操作した管理者ID（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return writeFail(c, http.StatusUnauthorized, "unauthorized")
	}

	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		c.Param("id"),
		usecase.UpdateOrderStatusInput{Status: req.Status},
	)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "order status updated")
}

func (h *OrderHandler) delete(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return writeFail(c, http.StatusUnauthorized, "unauthorized")
	}

	if err := h.uc.DeleteOrder(c.Request().Context(), adminID, c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return writeMessage(c, "order deleted")
}
