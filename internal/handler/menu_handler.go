package handler

import (
	"net/http"
	"strconv"

	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
)

type MenuHandler struct {
	uc *usecase.MenuUsecase
}

func NewMenuHandler(uc *usecase.MenuUsecase) *MenuHandler {
	return &MenuHandler{uc: uc}
}

type MenuItemCreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       *int64  `json:"price"`
	Image       *string `json:"image"`
	Category    string  `json:"category"`
	IsAvailable *bool   `json:"isAvailable"`
}

type MenuItemUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Image       *string `json:"image"`
	Category    *string `json:"category"`
	IsAvailable *bool   `json:"isAvailable"`
}

type MenuItemStatusRequest struct {
	IsAvailable *bool `json:"isAvailable"`
}

func (h *MenuHandler) RegisterRoutes(api *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	api.GET("/menu", h.list)
	api.GET("/menu/:id", h.detail)
	api.GET("/menu/category/:category", h.byCategory)
	api.GET("/menu/search/:query", h.search)

	api.POST("/menu", h.create, adminOnly...)
	api.PUT("/menu/:id", h.update, adminOnly...)
	api.DELETE("/menu/:id", h.delete, adminOnly...)
	api.PATCH("/menu/:id/status", h.updateStatus, adminOnly...)
}

func menuIDParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *MenuHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), usecase.MenuListInput{
		Category:      c.QueryParam("category"),
		AvailableOnly: availableOnly(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *MenuHandler) detail(c echo.Context) error {
	id, ok := menuIDParam(c)
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid id")
	}
	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "")
}

func (h *MenuHandler) byCategory(c echo.Context) error {
	out, err := h.uc.ByCategory(c.Request().Context(), c.Param("category"), availableOnly(c))
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *MenuHandler) search(c echo.Context) error {
	out, err := h.uc.Search(c.Request().Context(), c.Param("query"), availableOnly(c))
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}

func (h *MenuHandler) create(c echo.Context) error {
	var req MenuItemCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Create(c.Request().Context(), usecase.CreateMenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusCreated, out, "menu item created")
}

func (h *MenuHandler) update(c echo.Context) error {
	id, ok := menuIDParam(c)
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid id")
	}

	var req MenuItemUpdateRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.Update(c.Request().Context(), id, usecase.UpdateMenuItemInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "menu item updated")
}

func (h *MenuHandler) delete(c echo.Context) error {
	id, ok := menuIDParam(c)
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid id")
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return writeMessage(c, "menu item deleted")
}

func (h *MenuHandler) updateStatus(c echo.Context) error {
	id, ok := menuIDParam(c)
	if !ok {
		return writeFail(c, http.StatusBadRequest, "invalid id")
	}

	var req MenuItemStatusRequest
	if err := c.Bind(&req); err != nil {
		return writeFail(c, http.StatusBadRequest, "invalid body")
	}

	out, err := h.uc.SetAvailability(c.Request().Context(), id, req.IsAvailable)
	if err != nil {
		return writeError(c, err)
	}
	return writeData(c, http.StatusOK, out, "menu item status updated")
}
