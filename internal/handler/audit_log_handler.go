package handler

import (
	"net/http"
	"strconv"

	"qrmenu/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(api *echo.Group, adminOnly ...echo.MiddlewareFunc) {
	api.GET("/audit-logs", h.list, adminOnly...)
}

// GET /api/audit-logs?action=&resourceType=&resourceId=&actor=&from=&to=&limit=&offset=
func (h *AuditLogHandler) list(c echo.Context) error {
	in := usecase.AuditLogListInput{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resourceType"),
		ResourceID:   c.QueryParam("resourceId"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
	}

	if v := c.QueryParam("actor"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return writeFail(c, http.StatusBadRequest, "invalid actor")
		}
		in.ActorUserID = &id
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return writeFail(c, http.StatusBadRequest, "invalid limit")
		}
		in.Limit = n
	}
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return writeFail(c, http.StatusBadRequest, "invalid offset")
		}
		in.Offset = n
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return writeList(c, out)
}
