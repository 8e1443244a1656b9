package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var auditColumns = []column{
	{"_id", "ID"},
	{"createdAt", "Time"},
	{"actorEmail", "Admin"},
	{"action", "Action"},
	{"entity", "Entity"},
	{"entityId", "Entity ID"},
	{"note", "Note"},
}

func (h *Handler) Dashboard(c echo.Context) error {
	stats, err := h.svc.Dashboard.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) Analytics(c echo.Context) error {
	a, err := h.svc.Dashboard.Analytics(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAudit(c echo.Context) error {
	f := service.AuditFilter{
		Entity: c.QueryParam("entity"),
		Action: c.QueryParam("action"),
		Actor:  c.QueryParam("actorId"),
	}
	events, pg, err := h.svc.Audit.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "events", events, pg, auditColumns)
}
