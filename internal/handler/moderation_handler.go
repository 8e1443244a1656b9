package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var moderationColumns = []column{
	{"_id", "ID"},
	{"contentType", "Content Type"},
	{"contentId", "Content ID"},
	{"title", "Title"},
	{"reportReason", "Reason"},
	{"reportedBy", "Reported By"},
	{"status", "Status"},
	{"moderatorNotes", "Moderator Notes"},
	{"moderatedAt", "Moderated At"},
	{"createdAt", "Created At"},
}

func (h *Handler) ListModeration(c echo.Context) error {
	f := service.ModerationFilter{
		Search:       c.QueryParam("search"),
		Status:       c.QueryParam("status"),
		ContentType:  c.QueryParam("contentType"),
		ReportReason: c.QueryParam("reportReason"),
	}
	items, pg, err := h.svc.Moderation.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "items", items, pg, moderationColumns)
}

func (h *Handler) GetModerationItem(c echo.Context) error {
	item, err := h.svc.Moderation.Get(c.Request().Context(), idParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

func (h *Handler) ReportContent(c echo.Context) error {
	var in service.ReportInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	item, err := h.svc.Moderation.Report(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": item})
}

func (h *Handler) ModerateContent(c echo.Context) error {
	var in service.ModerationDecision
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	item, err := h.svc.Moderation.Decide(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

func (h *Handler) DeleteModerationItem(c echo.Context) error {
	if err := h.svc.Moderation.Delete(c.Request().Context(), actor(c), idParam(c, "id")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
