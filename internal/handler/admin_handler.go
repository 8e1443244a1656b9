package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var adminColumns = []column{
	{"_id", "ID"},
	{"firstName", "First Name"},
	{"lastName", "Last Name"},
	{"email", "Email"},
	{"role", "Role"},
	{"isActive", "Active"},
	{"lastLogin", "Last Login"},
	{"createdAt", "Created At"},
}

func (h *Handler) ListAdmins(c echo.Context) error {
	f := service.AdminFilter{
		Search:   c.QueryParam("search"),
		Role:     c.QueryParam("role"),
		IsActive: c.QueryParam("isActive"),
	}
	admins, pg, err := h.svc.Admins.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "admins", admins, pg, adminColumns)
}

func (h *Handler) CreateAdmin(c echo.Context) error {
	var in service.AdminInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	admin, err := h.svc.Admins.Create(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"admin": admin})
}

func (h *Handler) UpdateAdmin(c echo.Context) error {
	var in service.AdminUpdate
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	admin, err := h.svc.Admins.Update(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": admin})
}

// DeleteAdmin deactivates the admin named by ?adminId=
func (h *Handler) DeleteAdmin(c echo.Context) error {
	if err := h.svc.Admins.Deactivate(c.Request().Context(), actor(c), idParam(c, "adminId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
