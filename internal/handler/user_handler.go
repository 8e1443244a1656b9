package handler

import (
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/labstack/echo/v4"
)

var userColumns = []column{
	{"_id", "ID"},
	{"displayName", "Display Name"},
	{"email", "Email"},
	{"provider", "Provider"},
	{"role", "Role"},
	{"emailVerified", "Email Verified"},
	{"onboardingComplete", "Onboarding Complete"},
	{"isActive", "Active"},
	{"phoneNumber", "Phone"},
	{"profile", "Profile"},
	{"address", "Address"},
	{"createdAt", "Created At"},
}

func (h *Handler) ListUsers(c echo.Context) error {
	f := service.UserFilter{
		Search:             c.QueryParam("search"),
		Provider:           c.QueryParam("provider"),
		EmailVerified:      c.QueryParam("emailVerified"),
		OnboardingComplete: c.QueryParam("onboardingComplete"),
		Role:               c.QueryParam("role"),
		IsActive:           c.QueryParam("isActive"),
	}
	users, pg, err := h.svc.Users.List(c.Request().Context(), f, page(c))
	if err != nil {
		return fail(c, err)
	}
	return list(c, "users", users, pg, userColumns)
}

func (h *Handler) GetUser(c echo.Context) error {
	user, err := h.svc.Users.Get(c.Request().Context(), idParam(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var in service.UserInput
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	user, err := h.svc.Users.Create(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": user})
}

func (h *Handler) UpdateUser(c echo.Context) error {
	var in service.UserUpdate
	if err := c.Bind(&in); err != nil {
		return badBody(c, err)
	}
	user, err := h.svc.Users.Update(c.Request().Context(), actor(c), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.svc.Users.Delete(c.Request().Context(), actor(c), idParam(c, "userId")); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
