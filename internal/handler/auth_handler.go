package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/internal/middleware"
	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		prometheus.RecordLogin("invalid_request")
		return badBody(c, err)
	}

	admin, token, err := h.svc.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		log.Warn("Login rejected", zap.String("email", req.Email))
		prometheus.RecordLogin("invalid_credentials")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	if err != nil {
		prometheus.RecordLogin("invalid_request")
		return fail(c, err)
	}

	c.SetCookie(h.sessionCookie(token, int(h.svc.Auth.TTL()/time.Second)))
	prometheus.RecordLogin("success")

	log.Info("Admin logged in", zap.Uint("admin_id", admin.ID), zap.String("role", admin.Role))
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "admin": admin})
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	prometheus.RecordLogout()
	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}

func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"admin": middleware.CurrentAdmin(c)})
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
