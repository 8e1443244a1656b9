package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Rashmi7205/admin-fam-tree/pkg/database"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// HealthCheck reports whether the database answers
func (h *Handler) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := database.Ping(ctx, h.db); err != nil {
		logger.FromContext(c).Error("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":  "unhealthy",
			"service": "familytree-admin",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "familytree-admin",
	})
}

// MetricsHandler serves the Prometheus scrape endpoint
func MetricsHandler(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
