// Package handler exposes the services over HTTP with Echo.
package handler

import (
	"errors"
	"net/http"

	"github.com/Rashmi7205/admin-fam-tree/internal/integrity"
	"github.com/Rashmi7205/admin-fam-tree/internal/middleware"
	"github.com/Rashmi7205/admin-fam-tree/internal/query"
	"github.com/Rashmi7205/admin-fam-tree/internal/service"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CookieConfig describes the session cookie
type CookieConfig struct {
	Name   string
	Secure bool
}

type Handler struct {
	db     *gorm.DB
	svc    *service.Services
	cookie CookieConfig
}

func New(db *gorm.DB, svc *service.Services, cookie CookieConfig) *Handler {
	return &Handler{db: db, svc: svc, cookie: cookie}
}

// fail writes the response for a service error
func fail(c echo.Context, err error) error {
	var (
		validation *service.ValidationError
		duplicate  *service.DuplicateError
		violation  *integrity.Error
		missing    *service.NotFoundError
		dependency *service.DependencyError
		external   *service.ExternalError
	)

	switch {
	case errors.As(err, &validation):
		body := echo.Map{"error": validation.Message}
		if len(validation.Missing) > 0 {
			body["missing"] = validation.Missing
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &duplicate):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": duplicate.Message})
	case errors.As(err, &violation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": violation.Error(), "violations": violation.Violations})
	case errors.As(err, &missing):
		return c.JSON(http.StatusNotFound, echo.Map{"error": missing.Message})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
	case errors.As(err, &dependency):
		return c.JSON(http.StatusConflict, echo.Map{"error": dependency.Message, "dependencies": dependency.Dependencies})
	case errors.As(err, &external):
		logger.FromContext(c).Error(external.Message, zap.Error(external.Err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": external.Message})
	default:
		logger.FromContext(c).Error("Request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
	}
}

func badBody(c echo.Context, err error) error {
	logger.FromContext(c).Warn("Failed to parse request body", zap.Error(err))
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request body"})
}

// list writes one page of a resource as JSON, or as CSV with format=csv
func list(c echo.Context, resource string, items interface{}, pg query.Pagination, columns []column) error {
	if c.QueryParam("format") == "csv" {
		return writeCSV(c, resource, items, columns)
	}
	return c.JSON(http.StatusOK, echo.Map{resource: items, "pagination": pg})
}

func page(c echo.Context) query.Page {
	return query.ParsePage(c.QueryParam("page"), c.QueryParam("limit"))
}

func actor(c echo.Context) service.Actor {
	return service.ActorFrom(middleware.CurrentAdmin(c))
}

// idParam reads a numeric path parameter, falling back to the named query parameters
func idParam(c echo.Context, names ...string) uint {
	if id, ok := query.Uint(c.Param("id")); ok {
		return id
	}
	for _, n := range names {
		if id, ok := query.Uint(c.QueryParam(n)); ok {
			return id
		}
	}
	return 0
}
