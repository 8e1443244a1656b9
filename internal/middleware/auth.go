package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/Rashmi7205/admin-fam-tree/pkg/logger"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const adminKey = "admin"

// Authenticator resolves a session token to an active admin
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Admin, error)
}

// Auth requires a valid session, read from the cookie or a Bearer header.
// The admin is reloaded on every request so deactivation takes effect at once.
func Auth(authn Authenticator, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token := tokenFrom(c, cookieName)
			if token == "" {
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication required"})
			}

			admin, err := authn.Authenticate(c.Request().Context(), token)
			if err != nil {
				log.Warn("Rejected session token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			c.Set(adminKey, admin)
			logger.Attach(c, zap.Uint("admin_id", admin.ID))
			return next(c)
		}
	}
}

// RequireRole rejects admins whose role is not listed. It must run after Auth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			admin := CurrentAdmin(c)
			if admin != nil {
				for _, r := range roles {
					if admin.Role == r {
						return next(c)
					}
				}
			}
			prometheus.RecordAuthError("forbidden")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Insufficient permissions"})
		}
	}
}

// CurrentAdmin returns the admin stored by Auth, or nil
func CurrentAdmin(c echo.Context) *model.Admin {
	admin, _ := c.Get(adminKey).(*model.Admin)
	return admin
}

func tokenFrom(c echo.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
