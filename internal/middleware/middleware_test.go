package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type tokenTable map[string]*model.Admin

func (t tokenTable) Authenticate(ctx context.Context, token string) (*model.Admin, error) {
	if a, ok := t[token]; ok {
		return a, nil
	}
	return nil, errors.New("unknown token")
}

func newEcho() *echo.Echo {
	authn := tokenTable{
		"root": {ID: 1, Email: "root@familytree.com", Role: model.RoleSuperAdmin},
		"ops":  {ID: 2, Email: "ops@familytree.com", Role: model.RoleAdmin},
	}
	e := echo.New()
	e.Use(RequestID)
	whoami := func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentAdmin(c).Email)
	}
	e.GET("/me", whoami, Auth(authn, "session"))
	e.GET("/root", whoami, Auth(authn, "session"), RequireRole(model.RoleSuperAdmin))
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	e := newEcho()

	tests := []struct {
		name   string
		path   string
		setup  func(*http.Request)
		status int
		body   string
	}{
		{"no token", "/me", func(*http.Request) {}, http.StatusUnauthorized, "Authentication required"},
		{"bad bearer", "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, "Invalid or expired token"},
		{"bearer", "/me", func(r *http.Request) { r.Header.Set("Authorization", "bearer ops") }, http.StatusOK, "ops@familytree.com"},
		{"cookie", "/me", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: "root"}) }, http.StatusOK, "root@familytree.com"},
		{"wrong role", "/root", func(r *http.Request) { r.Header.Set("Authorization", "Bearer ops") }, http.StatusForbidden, "Insufficient permissions"},
		{"right role", "/root", func(r *http.Request) { r.Header.Set("Authorization", "Bearer root") }, http.StatusOK, "root@familytree.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.setup(req)
			rec := serve(e, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestRequestID(t *testing.T) {
	e := newEcho()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	assert.Equal(t, "abc-123", serve(e, req).Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	generated := serve(e, req).Header().Get("X-Request-ID")
	require.Len(t, generated, 36)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	assert.Len(t, serve(e, req).Header().Get("X-Request-ID"), 36)
}
