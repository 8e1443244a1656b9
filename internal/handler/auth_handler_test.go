package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/labstack/echo/v4"
	client "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSetsSessionCookie(t *testing.T) {
	s := newServer(t)

	rec := s.doAs("", http.MethodPost, "/api/admin/auth/login", echo.Map{"email": "ROOT@familytree.com", "password": "Admin@123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	admin := body["admin"].(map[string]interface{})
	assert.Equal(t, "root@familytree.com", admin["email"])
	assert.NotContains(t, admin, "passwordHash")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	s.e.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Equal(t, "root@familytree.com", decode(t, me)["admin"].(map[string]interface{})["email"])

	before := counterValue(t, "familytree_admin_logout_total")
	rec = s.do(http.MethodPost, "/api/admin/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
	assert.Equal(t, before+1, counterValue(t, "familytree_admin_logout_total"))
}

func counterValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := client.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestLoginRejections(t *testing.T) {
	s := newServer(t)

	rec := s.doAs("", http.MethodPost, "/api/admin/auth/login", echo.Map{"email": "root@familytree.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["error"])

	rec = s.doAs("", http.MethodPost, "/api/admin/auth/login", echo.Map{"email": "root@familytree.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.doAs("", http.MethodPost, "/api/admin/auth/login", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decode(t, rec)["error"])
}

func TestAuthMiddlewareMessages(t *testing.T) {
	s := newServer(t)

	rec := s.doAs("", http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", decode(t, rec)["error"])

	rec = s.doAs("garbage", http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, rec)["error"])

	_, token := s.admin("ops@familytree.com", model.RoleAdmin)
	rec = s.doAs(token, http.MethodGet, "/api/admin/admins", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.doAs(token, http.MethodPost, "/api/admin/admins", echo.Map{"email": "x@familytree.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Insufficient permissions", decode(t, rec)["error"])
}

func TestDeactivatedAdminIsLockedOut(t *testing.T) {
	s := newServer(t)
	ops, token := s.admin("ops@familytree.com", model.RoleAdmin)

	rec := s.do(http.MethodDelete, "/api/admin/admins?adminId="+itoa(ops.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.doAs(token, http.MethodGet, "/api/admin/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.doAs("", http.MethodPost, "/api/admin/auth/login", echo.Map{"email": "ops@familytree.com", "password": "Admin@123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decode(t, rec)["error"])

	rec = s.do(http.MethodDelete, "/api/admin/admins?adminId="+itoa(s.root.ID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(decode(t, rec)["error"].(string), "your own account"))
}

func TestHealthCheck(t *testing.T) {
	s := newServer(t)
	rec := s.doAs("", http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
