package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMiddlewareLogsCompletionAndFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(Middleware(zap.New(core)))

	e.GET("/ok", func(c echo.Context) error {
		FromContext(c).Info("inside handler")
		assert.Same(t, FromContext(c), Ctx(c.Request().Context()))
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("boom")
	})

	for _, path := range []string{"/ok", "/fail"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(RequestIDKey, "req-"+path)
		e.ServeHTTP(httptest.NewRecorder(), req)
	}

	completed := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, int64(http.StatusNoContent), completed[0].ContextMap()["status"])
	assert.Equal(t, "req-/ok", completed[0].ContextMap()["request_id"])

	failed := logs.FilterMessage("HTTP request failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), failed[0].ContextMap()["status"])

	assert.Equal(t, 1, logs.FilterMessage("inside handler").Len())
}

func TestAttachAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(Middleware(zap.New(core)))
	e.GET("/", func(c echo.Context) error {
		Attach(c, zap.Uint("admin_id", 7))
		return c.NoContent(http.StatusOK)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(7), entries[0].ContextMap()["admin_id"])
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	l := zap.NewNop()
	SetLogger(l)
	assert.Same(t, l, Ctx(context.Background()))
}
