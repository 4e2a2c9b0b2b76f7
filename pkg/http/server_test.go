package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pingHandler = RoutesFunc(func(e *echo.Echo) {
	e.GET("/ping", func(c echo.Context) error { return SuccessResponse(c, "pong") })
	e.GET("/boom", func(c echo.Context) error { panic("boom") })
	e.GET("/gone", func(c echo.Context) error { return AppErrorResponse(c, NotFoundError("gone")) })
})

func do(t *testing.T, s *Server, method, path string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var body APIResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServerRoutes(t *testing.T) {
	s := NewServer(pingHandler, WithMetrics(""))

	rec, body := do(t, s, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", body.Data)

	rec, body = do(t, s, http.MethodGet, "/gone")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, body.Status)

	rec, _ = do(t, s, http.MethodGet, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerHealth(t *testing.T) {
	healthy := NewServer(nil, WithMetrics(""), WithHealthCheck("model", func(context.Context) error { return nil }))
	rec, body := do(t, healthy, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"model": "ok"}, body.Data)

	sick := NewServer(nil, WithMetrics(""), WithHealthCheck("clickhouse", func(context.Context) error { return errors.New("down") }))
	rec, _ = do(t, sick, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServerCORSPreflight(t *testing.T) {
	s := NewServer(pingHandler, WithMetrics(""), WithCORS(true, "https://ev.example"))
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://ev.example")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, "https://ev.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
