package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type allowN struct{ left int }

func (a *allowN) Allow(string) bool {
	a.left--
	return a.left >= 0
}

func limitedEcho(a Allower, reject echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, RateLimit(a, reject))
	return e
}

func get(e *echo.Echo) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	return rec
}

func TestRateLimitRunsReject(t *testing.T) {
	e := limitedEcho(&allowN{left: 1}, func(c echo.Context) error {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"code": "limited"})
	})

	assert.Equal(t, http.StatusOK, get(e).Code)
	rec := get(e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limited"`)
}

func TestRateLimitDefaultReject(t *testing.T) {
	e := limitedEcho(&allowN{}, nil)
	assert.Equal(t, http.StatusTooManyRequests, get(e).Code)
}
