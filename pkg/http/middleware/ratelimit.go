package middleware

import (
	"github.com/labstack/echo/v4"
)

// Allower decides whether a request identified by key may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit runs reject once the client IP exhausts its budget. A nil reject
// returns echo.ErrTooManyRequests.
func RateLimit(a Allower, reject echo.HandlerFunc) echo.MiddlewareFunc {
	if reject == nil {
		reject = func(echo.Context) error { return echo.ErrTooManyRequests }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.Allow(c.RealIP()) {
				return reject(c)
			}
			return next(c)
		}
	}
}
