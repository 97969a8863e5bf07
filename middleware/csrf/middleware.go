package csrf

import (
	"crypto/subtle"

	"github.com/coro-biz/journey-coach/session"
	"github.com/labstack/echo/v4"
)

const HeaderName = "X-CSRF-Token"

// Middleware rejects state-mutating requests whose X-CSRF-Token header does
// not match the value stored in the caller's session. The comparison is
// constant time. Safe methods pass through untouched.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch c.Request().Method {
			case "GET", "HEAD", "OPTIONS", "TRACE":
				return next(c)
			}

			expected := session.CSRFToken(c)
			presented := c.Request().Header.Get(HeaderName)

			if expected == "" || !equal(expected, presented) {
				return echo.NewHTTPError(403, "invalid CSRF token")
			}

			return next(c)
		}
	}
}

func equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
