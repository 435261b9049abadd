package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the operator identifier that JWTAuth stored in the
// Echo context; rate limiting and caching use it as a key component so
// authenticated operators get per-account buckets while guests share
// per-IP ones.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts an operator identifier from the context. It
// returns "anon" when no operator is authenticated.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		// JWT numeric claims decode as float64.
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
