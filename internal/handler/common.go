package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// reqCtx derives a bounded context for database calls from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// getUserID extracts the authenticated operator's ID from the context.
// JWT numeric claims decode as float64; tokens issued by older builds
// carried the subject as a string, so both shapes are accepted.
func getUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// getCallSign extracts the authenticated operator's call sign.
func getCallSign(c echo.Context) (string, bool) {
	s, ok := c.Get("call_sign").(string)
	return s, ok && s != ""
}
