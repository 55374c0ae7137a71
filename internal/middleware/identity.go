package middleware

// identity.go provides the caller-identity helper shared by the
// middleware in this package.  Rate-limit keys include the user id so
// an authenticated caller cannot starve other users behind the same
// NAT, while anonymous traffic shares a "guest" bucket per IP.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// callerID returns the identity placed in context by JWTAuth, or
// "guest" when the request is unauthenticated.
func callerID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch id := v.(type) {
	case string:
		if id != "" {
			return id
		}
		return "guest"
	case float64:
		return fmt.Sprintf("%.0f", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
