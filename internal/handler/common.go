package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/samaevent/ticketing-api/internal/model"
)

// getUserID extracts the user_id set by the JWT middleware and
// converts it to uint64. JWT numeric claims decode as float64, so a
// few representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim set by the JWT middleware, empty when
// missing.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// isAdmin reports whether the request carries the admin role. Admins
// bypass per-organizer ownership checks.
func isAdmin(c echo.Context) bool {
	return getRole(c) == model.RoleAdmin
}

// pathID parses a positive uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}
