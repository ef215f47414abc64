package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-system/internal/api/middleware"
	"github.com/stockroom/inventory-system/internal/core/domain"
)

// ctxPrincipal returns the caller identity stored by the Authenticate
// middleware. A missing username means the route was wired without it.
func ctxPrincipal(c echo.Context) (username string, role domain.Role, err error) {
	username, _ = c.Get(middleware.KeyUsername).(string)
	role, _ = c.Get(middleware.KeyRole).(domain.Role)
	if username == "" {
		return "", "", fmt.Errorf("%w: missing principal", domain.ErrUnauthenticated)
	}
	return username, role, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return uint(id), nil
}
