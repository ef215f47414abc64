package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-system/internal/api/metrics"
	"github.com/stockroom/inventory-system/internal/core/domain"
)

// RequireRole allows the request through only when the authenticated
// caller holds one of allowed. It must run after Authenticate.
func RequireRole(allowed ...domain.Role) echo.MiddlewareFunc {
	set := make(map[domain.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(domain.Role)
			if role == "" {
				return domain.ErrUnauthenticated
			}
			if _, ok := set[role]; !ok {
				metrics.AccessDeniedTotal.WithLabelValues(string(role)).Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// AdminOnly admits administrators.
func AdminOnly() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin)
}

// AdminOrManager admits administrators and managers.
func AdminOrManager() echo.MiddlewareFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleManager)
}
