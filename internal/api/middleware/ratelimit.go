package middleware

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

const limiterIdleExpiry = 3 * time.Minute

// AuthRateLimit applies a per-client token bucket of rps requests per
// second with the given burst. Clients are identified by their real IP.
func AuthRateLimit(rps float64, burst int) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: limiterIdleExpiry,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return fmt.Errorf("%w: request rate exceeded for %s", domain.ErrTooManyAttempts, identifier)
		},
	})
}
