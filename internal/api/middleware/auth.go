package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-system/internal/api/metrics"
	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/ports"
)

// Context keys set by Authenticate.
const (
	KeyUsername = "username"
	KeyRole     = "role"
	KeyUserID   = "user_id"
)

// AccessControl authenticates bearer tokens and enforces role policies.
// It never mutates state.
type AccessControl struct {
	tokens     ports.TokenService
	users      ports.UserRepository
	freshRoles bool
	log        zerolog.Logger
}

// NewAccessControl returns an AccessControl. With freshRoles set, each
// request re-reads the caller from users and uses the stored role; deleted
// accounts are rejected. Otherwise the role embedded in the token is
// trusted until the token expires.
func NewAccessControl(tokens ports.TokenService, users ports.UserRepository, freshRoles bool, log zerolog.Logger) *AccessControl {
	return &AccessControl{tokens: tokens, users: users, freshRoles: freshRoles, log: log}
}

// Authenticate validates the bearer token and stores the caller's identity
// on the context.
func (a *AccessControl) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				metrics.TokenValidationsTotal.WithLabelValues("missing").Inc()
				return err
			}

			claims, err := a.tokens.Validate(raw)
			if err != nil {
				result := "malformed"
				if errors.Is(err, domain.ErrExpiredToken) {
					result = "expired"
				}
				metrics.TokenValidationsTotal.WithLabelValues(result).Inc()
				return fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
			}

			role := claims.Role
			var userID uint
			if a.freshRoles {
				user, err := a.users.FindByUsername(c.Request().Context(), claims.Subject)
				if errors.Is(err, domain.ErrNotFound) {
					metrics.TokenValidationsTotal.WithLabelValues("unknown_subject").Inc()
					return fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
				}
				if err != nil {
					return fmt.Errorf("authenticate: %w", err)
				}
				if user.Role != claims.Role {
					a.log.Debug().
						Str("username", user.Username).
						Str("token_role", string(claims.Role)).
						Str("current_role", string(user.Role)).
						Msg("role changed since token issue")
				}
				role = user.Role
				userID = user.ID
			}

			metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
			c.Set(KeyUsername, claims.Subject)
			c.Set(KeyRole, role)
			c.Set(KeyUserID, userID)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
	}
	return strings.TrimSpace(parts[1]), nil
}
