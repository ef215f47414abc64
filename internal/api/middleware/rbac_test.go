package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

func runRole(t *testing.T, mw echo.MiddlewareFunc, role domain.Role) (int, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(KeyRole, role)
	}

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return rec.Code, called, err
}

func TestRequireRole_Allows(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleManager} {
		code, called, err := runRole(t, AdminOrManager(), role)
		if err != nil || !called || code != http.StatusOK {
			t.Fatalf("%s: expected 200 pass-through, got code=%d err=%v", role, code, err)
		}
	}
}

func TestRequireRole_ForbidsWrongRole(t *testing.T) {
	_, called, err := runRole(t, AdminOnly(), domain.RoleManager)
	if called {
		t.Fatalf("should not reach next handler")
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	_, _, err = runRole(t, AdminOrManager(), domain.RoleUser)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for user role, got %v", err)
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	_, called, err := runRole(t, AdminOnly(), "")
	if called || !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
