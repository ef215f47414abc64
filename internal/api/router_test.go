package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-system/internal/api/handler"
	"github.com/stockroom/inventory-system/internal/api/middleware"
	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/internal/core/service"
	"github.com/stockroom/inventory-system/internal/infrastructure/db/gormdb"
	"github.com/stockroom/inventory-system/internal/infrastructure/queue"
	"github.com/stockroom/inventory-system/internal/infrastructure/security"
)

// newTestServer wires the real stack on an in-memory SQLite database with
// a seeded admin account "root".
func newTestServer(t *testing.T, overrides ...func(*Deps)) *echo.Echo {
	t.Helper()
	log := zerolog.Nop()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gormdb.Open(gormdb.Config{Driver: gormdb.DriverSQLite, DSN: "file:" + name + "?mode=memory&cache=shared"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = gormdb.Close(db) })

	users := gormdb.NewUserRepository(db)
	hasher := security.NewBcryptHasher(4)
	tokens, err := security.NewJWTService("router-test-secret-router-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	audit := queue.NewDispatcher(1, gormdb.NewAuditRepository(db), log)
	audit.Start(ctx)
	t.Cleanup(func() {
		cancel()
		audit.Wait()
	})

	if _, err := service.EnsureAdmin(ctx, users, hasher, "root", "root-password"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	deps := Deps{
		Auth:     service.NewAuthService(users, hasher, tokens, log, service.WithAudit(audit)),
		Users:    service.NewUserService(users, audit, log),
		Products: service.NewProductService(gormdb.NewProductRepository(db), audit, log),
		Access:   middleware.NewAccessControl(tokens, users, true, log),
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"database": func(ctx context.Context) error { return gormdb.Ping(ctx, db) },
		}, false),
		AllowedOrigins: []string{"http://localhost:3000"},
		RateLimit:      100,
		RateBurst:      100,
		Registry:       prometheus.NewRegistry(),
		Log:            log,
	}
	for _, override := range overrides {
		override(&deps)
	}
	return NewRouter(deps)
}

func call(t *testing.T, e *echo.Echo, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: invalid json %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, resp
}

func login(t *testing.T, e *echo.Echo, username, password string) string {
	t.Helper()
	rec, resp := call(t, e, http.MethodPost, "/login", "", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d %s", username, rec.Code, rec.Body.String())
	}
	token, _ := resp["token"].(string)
	if token == "" || resp["token_type"] != "bearer" {
		t.Fatalf("login %s: unexpected payload %+v", username, resp)
	}
	return token
}

func TestRouter_RegisterLoginScenario(t *testing.T) {
	e := newTestServer(t)

	rec, user := call(t, e, http.MethodPost, "/register", "", `{"username":"bob","password":"pw1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	if user["username"] != "bob" || user["role"] != "user" || user["auth_provider"] != "local" {
		t.Fatalf("unexpected registered user: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "$2a$") || strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password material leaked: %s", rec.Body.String())
	}

	rec, resp := call(t, e, http.MethodPost, "/register", "", `{"username":"bob","password":"other-pass"}`)
	if rec.Code != http.StatusConflict || resp["error"] == "" {
		t.Fatalf("duplicate register: expected 409, got %d %s", rec.Code, rec.Body.String())
	}

	token := login(t, e, "bob", "pw1")

	var claims security.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if claims.Subject != "bob" || claims.Role != string(domain.RoleUser) {
		t.Fatalf("unexpected claims: sub=%q role=%q", claims.Subject, claims.Role)
	}

	rec, _ = call(t, e, http.MethodPost, "/login", "", `{"username":"bob","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}

	rec, resp = call(t, e, http.MethodGet, "/users/me", token, "")
	if rec.Code != http.StatusOK || resp["username"] != "bob" {
		t.Fatalf("me: unexpected %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = call(t, e, http.MethodGet, "/users", token, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("user on admin route: expected 403, got %d", rec.Code)
	}
}

func TestRouter_UniformLoginFailures(t *testing.T) {
	e := newTestServer(t)
	call(t, e, http.MethodPost, "/register", "", `{"username":"bob","password":"pw1"}`)

	wrongPass, wrongBody := call(t, e, http.MethodPost, "/login", "", `{"username":"bob","password":"nope"}`)
	unknown, unknownBody := call(t, e, http.MethodPost, "/login", "", `{"username":"nobody","password":"nope"}`)

	if wrongPass.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for both, got %d and %d", wrongPass.Code, unknown.Code)
	}
	if wrongBody["error"] != unknownBody["error"] {
		t.Fatalf("failure bodies differ: %v vs %v", wrongBody, unknownBody)
	}
	if wrongPass.Header().Get(echo.HeaderWWWAuthenticate) != "Bearer" {
		t.Fatalf("missing WWW-Authenticate header")
	}
}

func TestRouter_AuthenticationRequired(t *testing.T) {
	e := newTestServer(t)

	for _, token := range []string{"", "not-a-jwt"} {
		rec, resp := call(t, e, http.MethodGet, "/products", token, "")
		if rec.Code != http.StatusUnauthorized || resp["error"] != "authentication required" {
			t.Fatalf("token %q: expected 401, got %d %s", token, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_RoleChangeTakesEffectImmediately(t *testing.T) {
	e := newTestServer(t)
	call(t, e, http.MethodPost, "/register", "", `{"username":"bob","password":"pw1"}`)
	bobToken := login(t, e, "bob", "pw1")
	rootToken := login(t, e, "root", "root-password")

	product := `{"name":"Widget","type":"hardware","sku":"W-1","quantity":3,"price":2.5}`
	if rec, _ := call(t, e, http.MethodPost, "/products", bobToken, product); rec.Code != http.StatusForbidden {
		t.Fatalf("user creating product: expected 403, got %d", rec.Code)
	}

	_, me := call(t, e, http.MethodGet, "/users/me", bobToken, "")
	bobID := uint(me["id"].(float64))

	rec, resp := call(t, e, http.MethodPut, fmt.Sprintf("/users/%d/role", bobID), rootToken, `{"role":"manager"}`)
	if rec.Code != http.StatusOK || resp["role"] != "manager" {
		t.Fatalf("change role: unexpected %d %s", rec.Code, rec.Body.String())
	}

	// The old token still says "user"; the stored role wins.
	rec, resp = call(t, e, http.MethodPost, "/products", bobToken, product)
	if rec.Code != http.StatusCreated {
		t.Fatalf("manager creating product: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	id := uint(resp["product_id"].(float64))

	if rec, _ := call(t, e, http.MethodPost, "/products", bobToken, product); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate sku: expected 409, got %d", rec.Code)
	}

	rec, resp = call(t, e, http.MethodPut, fmt.Sprintf("/products/%d/quantity", id), bobToken, `{"quantity":9}`)
	if rec.Code != http.StatusOK || resp["quantity"] != float64(9) {
		t.Fatalf("update quantity: unexpected %d %s", rec.Code, rec.Body.String())
	}

	if rec, _ := call(t, e, http.MethodDelete, fmt.Sprintf("/products/%d", id), bobToken, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("manager deleting product: expected 403, got %d", rec.Code)
	}
	if rec, _ := call(t, e, http.MethodDelete, fmt.Sprintf("/products/%d", id), rootToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("admin deleting product: expected 200, got %d", rec.Code)
	}
	if rec, _ := call(t, e, http.MethodGet, fmt.Sprintf("/products/%d", id), bobToken, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted product: expected 404, got %d", rec.Code)
	}

	rec, _ = call(t, e, http.MethodDelete, fmt.Sprintf("/users/%d", bobID), rootToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete user: expected 200, got %d", rec.Code)
	}
	if rec, _ := call(t, e, http.MethodGet, "/users/me", bobToken, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted account token: expected 401, got %d", rec.Code)
	}
}

func TestRouter_GoogleNotConfigured(t *testing.T) {
	e := newTestServer(t)

	rec, resp := call(t, e, http.MethodGet, "/auth/google/url", "", "")
	if rec.Code != http.StatusInternalServerError || resp["error"] != "service not configured" {
		t.Fatalf("expected 500 configuration error, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = call(t, e, http.MethodPost, "/auth/google", "", `{"kind":"id_token","token":"x"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	e := newTestServer(t)

	rec, resp := call(t, e, http.MethodGet, "/health/ready", "", "")
	if rec.Code != http.StatusOK || resp["google_oauth_configured"] != false {
		t.Fatalf("readiness: unexpected %d %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	e.ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK || !strings.Contains(mrec.Body.String(), "inventory_http_requests_total") {
		t.Fatalf("metrics: unexpected %d", mrec.Code)
	}
}

func loginFrom(e *echo.Echo, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set(echo.HeaderXForwardedFor, forwardedFor)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_RateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	e := newTestServer(t, func(d *Deps) {
		d.RateLimit = 0.001
		d.RateBurst = 1
	})

	if code := loginFrom(e, "203.0.113.7:4000", "198.51.100.1"); code != http.StatusBadRequest {
		t.Fatalf("first request: expected 400 from validation, got %d", code)
	}
	for i, xff := range []string{"198.51.100.2", "198.51.100.3", "10.0.0.9"} {
		if code := loginFrom(e, "203.0.113.7:4000", xff); code != http.StatusTooManyRequests {
			t.Fatalf("request %d with forged header: expected 429, got %d", i, code)
		}
	}
	if code := loginFrom(e, "203.0.113.8:4000", ""); code != http.StatusBadRequest {
		t.Fatalf("other client: expected its own bucket, got %d", code)
	}
}

func TestRouter_RateLimitTrustsConfiguredProxy(t *testing.T) {
	e := newTestServer(t, func(d *Deps) {
		d.RateLimit = 0.001
		d.RateBurst = 1
		d.TrustedProxies = []string{"10.0.0.0/8"}
	})

	if code := loginFrom(e, "10.1.2.3:4000", "198.51.100.1"); code != http.StatusBadRequest {
		t.Fatalf("client A: expected 400, got %d", code)
	}
	if code := loginFrom(e, "10.1.2.3:4000", "198.51.100.2"); code != http.StatusBadRequest {
		t.Fatalf("client B behind proxy: expected own bucket, got %d", code)
	}
	if code := loginFrom(e, "10.1.2.3:4000", "198.51.100.1"); code != http.StatusTooManyRequests {
		t.Fatalf("client A again: expected 429, got %d", code)
	}
	// Untrusted peers cannot pick their identity.
	if code := loginFrom(e, "203.0.113.9:4000", "198.51.100.3"); code != http.StatusBadRequest {
		t.Fatalf("direct client: expected 400, got %d", code)
	}
	if code := loginFrom(e, "203.0.113.9:4000", "198.51.100.4"); code != http.StatusTooManyRequests {
		t.Fatalf("direct client with new header: expected 429, got %d", code)
	}
}
