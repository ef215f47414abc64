package api

import (
	"net"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/stockroom/inventory-system/docs"
	"github.com/stockroom/inventory-system/internal/api/handler"
	"github.com/stockroom/inventory-system/internal/api/middleware"
	"github.com/stockroom/inventory-system/internal/core/ports"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Products ports.ProductService
	Access   *middleware.AccessControl
	Health   *handler.HealthHandler

	AllowedOrigins []string
	// TrustedProxies are CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string
	RateLimit      float64
	RateBurst      int

	// Registry receives the HTTP metrics. Nil uses the default registry.
	Registry *prometheus.Registry

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = ipExtractor(d.TrustedProxies, d.Log)

	// --- Global middleware ---
	promCfg := echoprometheus.MiddlewareConfig{Namespace: "inventory", Subsystem: "http"}
	metricsHandler := echoprometheus.NewHandler()
	if d.Registry != nil {
		promCfg.Registerer = d.Registry
		metricsHandler = echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry})
	}

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     d.AllowedOrigins,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(promCfg))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	productHandler := handler.NewProductHandler(d.Products)
	authn := d.Access.Authenticate()
	throttle := middleware.AuthRateLimit(d.RateLimit, d.RateBurst)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login, throttle)
	e.POST("/auth/google", authHandler.GoogleLogin, throttle)
	e.GET("/auth/google/url", authHandler.GoogleAuthURL)

	// --- Users ---
	users := e.Group("/users", authn)
	users.GET("/me", userHandler.Me)
	users.GET("", userHandler.List, middleware.AdminOnly())
	users.PUT("/:id/role", userHandler.ChangeRole, middleware.AdminOnly())
	users.DELETE("/:id", userHandler.Delete, middleware.AdminOnly())

	// --- Products ---
	products := e.Group("/products", authn)
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, middleware.AdminOrManager())
	products.PUT("/:id/quantity", productHandler.UpdateQuantity, middleware.AdminOrManager())
	products.DELETE("/:id", productHandler.Delete, middleware.AdminOnly())

	// --- Health checks and tooling (no auth required) ---
	e.GET("/health", d.Health.Liveness)
	e.GET("/health/ready", d.Health.Readiness)
	e.GET("/metrics", metricsHandler)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// ipExtractor uses the connection address unless trusted proxies are
// configured, in which case X-Forwarded-For is honoured only from them.
func ipExtractor(trusted []string, log zerolog.Logger) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trusted {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			log.Warn().Str("cidr", cidr).Msg("ignoring invalid trusted proxy")
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
