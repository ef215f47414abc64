package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

const minSecretLength = 32

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=http://localhost:3000"`
	// TrustedProxies lists CIDRs whose X-Forwarded-For is believed. Empty
	// means clients are identified by the connection address only.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	Auth   AuthConfig
	Store  StoreConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Google GoogleConfig
	Audit  AuditConfig
	Seed   SeedConfig
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`
	// FreshRoles re-reads the caller's role from the store on every request
	// instead of trusting the role embedded in the token.
	FreshRoles    bool          `env:"AUTH_FRESH_ROLES,     default=true"`
	BcryptCost    int           `env:"BCRYPT_COST,          default=12"`
	MaxAttempts   int           `env:"LOGIN_MAX_ATTEMPTS,   default=5"`
	LockoutWindow time.Duration `env:"LOGIN_LOCKOUT_WINDOW, default=15m"`
	// RateLimit is the sustained number of requests per second each client
	// may send to the login routes.
	RateLimit float64 `env:"AUTH_RATE_LIMIT, default=5"`
	RateBurst int     `env:"AUTH_RATE_BURST, default=10"`
}

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER, default=postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	Debug       bool   `env:"DATABASE_DEBUG, default=false"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=inventory"`
}

// RedisConfig is optional; an empty Addr disables the login lockout.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type GoogleConfig struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURI  string        `env:"GOOGLE_REDIRECT_URI, default=http://localhost:3000/auth/callback"`
	AuthURL      string        `env:"GOOGLE_AUTH_URL,     default=https://accounts.google.com/o/oauth2/v2/auth"`
	TokenURL     string        `env:"GOOGLE_TOKEN_URL,    default=https://oauth2.googleapis.com/token"`
	JWKSURL      string        `env:"GOOGLE_JWKS_URL,     default=https://www.googleapis.com/oauth2/v3/certs"`
	Issuer       string        `env:"GOOGLE_ISSUER,       default=https://accounts.google.com"`
	Timeout      time.Duration `env:"GOOGLE_TIMEOUT,      default=10s"`
}

type AuditConfig struct {
	Workers int `env:"AUDIT_WORKERS, default=4"`
}

type SeedConfig struct {
	AdminUsername string `env:"SEED_ADMIN_USERNAME"`
	AdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// Load reads an optional .env file, then the environment, and validates
// the result.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails loudly on settings the service cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.Auth.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET is required"))
	case len(c.Auth.JWTSecret) < minSecretLength && !c.IsDevelopment():
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes outside development", minSecretLength))
	}

	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.Auth.BcryptCost))
	}

	switch c.Store.Driver {
	case "postgres", "sqlite":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for store driver %q", c.Store.Driver))
		}
	case "mongo":
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for store driver \"mongo\""))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be postgres, sqlite or mongo, got %q", c.Store.Driver))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %q is not a CIDR", cidr))
		}
	}

	if c.Google.ClientID != "" && (c.Google.ClientSecret == "" || c.Google.RedirectURI == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URI are required when GOOGLE_CLIENT_ID is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// GoogleConfigured reports whether Google sign-in can be offered.
func (c *Config) GoogleConfigured() bool {
	return c.Google.ClientID != ""
}
