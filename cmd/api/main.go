// @title                       Inventory System API
// @version                     1.0
// @description                 Product inventory with local and Google sign-in.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stockroom/inventory-system/internal/api"
	"github.com/stockroom/inventory-system/internal/api/handler"
	"github.com/stockroom/inventory-system/internal/api/middleware"
	"github.com/stockroom/inventory-system/internal/core/ports"
	"github.com/stockroom/inventory-system/internal/core/service"
	"github.com/stockroom/inventory-system/internal/infrastructure/config"
	"github.com/stockroom/inventory-system/internal/infrastructure/db/gormdb"
	"github.com/stockroom/inventory-system/internal/infrastructure/db/mongo"
	"github.com/stockroom/inventory-system/internal/infrastructure/db/redis"
	"github.com/stockroom/inventory-system/internal/infrastructure/google"
	"github.com/stockroom/inventory-system/internal/infrastructure/queue"
	"github.com/stockroom/inventory-system/internal/infrastructure/security"
	"github.com/stockroom/inventory-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		// Init returns the configured logger, or a default one when
		// configuration failed before it was built.
		log := logger.Init(logger.Options{})
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty || cfg.IsDevelopment(),
		Service: "inventory-system",
		Env:     cfg.Env,
	})

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens, err := security.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	audit := queue.NewDispatcher(cfg.Audit.Workers, store.audit, logger.Component("audit"))
	audit.Start(workerCtx)
	defer func() {
		cancelWorkers()
		audit.Wait()
	}()

	authOpts := []service.AuthOption{service.WithAudit(audit)}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer rdb.Close()
		authOpts = append(authOpts, service.WithLoginThrottle(
			redis.NewLoginThrottle(rdb, cfg.Auth.MaxAttempts, cfg.Auth.LockoutWindow),
		))
		store.checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, rdb) }
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login lockout disabled")
	}

	if cfg.GoogleConfigured() {
		verifier, err := google.NewVerifier(google.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURI:  cfg.Google.RedirectURI,
			AuthURL:      cfg.Google.AuthURL,
			TokenURL:     cfg.Google.TokenURL,
			JWKSURL:      cfg.Google.JWKSURL,
			Issuer:       cfg.Google.Issuer,
			Timeout:      cfg.Google.Timeout,
		})
		if err != nil {
			return err
		}
		authOpts = append(authOpts, service.WithGoogle(verifier))
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set, google sign-in disabled")
	}

	authService := service.NewAuthService(store.users, hasher, tokens, logger.Component("auth"), authOpts...)

	created, err := service.EnsureAdmin(ctx, store.users, hasher, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("username", cfg.Seed.AdminUsername).Msg("seeded admin account")
	}

	e := api.NewRouter(api.Deps{
		Auth:           authService,
		Users:          service.NewUserService(store.users, audit, logger.Component("users")),
		Products:       service.NewProductService(store.products, audit, logger.Component("products")),
		Access:         middleware.NewAccessControl(tokens, store.users, cfg.Auth.FreshRoles, logger.Component("access")),
		Health:         handler.NewHealthHandler(store.checks, authService.GoogleConfigured()),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit:      cfg.Auth.RateLimit,
		RateBurst:      cfg.Auth.RateBurst,
		Log:            log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store.Driver).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// storage bundles the repositories of the selected backend.
type storage struct {
	users    ports.UserRepository
	products ports.ProductRepository
	audit    ports.AuditRepository
	checks   map[string]handler.Check
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Store.Driver {
	case "mongo":
		client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &storage{
			users:    mongo.NewUserRepository(db),
			products: mongo.NewProductRepository(db),
			audit:    mongo.NewAuditRepository(db),
			checks: map[string]handler.Check{
				"mongodb": func(ctx context.Context) error { return mongo.Ping(ctx, db) },
			},
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		db, err := gormdb.Open(gormdb.Config{
			Driver: cfg.Store.Driver,
			DSN:    cfg.Store.DatabaseURL,
			Debug:  cfg.Store.Debug,
			Logger: logger.Component("gorm"),
		})
		if err != nil {
			return nil, err
		}
		return &storage{
			users:    gormdb.NewUserRepository(db),
			products: gormdb.NewProductRepository(db),
			audit:    gormdb.NewAuditRepository(db),
			checks: map[string]handler.Check{
				"database": func(ctx context.Context) error { return gormdb.Ping(ctx, db) },
			},
			close: func() { _ = gormdb.Close(db) },
		}, nil
	}
}
