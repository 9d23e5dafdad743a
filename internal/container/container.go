// Package container builds the application object graph from configuration.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"os"

	"github.com/freekieb7/go-newsgate/internal/article"
	"github.com/freekieb7/go-newsgate/internal/auth"
	"github.com/freekieb7/go-newsgate/internal/cache"
	"github.com/freekieb7/go-newsgate/internal/config"
	"github.com/freekieb7/go-newsgate/internal/database"
	"github.com/freekieb7/go-newsgate/internal/health"
	"github.com/freekieb7/go-newsgate/internal/news"
	"github.com/freekieb7/go-newsgate/internal/web/handler"
	"github.com/freekieb7/go-newsgate/internal/web/middleware"
)

const Version = "1.0.0"

type Container struct {
	Config     config.Config
	Logger     *slog.Logger
	Articles   article.Store
	Cache      *cache.Service
	Auth       *auth.Service
	News       *news.Service
	Health     *health.Checker
	HttpServer *http.Server

	closers []func() error
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func NewLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Server.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewAuthService builds the token service from the auth settings alone, so
// it can be used without the rest of the graph.
func NewAuthService(cfg config.Auth, logger *slog.Logger) *auth.Service {
	return auth.NewService(
		auth.NewCodeStore(cfg.CodeCapacity, cfg.CodeTTL),
		auth.NewCredentialVerifier(auth.Credentials{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			ClientHash:   cfg.ClientHash,
			SecretBcrypt: cfg.ClientSecretBcrypt,
		}),
		auth.NewSigner(cfg.JWTSecret, cfg.ClientID, cfg.TokenTTL),
		logger,
	)
}

func New(ctx context.Context, cfg config.Config) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: NewLogger(cfg, os.Stderr),
	}

	pinger, err := c.openArticles(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	if cfg.Cache.Enabled {
		cacheService, err := cache.NewService(ctx, cache.ConfigFrom(cfg.Cache), c.Logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		c.Cache = cacheService
		c.closers = append(c.closers, cacheService.Close)
	} else {
		c.Cache = cache.NewNoOpService(c.Logger)
	}

	var client news.Client = news.NewAPIClient(cfg.News, c.Logger)
	if c.Cache.Enabled() {
		client = news.NewCachedClient(client, c.Cache, cfg.Cache.TTL, c.Logger)
	}

	defaultCountry, err := news.ParseCountry(cfg.News.DefaultCountry)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("environment variable NEWS_DEFAULT_COUNTRY: %w", err)
	}

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("environment variable RATE_LIMIT_TRUSTED_PROXIES: %w", err)
	}

	c.Auth = NewAuthService(cfg.Auth, c.Logger)
	c.News = news.NewService(client, c.Articles, defaultCountry, c.Logger)
	c.Health = health.NewChecker(pinger, c.Cache, c.Logger, Version)

	c.HttpServer = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        c.routes(trustedProxies),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return c, nil
}

func (c *Container) openArticles(ctx context.Context) (health.Pinger, error) {
	driver, dsn, err := database.ParseURL(c.Config.Database.URL)
	if err != nil {
		return nil, err
	}

	switch driver {
	case database.DriverPostgres:
		db := &database.Database{}
		if err := db.Connect(ctx, c.Config.Database); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, func() error { db.Close(); return nil })

		store := article.NewPostgresStore(db.Pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		c.Articles = store
		c.Logger.Info("Connected to article database", slog.String("driver", string(driver)))
		return db, nil
	default:
		db, err := database.OpenSQLite(ctx, dsn, c.Config.Database)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)

		store := article.NewSQLiteStore(db.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		c.Articles = store
		c.Logger.Info("Connected to article database", slog.String("driver", string(driver)))
		return db, nil
	}
}

func (c *Container) rateLimiter() middleware.RateLimiter {
	if !c.Config.RateLimit.Enabled {
		return nil
	}
	if c.Cache.Enabled() {
		return middleware.NewCounterRateLimiter(c.Cache)
	}

	limiter := middleware.NewInMemoryRateLimiter()
	c.closers = append(c.closers, limiter.Close)
	return limiter
}

// routes assembles the router behind the global middleware stack.
func (c *Container) routes(trustedProxies []netip.Prefix) http.Handler {
	router := handler.NewRouter(handler.Dependencies{
		Auth:           c.Auth,
		AuthMode:       c.Config.Auth.Mode,
		News:           c.News,
		Health:         c.Health,
		RateLimiter:    c.rateLimiter(),
		RateLimit:      c.Config.RateLimit,
		TrustedProxies: trustedProxies,
		Logger:         c.Logger,
	})

	return middleware.Chain(
		middleware.Recover(c.Logger),
		middleware.RequestID(),
		middleware.MetricsMiddleware(middleware.NewLogMetricsCollector(c.Logger)),
		middleware.SecurityHeadersWithConfig(middleware.DefaultSecurityHeaders(c.Config.Server.IsProduction())),
		middleware.CORSWithConfig(middleware.DefaultCORSConfig(c.Config.CORS.AllowedOrigins)),
		middleware.Authenticate(c.Auth, c.Logger),
		middleware.Timeout(c.Config.Server.RequestTimeout),
	)(router)
}

// Close releases everything New opened, in reverse order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
