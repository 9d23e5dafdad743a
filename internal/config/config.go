package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
	EnvTesting     Environment = "testing"
)

func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvProduction, EnvTesting:
		return true
	}
	return false
}

// AuthMode selects how bearer tokens are obtained. The two flows are
// mutually exclusive per deployment.
type AuthMode string

const (
	AuthModeCode   AuthMode = "code"
	AuthModeSecret AuthMode = "secret"
)

func (m AuthMode) IsValid() bool {
	return m == AuthModeCode || m == AuthModeSecret
}

type Config struct {
	Server    Server
	Auth      Auth
	News      News
	Database  Database
	Cache     Cache
	RateLimit RateLimit
	CORS      CORS
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

type Server struct {
	Port           int           `env:"SERVER_PORT" envDefault:"8080"`
	Environment    Environment   `env:"SERVER_ENVIRONMENT" envDefault:"development"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	MaxHeaderBytes int           `env:"SERVER_MAX_HEADER_BYTES" envDefault:"1048576"`
}

func (s Server) IsProduction() bool {
	return s.Environment == EnvProduction
}

// Auth holds the single client credential this gateway knows about and the
// token signing settings.
type Auth struct {
	Mode               AuthMode      `env:"AUTH_MODE" envDefault:"code"`
	ClientID           string        `env:"CLIENT_ID"`
	ClientSecret       string        `env:"CLIENT_SECRET"`
	ClientHash         string        `env:"CLIENT_HASH"`
	ClientSecretBcrypt string        `env:"CLIENT_SECRET_BCRYPT"`
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
	CodeTTL            time.Duration `env:"CODE_TTL" envDefault:"5m"`
	CodeCapacity       int           `env:"CODE_CAPACITY" envDefault:"5"`
}

type News struct {
	APIKey         string        `env:"NEWS_API_KEY"`
	BaseURL        string        `env:"NEWS_API_URL" envDefault:"https://newsapi.org/v2"`
	Timeout        time.Duration `env:"NEWS_API_TIMEOUT" envDefault:"10s"`
	DefaultCountry string        `env:"NEWS_DEFAULT_COUNTRY" envDefault:"us"`
}

type Database struct {
	URL             string        `env:"DB_URL" envDefault:"sqlite::memory:"`
	MaxOpenConns    int32         `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int32         `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"5m"`
}

type Cache struct {
	Enabled       bool          `env:"CACHE_ENABLED" envDefault:"false"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	TTL           time.Duration `env:"CACHE_TTL" envDefault:"2m"`
}

type RateLimit struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	AuthRequests   int           `env:"RATE_LIMIT_AUTH_REQUESTS" envDefault:"10"`
	APIRequests    int           `env:"RATE_LIMIT_API_REQUESTS" envDefault:"100"`
	WindowDuration time.Duration `env:"RATE_LIMIT_WINDOW_DURATION" envDefault:"1m"`
	// Peers whose X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []string `env:"RATE_LIMIT_TRUSTED_PROXIES" envSeparator:","`
}

type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads the configuration from environment variables and validates it.
func Load() (Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return config, fmt.Errorf("parse env: %w", err)
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	if !c.Server.Environment.IsValid() {
		return fmt.Errorf("environment variable SERVER_ENVIRONMENT has invalid value: %s", c.Server.Environment)
	}
	if !c.Auth.Mode.IsValid() {
		return fmt.Errorf("environment variable AUTH_MODE has invalid value: %s", c.Auth.Mode)
	}
	if strings.TrimSpace(c.Auth.ClientID) == "" {
		return errors.New("environment variable CLIENT_ID is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("environment variable JWT_SECRET is required")
	}
	if c.Auth.ClientSecret == "" && c.Auth.ClientHash == "" && c.Auth.ClientSecretBcrypt == "" {
		return errors.New("one of CLIENT_SECRET, CLIENT_HASH or CLIENT_SECRET_BCRYPT is required")
	}
	if c.Auth.Mode == AuthModeSecret && c.Auth.ClientSecret == "" && c.Auth.ClientSecretBcrypt == "" {
		return errors.New("AUTH_MODE=secret requires CLIENT_SECRET or CLIENT_SECRET_BCRYPT")
	}
	if c.Auth.TokenTTL <= 0 || c.Auth.CodeTTL <= 0 {
		return errors.New("TOKEN_TTL and CODE_TTL must be positive")
	}
	if c.Auth.CodeCapacity < 1 {
		return errors.New("CODE_CAPACITY must be at least 1")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
