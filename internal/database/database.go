// Package database opens the article database named by DB_URL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/freekieb7/go-newsgate/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// ParseURL picks the driver for url and returns the DSN to hand it.
// postgres:// and postgresql:// go to pgx; sqlite:<path>, file:<path> and
// bare paths go to SQLite.
func ParseURL(url string) (Driver, string, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "":
		return "", "", fmt.Errorf("database url is empty")
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite://"), nil
	case strings.HasPrefix(url, "sqlite:"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite:"), nil
	case strings.HasPrefix(url, "file:"), !strings.Contains(url, "://"):
		return DriverSQLite, url, nil
	}
	return "", "", fmt.Errorf("unsupported database url scheme: %s", url)
}

// Database is a PostgreSQL connection pool.
type Database struct {
	*pgxpool.Pool
}

func (db *Database) Connect(ctx context.Context, cfg config.Database) error {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}

	db.Pool = pool
	return nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// SQLite is a SQLite handle with the same Ping signature as Database.
type SQLite struct {
	*sql.DB
}

// OpenSQLite opens dsn with the pure-Go driver. In-memory databases are
// limited to one connection, since each connection would otherwise see its
// own empty database.
func OpenSQLite(ctx context.Context, dsn string, cfg config.Database) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(int(cfg.MaxOpenConns))
		db.SetMaxIdleConns(int(cfg.MaxIdleConns))
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	return &SQLite{DB: db}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
