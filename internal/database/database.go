// Package database opens the Postgres pools and manages the schema.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"vidtube/internal/config"
	"vidtube/internal/middleware"
	"vidtube/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const schemaTimeout = 2 * time.Minute

// replica serves read-heavy queries when DB_READ_HOST is set.
var replica *gorm.DB

// GetReadDB returns the read replica, or nil when reads use the primary.
func GetReadDB() *gorm.DB {
	return replica
}

// ConnectOptions controls optional steps performed by ConnectWithOptions.
type ConnectOptions struct {
	ApplySchema bool
}

// Connect opens the primary database and applies the schema plan.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
}

// ConnectWithOptions opens the primary and, if configured, the read replica.
// cmd/migrate connects without ApplySchema so it can drive migrations itself.
func ConnectWithOptions(cfg *config.Config, opts ConnectOptions) (*gorm.DB, error) {
	primary, err := Open(postgres.Open(postgresDSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg)), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBHost, err)
	}
	middleware.Logger.Info("database connected", slog.String("host", cfg.DBHost), slog.String("db", cfg.DBName))

	if opts.ApplySchema {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		if err := ApplySchema(ctx, primary, cfg); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	if cfg.DBReadHost != "" {
		dsn := postgresDSN(cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg)
		r, err := Open(postgres.Open(dsn), cfg)
		if err != nil {
			middleware.Logger.Warn("read replica unavailable, reading from primary",
				slog.String("host", cfg.DBReadHost), slog.String("error", err.Error()))
		} else {
			middleware.Logger.Info("read replica connected", slog.String("host", cfg.DBReadHost))
			replica = r
		}
	}
	return primary, nil
}

// postgresDSN builds a postgres:// URL so credentials with spaces or quotes
// need no escaping rules of their own.
func postgresDSN(host, port, user, password string, cfg *config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     host + ":" + port,
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// Open wraps gorm.Open with the slog query logger, query metrics and pool
// limits. Tests pass the sqlite dialector.
func Open(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newQueryLogger(middleware.Logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := observability.RegisterQueryMetrics(db); err != nil {
		return nil, fmt.Errorf("register query metrics: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	maxOpen := positiveOr(cfg.DBMaxOpenConns, 25)
	maxIdle := min(positiveOr(cfg.DBMaxIdleConns, 5), maxOpen)
	lifetime := time.Duration(positiveOr(cfg.DBConnMaxLifetimeMinutes, 5)) * time.Minute

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
	return nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Ping reports whether the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
