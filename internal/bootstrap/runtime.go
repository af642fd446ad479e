// Package bootstrap wires the process-wide runtime: database, cache and
// optional development seed data.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPreset names a seed preset applied when the database has no users.
	// Seeding only happens outside production.
	SeedPreset string
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
// Redis is optional; a nil client means caching and token revocation
// degrade to no-ops.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r := cache.Connect(ctx, cfg.RedisURL)

	if err := SeedIfEmpty(ctx, cfg, db, opts.SeedPreset); err != nil {
		return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
	}

	return db, r, nil
}

// SeedIfEmpty applies the named preset to an empty database. It is a no-op
// in production, when preset is blank, or when any user already exists.
func SeedIfEmpty(ctx context.Context, cfg *config.Config, db *gorm.DB, preset string) error {
	preset = strings.TrimSpace(preset)
	if preset == "" || cfg == nil || db == nil {
		return nil
	}
	if cfg.IsProduction() {
		middleware.Logger.Warn("ignoring SEED_PRESET in production", slog.String("preset", preset))
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if users > 0 {
		return nil
	}

	presets, err := seed.LoadPresets("")
	if err != nil {
		return err
	}
	opts := seed.DefaultOptions()
	opts.BcryptCost = cfg.BcryptCost
	opts, err = seed.ApplyPreset(presets, preset, opts)
	if err != nil {
		return err
	}

	summary, err := seed.NewSeeder(db).Run(ctx, opts)
	if err != nil {
		return err
	}
	middleware.Logger.Info("seeded empty database",
		slog.String("preset", preset),
		slog.Int("users", summary.Users),
		slog.Int("videos", summary.Videos))
	return nil
}
