package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted in DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema steps run at startup.
type SchemaPlan struct {
	Mode        string
	SQL         bool // embedded SQL migrations
	AutoMigrate bool // gorm AutoMigrate of PersistentModels
}

// PlanSchema resolves the schema mode for cfg. AutoMigrate never runs in
// staging or production unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	deployed := deployedEnv(cfg.Env)

	switch mode {
	case SchemaModeSQL:
		return SchemaPlan{Mode: mode, SQL: true}, nil
	case SchemaModeHybrid:
		return SchemaPlan{Mode: mode, SQL: true, AutoMigrate: !deployed}, nil
	case SchemaModeAuto:
		if deployed && !cfg.DBAutoMigrateAllowDestructive {
			return SchemaPlan{}, fmt.Errorf("DB_SCHEMA_MODE=auto is refused in %q unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		return SchemaPlan{Mode: mode, AutoMigrate: true}, nil
	}
	return SchemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
}

func deployedEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs the steps PlanSchema selects for cfg.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}

	if plan.SQL {
		migrator, err := NewMigrator(db)
		if err != nil {
			return err
		}
		n, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		middleware.Logger.Info("SQL migrations up to date", slog.Int("applied", n))
	}

	if plan.AutoMigrate {
		if plan.Mode == SchemaModeAuto && deployedEnv(cfg.Env) {
			middleware.Logger.Warn("AutoMigrate running in a deployed environment", slog.String("env", cfg.Env))
		}
		if err := autoMigrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// SchemaStatus is what cmd/migrate status prints.
type SchemaStatus struct {
	Plan    SchemaPlan
	Applied []int
	Pending []Migration
}

// GetSchemaStatus reports the plan and, when SQL migrations are enabled,
// which versions are applied and pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{Plan: plan}
	if !plan.SQL {
		return status, nil
	}

	migrator, err := NewMigrator(db)
	if err != nil {
		return nil, err
	}
	if status.Applied, err = migrator.Applied(ctx); err != nil {
		return nil, err
	}
	if status.Pending, err = migrator.Pending(ctx); err != nil {
		return nil, err
	}
	return status, nil
}
