package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vidtube/internal/middleware"

	"gorm.io/gorm"
)

// appliedMigration is a row of schema_versions.
type appliedMigration struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt time.Time
}

func (appliedMigration) TableName() string { return "schema_versions" }

// Migrator applies and reverts SQL migrations, recording each applied
// version in schema_versions.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) (*Migrator, error) {
	list, err := Migrations()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: list}, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&appliedMigration{}); err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}
	return nil
}

// Applied lists applied versions in ascending order.
func (m *Migrator) Applied(ctx context.Context) ([]int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var versions []int
	err := m.db.WithContext(ctx).Model(&appliedMigration{}).Order("version").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("read schema_versions: %w", err)
	}
	return versions, nil
}

// Pending lists migrations not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.checkKnown(applied); err != nil {
		return nil, err
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, mig := range m.migrations {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns how many ran.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, mig := range pending {
		middleware.Logger.Info("Applying migration", slog.String("migration", mig.ID()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.Up).Error; err != nil {
				return err
			}
			return tx.Create(&appliedMigration{Version: mig.Version, Name: mig.Name, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return i, fmt.Errorf("migration %s: %w", mig.ID(), err)
		}
	}
	return len(pending), nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	mig, ok := m.find(version)
	if !ok {
		return fmt.Errorf("migration version %d not found", version)
	}
	applied, err := m.Applied(ctx)
	if err != nil {
		return err
	}
	if !containsVersion(applied, version) {
		return fmt.Errorf("migration %s has not been applied", mig.ID())
	}

	middleware.Logger.Info("Reverting migration", slog.String("migration", mig.ID()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.Down).Error; err != nil {
			return fmt.Errorf("migration %s down: %w", mig.ID(), err)
		}
		return tx.Where("version = ?", version).Delete(&appliedMigration{}).Error
	})
}

func (m *Migrator) find(version int) (Migration, bool) {
	for _, mig := range m.migrations {
		if mig.Version == version {
			return mig, true
		}
	}
	return Migration{}, false
}

// checkKnown fails when the database has versions this binary does not ship,
// which means an older build is running against a newer schema.
func (m *Migrator) checkKnown(applied []int) error {
	var unknown []string
	for _, v := range applied {
		if _, ok := m.find(v); !ok {
			unknown = append(unknown, fmt.Sprintf("%06d", v))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("schema_versions has versions unknown to this build: %s", strings.Join(unknown, ", "))
	}
	return nil
}

func containsVersion(versions []int, v int) bool {
	for _, have := range versions {
		if have == v {
			return true
		}
	}
	return false
}
