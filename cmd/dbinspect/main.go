// Command dbinspect prints schema details of the Postgres database and can
// reset it during local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"vidtube/internal/config"
	"vidtube/internal/database"

	"gorm.io/gorm"
)

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/dbinspect <tables|columns <table>|constraints [table]|fk|nuke>")
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return err
	}

	switch strings.ToLower(flag.Arg(0)) {
	case "tables":
		return listTables(db)
	case "columns":
		if flag.NArg() < 2 {
			return usage()
		}
		return listColumns(db, flag.Arg(1))
	case "constraints":
		return listConstraints(db, flag.Arg(1))
	case "fk":
		return listForeignKeys(db)
	case "nuke":
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to drop the schema in production")
		}
		return nuke(db)
	default:
		return usage()
	}
}

func listTables(db *gorm.DB) error {
	var tables []struct {
		Name string `gorm:"column:table_name"`
		Rows int64  `gorm:"column:row_estimate"`
	}
	err := db.Raw(`
		SELECT t.table_name, COALESCE(s.n_live_tup, 0) AS row_estimate
		FROM information_schema.tables t
		LEFT JOIN pg_stat_user_tables s ON s.relname = t.table_name
		WHERE t.table_schema = 'public'
		ORDER BY t.table_name`).Scan(&tables).Error
	if err != nil {
		return err
	}
	fmt.Println("Tables in public schema:")
	for _, t := range tables {
		fmt.Printf(" - %s (~%d rows)\n", t.Name, t.Rows)
	}
	return nil
}

func listColumns(db *gorm.DB, table string) error {
	var columns []struct {
		ColumnName string `gorm:"column:column_name"`
		DataType   string `gorm:"column:data_type"`
		Nullable   string `gorm:"column:is_nullable"`
	}
	err := db.Raw(`
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = ?
		ORDER BY ordinal_position`, table).Scan(&columns).Error
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %q not found", table)
	}
	fmt.Printf("Columns in %s:\n", table)
	for _, c := range columns {
		fmt.Printf(" - %s: %s (nullable=%s)\n", c.ColumnName, c.DataType, c.Nullable)
	}
	return nil
}

func listConstraints(db *gorm.DB, table string) error {
	var result []struct {
		Relname string `gorm:"column:relname"`
		Conname string `gorm:"column:conname"`
		Def     string `gorm:"column:def"`
	}
	q := db.Raw(`
		SELECT r.relname, c.conname, pg_get_constraintdef(c.oid) AS def
		FROM pg_constraint c
		JOIN pg_class r ON c.conrelid = r.oid
		JOIN pg_namespace n ON n.oid = r.relnamespace
		WHERE n.nspname = 'public' AND (? = '' OR r.relname = ?)
		ORDER BY r.relname, c.conname`, table, table)
	if err := q.Scan(&result).Error; err != nil {
		return err
	}
	fmt.Println("Constraints (public schema):")
	for _, r := range result {
		fmt.Printf(" - %s on %s: %s\n", r.Conname, r.Relname, r.Def)
	}
	return nil
}

func listForeignKeys(db *gorm.DB) error {
	var fks []struct {
		Table      string `gorm:"column:table_name"`
		Column     string `gorm:"column:column_name"`
		RefTable   string `gorm:"column:foreign_table"`
		RefColumn  string `gorm:"column:foreign_column"`
		DeleteRule string `gorm:"column:delete_rule"`
	}
	err := db.Raw(`
		SELECT tc.table_name, kcu.column_name,
		       ccu.table_name AS foreign_table, ccu.column_name AS foreign_column,
		       rc.delete_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
		JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name
		JOIN information_schema.referential_constraints rc ON rc.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = 'public'
		ORDER BY tc.table_name, kcu.column_name`).Scan(&fks).Error
	if err != nil {
		return err
	}
	fmt.Println("Foreign keys:")
	for _, fk := range fks {
		fmt.Printf(" - %s.%s -> %s.%s (on delete %s)\n", fk.Table, fk.Column, fk.RefTable, fk.RefColumn, fk.DeleteRule)
	}
	return nil
}

func nuke(db *gorm.DB) error {
	fmt.Println("Nuking database...")
	if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		return fmt.Errorf("failed to nuke schema: %w", err)
	}
	if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		return fmt.Errorf("failed to grant schema permissions: %w", err)
	}
	fmt.Println("Database nuked.")
	return nil
}
