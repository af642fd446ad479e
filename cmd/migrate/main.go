// Command migrate applies, inspects and reverts the database schema.
//
//	migrate up            apply pending SQL migrations
//	migrate auto          run gorm AutoMigrate over every model
//	migrate status        print the schema plan and pending migrations
//	migrate down VERSION  revert one migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"vidtube/internal/config"
	"vidtube/internal/database"
)

var errUsage = errors.New("usage: migrate up | auto | status | down VERSION")

func main() {
	flag.Parse()
	if err := run(context.Background(), flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{})
	if err != nil {
		return err
	}

	switch args[0] {
	case "up":
		migrator, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		n, err := migrator.Up(ctx)
		if err != nil {
			return err
		}
		log.Printf("applied %d migration(s)", n)

	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		log.Println("models migrated")

	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		log.Printf("env=%s mode=%s sql=%t automigrate=%t applied=%v",
			cfg.Env, status.Plan.Mode, status.Plan.SQL, status.Plan.AutoMigrate, status.Applied)
		for _, m := range status.Pending {
			log.Printf("pending %s", m.ID())
		}

	case "down":
		if len(args) != 2 {
			return errUsage
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("version %q: %w", args[1], err)
		}
		migrator, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		if err := migrator.Down(ctx, version); err != nil {
			return err
		}
		log.Printf("reverted migration %d", version)

	default:
		return errUsage
	}
	return nil
}
