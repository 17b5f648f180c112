// Package main is the entrypoint for the ai-services gateway.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/GYFX35/AI-services/internal/config"
	"github.com/GYFX35/AI-services/internal/server"
	"github.com/GYFX35/AI-services/pkg/db"
)

const usage = `Usage: ai-services [command]

Commands:
  (default)   Start the gateway (HTTP, capabilities, settlement).
  migrate     Run database migrations only (does not start the server).
  seed        Insert the showcase projects and a demo user.
  clear       Truncate all gateway tables; schema is preserved.

Environment: DATABASE_URL, MIGRATION_PATH (migrate), STRIPE_SECRET_KEY, API_KEYS. See README for full list.
`

func main() {
	// A local .env augments the environment; absence is fine.
	godotenv.Load()

	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "migrate":
		if err := runMigrate(); err != nil {
			log.Fatalf("ai-services migrate: %v", err)
		}
		return
	case "seed":
		if err := runSeed(); err != nil {
			log.Fatalf("ai-services seed: %v", err)
		}
		return
	case "clear":
		if err := runClear(); err != nil {
			log.Fatalf("ai-services clear: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "":
		// fall through to server
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("ai-services: fatal error: %v", err)
	}
}

func dbConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runMigrate() error {
	cfg, err := dbConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := db.EnsureDatabase(ctx, cfg.DatabaseURL); err != nil {
		return fmt.Errorf("ensure database: %w", err)
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func runSeed() error {
	cfg, err := dbConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.SeedShowcase(ctx, db.NewRepository(pool)); err != nil {
		return fmt.Errorf("seed showcase: %w", err)
	}
	return nil
}

func runClear() error {
	cfg, err := dbConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.ClearTables(ctx, pool); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}
	return nil
}
