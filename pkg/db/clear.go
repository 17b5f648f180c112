package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

// ClearTables truncates all gateway tables; schema is preserved.
func ClearTables(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info(fmt.Sprintf("%s - truncating gateway tables", clearLogPrefix))
	_, err := pool.Exec(ctx, `TRUNCATE payments, projects, users CASCADE`)
	if err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}
	return nil
}
