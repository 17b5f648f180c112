package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

const migrationsLogPrefix = "db:migrations"

// LoadMigrationFiles collects the gateway's schema files (.sql) from dir in
// lexical order. Files are numbered 001_, 002_, ... so lexical order is
// apply order; RunMigrations executes them forward-only.
func LoadMigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read schema dir %s: %w", migrationsLogPrefix, dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s - no .sql files in %s", migrationsLogPrefix, dir)
	}
	sort.Strings(names)

	contents := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to read %s: %w", migrationsLogPrefix, path, err)
		}
		contents = append(contents, string(data))
	}
	slog.Info(fmt.Sprintf("%s - Loaded %d schema files from %s", migrationsLogPrefix, len(contents), dir))
	return contents, nil
}
