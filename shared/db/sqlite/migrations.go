package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dfryer1193/esatsite/shared/db"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of schema changes. Each must be safe to
// run against a database that already has it.
var migrations = []migration{
	{
		version: 1,
		name:    "create_page_cache_table",
		up: `
			CREATE TABLE IF NOT EXISTS page_cache (
				cache_key TEXT PRIMARY KEY,
				path TEXT NOT NULL,
				status INTEGER NOT NULL,
				content_type TEXT NOT NULL,
				body BLOB NOT NULL,
				created_at TIMESTAMP NOT NULL,
				expires_at TIMESTAMP
			);

			CREATE INDEX IF NOT EXISTS idx_page_cache_path
			ON page_cache(path);
		`,
	},
	{
		version: 2,
		name:    "create_page_cache_tags_table",
		up: `
			CREATE TABLE IF NOT EXISTS page_cache_tags (
				cache_key TEXT NOT NULL REFERENCES page_cache(cache_key) ON DELETE CASCADE,
				tag TEXT NOT NULL,
				PRIMARY KEY (cache_key, tag)
			);

			CREATE INDEX IF NOT EXISTS idx_page_cache_tags_tag
			ON page_cache_tags(tag);
		`,
	},
}

func runMigrations(ctx context.Context, conn *sql.DB) error {
	_, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		err := db.RunInTransaction(ctx, conn, func(txCtx context.Context) error {
			executor := db.GetExecutor(txCtx, conn)
			if _, err := executor.ExecContext(txCtx, m.up); err != nil {
				return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
			}
			if _, err := executor.ExecContext(txCtx,
				"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
				m.version,
				m.name,
			); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
