package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations contains all database migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			CREATE TABLE IF NOT EXISTS news_posts (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				text TEXT NOT NULL,
				url TEXT NOT NULL DEFAULT '',
				canonical_url TEXT NOT NULL DEFAULT '',

				-- Link preview
				preview JSONB NOT NULL DEFAULT '{}',
				preview_status VARCHAR(20) NOT NULL DEFAULT 'pending',
				preview_error TEXT,

				-- Discord-specific fields
				discord_message_id VARCHAR(20),
				discord_channel_id VARCHAR(20),

				-- Timestamps
				posted_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),

				UNIQUE(discord_message_id),
				CHECK (preview_status IN ('pending', 'processing', 'complete', 'failed', 'skipped'))
			);

			CREATE INDEX IF NOT EXISTS idx_news_posts_posted
			ON news_posts(posted_at DESC);

			CREATE INDEX IF NOT EXISTS idx_news_posts_canonical_url
			ON news_posts(canonical_url);

			CREATE INDEX IF NOT EXISTS idx_news_posts_status
			ON news_posts(preview_status);
		`,
	},
}

// RunMigrations executes all pending database migrations
func RunMigrations(db *sql.DB, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetMigrationStatus(db)
	if err != nil {
		return err
	}

	logger.Info("Current migration version", "version", currentVersion)

	applied := 0
	for _, migration := range pendingMigrations(currentVersion) {
		logger.Info("Applying migration",
			"version", migration.Version,
			"name", migration.Name,
		)

		if err := applyMigration(db, migration); err != nil {
			return err
		}

		applied++
		logger.Info("Migration applied successfully", "version", migration.Version)
	}

	if applied == 0 {
		logger.Info("No migrations to apply - database is up to date")
	} else {
		logger.Info("Database migrations completed", "applied", applied)
	}

	return nil
}

// pendingMigrations returns the migrations newer than version, in order
func pendingMigrations(version int) []Migration {
	var pending []Migration
	for _, migration := range migrations {
		if migration.Version > version {
			pending = append(pending, migration)
		}
	}
	return pending
}

func applyMigration(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
	}

	if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES ($1, $2)",
		migration.Version, migration.Name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}

// LatestVersion returns the version of the newest known migration
func LatestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}

// GetMigrationStatus returns the current migration status
func GetMigrationStatus(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration status: %w", err)
	}
	return version, nil
}

// ResetDatabase drops all tables (for testing)
func ResetDatabase(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	logger.Warn("Resetting database - all data will be lost")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DROP TABLE IF EXISTS news_posts CASCADE",
		"DROP TABLE IF EXISTS migrations CASCADE",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute drop statement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset transaction: %w", err)
	}

	logger.Info("Database reset completed")
	return nil
}
