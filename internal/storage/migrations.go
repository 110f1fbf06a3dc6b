package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: bank registry and reviews",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS banks (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					code TEXT UNIQUE NOT NULL,
					name TEXT NOT NULL
				)`,

				`CREATE TABLE IF NOT EXISTS reviews (
					review_id TEXT PRIMARY KEY,
					bank_id INTEGER NOT NULL,
					review_text TEXT NOT NULL,
					rating INTEGER NOT NULL,
					review_date DATE NOT NULL,
					source TEXT NOT NULL DEFAULT 'Google Play',
					sentiment_label TEXT,
					sentiment_score REAL,
					sentiment_numeric REAL,
					themes TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (bank_id) REFERENCES banks(id),
					UNIQUE (review_text, bank_id, review_date)
				)`,
				`CREATE INDEX idx_reviews_bank ON reviews(bank_id)`,
				`CREATE INDEX idx_reviews_date ON reviews(review_date)`,

				`INSERT INTO banks (code, name) VALUES
					('CBE', 'Commercial Bank of Ethiopia'),
					('BOA', 'Bank of Abyssinia'),
					('Dashen', 'Dashen Bank')`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add pipeline run bookkeeping",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					fetched INTEGER DEFAULT 0,
					deduped INTEGER DEFAULT 0,
					cleaned INTEGER DEFAULT 0,
					scored INTEGER DEFAULT 0,
					themed INTEGER DEFAULT 0,
					fetch_failures INTEGER DEFAULT 0,
					score_failures INTEGER DEFAULT 0
				)`,
				`ALTER TABLE reviews ADD COLUMN run_id TEXT REFERENCES runs(id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index sentiment for reporting queries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON reviews(sentiment_label)`)
			return err
		},
	},
}

// Migrate brings the database schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, migration.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}
