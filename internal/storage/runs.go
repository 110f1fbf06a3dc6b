package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/service"
)

// SaveRun records a pipeline run and its stage counts. Saving an existing
// run id updates the row.
func (s *SQLiteStorage) SaveRun(ctx context.Context, run *service.Run) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run is required")
	}
	if err := validateString(run.ID, "run.ID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, finished_at, fetched, deduped, cleaned, scored, themed,
		 fetch_failures, score_failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			fetched = excluded.fetched,
			deduped = excluded.deduped,
			cleaned = excluded.cleaned,
			scored = excluded.scored,
			themed = excluded.themed,
			fetch_failures = excluded.fetch_failures,
			score_failures = excluded.score_failures`,
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Stats.Fetched,
		run.Stats.Deduped,
		run.Stats.Cleaned,
		run.Stats.Scored,
		run.Stats.Themed,
		run.Stats.FetchFailures,
		run.Stats.ScoreFailures,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// GetLatestRun returns the most recently started run.
func (s *SQLiteStorage) GetLatestRun(ctx context.Context) (*service.Run, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var run service.Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, fetched, deduped, cleaned, scored,
		       themed, fetch_failures, score_failures
		FROM runs
		ORDER BY started_at DESC
		LIMIT 1`).Scan(
		&run.ID,
		&run.StartedAt,
		&run.FinishedAt,
		&run.Stats.Fetched,
		&run.Stats.Deduped,
		&run.Stats.Cleaned,
		&run.Stats.Scored,
		&run.Stats.Themed,
		&run.Stats.FetchFailures,
		&run.Stats.ScoreFailures,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest run: %w", err)
	}

	return &run, nil
}
