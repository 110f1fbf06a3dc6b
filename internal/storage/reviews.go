package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
)

const themeSeparator = ","

// SaveReviews persists a finalized batch. Existing rows for the banks in
// the batch are replaced: a run's output supersedes earlier data for the
// same institutions.
func (s *SQLiteStorage) SaveReviews(ctx context.Context, runID string, reviews []model.ThemedReview) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if len(reviews) == 0 {
		return common.ErrNoReviews
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	banks := make(map[model.Bank]bool)
	for i := range reviews {
		banks[reviews[i].Bank] = true
	}
	for bank := range banks {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM reviews WHERE bank_id = (SELECT id FROM banks WHERE code = ?)`,
			string(bank)); err != nil {
			return fmt.Errorf("failed to clear reviews for %s: %w", bank, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reviews
		(review_id, run_id, bank_id, review_text, rating, review_date, source,
		 sentiment_label, sentiment_score, sentiment_numeric, themes)
		VALUES (?, ?, (SELECT id FROM banks WHERE code = ?), ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range reviews {
		r := &reviews[i]
		if _, err := stmt.ExecContext(ctx,
			r.ReviewID,
			runID,
			string(r.Bank),
			r.Text,
			r.Rating,
			r.Date.Format("2006-01-02"),
			r.Source,
			string(r.SentimentLabel),
			r.SentimentScore,
			r.SentimentNumeric,
			joinThemes(r.Themes),
		); err != nil {
			return fmt.Errorf("failed to insert review %s: %w", r.ReviewID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reviews: %w", err)
	}

	return nil
}

// GetReviews returns reviews matching the filter, newest first.
func (s *SQLiteStorage) GetReviews(ctx context.Context, filter service.ReviewFilter) ([]model.ThemedReview, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT r.review_id, b.code, r.review_text, r.rating, r.review_date,
		       r.source, r.sentiment_label, r.sentiment_score, r.sentiment_numeric, r.themes
		FROM reviews r
		JOIN banks b ON b.id = r.bank_id`

	var conditions []string
	var args []any
	if filter.Bank != nil {
		conditions = append(conditions, "b.code = ?")
		args = append(args, string(*filter.Bank))
	}
	if filter.Label != nil {
		conditions = append(conditions, "r.sentiment_label = ?")
		args = append(args, string(*filter.Label))
	}
	if filter.Theme != nil {
		// Themes are stored comma-joined; bracket with separators so one
		// theme id can't match inside another.
		conditions = append(conditions, "(',' || r.themes || ',') LIKE ?")
		args = append(args, "%,"+string(*filter.Theme)+",%")
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY r.review_date DESC, r.review_id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []model.ThemedReview
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *review)
	}

	return reviews, rows.Err()
}

// GetReviewByID returns a single review by its generated id.
func (s *SQLiteStorage) GetReviewByID(ctx context.Context, reviewID string) (*model.ThemedReview, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(reviewID, "reviewID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT r.review_id, b.code, r.review_text, r.rating, r.review_date,
		       r.source, r.sentiment_label, r.sentiment_score, r.sentiment_numeric, r.themes
		FROM reviews r
		JOIN banks b ON b.id = r.bank_id
		WHERE r.review_id = ?`, reviewID)

	review, err := scanReview(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	return review, err
}

// CountReviewsByBank returns the number of stored reviews per bank.
func (s *SQLiteStorage) CountReviewsByBank(ctx context.Context) (map[model.Bank]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.code, COUNT(r.review_id)
		FROM banks b
		LEFT JOIN reviews r ON r.bank_id = b.id
		GROUP BY b.code`)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Bank]int)
	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[model.Bank(code)] = count
	}

	return counts, rows.Err()
}

// GetBanks returns the fixed bank registry.
func (s *SQLiteStorage) GetBanks(ctx context.Context) ([]model.Bank, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT code FROM banks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query banks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var banks []model.Bank
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan bank: %w", err)
		}
		banks = append(banks, model.Bank(code))
	}

	return banks, rows.Err()
}

// SentimentSummary aggregates stored sentiment per bank.
func (s *SQLiteStorage) SentimentSummary(ctx context.Context) (map[model.Bank]service.SentimentSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.code, r.sentiment_label, COUNT(*), AVG(r.sentiment_numeric), AVG(r.rating)
		FROM reviews r
		JOIN banks b ON b.id = r.bank_id
		GROUP BY b.code, r.sentiment_label`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sentiment summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type accum struct {
		numericSum float64
		ratingSum  float64
		count      int
	}
	summaries := make(map[model.Bank]service.SentimentSummary)
	totals := make(map[model.Bank]*accum)

	for rows.Next() {
		var code, label string
		var count int
		var meanNumeric, meanRating float64
		if err := rows.Scan(&code, &label, &count, &meanNumeric, &meanRating); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}

		bank := model.Bank(code)
		summary, ok := summaries[bank]
		if !ok {
			summary = service.SentimentSummary{ByLabel: make(map[model.SentimentLabel]int)}
		}
		summary.ByLabel[model.SentimentLabel(label)] = count
		summaries[bank] = summary

		if totals[bank] == nil {
			totals[bank] = &accum{}
		}
		totals[bank].numericSum += meanNumeric * float64(count)
		totals[bank].ratingSum += meanRating * float64(count)
		totals[bank].count += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for bank, t := range totals {
		summary := summaries[bank]
		summary.ReviewCount = t.count
		if t.count > 0 {
			summary.MeanNumeric = t.numericSum / float64(t.count)
			summary.MeanRating = t.ratingSum / float64(t.count)
		}
		summaries[bank] = summary
	}

	return summaries, nil
}

// scanner abstracts sql.Row and sql.Rows for scanReview.
type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (*model.ThemedReview, error) {
	var r model.ThemedReview
	var bankCode, dateStr, themesStr string

	err := row.Scan(
		&r.ReviewID,
		&bankCode,
		&r.Text,
		&r.Rating,
		&dateStr,
		&r.Source,
		&r.SentimentLabel,
		&r.SentimentScore,
		&r.SentimentNumeric,
		&themesStr,
	)
	if err != nil {
		return nil, err
	}

	r.Bank = model.Bank(bankCode)
	r.Themes = splitThemes(themesStr)

	date, err := time.Parse("2006-01-02", strings.SplitN(dateStr, "T", 2)[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored date %q: %w", dateStr, err)
	}
	r.Date = date

	return &r, nil
}

func joinThemes(themes []model.Theme) string {
	parts := make([]string, len(themes))
	for i, t := range themes {
		parts[i] = string(t)
	}
	return strings.Join(parts, themeSeparator)
}

func splitThemes(s string) []model.Theme {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, themeSeparator)
	themes := make([]model.Theme, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			themes = append(themes, model.Theme(p))
		}
	}
	return themes
}
