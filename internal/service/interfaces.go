// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// ReviewPage is one page of raw reviews from a store source.
type ReviewPage struct {
	Reviews []model.RawReview
	HasMore bool
}

// AppInfo describes a store listing, used to verify apps before scraping.
type AppInfo struct {
	AppID    string
	Title    string
	Installs string
	Score    float64
}

// ReviewSource is the contract for a store review backend. Pages are
// addressed by offset so a failed page can be skipped without losing the
// rest of the fetch.
type ReviewSource interface {
	VerifyApp(ctx context.Context, appID string) (*AppInfo, error)
	FetchPage(ctx context.Context, appID string, offset, pageSize int) (*ReviewPage, error)
}

// ReviewFilter defines filtering options for review queries.
type ReviewFilter struct {
	Bank   *model.Bank
	Label  *model.SentimentLabel
	Theme  *model.Theme
	Limit  int
	Offset int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Review operations
	SaveReviews(ctx context.Context, runID string, reviews []model.ThemedReview) error
	GetReviews(ctx context.Context, filter ReviewFilter) ([]model.ThemedReview, error)
	GetReviewByID(ctx context.Context, reviewID string) (*model.ThemedReview, error)
	CountReviewsByBank(ctx context.Context) (map[model.Bank]int, error)

	// Bank registry
	GetBanks(ctx context.Context) ([]model.Bank, error)

	// Run bookkeeping
	SaveRun(ctx context.Context, run *Run) error
	GetLatestRun(ctx context.Context) (*Run, error)

	// Aggregates for reporting
	SentimentSummary(ctx context.Context) (map[model.Bank]SentimentSummary, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Run records one pipeline execution and its stage-by-stage counts, so
// silent data loss between stages stays observable.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	Stats      RunStats
}

// RunStats carries the record count surviving each pipeline stage.
type RunStats struct {
	Fetched       int
	Deduped       int
	Cleaned       int
	Scored        int
	Themed        int
	FetchFailures int
	ScoreFailures int
}

// SentimentSummary aggregates sentiment for one bank.
type SentimentSummary struct {
	ByLabel     map[model.SentimentLabel]int
	ReviewCount int
	MeanNumeric float64
	MeanRating  float64
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
