// Package fetch retrieves raw reviews per bank from a review source with
// bounded retries and exponential backoff.
package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
	"golang.org/x/sync/errgroup"
)

// Options configures fetch policy.
type Options struct {
	// TargetPerBank is how many cleaned reviews each bank ultimately needs.
	TargetPerBank int
	// OverfetchFactor inflates the request volume to absorb expected loss
	// during normalization.
	OverfetchFactor float64
	PageSize        int
	Retry           service.RetryOptions
}

// DefaultOptions returns the default fetch policy.
func DefaultOptions() Options {
	return Options{
		TargetPerBank:   400,
		OverfetchFactor: 1.125, // ~450 requested for a 400 target
		PageSize:        50,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Result is the outcome of fetching one bank's reviews.
type Result struct {
	Bank        model.Bank
	Reviews     []model.RawReview
	FailedPages int
}

// Fetcher pulls raw reviews from a ReviewSource in paginated batches.
type Fetcher struct {
	source service.ReviewSource
	opts   Options
}

// New creates a fetcher over the given source.
func New(source service.ReviewSource, opts Options) *Fetcher {
	if opts.TargetPerBank <= 0 {
		opts.TargetPerBank = DefaultOptions().TargetPerBank
	}
	if opts.OverfetchFactor < 1.0 {
		opts.OverfetchFactor = DefaultOptions().OverfetchFactor
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultOptions().PageSize
	}
	return &Fetcher{source: source, opts: opts}
}

// FetchBank retrieves up to target*overfetch reviews for one bank. A page
// whose retries are exhausted is logged and skipped; remaining pages are
// still fetched, so the result may fall short of the target.
func (f *Fetcher) FetchBank(ctx context.Context, bank model.Bank, appID string) (*Result, error) {
	want := int(float64(f.opts.TargetPerBank) * f.opts.OverfetchFactor)

	// Give up on a bank after this many consecutive dead pages; the source
	// is down, not just flaky.
	const maxConsecutiveFailures = 3

	result := &Result{Bank: bank}
	offset := 0
	consecutiveFailures := 0

	for len(result.Reviews) < want {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var page *service.ReviewPage
		err := common.WithRetry(ctx, func() error {
			p, fetchErr := f.source.FetchPage(ctx, appID, offset, f.opts.PageSize)
			if fetchErr != nil {
				return &common.RetryableError{Err: fetchErr, Retryable: true}
			}
			page = p
			return nil
		}, f.opts.Retry)

		if err != nil {
			// Partial-result fault: skip this page, keep going.
			result.FailedPages++
			consecutiveFailures++
			slog.Warn("Page fetch failed after retries, skipping",
				"bank", bank,
				"app_id", appID,
				"offset", offset,
				"error", err)
			if consecutiveFailures >= maxConsecutiveFailures {
				slog.Error("Too many consecutive page failures, stopping bank fetch",
					"bank", bank,
					"fetched", len(result.Reviews))
				break
			}
			offset += f.opts.PageSize
			continue
		}
		consecutiveFailures = 0

		for i := range page.Reviews {
			page.Reviews[i].Bank = bank
		}
		result.Reviews = append(result.Reviews, page.Reviews...)

		if !page.HasMore || len(page.Reviews) == 0 {
			break
		}
		offset += f.opts.PageSize
	}

	slog.Info("Fetched bank reviews",
		"bank", bank,
		"count", len(result.Reviews),
		"failed_pages", result.FailedPages)

	return result, nil
}

// FetchAll retrieves reviews for every configured bank concurrently.
// Only context cancellation aborts the whole fetch; per-bank shortfalls are
// reported in the results.
func (f *Fetcher) FetchAll(ctx context.Context, apps map[model.Bank]string) ([]model.RawReview, map[model.Bank]*Result, error) {
	var mu sync.Mutex
	results := make(map[model.Bank]*Result, len(apps))

	g, gctx := errgroup.WithContext(ctx)
	for bank, appID := range apps {
		g.Go(func() error {
			res, err := f.FetchBank(gctx, bank, appID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[bank] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Flatten in canonical bank order for a stable downstream sequence.
	var all []model.RawReview
	for _, bank := range model.AllBanks {
		if res, ok := results[bank]; ok {
			all = append(all, res.Reviews...)
		}
	}

	return all, results, nil
}
