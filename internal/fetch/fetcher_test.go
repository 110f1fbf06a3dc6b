package fetch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
)

func fastOptions() Options {
	return Options{
		TargetPerBank:   40,
		OverfetchFactor: 1.125,
		PageSize:        10,
		Retry: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2.0,
		},
	}
}

func seedReviews(appID string, count int) []model.RawReview {
	reviews := make([]model.RawReview, count)
	for i := range reviews {
		reviews[i] = model.RawReview{
			Text:     fmt.Sprintf("review %d for %s with enough text", i, appID),
			Author:   fmt.Sprintf("user%d", i),
			PostedAt: "2025-06-01 10:00:00",
			AppID:    appID,
			Rating:   (i % 5) + 1,
		}
	}
	return reviews
}

func TestFetchBank_Overfetch(t *testing.T) {
	source := NewMockSource()
	source.ReviewsByApp["app.cbe"] = seedReviews("app.cbe", 200)

	f := New(source, fastOptions())
	res, err := f.FetchBank(context.Background(), model.BankCBE, "app.cbe")
	require.NoError(t, err)

	// target 40 * 1.125 = 45, rounded up to full pages of 10.
	assert.GreaterOrEqual(t, len(res.Reviews), 45)
	assert.LessOrEqual(t, len(res.Reviews), 50)
	assert.Equal(t, 0, res.FailedPages)

	for _, r := range res.Reviews {
		assert.Equal(t, model.BankCBE, r.Bank, "fetcher stamps the bank on every review")
	}
}

func TestFetchBank_SourceExhausted(t *testing.T) {
	source := NewMockSource()
	source.ReviewsByApp["app.small"] = seedReviews("app.small", 17)

	f := New(source, fastOptions())
	res, err := f.FetchBank(context.Background(), model.BankBOA, "app.small")
	require.NoError(t, err)

	assert.Len(t, res.Reviews, 17, "a short source yields what it has")
}

func TestFetchBank_FailedPageIsSkipped(t *testing.T) {
	source := NewMockSource()
	source.ReviewsByApp["app.flaky"] = seedReviews("app.flaky", 100)
	source.FailOffsets["app.flaky"] = map[int]bool{10: true}

	f := New(source, fastOptions())
	res, err := f.FetchBank(context.Background(), model.BankCBE, "app.flaky")
	require.NoError(t, err)

	assert.Equal(t, 1, res.FailedPages)

	// The page at offset 10 is lost but later pages still arrive.
	texts := make(map[string]bool)
	for _, r := range res.Reviews {
		texts[r.Text] = true
	}
	assert.False(t, texts["review 10 for app.flaky with enough text"])
	assert.True(t, texts["review 25 for app.flaky with enough text"])
}

func TestFetchBank_GivesUpAfterConsecutiveFailures(t *testing.T) {
	source := NewMockSource()
	source.ReviewsByApp["app.dead"] = seedReviews("app.dead", 100)
	source.FailOffsets["app.dead"] = map[int]bool{
		0: true, 10: true, 20: true, 30: true, 40: true,
		50: true, 60: true, 70: true, 80: true, 90: true,
	}

	f := New(source, fastOptions())
	res, err := f.FetchBank(context.Background(), model.BankDashen, "app.dead")
	require.NoError(t, err)

	assert.Empty(t, res.Reviews)
	assert.Equal(t, 3, res.FailedPages, "fetch stops after three consecutive dead pages")
}

func TestFetchAll(t *testing.T) {
	source := NewMockSource()
	source.ReviewsByApp["app.cbe"] = seedReviews("app.cbe", 60)
	source.ReviewsByApp["app.boa"] = seedReviews("app.boa", 60)
	source.ReviewsByApp["app.dashen"] = seedReviews("app.dashen", 60)

	f := New(source, fastOptions())
	all, results, err := f.FetchAll(context.Background(), map[model.Bank]string{
		model.BankCBE:    "app.cbe",
		model.BankBOA:    "app.boa",
		model.BankDashen: "app.dashen",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Flattened output follows canonical bank order regardless of which
	// goroutine finished first.
	var lastIdx = map[model.Bank]int{model.BankCBE: 0, model.BankBOA: 1, model.BankDashen: 2}
	prev := -1
	for _, r := range all {
		idx := lastIdx[r.Bank]
		assert.GreaterOrEqual(t, idx, prev)
		prev = idx
	}

	total := 0
	for _, res := range results {
		total += len(res.Reviews)
	}
	assert.Equal(t, len(all), total)
}

func TestFetchAll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := NewMockSource()
	source.ReviewsByApp["app.cbe"] = seedReviews("app.cbe", 60)

	f := New(source, fastOptions())
	_, _, err := f.FetchAll(ctx, map[model.Bank]string{model.BankCBE: "app.cbe"})
	assert.Error(t, err)
}
