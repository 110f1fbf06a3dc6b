package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
)

func setupTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "bankpulse-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	store, err := NewSQLiteStorage(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func themedReview(id string, bank model.Bank, text string, day int, label model.SentimentLabel, themes ...model.Theme) model.ThemedReview {
	numeric := 0.9
	if label == model.SentimentNegative {
		numeric = -0.9
	} else if label == model.SentimentNeutral {
		numeric = 0.05
	}
	return model.ThemedReview{
		ScoredReview: model.ScoredReview{
			Review: model.Review{
				Text:   text,
				Bank:   bank,
				Date:   time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
				Rating: 3,
				Source: model.DefaultSource,
			},
			SentimentLabel:   label,
			SentimentScore:   0.9,
			SentimentNumeric: numeric,
		},
		ReviewID: id,
		Themes:   themes,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStorage(t)
	// Running migrations again must be a no-op, not an error.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestMigrate_SeedsBankRegistry(t *testing.T) {
	store := setupTestStorage(t)

	banks, err := store.GetBanks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Bank{model.BankCBE, model.BankBOA, model.BankDashen}, banks)
}

func TestSaveReviews_RoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	in := []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankCBE, "Transfers fail constantly", 2,
			model.SentimentNegative, model.ThemeTransactions),
		themedReview("REVIEW_0002", model.BankCBE, "Smooth and beautiful interface", 1,
			model.SentimentPositive, model.ThemeUserInterface),
	}
	require.NoError(t, store.SaveReviews(ctx, "run-1", in))

	out, err := store.GetReviews(ctx, service.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Newest first.
	assert.Equal(t, "REVIEW_0001", out[0].ReviewID)
	assert.Equal(t, "Transfers fail constantly", out[0].Text)
	assert.Equal(t, model.BankCBE, out[0].Bank)
	assert.Equal(t, model.SentimentNegative, out[0].SentimentLabel)
	assert.InDelta(t, -0.9, out[0].SentimentNumeric, 1e-9)
	assert.Equal(t, []model.Theme{model.ThemeTransactions}, out[0].Themes)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), out[0].Date)
	assert.Equal(t, model.DefaultSource, out[0].Source)
}

func TestSaveReviews_ReplacesBankRows(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReviews(ctx, "run-1", []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankCBE, "Old CBE review", 1, model.SentimentPositive),
		themedReview("REVIEW_0002", model.BankBOA, "Old BOA review", 1, model.SentimentPositive),
	}))

	// A new batch containing only CBE replaces CBE rows and leaves BOA alone.
	require.NoError(t, store.SaveReviews(ctx, "run-2", []model.ThemedReview{
		themedReview("REVIEW_0003", model.BankCBE, "New CBE review", 2, model.SentimentNegative),
	}))

	counts, err := store.CountReviewsByBank(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.BankCBE])
	assert.Equal(t, 1, counts[model.BankBOA])

	_, err = store.GetReviewByID(ctx, "REVIEW_0001")
	assert.ErrorIs(t, err, common.ErrNotFound)

	kept, err := store.GetReviewByID(ctx, "REVIEW_0002")
	require.NoError(t, err)
	assert.Equal(t, "Old BOA review", kept.Text)
}

func TestSaveReviews_DuplicateInBatchFails(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	err := store.SaveReviews(ctx, "run-1", []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankCBE, "Same text same day", 1, model.SentimentPositive),
		themedReview("REVIEW_0002", model.BankCBE, "Same text same day", 1, model.SentimentNegative),
	})
	assert.Error(t, err, "(review_text, bank, review_date) uniqueness is enforced by schema")
}

func TestSaveReviews_EmptyBatch(t *testing.T) {
	store := setupTestStorage(t)
	err := store.SaveReviews(context.Background(), "run-1", nil)
	assert.ErrorIs(t, err, common.ErrNoReviews)
}

func TestGetReviews_Filters(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReviews(ctx, "run-1", []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankCBE, "Login broken again", 1,
			model.SentimentNegative, model.ThemeLoginAccess),
		themedReview("REVIEW_0002", model.BankCBE, "Love the quick transfers", 2,
			model.SentimentPositive, model.ThemeTransactions),
		themedReview("REVIEW_0003", model.BankBOA, "Crashes during login flow", 3,
			model.SentimentNegative, model.ThemeLoginAccess, model.ThemePerformance),
	}))

	bank := model.BankCBE
	out, err := store.GetReviews(ctx, service.ReviewFilter{Bank: &bank})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	label := model.SentimentNegative
	out, err = store.GetReviews(ctx, service.ReviewFilter{Label: &label})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	theme := model.ThemeLoginAccess
	out, err = store.GetReviews(ctx, service.ReviewFilter{Theme: &theme})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	// A theme id must not match inside another stored theme id.
	uiTheme := model.ThemeUserInterface
	out, err = store.GetReviews(ctx, service.ReviewFilter{Theme: &uiTheme})
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = store.GetReviews(ctx, service.ReviewFilter{Bank: &bank, Label: &label})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "REVIEW_0001", out[0].ReviewID)

	out, err = store.GetReviews(ctx, service.ReviewFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = store.GetReviews(ctx, service.ReviewFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestGetReviewByID_NotFound(t *testing.T) {
	store := setupTestStorage(t)
	_, err := store.GetReviewByID(context.Background(), "REVIEW_9999")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSentimentSummary(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	batch := []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankCBE, "Great app overall", 1, model.SentimentPositive),
		themedReview("REVIEW_0002", model.BankCBE, "Terrible update this week", 2, model.SentimentNegative),
		themedReview("REVIEW_0003", model.BankCBE, "It is what it is", 3, model.SentimentNeutral),
		themedReview("REVIEW_0004", model.BankBOA, "Pretty decent experience", 1, model.SentimentPositive),
	}
	require.NoError(t, store.SaveReviews(ctx, "run-1", batch))

	summaries, err := store.SentimentSummary(ctx)
	require.NoError(t, err)

	cbe := summaries[model.BankCBE]
	assert.Equal(t, 3, cbe.ReviewCount)
	assert.Equal(t, 1, cbe.ByLabel[model.SentimentPositive])
	assert.Equal(t, 1, cbe.ByLabel[model.SentimentNegative])
	assert.Equal(t, 1, cbe.ByLabel[model.SentimentNeutral])
	assert.InDelta(t, (0.9-0.9+0.05)/3, cbe.MeanNumeric, 1e-9)
	assert.InDelta(t, 3.0, cbe.MeanRating, 1e-9)

	boa := summaries[model.BankBOA]
	assert.Equal(t, 1, boa.ReviewCount)
	assert.InDelta(t, 0.9, boa.MeanNumeric, 1e-9)
}

func TestRuns(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := store.GetLatestRun(ctx)
	assert.ErrorIs(t, err, common.ErrNotFound)

	first := &service.Run{
		ID:         "run-1",
		StartedAt:  time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 6, 1, 10, 5, 0, 0, time.UTC),
		Stats: service.RunStats{
			Fetched: 1350, Deduped: 1300, Cleaned: 1200,
			Scored: 1195, Themed: 1195,
			FetchFailures: 2, ScoreFailures: 5,
		},
	}
	require.NoError(t, store.SaveRun(ctx, first))

	second := &service.Run{
		ID:         "run-2",
		StartedAt:  time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, 6, 2, 10, 4, 0, 0, time.UTC),
		Stats:      service.RunStats{Fetched: 1400, Cleaned: 1250, Scored: 1250, Themed: 1250},
	}
	require.NoError(t, store.SaveRun(ctx, second))

	latest, err := store.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.ID)
	assert.Equal(t, 1400, latest.Stats.Fetched)

	// Saving the same id again updates in place.
	second.Stats.ScoreFailures = 7
	require.NoError(t, store.SaveRun(ctx, second))

	latest, err = store.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, latest.Stats.ScoreFailures)
}

func TestValidateArguments(t *testing.T) {
	store := setupTestStorage(t)

	err := store.SaveReviews(context.Background(), "", []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankCBE, "Some text", 1, model.SentimentPositive),
	})
	assert.Error(t, err, "runID is required")

	err = store.SaveRun(context.Background(), nil)
	assert.Error(t, err)

	//nolint:staticcheck // intentionally passing a nil context
	err = store.Migrate(nil)
	assert.Error(t, err)
}

func TestCountReviewsByBank_IncludesEmptyBanks(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SaveReviews(ctx, "run-1", []model.ThemedReview{
		themedReview("REVIEW_0001", model.BankDashen, "Only Dashen has data", 1, model.SentimentPositive),
	}))

	counts, err := store.CountReviewsByBank(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts[model.BankCBE])
	assert.Equal(t, 0, counts[model.BankBOA])
	assert.Equal(t, 1, counts[model.BankDashen])
}

func TestGetReviews_MultiThemeRoundTrip(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	in := themedReview("REVIEW_0001", model.BankCBE, "Cannot login and it crashes", 1,
		model.SentimentNegative, model.ThemeLoginAccess, model.ThemePerformance)
	require.NoError(t, store.SaveReviews(ctx, "run-1", []model.ThemedReview{in}))

	out, err := store.GetReviewByID(ctx, "REVIEW_0001")
	require.NoError(t, err)
	assert.Equal(t, []model.Theme{model.ThemeLoginAccess, model.ThemePerformance}, out.Themes)
}

func TestNewSQLiteStorage_CreatesDirectory(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "bankpulse-dir-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	nested := filepath.Join(tmpDir, "a", "b", "test.db")
	store, err := NewSQLiteStorage(nested)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, statErr := os.Stat(filepath.Dir(nested))
	assert.NoError(t, statErr)
}

func TestSaveReviews_LargeBatch(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	batch := make([]model.ThemedReview, 0, 400)
	for i := 0; i < 400; i++ {
		batch = append(batch, themedReview(
			fmt.Sprintf("REVIEW_%04d", i+1),
			model.BankCBE,
			fmt.Sprintf("Unique review text number %d", i),
			(i%28)+1,
			model.SentimentPositive,
		))
	}
	require.NoError(t, store.SaveReviews(ctx, "run-1", batch))

	counts, err := store.CountReviewsByBank(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400, counts[model.BankCBE])
}
