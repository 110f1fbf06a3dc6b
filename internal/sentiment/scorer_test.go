package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
)

func fastRetry() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func testReviews(texts ...string) []model.Review {
	reviews := make([]model.Review, len(texts))
	for i, text := range texts {
		reviews[i] = model.Review{
			Text:   text,
			Bank:   model.BankCBE,
			Date:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Rating: 3,
			Source: model.DefaultSource,
		}
	}
	return reviews
}

func TestNewScorer_Validation(t *testing.T) {
	_, err := NewScorer(nil, Options{})
	assert.ErrorIs(t, err, common.ErrClassifierInit)

	_, err = NewScorer(NewMockClient(), Options{NeutralLow: 0.7, NeutralHigh: 0.3})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	scorer, err := NewScorer(NewMockClient(), Options{})
	require.NoError(t, err)
	assert.NotNil(t, scorer)
}

func TestScoreReviews_NeutralBand(t *testing.T) {
	tests := []struct {
		name        string
		score       BinaryScore
		wantLabel   model.SentimentLabel
		wantNumeric float64
	}{
		{
			name:        "confident positive stays positive",
			score:       BinaryScore{Label: model.SentimentPositive, Confidence: 0.95},
			wantLabel:   model.SentimentPositive,
			wantNumeric: 0.95,
		},
		{
			name:        "confident negative stays negative",
			score:       BinaryScore{Label: model.SentimentNegative, Confidence: 0.88},
			wantLabel:   model.SentimentNegative,
			wantNumeric: -0.88,
		},
		{
			name:        "low-confidence positive becomes neutral",
			score:       BinaryScore{Label: model.SentimentPositive, Confidence: 0.55},
			wantLabel:   model.SentimentNeutral,
			wantNumeric: 0.05,
		},
		{
			name:        "low-confidence negative becomes neutral with negative lean",
			score:       BinaryScore{Label: model.SentimentNegative, Confidence: 0.58},
			wantLabel:   model.SentimentNeutral,
			wantNumeric: -0.08,
		},
		{
			name:        "band boundary is inclusive at the bottom",
			score:       BinaryScore{Label: model.SentimentPositive, Confidence: 0.4},
			wantLabel:   model.SentimentNeutral,
			wantNumeric: -0.1,
		},
		{
			name:        "band boundary is inclusive at the top",
			score:       BinaryScore{Label: model.SentimentPositive, Confidence: 0.6},
			wantLabel:   model.SentimentNeutral,
			wantNumeric: 0.1,
		},
		{
			name:        "just above the band stays binary",
			score:       BinaryScore{Label: model.SentimentPositive, Confidence: 0.61},
			wantLabel:   model.SentimentPositive,
			wantNumeric: 0.61,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockClient()
			client.Scores["review under test"] = tt.score

			scorer, err := NewScorer(client, Options{Retry: fastRetry()})
			require.NoError(t, err)

			out, stats, err := scorer.ScoreReviews(context.Background(), testReviews("review under test"))
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, 1, stats.Scored)

			assert.Equal(t, tt.wantLabel, out[0].SentimentLabel)
			assert.InDelta(t, tt.wantNumeric, out[0].SentimentNumeric, 1e-9)
			assert.Equal(t, tt.score.Confidence, out[0].SentimentScore,
				"raw confidence is preserved alongside the overridden label")
		})
	}
}

func TestScoreReviews_BatchBoundariesDontChangeResults(t *testing.T) {
	texts := []string{
		"transfer failed again, really bad experience",
		"works perfectly every single time",
		"crashes whenever I open it",
		"love the new design so much",
		"slow to load my balance",
		"not able to pay my bills",
		"excellent support from the team",
	}
	reviews := testReviews(texts...)

	score := func(batchSize int) []model.ScoredReview {
		scorer, err := NewScorer(NewMockClient(), Options{
			BatchSize:            batchSize,
			MaxConcurrentBatches: 3,
			Retry:                fastRetry(),
		})
		require.NoError(t, err)
		out, _, err := scorer.ScoreReviews(context.Background(), reviews)
		require.NoError(t, err)
		return out
	}

	small := score(2)
	large := score(100)

	require.Len(t, small, len(texts))
	require.Equal(t, len(small), len(large))
	for i := range small {
		assert.Equal(t, small[i], large[i],
			"batch size must not affect scores or order (index %d)", i)
	}
}

func TestScoreReviews_OrderPreserved(t *testing.T) {
	texts := []string{"first review text here", "second review text here", "third review text here"}
	scorer, err := NewScorer(NewMockClient(), Options{BatchSize: 1, Retry: fastRetry()})
	require.NoError(t, err)

	out, _, err := scorer.ScoreReviews(context.Background(), testReviews(texts...))
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, text := range texts {
		assert.Equal(t, text, out[i].Text)
	}
}

func TestScoreReviews_PerRecordFailureDropsOnlyThatRecord(t *testing.T) {
	client := NewMockClient()
	client.FailOn["poison text that never scores"] = true

	scorer, err := NewScorer(client, Options{BatchSize: 3, Retry: fastRetry()})
	require.NoError(t, err)

	out, stats, err := scorer.ScoreReviews(context.Background(), testReviews(
		"good review one here",
		"poison text that never scores",
		"good review two here",
	))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 1, stats.Failed)
	require.Len(t, out, 2)
	assert.Equal(t, "good review one here", out[0].Text)
	assert.Equal(t, "good review two here", out[1].Text)
}

func TestScoreReviews_AllFailedIsError(t *testing.T) {
	client := NewMockClient()
	client.FailOn["poison one poison one"] = true
	client.FailOn["poison two poison two"] = true

	scorer, err := NewScorer(client, Options{BatchSize: 2, Retry: fastRetry()})
	require.NoError(t, err)

	_, stats, err := scorer.ScoreReviews(context.Background(), testReviews(
		"poison one poison one",
		"poison two poison two",
	))
	assert.ErrorIs(t, err, common.ErrScoringFailed)
	assert.Equal(t, 0, stats.Scored)
}

func TestScoreReviews_EmptyInput(t *testing.T) {
	scorer, err := NewScorer(NewMockClient(), Options{Retry: fastRetry()})
	require.NoError(t, err)

	out, stats, err := scorer.ScoreReviews(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, Stats{}, stats)
}

func TestScoreReviews_ScoreRanges(t *testing.T) {
	texts := []string{
		"bad slow crash fail everything",
		"wonderful superb lovely great",
		"not sure about this one",
	}
	scorer, err := NewScorer(NewMockClient(), Options{Retry: fastRetry()})
	require.NoError(t, err)

	out, _, err := scorer.ScoreReviews(context.Background(), testReviews(texts...))
	require.NoError(t, err)

	for _, r := range out {
		assert.GreaterOrEqual(t, r.SentimentScore, 0.0)
		assert.LessOrEqual(t, r.SentimentScore, 1.0)
		assert.GreaterOrEqual(t, r.SentimentNumeric, -1.0)
		assert.LessOrEqual(t, r.SentimentNumeric, 1.0)
		assert.True(t, r.SentimentLabel.Valid())
	}
}

func TestScoreReviews_ProgressReported(t *testing.T) {
	var calls int
	var last int
	scorer, err := NewScorer(NewMockClient(), Options{
		BatchSize:            2,
		MaxConcurrentBatches: 1,
		Retry:                fastRetry(),
		Progress: func(completed, total int) {
			calls++
			last = completed
			assert.Equal(t, 3, total)
		},
	})
	require.NoError(t, err)

	_, _, err = scorer.ScoreReviews(context.Background(), testReviews(
		"review one text here", "review two text here", "review three text here",
		"review four text here", "review five text here",
	))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, last)
}

func TestScoreReviews_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewMockClient()
	client.Err = errors.New("unreachable")

	scorer, err := NewScorer(client, Options{Retry: fastRetry()})
	require.NoError(t, err)

	_, _, err = scorer.ScoreReviews(ctx, testReviews("some review text here"))
	assert.Error(t, err)
}
