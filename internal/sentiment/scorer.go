package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
	"golang.org/x/sync/errgroup"
)

// Options configures scoring policy.
type Options struct {
	// BatchSize is a throughput knob only; batch boundaries never change
	// output values.
	BatchSize int
	// NeutralLow/NeutralHigh bound the confidence band that overrides the
	// binary label to NEUTRAL.
	NeutralLow  float64
	NeutralHigh float64
	// MaxConcurrentBatches caps in-flight inference requests.
	MaxConcurrentBatches int
	Retry                service.RetryOptions
	// Progress, when set, is called after each completed batch.
	Progress func(completed, total int)
}

// DefaultOptions returns the default scoring policy.
func DefaultOptions() Options {
	return Options{
		BatchSize:            32,
		NeutralLow:           0.4,
		NeutralHigh:          0.6,
		MaxConcurrentBatches: 4,
		Retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Stats counts scoring outcomes.
type Stats struct {
	Scored int
	Failed int
}

// Scorer batches cleaned reviews through the binary classifier and applies
// the neutral-band override.
type Scorer struct {
	client Client
	opts   Options
}

// NewScorer creates a scorer over the given classifier client.
func NewScorer(client Client, opts Options) (*Scorer, error) {
	if client == nil {
		return nil, common.ErrClassifierInit
	}

	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.NeutralLow <= 0 {
		opts.NeutralLow = def.NeutralLow
	}
	if opts.NeutralHigh <= 0 {
		opts.NeutralHigh = def.NeutralHigh
	}
	if opts.NeutralLow >= opts.NeutralHigh {
		return nil, fmt.Errorf("%w: neutral band [%f, %f] is inverted",
			common.ErrInvalidConfig, opts.NeutralLow, opts.NeutralHigh)
	}
	if opts.MaxConcurrentBatches <= 0 {
		opts.MaxConcurrentBatches = def.MaxConcurrentBatches
	}

	return &Scorer{client: client, opts: opts}, nil
}

// scoredSlot holds a per-review outcome; failed slots stay nil and are
// excluded when assembling the output.
type scoredSlot struct {
	review model.ScoredReview
	ok     bool
}

// ScoreReviews scores every review, preserving input order. A classifier
// failure on a single text drops that record and is counted; only a fully
// failed run is an error.
func (s *Scorer) ScoreReviews(ctx context.Context, reviews []model.Review) ([]model.ScoredReview, Stats, error) {
	if len(reviews) == 0 {
		return nil, Stats{}, nil
	}

	slots := make([]scoredSlot, len(reviews))
	batches := (len(reviews) + s.opts.BatchSize - 1) / s.opts.BatchSize

	var completed int
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrentBatches)

	progressCh := make(chan struct{}, batches)

	for start := 0; start < len(reviews); start += s.opts.BatchSize {
		end := start + s.opts.BatchSize
		if end > len(reviews) {
			end = len(reviews)
		}
		batch := reviews[start:end]
		offset := start

		g.Go(func() error {
			if err := s.scoreBatch(gctx, batch, slots[offset:offset+len(batch)]); err != nil {
				return err
			}
			progressCh <- struct{}{}
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	for {
		select {
		case <-progressCh:
			completed++
			if s.opts.Progress != nil {
				s.opts.Progress(completed, batches)
			}
		case err := <-done:
			if err != nil {
				return nil, Stats{}, err
			}
			// Flush any progress signals that raced with completion.
			for len(progressCh) > 0 {
				<-progressCh
				completed++
				if s.opts.Progress != nil {
					s.opts.Progress(completed, batches)
				}
			}
			return s.assemble(reviews, slots)
		}
	}
}

// scoreBatch scores one batch, falling back to per-record scoring when the
// batch as a whole keeps failing so one bad text can't sink its neighbors.
func (s *Scorer) scoreBatch(ctx context.Context, batch []model.Review, out []scoredSlot) error {
	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = r.Text
	}

	var scores []BinaryScore
	err := common.WithRetry(ctx, func() error {
		result, scoreErr := s.client.ScoreBatch(ctx, texts)
		if scoreErr != nil {
			return &common.RetryableError{Err: scoreErr, Retryable: true}
		}
		if len(result) != len(texts) {
			return &common.RetryableError{
				Err:       fmt.Errorf("classifier returned %d scores for %d texts", len(result), len(texts)),
				Retryable: true,
			}
		}
		scores = result
		return nil
	}, s.opts.Retry)

	if err == nil {
		for i, score := range scores {
			out[i] = scoredSlot{review: s.enrich(batch[i], score), ok: true}
		}
		return nil
	}

	slog.Warn("Batch scoring failed, isolating records individually",
		"batch_size", len(batch),
		"error", err)

	for i, review := range batch {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		single, singleErr := s.client.ScoreBatch(ctx, []string{review.Text})
		if singleErr != nil || len(single) != 1 {
			// Record-level data fault: drop and count, keep going.
			slog.Debug("Dropping unscorable review",
				"bank", review.Bank,
				"error", singleErr)
			continue
		}
		out[i] = scoredSlot{review: s.enrich(review, single[0]), ok: true}
	}

	return nil
}

// assemble collects surviving records in input order.
func (s *Scorer) assemble(reviews []model.Review, slots []scoredSlot) ([]model.ScoredReview, Stats, error) {
	stats := Stats{}
	scored := make([]model.ScoredReview, 0, len(reviews))
	for _, slot := range slots {
		if !slot.ok {
			stats.Failed++
			continue
		}
		stats.Scored++
		scored = append(scored, slot.review)
	}

	if stats.Scored == 0 {
		return nil, stats, fmt.Errorf("%w: all %d reviews failed", common.ErrScoringFailed, len(reviews))
	}

	slog.Info("Sentiment scoring complete",
		"scored", stats.Scored,
		"failed", stats.Failed)

	return scored, stats, nil
}

// enrich applies the neutral-band policy and numeric derivation to one
// binary verdict.
func (s *Scorer) enrich(review model.Review, score BinaryScore) model.ScoredReview {
	label := score.Label
	if score.Confidence >= s.opts.NeutralLow && score.Confidence <= s.opts.NeutralHigh {
		// Low certainty from the binary model, not true neutrality.
		label = model.SentimentNeutral
	}

	return model.ScoredReview{
		Review:           review,
		SentimentLabel:   label,
		SentimentScore:   score.Confidence,
		SentimentNumeric: numericScale(label, score),
	}
}

// numericScale maps a verdict onto [-1,+1] for aggregation. NEUTRAL reviews
// get the signed distance of the raw confidence from the 0.5 decision
// boundary: small in magnitude, deterministic, and leaning toward whichever
// binary class narrowly won.
func numericScale(label model.SentimentLabel, score BinaryScore) float64 {
	switch label {
	case model.SentimentPositive:
		return score.Confidence
	case model.SentimentNegative:
		return -score.Confidence
	default:
		dist := score.Confidence - 0.5
		if score.Label == model.SentimentNegative {
			dist = -dist
		}
		return dist
	}
}
