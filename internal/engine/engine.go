// Package engine orchestrates the full review pipeline: fetch, normalize,
// score, classify themes, extract keywords, and persist.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/fetch"
	"github.com/mekonnen-dev/bankpulse/internal/keywords"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/normalize"
	"github.com/mekonnen-dev/bankpulse/internal/sentiment"
	"github.com/mekonnen-dev/bankpulse/internal/service"
	"github.com/mekonnen-dev/bankpulse/internal/themes"
)

// Config wires the pipeline's stages together.
type Config struct {
	// Apps maps each bank to its store app id.
	Apps map[model.Bank]string

	Fetcher    *fetch.Fetcher
	Normalizer *normalize.Normalizer
	Scorer     *sentiment.Scorer
	Matcher    *themes.Matcher
	Storage    service.Storage

	// KeywordConfig tunes per-bank keyword extraction.
	KeywordConfig keywords.Config
}

// RunResult is everything a completed pipeline run produced.
type RunResult struct {
	Run      service.Run
	Reviews  []model.ThemedReview
	Keywords map[model.Bank][]keywords.Term
	Fetch    map[model.Bank]*fetch.Result
}

// Pipeline runs the end-to-end review analysis flow.
type Pipeline struct {
	cfg Config
}

// New validates the configuration and creates a pipeline.
func New(cfg Config) (*Pipeline, error) {
	if len(cfg.Apps) == 0 {
		return nil, fmt.Errorf("%w: no apps configured", common.ErrMissingConfig)
	}
	for bank := range cfg.Apps {
		if !bank.Valid() {
			return nil, fmt.Errorf("%w: unknown bank %q", common.ErrInvalidConfig, bank)
		}
	}
	if cfg.Fetcher == nil || cfg.Normalizer == nil || cfg.Scorer == nil ||
		cfg.Matcher == nil || cfg.Storage == nil {
		return nil, fmt.Errorf("%w: pipeline stage missing", common.ErrMissingConfig)
	}
	return &Pipeline{cfg: cfg}, nil
}

// Run executes every stage in order and persists the outcome. An empty
// corpus after cleaning is fatal; per-record faults within a stage are
// counted in the run stats instead.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	slog.Info("Starting pipeline run", "banks", len(p.cfg.Apps))

	raw, fetchResults, err := p.cfg.Fetcher.FetchAll(ctx, p.cfg.Apps)
	if err != nil {
		return nil, fmt.Errorf("fetch stage failed: %w", err)
	}

	return p.process(ctx, raw, fetchResults)
}

// Process runs every stage after fetching over an already-collected raw
// batch, such as one loaded from a fetch snapshot file.
func (p *Pipeline) Process(ctx context.Context, raw []model.RawReview) (*RunResult, error) {
	return p.process(ctx, raw, nil)
}

func (p *Pipeline) process(ctx context.Context, raw []model.RawReview, fetchResults map[model.Bank]*fetch.Result) (*RunResult, error) {
	run := service.Run{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	run.Stats.Fetched = len(raw)
	for _, res := range fetchResults {
		run.Stats.FetchFailures += res.FailedPages
	}

	cleaned, normStats := p.cfg.Normalizer.Normalize(raw)
	run.Stats.Deduped = normStats.Input - normStats.RawDuplicates
	run.Stats.Cleaned = normStats.Output
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: %d raw reviews all dropped during cleaning",
			common.ErrEmptyCorpus, len(raw))
	}

	scored, scoreStats, err := p.cfg.Scorer.ScoreReviews(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("scoring stage failed: %w", err)
	}
	run.Stats.Scored = scoreStats.Scored
	run.Stats.ScoreFailures = scoreStats.Failed

	// Themes and keywords both read the scored set and nothing else, so
	// they run concurrently.
	var themed []model.ThemedReview
	var terms map[model.Bank][]keywords.Term

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		themed = p.applyThemes(scored)
		return nil
	})
	g.Go(func() error {
		terms = p.extractKeywords(scored)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	run.Stats.Themed = len(themed)

	if err := p.cfg.Storage.SaveReviews(ctx, run.ID, themed); err != nil {
		return nil, fmt.Errorf("failed to persist reviews: %w", err)
	}

	run.FinishedAt = time.Now().UTC()
	if err := p.cfg.Storage.SaveRun(ctx, &run); err != nil {
		return nil, fmt.Errorf("failed to persist run: %w", err)
	}

	slog.Info("Pipeline run complete",
		"run_id", run.ID,
		"fetched", run.Stats.Fetched,
		"cleaned", run.Stats.Cleaned,
		"scored", run.Stats.Scored,
		"themed", run.Stats.Themed,
		"duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))

	return &RunResult{
		Run:      run,
		Reviews:  themed,
		Keywords: terms,
		Fetch:    fetchResults,
	}, nil
}

// applyThemes matches every scored review against the theme table and
// assigns stable sequential review ids.
func (p *Pipeline) applyThemes(scored []model.ScoredReview) []model.ThemedReview {
	themed := make([]model.ThemedReview, len(scored))
	for i, sr := range scored {
		themed[i] = model.ThemedReview{
			ScoredReview: sr,
			ReviewID:     fmt.Sprintf("REVIEW_%04d", i+1),
			Themes:       p.cfg.Matcher.Match(sr.Text),
		}
	}
	return themed
}

// extractKeywords runs TF-IDF extraction over each bank's scored corpus.
func (p *Pipeline) extractKeywords(scored []model.ScoredReview) map[model.Bank][]keywords.Term {
	corpora := make(map[model.Bank][]string)
	for _, sr := range scored {
		corpora[sr.Bank] = append(corpora[sr.Bank], sr.Text)
	}

	terms := make(map[model.Bank][]keywords.Term, len(corpora))
	for bank, corpus := range corpora {
		terms[bank] = keywords.Extract(corpus, p.cfg.KeywordConfig)
	}
	return terms
}
