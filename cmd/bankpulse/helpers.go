package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mekonnen-dev/bankpulse/internal/config"
	"github.com/mekonnen-dev/bankpulse/internal/engine"
	"github.com/mekonnen-dev/bankpulse/internal/fetch"
	"github.com/mekonnen-dev/bankpulse/internal/keywords"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/normalize"
	"github.com/mekonnen-dev/bankpulse/internal/playstore"
	"github.com/mekonnen-dev/bankpulse/internal/sentiment"
	"github.com/mekonnen-dev/bankpulse/internal/service"
	"github.com/mekonnen-dev/bankpulse/internal/storage"
	"github.com/mekonnen-dev/bankpulse/internal/themes"
)

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// appIDs resolves the per-bank Play Store package names, falling back to
// the known app ids for unconfigured banks.
func appIDs() map[model.Bank]string {
	apps := config.DefaultAppIDs()
	for bank := range apps {
		key := fmt.Sprintf("apps.%s", bank)
		if id := viper.GetString(key); id != "" {
			apps[bank] = id
		}
	}
	return apps
}

// buildSource constructs the Play Store review client from config.
func buildSource() service.ReviewSource {
	return playstore.NewClient(playstore.Config{
		BaseURL:           viper.GetString("playstore.base_url"),
		Lang:              viper.GetString("playstore.lang"),
		Country:           viper.GetString("playstore.country"),
		RequestsPerSecond: viper.GetFloat64("playstore.requests_per_second"),
	})
}

// buildFetcher constructs the paginated fetcher from config.
func buildFetcher(source service.ReviewSource) *fetch.Fetcher {
	opts := fetch.DefaultOptions()
	if target := viper.GetInt("fetch.target_per_bank"); target > 0 {
		opts.TargetPerBank = target
	}
	if factor := viper.GetFloat64("fetch.overfetch_factor"); factor >= 1.0 {
		opts.OverfetchFactor = factor
	}
	if size := viper.GetInt("fetch.page_size"); size > 0 {
		opts.PageSize = size
	}
	if attempts := viper.GetInt("fetch.max_attempts"); attempts > 0 {
		opts.Retry.MaxAttempts = attempts
	}
	return fetch.New(source, opts)
}

// buildScorer constructs the sentiment scorer from config. progress, when
// non-nil, receives batch completion updates.
func buildScorer(progress func(completed, total int)) (*sentiment.Scorer, error) {
	client, err := sentiment.NewClient(sentiment.Config{
		Provider: viper.GetString("sentiment.provider"),
		Endpoint: viper.GetString("sentiment.endpoint"),
		Model:    viper.GetString("sentiment.model"),
		APIKey:   viper.GetString("sentiment.api_key"),
	})
	if err != nil {
		return nil, err
	}

	opts := sentiment.DefaultOptions()
	if size := viper.GetInt("sentiment.batch_size"); size > 0 {
		opts.BatchSize = size
	}
	if low := viper.GetFloat64("sentiment.neutral_low"); low > 0 {
		opts.NeutralLow = low
	}
	if high := viper.GetFloat64("sentiment.neutral_high"); high > 0 {
		opts.NeutralHigh = high
	}
	opts.Progress = progress

	return sentiment.NewScorer(client, opts)
}

// buildNormalizer constructs the cleaning stage from config.
func buildNormalizer() *normalize.Normalizer {
	opts := normalize.DefaultOptions()
	if minLen := viper.GetInt("normalize.min_text_length"); minLen > 0 {
		opts.MinTextLength = minLen
	}
	if ratio := viper.GetFloat64("normalize.min_latin_ratio"); ratio > 0 {
		opts.MinLatinRatio = ratio
	}
	return normalize.New(opts)
}

// buildKeywordConfig constructs the extraction policy from config.
func buildKeywordConfig() keywords.Config {
	cfg := keywords.DefaultConfig()
	if maxFeatures := viper.GetInt("keywords.max_features"); maxFeatures > 0 {
		cfg.MaxFeatures = maxFeatures
	}
	return cfg
}

// buildPipeline assembles the full engine from config.
func buildPipeline(storage service.Storage, progress func(completed, total int)) (*engine.Pipeline, error) {
	scorer, err := buildScorer(progress)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Apps:          appIDs(),
		Fetcher:       buildFetcher(buildSource()),
		Normalizer:    buildNormalizer(),
		Scorer:        scorer,
		Matcher:       themes.NewMatcher(themes.DefaultCategories()),
		Storage:       storage,
		KeywordConfig: buildKeywordConfig(),
	})
}

// formatDuration renders a duration for run summaries.
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
