package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mekonnen-dev/bankpulse/internal/cli"
	"github.com/mekonnen-dev/bankpulse/internal/model"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Clean, score, and store a raw review snapshot",
		Long: `Run the analysis stages over a snapshot produced by 'bankpulse fetch':
deduplicate and clean the raw reviews, score sentiment, classify themes,
extract keywords, and persist the results.`,
		RunE: runAnalyze,
	}

	// Flags
	cmd.Flags().StringP("in", "i", "raw_reviews.json", "Raw review snapshot to analyze")

	// Bind to viper
	_ = viper.BindPFlag("analyze.in", cmd.Flags().Lookup("in"))

	return cmd
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	raw, err := readSnapshot(viper.GetString("analyze.in"))
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	bar := scoringBar()
	pipeline, err := buildPipeline(store, func(completed, total int) {
		bar.ChangeMax(total)
		_ = bar.Set(completed)
	})
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	result, err := pipeline.Process(ctx, raw)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	printRunSummary(result)
	return nil
}

// readSnapshot loads a raw review snapshot written by the fetch command.
func readSnapshot(path string) ([]model.RawReview, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var raw []model.RawReview
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}

	slog.Info(cli.FormatInfo(fmt.Sprintf("Loaded %d raw reviews from %s", len(raw), path)))
	return raw, nil
}
