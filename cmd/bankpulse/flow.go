package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mekonnen-dev/bankpulse/internal/cli"
	"github.com/mekonnen-dev/bankpulse/internal/engine"
	"github.com/mekonnen-dev/bankpulse/internal/model"
)

func flowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flow",
		Short: "Run the full review pipeline end to end",
		Long: `Fetch reviews for every configured banking app, clean and score them,
classify themes, extract keywords, and persist the results in one pass.`,
		RunE: runPipelineFlow,
	}
}

func runPipelineFlow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

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

	slog.Info(cli.FormatTitle("Collecting and analyzing banking app reviews..."))

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	printRunSummary(result)
	return nil
}

// scoringBar builds the progress bar shown while sentiment batches run.
// The max is a placeholder until the scorer reports the true batch count.
func scoringBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Scoring sentiment...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// printRunSummary renders the stage counts for a completed run.
func printRunSummary(result *engine.RunResult) {
	stats := result.Run.Stats

	content := fmt.Sprintf(`Fetched:  %d raw reviews (%d pages failed)
Cleaned:  %d after dedup and filtering
Scored:   %d (%d unscorable, dropped)
Themed:   %d stored`,
		stats.Fetched, stats.FetchFailures,
		stats.Cleaned,
		stats.Scored, stats.ScoreFailures,
		stats.Themed)

	slog.Info(cli.RenderBox(
		fmt.Sprintf("Run %s (%s)", result.Run.ID,
			formatDuration(result.Run.FinishedAt.Sub(result.Run.StartedAt))),
		content))

	perBank := make(map[model.Bank]int)
	for _, r := range result.Reviews {
		perBank[r.Bank]++
	}
	for _, bank := range model.AllBanks {
		if count, ok := perBank[bank]; ok {
			slog.Info(cli.FormatSuccess(fmt.Sprintf("%s: %d reviews stored", bank.DisplayName(), count)))
		}
	}
}
