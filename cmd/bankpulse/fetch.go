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

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Collect raw reviews from the Play Store",
		Long: `Fetch the latest reviews for every configured banking app and write
them to a raw snapshot file. Run 'bankpulse analyze' afterwards to clean,
score, and store them, or 'bankpulse flow' to do everything in one pass.`,
		RunE: runFetch,
	}

	// Flags
	cmd.Flags().Bool("verify", false, "Verify each app listing is reachable before fetching")
	cmd.Flags().StringP("out", "o", "raw_reviews.json", "Snapshot file for raw reviews")
	cmd.Flags().Int("target", 0, "Reviews to collect per bank (default from config)")

	// Bind to viper
	_ = viper.BindPFlag("fetch.verify", cmd.Flags().Lookup("verify"))
	_ = viper.BindPFlag("fetch.out", cmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("fetch.target_per_bank", cmd.Flags().Lookup("target"))

	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	source := buildSource()
	apps := appIDs()

	if viper.GetBool("fetch.verify") {
		for _, bank := range model.AllBanks {
			appID, ok := apps[bank]
			if !ok {
				continue
			}
			info, err := source.VerifyApp(ctx, appID)
			if err != nil {
				return fmt.Errorf("app verification failed for %s (%s): %w", bank, appID, err)
			}
			slog.Info(cli.FormatSuccess(fmt.Sprintf("%s: %s (score %.1f, %s installs)",
				bank.DisplayName(), info.Title, info.Score, info.Installs)))
		}
	}

	fetcher := buildFetcher(source)
	raw, results, err := fetcher.FetchAll(ctx, apps)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	outPath := viper.GetString("fetch.out")
	if err := writeSnapshot(outPath, raw); err != nil {
		return err
	}

	for _, bank := range model.AllBanks {
		res, ok := results[bank]
		if !ok {
			continue
		}
		line := fmt.Sprintf("%s: %d reviews", bank.DisplayName(), len(res.Reviews))
		if res.FailedPages > 0 {
			slog.Warn(cli.FormatWarning(fmt.Sprintf("%s (%d pages failed)", line, res.FailedPages)))
		} else {
			slog.Info(cli.FormatSuccess(line))
		}
	}
	slog.Info(cli.FormatInfo(fmt.Sprintf("Wrote %d raw reviews to %s", len(raw), outPath)))

	return nil
}

// writeSnapshot persists raw reviews as a JSON array for later analysis.
func writeSnapshot(path string, raw []model.RawReview) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
