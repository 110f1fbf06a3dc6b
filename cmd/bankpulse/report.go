package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mekonnen-dev/bankpulse/internal/insights"
	"github.com/mekonnen-dev/bankpulse/internal/themes"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show sentiment and theme insights per bank",
		Long: `Generate the comparison report from stored reviews: sentiment
distribution, theme prevalence, satisfaction drivers, pain points,
and distinctive keywords for each bank.`,
		RunE: runReport,
	}

	// Flags
	cmd.Flags().Int("top-terms", 10, "Number of keywords to show per bank")

	// Bind to viper
	_ = viper.BindPFlag("report.top_terms", cmd.Flags().Lookup("top-terms"))

	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	builder := insights.NewBuilder(store, themes.NewMatcher(themes.DefaultCategories()))
	if top := viper.GetInt("report.top_terms"); top > 0 {
		builder.TopTerms = top
	}

	report, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if report.Total == 0 {
		return fmt.Errorf("no stored reviews; run 'bankpulse flow' first")
	}

	fmt.Print(insights.NewFormatter().Format(report))
	return nil
}
