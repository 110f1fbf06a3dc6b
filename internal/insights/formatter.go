package insights

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mekonnen-dev/bankpulse/internal/cli"
	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// Formatter renders a Report for the terminal.
type Formatter struct{}

// NewFormatter creates a terminal report formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format renders the full comparison report.
func (f *Formatter) Format(report *Report) string {
	var sb strings.Builder

	sb.WriteString(cli.FormatTitle("Mobile Banking Review Insights"))
	sb.WriteString("\n")
	sb.WriteString(cli.SubtitleStyle.Render(
		fmt.Sprintf("%d reviews across %d banks", report.Total, len(report.Banks))))
	sb.WriteString("\n")

	if report.Run != nil {
		sb.WriteString(cli.SubtleStyle.Render(fmt.Sprintf(
			"Last run %s: fetched %d, cleaned %d, scored %d (%d fetch failures, %d score failures)",
			report.Run.FinishedAt.Format("2006-01-02 15:04"),
			report.Run.Stats.Fetched,
			report.Run.Stats.Cleaned,
			report.Run.Stats.Scored,
			report.Run.Stats.FetchFailures,
			report.Run.Stats.ScoreFailures)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for i := range report.Banks {
		sb.WriteString(f.formatBank(&report.Banks[i]))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (f *Formatter) formatBank(br *BankReport) string {
	var body strings.Builder

	body.WriteString(f.formatSentiment(br))
	body.WriteString("\n")

	if len(br.Themes) > 0 {
		body.WriteString(cli.BoldStyle.Render("Themes"))
		body.WriteString(cli.SubtleStyle.Render(
			fmt.Sprintf("  (%.0f%% of reviews matched at least one)", br.ThemeCoverage*100)))
		body.WriteString("\n")
		for _, stat := range br.Themes {
			body.WriteString(fmt.Sprintf("  %-22s %4d reviews  %s\n",
				stat.Name, stat.Count, sentimentLean(stat)))
		}
	}

	if len(br.Drivers) > 0 {
		body.WriteString("\n")
		body.WriteString(cli.SuccessStyle.Render("Drivers: "))
		body.WriteString(themeNames(br.Drivers))
		body.WriteString("\n")
	}
	if len(br.PainPoints) > 0 {
		body.WriteString(cli.ErrorStyle.Render("Pain points: "))
		body.WriteString(themeNames(br.PainPoints))
		body.WriteString("\n")
	}

	if len(br.Keywords) > 0 {
		body.WriteString("\n")
		body.WriteString(cli.BoldStyle.Render("Top terms: "))
		terms := make([]string, len(br.Keywords))
		for i, t := range br.Keywords {
			terms[i] = t.Term
		}
		body.WriteString(cli.InfoStyle.Render(strings.Join(terms, ", ")))
		body.WriteString("\n")
	}

	return cli.RenderBox(br.Bank.DisplayName(), strings.TrimRight(body.String(), "\n"))
}

func (f *Formatter) formatSentiment(br *BankReport) string {
	s := br.Summary
	total := s.ReviewCount
	if total == 0 {
		return cli.SubtleStyle.Render("no scored reviews")
	}

	parts := []string{
		cli.SuccessStyle.Render(fmt.Sprintf("%d positive (%.0f%%)",
			s.ByLabel[model.SentimentPositive], pct(s.ByLabel[model.SentimentPositive], total))),
		cli.WarningStyle.Render(fmt.Sprintf("%d neutral (%.0f%%)",
			s.ByLabel[model.SentimentNeutral], pct(s.ByLabel[model.SentimentNeutral], total))),
		cli.ErrorStyle.Render(fmt.Sprintf("%d negative (%.0f%%)",
			s.ByLabel[model.SentimentNegative], pct(s.ByLabel[model.SentimentNegative], total))),
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, cli.SubtleStyle.Render(" | ")))
	detail := cli.SubtleStyle.Render(fmt.Sprintf(
		"mean sentiment %+.3f, mean rating %.2f★", s.MeanNumeric, s.MeanRating))

	return line + "\n" + detail + "\n"
}

// sentimentLean summarizes which way a theme's reviews skew.
func sentimentLean(stat ThemeStat) string {
	switch {
	case stat.NegativeCount > stat.PositiveCount:
		return cli.ErrorStyle.Render(fmt.Sprintf("%d negative", stat.NegativeCount))
	case stat.PositiveCount > stat.NegativeCount:
		return cli.SuccessStyle.Render(fmt.Sprintf("%d positive", stat.PositiveCount))
	default:
		return cli.SubtleStyle.Render("mixed")
	}
}

func themeNames(stats []ThemeStat) string {
	names := make([]string, len(stats))
	for i, s := range stats {
		names[i] = s.Name
	}
	return strings.Join(names, ", ")
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
