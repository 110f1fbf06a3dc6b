// Package insights derives comparative findings from stored, scored
// reviews: sentiment distributions, theme prevalence, satisfaction
// drivers, and pain points per bank.
package insights

import (
	"context"
	"fmt"
	"sort"

	"github.com/mekonnen-dev/bankpulse/internal/keywords"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
	"github.com/mekonnen-dev/bankpulse/internal/themes"
)

// ThemeStat summarizes one theme's prevalence within a bank's reviews.
type ThemeStat struct {
	Theme         model.Theme
	Name          string
	Count         int
	NegativeCount int
	PositiveCount int
	Share         float64
}

// BankReport holds everything the report says about one bank.
type BankReport struct {
	Bank          model.Bank
	Summary       service.SentimentSummary
	Themes        []ThemeStat
	ThemeCoverage float64
	Keywords      []keywords.Term

	// Drivers are themes that skew positive; PainPoints skew negative.
	Drivers    []ThemeStat
	PainPoints []ThemeStat
}

// Report is the full cross-bank comparison.
type Report struct {
	Banks    []BankReport
	Total    int
	Run      *service.Run
	TopTerms int
}

// Builder assembles reports from stored reviews.
type Builder struct {
	storage service.Storage
	matcher *themes.Matcher

	// TopTerms caps the keyword list shown per bank.
	TopTerms int
	// MinThemeCount is the smallest theme sample considered for drivers
	// and pain points.
	MinThemeCount int
}

// NewBuilder creates a report builder.
func NewBuilder(storage service.Storage, matcher *themes.Matcher) *Builder {
	return &Builder{
		storage:       storage,
		matcher:       matcher,
		TopTerms:      10,
		MinThemeCount: 5,
	}
}

// Build loads every stored review and computes the comparison report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	summaries, err := b.storage.SentimentSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentiment summary: %w", err)
	}

	reviews, err := b.storage.GetReviews(ctx, service.ReviewFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}

	report := &Report{TopTerms: b.TopTerms}

	if run, err := b.storage.GetLatestRun(ctx); err == nil {
		report.Run = run
	}

	byBank := make(map[model.Bank][]model.ThemedReview)
	for _, r := range reviews {
		byBank[r.Bank] = append(byBank[r.Bank], r)
		report.Total++
	}

	for _, bank := range model.AllBanks {
		bankReviews := byBank[bank]
		if len(bankReviews) == 0 {
			continue
		}

		br := BankReport{
			Bank:    bank,
			Summary: summaries[bank],
			Themes:  b.themeStats(bankReviews),
		}
		br.ThemeCoverage = themeCoverage(bankReviews)
		br.Keywords = b.bankKeywords(bankReviews)
		br.Drivers, br.PainPoints = b.splitDrivers(br.Themes)

		report.Banks = append(report.Banks, br)
	}

	return report, nil
}

// themeStats counts theme hits per bank, split by sentiment label.
func (b *Builder) themeStats(reviews []model.ThemedReview) []ThemeStat {
	names := make(map[model.Theme]string)
	for _, cat := range b.matcher.Categories() {
		names[cat.ID] = cat.Name
	}

	counts := make(map[model.Theme]*ThemeStat)
	for _, r := range reviews {
		for _, theme := range r.Themes {
			stat := counts[theme]
			if stat == nil {
				stat = &ThemeStat{Theme: theme, Name: names[theme]}
				counts[theme] = stat
			}
			stat.Count++
			switch r.SentimentLabel {
			case model.SentimentNegative:
				stat.NegativeCount++
			case model.SentimentPositive:
				stat.PositiveCount++
			}
		}
	}

	stats := make([]ThemeStat, 0, len(counts))
	for _, stat := range counts {
		stat.Share = float64(stat.Count) / float64(len(reviews))
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Theme < stats[j].Theme
	})

	return stats
}

// splitDrivers separates themes into drivers (positive-leaning) and pain
// points (negative-leaning), skipping themes with too few samples to
// mean anything.
func (b *Builder) splitDrivers(stats []ThemeStat) (drivers, painPoints []ThemeStat) {
	for _, stat := range stats {
		if stat.Count < b.MinThemeCount {
			continue
		}
		switch {
		case stat.PositiveCount > stat.NegativeCount:
			drivers = append(drivers, stat)
		case stat.NegativeCount > stat.PositiveCount:
			painPoints = append(painPoints, stat)
		}
	}

	sort.Slice(drivers, func(i, j int) bool {
		return drivers[i].PositiveCount > drivers[j].PositiveCount
	})
	sort.Slice(painPoints, func(i, j int) bool {
		return painPoints[i].NegativeCount > painPoints[j].NegativeCount
	})

	return drivers, painPoints
}

// bankKeywords re-extracts distinctive terms from the stored corpus so
// the report works even when it wasn't produced in the same process as
// the pipeline run.
func (b *Builder) bankKeywords(reviews []model.ThemedReview) []keywords.Term {
	corpus := make([]string, len(reviews))
	for i, r := range reviews {
		corpus[i] = r.Text
	}

	terms := keywords.Extract(corpus, keywords.DefaultConfig())
	if len(terms) > b.TopTerms {
		terms = terms[:b.TopTerms]
	}
	return terms
}

// themeCoverage is the fraction of reviews matching at least one theme.
func themeCoverage(reviews []model.ThemedReview) float64 {
	if len(reviews) == 0 {
		return 0
	}
	matched := 0
	for _, r := range reviews {
		if len(r.Themes) > 0 {
			matched++
		}
	}
	return float64(matched) / float64(len(reviews))
}
