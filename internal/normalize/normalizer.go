// Package normalize turns raw store reviews into the canonical cleaned
// review set: deduplicated, repaired, filtered, and schema-normalized.
package normalize

import (
	"log/slog"
	"strings"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// Options configures normalization thresholds.
type Options struct {
	// MinTextLength drops reviews shorter than this many runes unless they
	// contain a banking keyword.
	MinTextLength int
	// MinLatinRatio drops reviews whose letter content is mostly
	// non-Latin script unless they contain a banking keyword.
	MinLatinRatio float64
	// BankingKeywords retain otherwise-filtered reviews: short or
	// mixed-script reviews that mention banking terms still carry signal.
	BankingKeywords []string
}

// DefaultOptions returns the default normalization policy.
func DefaultOptions() Options {
	return Options{
		MinTextLength:   10,
		MinLatinRatio:   0.3,
		BankingKeywords: defaultBankingKeywords,
	}
}

// Stats counts records dropped at each normalization step.
type Stats struct {
	Input           int
	RawDuplicates   int
	MissingText     int
	MissingRating   int
	Garbage         int
	BadDates        int
	FinalDuplicates int
	Output          int
}

// Dropped returns the total number of records removed.
func (s Stats) Dropped() int {
	return s.Input - s.Output
}

// Normalizer applies the cleaning pipeline. Steps run in a fixed order;
// later steps assume the invariants established by earlier ones.
type Normalizer struct {
	opts Options
}

// New creates a normalizer with the given options.
func New(opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = def.MinTextLength
	}
	if opts.MinLatinRatio <= 0 {
		opts.MinLatinRatio = def.MinLatinRatio
	}
	if len(opts.BankingKeywords) == 0 {
		opts.BankingKeywords = def.BankingKeywords
	}
	return &Normalizer{opts: opts}
}

// Normalize runs the full pipeline over a raw batch. Each record is
// processed independently: a fault drops only that record and is counted,
// never aborting the batch.
func (n *Normalizer) Normalize(raw []model.RawReview) ([]model.Review, Stats) {
	stats := Stats{Input: len(raw)}

	// Step 1: drop exact raw duplicates on (text, author, date) before any
	// cleaning, so cleaning can't falsely collapse distinct reviews.
	seen := make(map[string]bool, len(raw))
	deduped := make([]model.RawReview, 0, len(raw))
	for _, r := range raw {
		key := r.RawKey()
		if seen[key] {
			stats.RawDuplicates++
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}

	cleaned := make([]model.Review, 0, len(deduped))
	finalSeen := make(map[string]bool, len(deduped))

	for _, r := range deduped {
		// Step 2: missing-field repair. No text means no value; a missing
		// rating can't be repaired because rating is required schema.
		if strings.TrimSpace(r.Text) == "" {
			stats.MissingText++
			continue
		}
		if r.Author == "" {
			r.Author = "Anonymous"
		}
		if r.Rating < 1 || r.Rating > 5 {
			stats.MissingRating++
			continue
		}

		// Step 3: language/garbage filtering, with the banking-keyword
		// retention exception.
		if !n.analyzable(r.Text) {
			stats.Garbage++
			continue
		}

		// Step 4: date normalization.
		date, err := parseReviewDate(r.PostedAt)
		if err != nil {
			stats.BadDates++
			slog.Debug("Dropping review with unparseable date",
				"posted_at", r.PostedAt,
				"bank", r.Bank)
			continue
		}

		// Step 5: text normalization. Case and punctuation are preserved;
		// sentiment models are sensitive to both.
		text := cleanText(r.Text)
		if text == "" {
			stats.MissingText++
			continue
		}

		// Step 6: projection to the canonical column set.
		source := r.Source
		if source == "" {
			source = model.DefaultSource
		}
		review := model.Review{
			Text:   text,
			Rating: r.Rating,
			Date:   date,
			Bank:   r.Bank,
			Source: source,
		}

		// Step 7: final dedup on (review_text, bank, review_date), since
		// text normalization can collapse originally-distinct raw texts.
		key := review.DedupKey()
		if finalSeen[key] {
			stats.FinalDuplicates++
			continue
		}
		finalSeen[key] = true

		cleaned = append(cleaned, review)
	}

	stats.Output = len(cleaned)

	slog.Info("Normalization complete",
		"input", stats.Input,
		"output", stats.Output,
		"raw_duplicates", stats.RawDuplicates,
		"missing_text", stats.MissingText,
		"missing_rating", stats.MissingRating,
		"garbage", stats.Garbage,
		"bad_dates", stats.BadDates,
		"final_duplicates", stats.FinalDuplicates)

	return cleaned, stats
}

// reviewDateLayouts are the source-native timestamp formats we accept.
var reviewDateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// parseReviewDate parses a source timestamp and truncates it to a calendar
// date in UTC.
func parseReviewDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	var t time.Time
	var err error
	for _, layout := range reviewDateLayouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, err
}
