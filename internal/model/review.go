// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Bank identifies one of the fixed set of banking apps whose reviews we ingest.
type Bank string

// Known banks.
const (
	BankCBE    Bank = "CBE"
	BankBOA    Bank = "BOA"
	BankDashen Bank = "Dashen"
)

// AllBanks lists every supported bank in canonical order.
var AllBanks = []Bank{BankCBE, BankBOA, BankDashen}

// bankDisplayNames maps bank codes to their full institution names.
var bankDisplayNames = map[Bank]string{
	BankCBE:    "Commercial Bank of Ethiopia",
	BankBOA:    "Bank of Abyssinia",
	BankDashen: "Dashen Bank",
}

// DisplayName returns the full institution name for the bank.
func (b Bank) DisplayName() string {
	if name, ok := bankDisplayNames[b]; ok {
		return name
	}
	return string(b)
}

// Valid reports whether the bank is one of the known institutions.
func (b Bank) Valid() bool {
	_, ok := bankDisplayNames[b]
	return ok
}

// ParseBank converts a bank code string into a Bank.
func ParseBank(s string) (Bank, error) {
	b := Bank(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown bank: %q", s)
	}
	return b, nil
}

// DefaultSource is the provenance tag applied when a source doesn't name one.
const DefaultSource = "Google Play"

// RawReview is a review exactly as returned by a store source. It is
// transient: the normalizer consumes it and it is never persisted.
type RawReview struct {
	Text     string `json:"text"`
	Author   string `json:"author"`
	PostedAt string `json:"posted_at"` // source-native timestamp, parsed during normalization
	AppID    string `json:"app_id"`
	Source   string `json:"source"`
	Bank     Bank   `json:"bank"`
	Rating   int    `json:"rating"` // 1-5; 0 means the source omitted it
	ThumbsUp int    `json:"thumbs_up"`
}

// RawKey returns the pre-cleaning duplicate key over (text, author, date).
func (r *RawReview) RawKey() string {
	data := fmt.Sprintf("%s:%s:%s", r.Text, r.Author, r.PostedAt)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Review is the canonical cleaned unit flowing through the pipeline.
type Review struct {
	Date   time.Time
	Text   string
	Source string
	Bank   Bank
	Rating int
}

// DedupKey returns the uniqueness key over (review_text, bank, review_date).
// Two reviews with the same key are duplicates; the later one is dropped.
func (r *Review) DedupKey() string {
	data := fmt.Sprintf("%s:%s:%s", r.Text, r.Bank, r.Date.Format("2006-01-02"))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ScoredReview is a cleaned review enriched with sentiment.
type ScoredReview struct {
	Review
	SentimentLabel   SentimentLabel
	SentimentScore   float64 // classifier confidence in its chosen class, [0,1]
	SentimentNumeric float64 // signed scale for aggregation, [-1,+1]
}

// ThemedReview is the final enriched record handed to the storage layer.
type ThemedReview struct {
	ScoredReview
	ReviewID string
	Themes   []Theme
}

// HasTheme reports whether the review was tagged with the given theme.
func (t *ThemedReview) HasTheme(theme Theme) bool {
	for _, th := range t.Themes {
		if th == theme {
			return true
		}
	}
	return false
}
