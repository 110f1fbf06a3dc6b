// Package sentiment scores review text with a pretrained binary classifier
// and applies the neutral-band policy on top of it.
//
// The classifier is a black box behind the Client interface: text in, a
// binary label and a confidence out. All threshold policy lives in the
// Scorer, never in a client implementation.
package sentiment

import (
	"context"
	"fmt"
	"strings"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// BinaryScore is a classifier verdict for one text: the winning binary
// class and the model's confidence in it.
type BinaryScore struct {
	Label      model.SentimentLabel // POSITIVE or NEGATIVE only
	Confidence float64              // [0,1]
}

// Client defines the interface for sentiment model providers.
type Client interface {
	// ScoreBatch classifies each text, returning one score per input in
	// the same order.
	ScoreBatch(ctx context.Context, texts []string) ([]BinaryScore, error)
}

// Config holds configuration for the sentiment classifier.
type Config struct {
	Provider string
	Endpoint string
	Model    string
	APIKey   string
}

// NewClient creates a sentiment model client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "huggingface":
		return newHFClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported sentiment provider: %s", cfg.Provider)
	}
}
