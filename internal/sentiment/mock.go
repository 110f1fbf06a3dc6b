package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// MockClient is a deterministic Client for testing. Scores can be pinned
// per text; unpinned texts fall back to a trivial keyword heuristic so test
// fixtures don't need to enumerate everything.
type MockClient struct {
	// Scores maps exact text to a fixed verdict.
	Scores map[string]BinaryScore
	// FailOn lists texts whose scoring always errors.
	FailOn map[string]bool
	// Err, when set, fails every batch.
	Err error

	mu      sync.Mutex
	batches int
}

// NewMockClient creates an empty mock client.
func NewMockClient() *MockClient {
	return &MockClient{
		Scores: make(map[string]BinaryScore),
		FailOn: make(map[string]bool),
	}
}

// Batches returns how many ScoreBatch calls were made.
func (m *MockClient) Batches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

// ScoreBatch implements Client.
func (m *MockClient) ScoreBatch(_ context.Context, texts []string) ([]BinaryScore, error) {
	m.mu.Lock()
	m.batches++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	scores := make([]BinaryScore, len(texts))
	for i, text := range texts {
		if m.FailOn[text] {
			return nil, fmt.Errorf("mock: cannot score %q", text)
		}
		if s, ok := m.Scores[text]; ok {
			scores[i] = s
			continue
		}
		scores[i] = heuristicScore(text)
	}
	return scores, nil
}

// heuristicScore is a crude stand-in verdict for unpinned texts.
func heuristicScore(text string) BinaryScore {
	lower := strings.ToLower(text)
	negative := strings.Contains(lower, "not ") ||
		strings.Contains(lower, "fail") ||
		strings.Contains(lower, "bad") ||
		strings.Contains(lower, "crash") ||
		strings.Contains(lower, "slow")

	if negative {
		return BinaryScore{Label: model.SentimentNegative, Confidence: 0.9}
	}
	return BinaryScore{Label: model.SentimentPositive, Confidence: 0.9}
}
