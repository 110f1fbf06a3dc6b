package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
)

// DefaultModel is the frozen pretrained classifier the pipeline scores with.
const DefaultModel = "distilbert-base-uncased-finetuned-sst-2-english"

const defaultEndpoint = "https://api-inference.huggingface.co/models"

// hfClient implements Client against the Hugging Face inference API.
// Whether the backing deployment runs on accelerated hardware or CPU is the
// server's concern; output values are identical either way.
type hfClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
	apiKey     string
}

// newHFClient creates a Hugging Face inference client.
func newHFClient(cfg Config) (Client, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	return &hfClient{
		endpoint: endpoint,
		model:    model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type hfRequest struct {
	Inputs  []string  `json:"inputs"`
	Options hfOptions `json:"options"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ScoreBatch sends a batch of texts to the inference endpoint.
func (c *hfClient) ScoreBatch(ctx context.Context, texts []string) ([]BinaryScore, error) {
	requestBody := hfRequest{
		Inputs:  texts,
		Options: hfOptions{WaitForModel: true},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, common.ErrRateLimit
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API error (status %d): %s", resp.StatusCode, string(body))
	}

	// The API returns one ranked label list per input.
	var response [][]hfLabelScore
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response) != len(texts) {
		return nil, fmt.Errorf("inference API returned %d results for %d inputs", len(response), len(texts))
	}

	scores := make([]BinaryScore, len(response))
	for i, candidates := range response {
		score, parseErr := winningScore(candidates)
		if parseErr != nil {
			return nil, fmt.Errorf("result %d: %w", i, parseErr)
		}
		scores[i] = score
	}

	return scores, nil
}

// winningScore picks the highest-confidence binary class from a ranked list.
func winningScore(candidates []hfLabelScore) (BinaryScore, error) {
	if len(candidates) == 0 {
		return BinaryScore{}, fmt.Errorf("empty candidate list")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}

	var label model.SentimentLabel
	switch strings.ToUpper(best.Label) {
	case "POSITIVE", "LABEL_1":
		label = model.SentimentPositive
	case "NEGATIVE", "LABEL_0":
		label = model.SentimentNegative
	default:
		return BinaryScore{}, fmt.Errorf("unexpected label: %q", best.Label)
	}

	if best.Score < 0 || best.Score > 1 {
		return BinaryScore{}, fmt.Errorf("confidence out of range: %f", best.Score)
	}

	return BinaryScore{Label: label, Confidence: best.Score}, nil
}
