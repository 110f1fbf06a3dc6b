// Package playstore implements the ReviewSource interface against a Google
// Play reviews gateway. Pages are addressed by offset so callers can skip a
// failed page without losing the rest of the fetch.
package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mekonnen-dev/bankpulse/internal/common"
	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the review gateway used when no override is configured.
const DefaultBaseURL = "https://playgw.bankpulse.dev/v1"

// Client fetches app metadata and review pages over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	lang       string
	country    string
}

// Config holds Play Store client settings.
type Config struct {
	BaseURL string
	Lang    string
	Country string
	// RequestsPerSecond throttles page requests so the gateway isn't
	// hammered; the original scraper slept between requests for the same
	// reason.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// NewClient creates a Play Store client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	country := cfg.Country
	if country == "" {
		country = "et"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 0.5
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		lang:    lang,
		country: country,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Wire types returned by the gateway.
type appResponse struct {
	Title    string  `json:"title"`
	Installs string  `json:"installs"`
	Score    float64 `json:"score"`
}

type reviewsResponse struct {
	Reviews []wireReview `json:"reviews"`
	HasMore bool         `json:"hasMore"`
}

type wireReview struct {
	Content       string `json:"content"`
	UserName      string `json:"userName"`
	At            string `json:"at"`
	Score         int    `json:"score"`
	ThumbsUpCount int    `json:"thumbsUpCount"`
}

// VerifyApp confirms the app listing is reachable and returns its metadata.
func (c *Client) VerifyApp(ctx context.Context, appID string) (*service.AppInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/apps/%s?lang=%s&country=%s",
		c.baseURL, url.PathEscape(appID), url.QueryEscape(c.lang), url.QueryEscape(c.country))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", common.ErrAppNotFound, appID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("app lookup error: %d - %s", resp.StatusCode, string(body))
	}

	var app appResponse
	if err := json.NewDecoder(resp.Body).Decode(&app); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &service.AppInfo{
		AppID:    appID,
		Title:    app.Title,
		Installs: app.Installs,
		Score:    app.Score,
	}, nil
}

// FetchPage retrieves one page of reviews for an app, newest first.
func (c *Client) FetchPage(ctx context.Context, appID string, offset, pageSize int) (*service.ReviewPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u, err := url.Parse(fmt.Sprintf("%s/apps/%s/reviews", c.baseURL, url.PathEscape(appID)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	q := u.Query()
	q.Set("lang", c.lang)
	q.Set("country", c.country)
	q.Set("sort", "newest")
	q.Set("offset", strconv.Itoa(offset))
	q.Set("count", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	slog.Debug("Requesting review page",
		"app_id", appID,
		"offset", offset,
		"count", pageSize)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, common.ErrRateLimit
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("review fetch error: %d - %s", resp.StatusCode, string(body))
	}

	var page reviewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	reviews := make([]model.RawReview, 0, len(page.Reviews))
	for _, r := range page.Reviews {
		reviews = append(reviews, model.RawReview{
			Text:     r.Content,
			Author:   r.UserName,
			PostedAt: r.At,
			AppID:    appID,
			Source:   model.DefaultSource,
			Rating:   r.Score,
			ThumbsUp: r.ThumbsUpCount,
		})
	}

	return &service.ReviewPage{
		Reviews: reviews,
		HasMore: page.HasMore,
	}, nil
}
