package playstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mekonnen-dev/bankpulse/internal/common"
)

func testClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		RequestsPerSecond: 1000, // no throttling in tests
	})
}

func TestVerifyApp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/com.combanketh.mobilebanking", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		assert.Equal(t, "et", r.URL.Query().Get("country"))

		_ = json.NewEncoder(w).Encode(appResponse{
			Title:    "CBE Mobile",
			Installs: "1,000,000+",
			Score:    4.1,
		})
	}))
	defer server.Close()

	info, err := testClient(server.URL).VerifyApp(context.Background(), "com.combanketh.mobilebanking")
	require.NoError(t, err)
	assert.Equal(t, "CBE Mobile", info.Title)
	assert.Equal(t, "1,000,000+", info.Installs)
	assert.InDelta(t, 4.1, info.Score, 1e-9)
}

func TestVerifyApp_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).VerifyApp(context.Background(), "com.missing.app")
	assert.ErrorIs(t, err, common.ErrAppNotFound)
}

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/com.boa.boaMobileBanking/reviews", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("offset"))
		assert.Equal(t, "25", r.URL.Query().Get("count"))
		assert.Equal(t, "newest", r.URL.Query().Get("sort"))

		_ = json.NewEncoder(w).Encode(reviewsResponse{
			Reviews: []wireReview{
				{
					Content:       "Transfer keeps failing",
					UserName:      "Abebe",
					At:            "2025-06-01 10:00:00",
					Score:         1,
					ThumbsUpCount: 12,
				},
				{
					Content:  "Great app",
					UserName: "",
					At:       "2025-06-02 09:30:00",
					Score:    5,
				},
			},
			HasMore: true,
		})
	}))
	defer server.Close()

	page, err := testClient(server.URL).FetchPage(context.Background(), "com.boa.boaMobileBanking", 50, 25)
	require.NoError(t, err)
	require.Len(t, page.Reviews, 2)
	assert.True(t, page.HasMore)

	first := page.Reviews[0]
	assert.Equal(t, "Transfer keeps failing", first.Text)
	assert.Equal(t, "Abebe", first.Author)
	assert.Equal(t, "2025-06-01 10:00:00", first.PostedAt)
	assert.Equal(t, 1, first.Rating)
	assert.Equal(t, 12, first.ThumbsUp)
	assert.Equal(t, "com.boa.boaMobileBanking", first.AppID)
}

func TestFetchPage_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPage(context.Background(), "com.some.app", 0, 50)
	assert.ErrorIs(t, err, common.ErrRateLimit)
}

func TestFetchPage_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchPage(context.Background(), "com.some.app", 0, 50)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrRateLimit)
}

func TestFetchPage_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // immediately unreachable

	_, err := testClient(server.URL).FetchPage(context.Background(), "com.some.app", 0, 50)
	assert.ErrorIs(t, err, common.ErrSourceUnavailable)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, "en", c.lang)
	assert.Equal(t, "et", c.country)
}
