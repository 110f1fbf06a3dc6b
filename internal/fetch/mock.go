package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/mekonnen-dev/bankpulse/internal/model"
	"github.com/mekonnen-dev/bankpulse/internal/service"
)

// MockSource is an in-memory ReviewSource for testing.
type MockSource struct {
	// ReviewsByApp holds the full review list served per app id.
	ReviewsByApp map[string][]model.RawReview
	// FailOffsets maps app id to page offsets that always error.
	FailOffsets map[string]map[int]bool
	// Apps lists verifiable app ids.
	Apps map[string]*service.AppInfo

	mu    sync.Mutex
	calls int
}

// NewMockSource creates an empty mock source.
func NewMockSource() *MockSource {
	return &MockSource{
		ReviewsByApp: make(map[string][]model.RawReview),
		FailOffsets:  make(map[string]map[int]bool),
		Apps:         make(map[string]*service.AppInfo),
	}
}

// Calls returns how many FetchPage calls were made.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// VerifyApp implements service.ReviewSource.
func (m *MockSource) VerifyApp(_ context.Context, appID string) (*service.AppInfo, error) {
	if info, ok := m.Apps[appID]; ok {
		return info, nil
	}
	return nil, fmt.Errorf("mock: unknown app %s", appID)
}

// FetchPage implements service.ReviewSource.
func (m *MockSource) FetchPage(_ context.Context, appID string, offset, pageSize int) (*service.ReviewPage, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if fails, ok := m.FailOffsets[appID]; ok && fails[offset] {
		return nil, fmt.Errorf("mock: page at offset %d unavailable", offset)
	}

	all := m.ReviewsByApp[appID]
	if offset >= len(all) {
		return &service.ReviewPage{HasMore: false}, nil
	}

	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}

	return &service.ReviewPage{
		Reviews: append([]model.RawReview(nil), all[offset:end]...),
		HasMore: end < len(all),
	}, nil
}
