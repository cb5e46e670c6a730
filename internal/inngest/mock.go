package inngest

import (
	"context"
	"net/http"
	"sync"
)

// Mock is a mock implementation of InngestClient for testing.
type Mock struct {
	mu sync.Mutex

	RequestSweepFunc  func(ctx context.Context, limit int) error
	RequestSweepCalls []int
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Serve() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (m *Mock) RequestSweep(ctx context.Context, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestSweepCalls = append(m.RequestSweepCalls, limit)
	if m.RequestSweepFunc != nil {
		return m.RequestSweepFunc(ctx, limit)
	}
	return nil
}
