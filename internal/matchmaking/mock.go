package matchmaking

import (
	"context"
	"sync"
	"time"
)

// MockRequestStore is a mock implementation of RequestStore for testing.
// It is safe for concurrent use.
type MockRequestStore struct {
	mu sync.Mutex

	// Spies for method calls
	SubmitFunc         func(ctx context.Context, request *MatchRequest) (string, error)
	GetFunc            func(ctx context.Context, id string) (*MatchRequest, error)
	FindCandidatesFunc func(ctx context.Context, request *MatchRequest, limit int) ([]*MatchRequest, error)
	ReserveFunc        func(ctx context.Context, id string, expectedStatus RequestStatus, sessionID string) (bool, error)
	ReleaseFunc        func(ctx context.Context, sessionID string, ids []string) error
	CountQueuedFunc    func(ctx context.Context, gameID string) (int, error)
	CancelFunc         func(ctx context.Context, id string, userID string) (bool, error)
	ExpireStaleFunc    func(ctx context.Context, now time.Time) (int, error)

	// Call records
	SubmitCalls         []*MatchRequest
	FindCandidatesCalls []struct {
		Request *MatchRequest
		Limit   int
	}
	ReserveCalls []struct {
		ID             string
		ExpectedStatus RequestStatus
		SessionID      string
	}
	ReleaseCalls []struct {
		SessionID string
		IDs       []string
	}
}

// NewMockRequestStore creates a new mock instance.
func NewMockRequestStore() *MockRequestStore {
	return &MockRequestStore{}
}

func (m *MockRequestStore) Submit(ctx context.Context, request *MatchRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitCalls = append(m.SubmitCalls, request)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, request)
	}
	return request.ID, nil
}

func (m *MockRequestStore) Get(ctx context.Context, id string) (*MatchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrRequestNotFound
}

func (m *MockRequestStore) FindCandidates(ctx context.Context, request *MatchRequest, limit int) ([]*MatchRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCandidatesCalls = append(m.FindCandidatesCalls, struct {
		Request *MatchRequest
		Limit   int
	}{request, limit})
	if m.FindCandidatesFunc != nil {
		return m.FindCandidatesFunc(ctx, request, limit)
	}
	return nil, nil
}

func (m *MockRequestStore) Reserve(ctx context.Context, id string, expectedStatus RequestStatus, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReserveCalls = append(m.ReserveCalls, struct {
		ID             string
		ExpectedStatus RequestStatus
		SessionID      string
	}{id, expectedStatus, sessionID})
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, id, expectedStatus, sessionID)
	}
	return true, nil
}

func (m *MockRequestStore) Release(ctx context.Context, sessionID string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReleaseCalls = append(m.ReleaseCalls, struct {
		SessionID string
		IDs       []string
	}{sessionID, ids})
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, sessionID, ids)
	}
	return nil
}

func (m *MockRequestStore) CountQueued(ctx context.Context, gameID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountQueuedFunc != nil {
		return m.CountQueuedFunc(ctx, gameID)
	}
	return 0, nil
}

func (m *MockRequestStore) Cancel(ctx context.Context, id string, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id, userID)
	}
	return false, nil
}

func (m *MockRequestStore) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ExpireStaleFunc != nil {
		return m.ExpireStaleFunc(ctx, now)
	}
	return 0, nil
}

// MockSessionStore is a mock implementation of SessionStore for testing.
// It is safe for concurrent use.
type MockSessionStore struct {
	mu sync.Mutex

	CreateFunc             func(ctx context.Context, session *MatchSession) error
	GetFunc                func(ctx context.Context, id string) (*MatchSession, error)
	UpdateFunc             func(ctx context.Context, session *MatchSession) (bool, error)
	ListExpiredPendingFunc func(ctx context.Context, now time.Time, limit int) ([]*MatchSession, error)

	CreateCalls []*MatchSession
	UpdateCalls []*MatchSession
}

// NewMockSessionStore creates a new mock instance.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{}
}

func (m *MockSessionStore) Create(ctx context.Context, session *MatchSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, session.Clone())
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*MatchSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, ErrSessionNotFound
}

func (m *MockSessionStore) Update(ctx context.Context, session *MatchSession) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls = append(m.UpdateCalls, session.Clone())
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, session)
	}
	return true, nil
}

func (m *MockSessionStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*MatchSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListExpiredPendingFunc != nil {
		return m.ListExpiredPendingFunc(ctx, now, limit)
	}
	return nil, nil
}
