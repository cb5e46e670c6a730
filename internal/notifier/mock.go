package notifier

import (
	"context"
	"sync"
)

// NotifyCall records one Notify invocation.
type NotifyCall struct {
	UserIDs []string
	Event   string
	Payload any
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spy for Notify
	NotifyFunc func(ctx context.Context, userIDs []string, event string, payload any) error

	// Call records
	NotifyCalls []NotifyCall
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Notify(ctx context.Context, userIDs []string, event string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = append(m.NotifyCalls, NotifyCall{UserIDs: userIDs, Event: event, Payload: payload})
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, userIDs, event, payload)
	}
	return nil
}

// Calls returns a snapshot of the recorded calls.
func (m *Mock) Calls() []NotifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NotifyCall(nil), m.NotifyCalls...)
}

// Events returns the event names in call order.
func (m *Mock) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]string, len(m.NotifyCalls))
	for i, c := range m.NotifyCalls {
		events[i] = c.Event
	}
	return events
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotifyCalls = nil
}
