package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                   sync.Mutex
	requestsSubmitted    int
	matchesMade          int
	reservationConflicts int
	compensations        int
	sessionsActivated    int
	sessionsDeclined     int
	sessionsExpired      int
	notificationsSent    int
	notificationsFailed  int
	submitDurations      []float64
	startupTime          float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		submitDurations: make([]float64, 0),
	}
}

func (m *Mock) inc(counter *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*counter++
}

func (m *Mock) get(counter *int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *counter
}

func (m *Mock) IncRequestsSubmitted() { m.inc(&m.requestsSubmitted) }
func (m *Mock) IncMatchesMade() { m.inc(&m.matchesMade) }
func (m *Mock) IncReservationConflicts() { m.inc(&m.reservationConflicts) }
func (m *Mock) IncCompensations() { m.inc(&m.compensations) }
func (m *Mock) IncSessionsActivated() { m.inc(&m.sessionsActivated) }
func (m *Mock) IncSessionsDeclined() { m.inc(&m.sessionsDeclined) }
func (m *Mock) IncSessionsExpired() { m.inc(&m.sessionsExpired) }
func (m *Mock) IncNotificationsSent() { m.inc(&m.notificationsSent) }
func (m *Mock) IncNotificationsFailed() { m.inc(&m.notificationsFailed) }

func (m *Mock) ObserveSubmitDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitDurations = append(m.submitDurations, seconds)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// RequestsSubmitted returns the number of times IncRequestsSubmitted was called.
func (m *Mock) RequestsSubmitted() int { return m.get(&m.requestsSubmitted) }

// MatchesMade returns the number of times IncMatchesMade was called.
func (m *Mock) MatchesMade() int { return m.get(&m.matchesMade) }

// ReservationConflicts returns the number of times IncReservationConflicts was called.
func (m *Mock) ReservationConflicts() int { return m.get(&m.reservationConflicts) }

// Compensations returns the number of times IncCompensations was called.
func (m *Mock) Compensations() int { return m.get(&m.compensations) }

// SessionsActivated returns the number of times IncSessionsActivated was called.
func (m *Mock) SessionsActivated() int { return m.get(&m.sessionsActivated) }

// SessionsDeclined returns the number of times IncSessionsDeclined was called.
func (m *Mock) SessionsDeclined() int { return m.get(&m.sessionsDeclined) }

// SessionsExpired returns the number of times IncSessionsExpired was called.
func (m *Mock) SessionsExpired() int { return m.get(&m.sessionsExpired) }

// NotificationsSent returns the number of times IncNotificationsSent was called.
func (m *Mock) NotificationsSent() int { return m.get(&m.notificationsSent) }

// NotificationsFailed returns the number of times IncNotificationsFailed was called.
func (m *Mock) NotificationsFailed() int { return m.get(&m.notificationsFailed) }

// SubmitDurations returns every observed submission duration.
func (m *Mock) SubmitDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.submitDurations...)
}
