package metrics

import "context"

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRequestsSubmitted()
	IncMatchesMade()
	IncReservationConflicts()
	IncCompensations()
	IncSessionsActivated()
	IncSessionsDeclined()
	IncSessionsExpired()
	IncNotificationsSent()
	IncNotificationsFailed()
	ObserveSubmitDuration(seconds float64)
	SetStartupTime(duration float64)
}

// MetricsStore persists lifetime counters that survive restarts.
type MetricsStore interface {
	Increment(ctx context.Context, key string) error
	GetAll(ctx context.Context) (map[string]int, error)
}
