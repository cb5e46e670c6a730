package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	RequestsSubmitted    prometheus.Counter
	MatchesMade          prometheus.Counter
	ReservationConflicts prometheus.Counter
	Compensations        prometheus.Counter
	SessionsActivated    prometheus.Counter
	SessionsDeclined     prometheus.Counter
	SessionsExpired      prometheus.Counter
	NotificationsSent    prometheus.Counter
	NotificationsFailed  prometheus.Counter
	SubmitDuration       prometheus.Histogram
	StartupTimeSeconds   prometheus.Gauge
}

// Keys of the counters kept in the metrics table.
const (
	KeyRequestsSubmitted = "requests_submitted"
	KeyMatchesMade       = "matches_made"
	KeySessionsActivated = "sessions_activated"
	KeySessionsDeclined  = "sessions_declined"
	KeySessionsExpired   = "sessions_expired"
)
