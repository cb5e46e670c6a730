package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		RequestsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_requests_submitted_total",
			Help: "The total number of match requests accepted into the queue.",
		}),
		MatchesMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_matches_made_total",
			Help: "The total number of pending sessions created.",
		}),
		ReservationConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_reservation_conflicts_total",
			Help: "The total number of candidate reservations lost to a concurrent submission.",
		}),
		Compensations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_compensations_total",
			Help: "The total number of reservations released after a failed session creation.",
		}),
		SessionsActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_sessions_activated_total",
			Help: "The total number of sessions accepted by every player.",
		}),
		SessionsDeclined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_sessions_declined_total",
			Help: "The total number of sessions declined by a player.",
		}),
		SessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_sessions_expired_total",
			Help: "The total number of pending sessions force-declined after the accept window closed.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_notifications_sent_total",
			Help: "The total number of lifecycle notifications successfully delivered.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchqueue_notifications_failed_total",
			Help: "The total number of lifecycle notifications that failed to deliver.",
		}),
		SubmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchqueue_submit_duration_seconds",
			Help:    "The duration of a match request submission including the pairing attempt.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "matchqueue_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.RequestsSubmitted,
		s.MatchesMade,
		s.ReservationConflicts,
		s.Compensations,
		s.SessionsActivated,
		s.SessionsDeclined,
		s.SessionsExpired,
		s.NotificationsSent,
		s.NotificationsFailed,
		s.SubmitDuration,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRequestsSubmitted() { s.RequestsSubmitted.Inc() }
func (s *Service) IncMatchesMade() { s.MatchesMade.Inc() }
func (s *Service) IncReservationConflicts() { s.ReservationConflicts.Inc() }
func (s *Service) IncCompensations() { s.Compensations.Inc() }
func (s *Service) IncSessionsActivated() { s.SessionsActivated.Inc() }
func (s *Service) IncSessionsDeclined() { s.SessionsDeclined.Inc() }
func (s *Service) IncSessionsExpired() { s.SessionsExpired.Inc() }
func (s *Service) IncNotificationsSent() { s.NotificationsSent.Inc() }
func (s *Service) IncNotificationsFailed() { s.NotificationsFailed.Inc() }
func (s *Service) ObserveSubmitDuration(d float64) { s.SubmitDuration.Observe(d) }

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}

const persistTimeout = 2 * time.Second

// Persisted mirrors the lifecycle counters of Metrics into a MetricsStore,
// so /stats reports totals across restarts.
type Persisted struct {
	Metrics
	store MetricsStore
}

// WithStore wraps m so lifecycle counters are also written to store.
func WithStore(m Metrics, store MetricsStore) *Persisted {
	return &Persisted{Metrics: m, store: store}
}

func (p *Persisted) IncRequestsSubmitted() {
	p.Metrics.IncRequestsSubmitted()
	p.persist(KeyRequestsSubmitted)
}

func (p *Persisted) IncMatchesMade() {
	p.Metrics.IncMatchesMade()
	p.persist(KeyMatchesMade)
}

func (p *Persisted) IncSessionsActivated() {
	p.Metrics.IncSessionsActivated()
	p.persist(KeySessionsActivated)
}

func (p *Persisted) IncSessionsDeclined() {
	p.Metrics.IncSessionsDeclined()
	p.persist(KeySessionsDeclined)
}

func (p *Persisted) IncSessionsExpired() {
	p.Metrics.IncSessionsExpired()
	p.persist(KeySessionsExpired)
}

// persist writes one increment. A failed write is logged; the in-process
// counter has already moved.
func (p *Persisted) persist(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.store.Increment(ctx, key); err != nil {
		log.Error("Failed to persist metric", "key", key, "error", err)
	}
}
