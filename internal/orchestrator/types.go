package orchestrator

import (
	"time"

	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/metrics"
	"github.com/sethvargo/go-retry"
)

// Orchestrator owns the pairing transaction and the session state machine.
// It is the only writer of sessions.
type Orchestrator struct {
	requests matchmaking.RequestStore
	sessions matchmaking.SessionStore
	matcher  Matcher
	notifier Notifier
	metrics  metrics.Metrics
	cfg      config.MatchmakingConfig

	now   func() time.Time
	newID func() string

	// Backoffs are constructors because a retry.Backoff is stateful.
	releaseBackoff func() retry.Backoff
	updateBackoff  func() retry.Backoff
}

// SubmitInput is a player's match request as received from the API.
type SubmitInput struct {
	UserID    string  `json:"-"`
	GameID    string  `json:"gameId"`
	Region    *string `json:"region,omitempty"`
	Skill     *int    `json:"skill,omitempty"`
	PingMs    *int    `json:"pingMs,omitempty"`
	MaxPingMs *int    `json:"maxPingMs,omitempty"`
}

// SweepResult reports what one sweep changed.
type SweepResult struct {
	SessionsExpired int `json:"sessionsExpired"`
	RequestsExpired int `json:"requestsExpired"`
}
