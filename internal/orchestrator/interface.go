package orchestrator

import (
	"context"

	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/notifier"
)

// Matcher finds a compatible queued request for a new request.
type Matcher interface {
	FindMatch(ctx context.Context, request *matchmaking.MatchRequest) (*matchmaking.MatchRequest, error)
}

// Notifier defines the notification operations required by the orchestrator.
// This is an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
