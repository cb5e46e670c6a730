package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mauv0809/matchqueue/internal/auth"
	"github.com/mauv0809/matchqueue/internal/inngest"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/metrics"
	"github.com/mauv0809/matchqueue/internal/orchestrator"
	"github.com/mauv0809/matchqueue/internal/pubsub"
)

// Matchmaker is the engine behind the HTTP API.
type Matchmaker interface {
	Submit(ctx context.Context, input orchestrator.SubmitInput) (*matchmaking.SubmitResult, error)
	Cancel(ctx context.Context, requestID, userID string) (*matchmaking.MatchRequest, error)
	Session(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error)
	Accept(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error)
	Decline(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error)
	SweepExpired(ctx context.Context, limit int) (orchestrator.SweepResult, error)
}

type Server struct {
	Matchmaker     Matchmaker
	Verifier       *auth.Verifier
	Stats          metrics.MetricsStore
	MetricsHandler http.Handler
	PubSub         pubsub.PubSubClient
	// Realtime and InngestClient are optional; their routes are only
	// registered when set.
	Realtime      http.Handler
	InngestClient inngest.InngestClient
	// SweepToken guards the sweep endpoints when set.
	SweepToken string
	Router     *mux.Router

	handler http.Handler
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
