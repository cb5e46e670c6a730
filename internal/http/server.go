package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mauv0809/matchqueue/internal/auth"
	"github.com/mauv0809/matchqueue/internal/inngest"
	"github.com/mauv0809/matchqueue/internal/metrics"
	"github.com/mauv0809/matchqueue/internal/pubsub"
	"github.com/rs/cors"
)

func NewServer(matchmaker Matchmaker, verifier *auth.Verifier, stats metrics.MetricsStore, metricsHandler http.Handler, pubsub pubsub.PubSubClient, realtime http.Handler, inngestClient inngest.InngestClient, sweepToken string) *Server {
	server := &Server{
		Matchmaker:     matchmaker,
		Verifier:       verifier,
		Stats:          stats,
		MetricsHandler: metricsHandler,
		PubSub:         pubsub,
		Realtime:       realtime,
		InngestClient:  inngestClient,
		SweepToken:     sweepToken,
		Router:         mux.NewRouter(),
	}

	server.routes()
	server.handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", auth.UserHeader, auth.SweepTokenHeader},
	}).Handler(server.Router)
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// Player-facing routes additionally resolve the caller's identity.
	s.Router.Handle("/metrics", s.MetricsHandler).Methods(http.MethodGet)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware)).Methods(http.MethodGet)
	s.Router.Handle("/stats", Chain(s.StatsHandler(), paramsMiddleware)).Methods(http.MethodGet)

	api := s.Router.PathPrefix("/matchmaking").Subrouter()
	api.Handle("/requests", Chain(s.SubmitHandler(), paramsMiddleware, s.identityMiddleware)).Methods(http.MethodPost)
	api.Handle("/requests/{id}", Chain(s.CancelHandler(), paramsMiddleware, s.identityMiddleware)).Methods(http.MethodDelete)
	api.Handle("/sessions/{id}", Chain(s.SessionHandler(), paramsMiddleware, s.identityMiddleware)).Methods(http.MethodGet)
	api.Handle("/sessions/{id}/accept", Chain(s.AcceptHandler(), paramsMiddleware, s.identityMiddleware)).Methods(http.MethodPost)
	api.Handle("/sessions/{id}/decline", Chain(s.DeclineHandler(), paramsMiddleware, s.identityMiddleware)).Methods(http.MethodPost)

	s.Router.Handle("/scheduled/sweep", Chain(s.SweepHandler(), paramsMiddleware, s.sweepAuthMiddleware)).Methods(http.MethodPost)
	s.Router.Handle("/pubsub/sweep", Chain(s.PubSubSweepHandler(), paramsMiddleware, s.sweepAuthMiddleware)).Methods(http.MethodPost)

	if s.Realtime != nil {
		s.Router.PathPrefix("/socket.io/").Handler(s.Realtime)
	}
	if s.InngestClient != nil {
		s.Router.Handle("/api/inngest", s.InngestClient.Serve())
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
