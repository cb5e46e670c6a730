package http

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/auth"
)

// Middleware defines the standard signature for an HTTP middleware.
type Middleware func(http.Handler) http.Handler

// Chain combines multiple middlewares into a single handler.
// The middlewares are applied in the order they are passed.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// contextKey is a custom type to avoid key collisions in context.
type contextKey string

const (
	userKey contextKey = "userID"
)

// paramsMiddleware logs the request and attaches a request-scoped logger.
// 'verbose=true' lowers only that logger to debug; the process-wide level
// is never touched.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.Default().With("method", r.Method, "path", r.URL.Path)
		if r.URL.Query().Get("verbose") == "true" {
			logger.SetLevel(log.DebugLevel)
		}
		logger.Info("incoming request", "url", r.URL.String())
		next.ServeHTTP(w, r.WithContext(log.WithContext(r.Context(), logger)))
	})
}

// logger returns the logger paramsMiddleware attached to r.
func logger(r *http.Request) *log.Logger {
	return log.FromContext(r.Context())
}

// identityMiddleware resolves the calling player and rejects anonymous requests.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.Verifier.UserFromRequest(r)
		if err != nil {
			log.Warn("Rejected unauthenticated request", "url", r.URL.Path, "error", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthenticated"})
			return
		}
		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sweepAuthMiddleware rejects sweep triggers that do not carry SweepToken.
func (s *Server) sweepAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.SweepAuthorized(r, s.SweepToken) {
			log.Warn("Rejected sweep trigger", "url", r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFromContext returns the id set by identityMiddleware.
func userFromContext(r *http.Request) string {
	userID, _ := r.Context().Value(userKey).(string)
	return userID
}
