package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/orchestrator"
	"github.com/mauv0809/matchqueue/internal/pubsub"
)

const maxBodyBytes = 1 << 16

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger(r).Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.Stats.GetAll(r.Context())
		if err != nil {
			logger(r).Error("Failed to load stats", "error", err)
			http.Error(w, "Failed to load stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input orchestrator.SubmitInput
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&input); err != nil {
			logger(r).Warn("Failed to decode match request", "error", err)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		input.UserID = userFromContext(r)

		result, err := s.Matchmaker.Submit(r.Context(), input)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func (s *Server) CancelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request, err := s.Matchmaker.Cancel(r.Context(), mux.Vars(r)["id"], userFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request)
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return s.sessionAction(s.Matchmaker.Session)
}

func (s *Server) AcceptHandler() http.HandlerFunc {
	return s.sessionAction(s.Matchmaker.Accept)
}

func (s *Server) DeclineHandler() http.HandlerFunc {
	return s.sessionAction(s.Matchmaker.Decline)
}

// sessionAction adapts a session operation of the engine to a handler
// returning the session view.
func (s *Server) sessionAction(action func(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := action(r.Context(), mux.Vars(r)["id"], userFromContext(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session.View())
	}
}

func (s *Server) SweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseLimit(r)
		if r.URL.Query().Get("async") == "true" && s.InngestClient != nil {
			if err := s.InngestClient.RequestSweep(r.Context(), limit); err != nil {
				logger(r).Error("Failed to request sweep", "error", err)
				http.Error(w, "Failed to request sweep", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusAccepted)
			return
		}

		logger(r).Info("Starting sweep of expired sessions...", "limit", limit)
		result, err := s.Matchmaker.SweepExpired(r.Context(), limit)
		if err != nil {
			logger(r).Error("Sweep finished with errors", "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// PubSubSweepHandler runs a sweep delivered by a Pub/Sub push subscription.
// A non-2xx response makes Pub/Sub redeliver the message.
func (s *Server) PubSubSweepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			logger(r).Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		logger(r).Debug("Received sweep message", "body", string(bodyBytes))

		var envelope pubsub.PushEnvelope
		if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
			logger(r).Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		rawData, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
		if err != nil {
			logger(r).Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}

		var command pubsub.Command
		if err := s.PubSub.ProcessMessage(rawData, &command); err != nil {
			logger(r).Error("Failed to decode command", "messageID", envelope.Message.ID, "error", err)
			http.Error(w, "Invalid command", http.StatusBadRequest)
			return
		}
		if command.Type != pubsub.EventSweepSessions {
			// Acknowledge so the message is not redelivered forever.
			logger(r).Warn("Ignoring unknown command", "messageID", envelope.Message.ID, "type", command.Type)
			w.Write([]byte("OK"))
			return
		}

		result, err := s.Matchmaker.SweepExpired(r.Context(), command.Limit)
		if err != nil {
			logger(r).Error("Sweep from pubsub failed", "messageID", envelope.Message.ID, "error", err)
			http.Error(w, "Sweep failed", http.StatusInternalServerError)
			return
		}
		logger(r).Info("Sweep from pubsub finished", "messageID", envelope.Message.ID, "sessionsExpired", result.SessionsExpired)
		w.Write([]byte("OK"))
	}
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return orchestrator.DefaultSweepLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		logger(r).Warn("Invalid 'limit' parameter provided. Using default.", "limit_param", raw)
		return orchestrator.DefaultSweepLimit
	}
	return limit
}

// writeError maps engine errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var verr *matchmaking.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, matchmaking.ErrSessionNotFound), errors.Is(err, matchmaking.ErrRequestNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, matchmaking.ErrNotParticipant):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case matchmaking.IsStorage(err):
		log.Error("Storage failure", "error", err)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "storage temporarily unavailable"})
	default:
		log.Error("Unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}
