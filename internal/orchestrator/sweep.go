package orchestrator

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/notifier"
)

// DefaultSweepLimit caps how many expired sessions one sweep handles.
const DefaultSweepLimit = 100

// TimeoutReason marks declines issued by the sweeper.
const TimeoutReason = "timeout"

// SweepExpired force-declines pending sessions whose accept window closed,
// on behalf of every player that had not accepted, and expires stale queued
// requests. A failure on one session does not stop the others.
func (o *Orchestrator) SweepExpired(ctx context.Context, limit int) (SweepResult, error) {
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	now := o.now()
	var result SweepResult
	var errs []error

	expired, err := o.sessions.ListExpiredPending(ctx, now, limit)
	if err != nil {
		errs = append(errs, err)
	}
	for _, candidate := range expired {
		session, written, err := o.update(ctx, candidate.ID, func(s *matchmaking.MatchSession) (bool, error) {
			if s.Status != matchmaking.SessionPending || s.ExpiresAt == nil || s.ExpiresAt.After(now) {
				return false, nil
			}
			for _, player := range s.PlayerIDs {
				if !slices.Contains(s.AcceptedBy, player) {
					s.MarkDeclined(player)
				}
			}
			s.Status = matchmaking.SessionDeclined
			s.EndedAt = &now
			s.ExpiresAt = nil
			return true, nil
		})
		if err != nil {
			log.Error("Failed to expire session", "sessionID", candidate.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if !written {
			continue
		}

		o.release(ctx, session.ID, session.RequestIDs)
		o.metrics.IncSessionsExpired()
		result.SessionsExpired++
		log.Info("Expired pending session", "sessionID", session.ID, "declinedBy", session.DeclinedBy)

		declinedBy := ""
		if len(session.DeclinedBy) > 0 {
			declinedBy = session.DeclinedBy[0]
		}
		o.notify(ctx, session.PlayerIDs, notifier.EventDeclined, notifier.DeclinedPayload{
			SessionID:  session.ID,
			DeclinedBy: declinedBy,
			Reason:     TimeoutReason,
		})
	}

	requests, err := o.requests.ExpireStale(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	result.RequestsExpired = requests

	log.Info("Sweep finished", "sessionsExpired", result.SessionsExpired, "requestsExpired", result.RequestsExpired)
	return result, errors.Join(errs...)
}
