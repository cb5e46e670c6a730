package orchestrator

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/notifier"
	"github.com/sethvargo/go-retry"
)

var errVersionConflict = errors.New("session changed concurrently")

// Session returns a session to one of its players.
func (o *Orchestrator) Session(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error) {
	session, err := o.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.HasPlayer(userID) {
		return nil, matchmaking.ErrNotParticipant
	}
	return session, nil
}

// Accept records userID's acceptance. Once every player accepted the session
// becomes active. Accepting a session that is no longer pending, or accepting
// twice, returns the current state unchanged.
func (o *Orchestrator) Accept(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error) {
	now := o.now()
	session, written, err := o.update(ctx, sessionID, func(s *matchmaking.MatchSession) (bool, error) {
		if !s.HasPlayer(userID) {
			return false, matchmaking.ErrNotParticipant
		}
		if s.Status != matchmaking.SessionPending || slices.Contains(s.AcceptedBy, userID) {
			return false, nil
		}
		if s.MarkAccepted(userID) {
			s.Status = matchmaking.SessionActive
			s.StartedAt = &now
			s.ExpiresAt = nil
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !written {
		return session, nil
	}

	if session.Status == matchmaking.SessionActive {
		o.metrics.IncSessionsActivated()
		log.Info("Match session started", "sessionID", session.ID, "players", session.PlayerIDs)
		o.notify(ctx, session.PlayerIDs, notifier.EventStarted, session.View())
	} else {
		log.Info("Player accepted match", "sessionID", session.ID, "userID", userID)
		o.notify(ctx, session.PlayerIDs, notifier.EventAccepted, notifier.AcceptedPayload{
			SessionID:  session.ID,
			AcceptedBy: userID,
		})
	}
	return session, nil
}

// Decline ends a pending session and puts every paired request back in the queue.
func (o *Orchestrator) Decline(ctx context.Context, sessionID, userID string) (*matchmaking.MatchSession, error) {
	now := o.now()
	session, written, err := o.update(ctx, sessionID, func(s *matchmaking.MatchSession) (bool, error) {
		if !s.HasPlayer(userID) {
			return false, matchmaking.ErrNotParticipant
		}
		if s.Status != matchmaking.SessionPending {
			return false, nil
		}
		s.MarkDeclined(userID)
		s.Status = matchmaking.SessionDeclined
		s.EndedAt = &now
		s.ExpiresAt = nil
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !written {
		return session, nil
	}

	o.release(ctx, session.ID, session.RequestIDs)
	o.metrics.IncSessionsDeclined()
	log.Info("Match session declined", "sessionID", session.ID, "userID", userID)
	o.notify(ctx, session.PlayerIDs, notifier.EventDeclined, notifier.DeclinedPayload{
		SessionID:  session.ID,
		DeclinedBy: userID,
	})
	return session, nil
}

// update reads the session, applies change and writes it back under the
// version guard. A concurrent writer causes a re-read and another attempt.
// change returns false to leave the session as read.
func (o *Orchestrator) update(ctx context.Context, sessionID string, change func(*matchmaking.MatchSession) (bool, error)) (*matchmaking.MatchSession, bool, error) {
	var (
		session *matchmaking.MatchSession
		written bool
	)
	err := retry.Do(ctx, o.updateBackoff(), func(ctx context.Context) error {
		current, err := o.sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		write, err := change(current)
		if err != nil {
			return err
		}
		session, written = current, false
		if !write {
			return nil
		}
		ok, err := o.sessions.Update(ctx, current)
		if err != nil {
			return err
		}
		if !ok {
			log.Debug("Session version conflict, re-reading", "sessionID", sessionID)
			return retry.RetryableError(errVersionConflict)
		}
		written = true
		return nil
	})
	if errors.Is(err, errVersionConflict) {
		return nil, false, matchmaking.NewStorageError("update session", err)
	}
	if err != nil {
		return nil, false, err
	}
	return session, written, nil
}
