package orchestrator

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/metrics"
	"github.com/mauv0809/matchqueue/internal/notifier"
	"github.com/sethvargo/go-retry"
)

const (
	minEstimatedWaitSeconds = 30
	secondsPerQueuedRequest = 12

	releaseTimeout = 5 * time.Second
)

// New creates a new Orchestrator.
func New(requests matchmaking.RequestStore, sessions matchmaking.SessionStore, matcher Matcher, notifier Notifier, metrics metrics.Metrics, cfg config.MatchmakingConfig) *Orchestrator {
	return &Orchestrator{
		requests: requests,
		sessions: sessions,
		matcher:  matcher,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
		releaseBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
		},
		updateBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(5, retry.WithJitter(5*time.Millisecond, retry.NewConstant(10*time.Millisecond)))
		},
	}
}

// Submit persists a new request and tries to pair it with a queued one.
// Losing a reservation race, or failing to create the session, degrades to
// the queued response; only validation and storage faults are errors.
func (o *Orchestrator) Submit(ctx context.Context, input SubmitInput) (*matchmaking.SubmitResult, error) {
	start := time.Now()
	defer func() {
		o.metrics.ObserveSubmitDuration(time.Since(start).Seconds())
	}()

	if err := o.validate(input); err != nil {
		return nil, err
	}

	now := o.now()
	maxPing := o.cfg.DefaultMaxPingMs
	if input.MaxPingMs != nil {
		maxPing = *input.MaxPingMs
	}
	request := &matchmaking.MatchRequest{
		ID:        o.newID(),
		UserID:    input.UserID,
		GameID:    input.GameID,
		Region:    input.Region,
		Skill:     input.Skill,
		PingMs:    input.PingMs,
		MaxPingMs: &maxPing,
		Status:    matchmaking.RequestQueued,
		ExpiresAt: now.Add(o.cfg.RequestTTL()),
		CreatedAt: now,
	}
	if _, err := o.requests.Submit(ctx, request); err != nil {
		return nil, err
	}
	o.metrics.IncRequestsSubmitted()
	log.Info("Match request queued", "requestID", request.ID, "userID", request.UserID, "gameID", request.GameID)

	candidate, err := o.matcher.FindMatch(ctx, request)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return o.queued(ctx, request), nil
	}

	sessionID := o.newID()
	reserved, err := o.requests.Reserve(ctx, candidate.ID, matchmaking.RequestQueued, sessionID)
	if err != nil {
		return nil, err
	}
	if !reserved {
		// Another submission claimed the candidate first. Never rescan.
		o.metrics.IncReservationConflicts()
		log.Info("Lost reservation race", "requestID", request.ID, "candidateID", candidate.ID, "error", matchmaking.ErrReservationConflict)
		return o.queued(ctx, request), nil
	}

	reserved, err = o.requests.Reserve(ctx, request.ID, matchmaking.RequestQueued, sessionID)
	if err != nil || !reserved {
		// The own request may now belong to a concurrent session; only the
		// candidate was reserved here.
		log.Error("Failed to reserve own request", "requestID", request.ID, "sessionID", sessionID, "error", err)
		o.compensate(ctx, sessionID, []string{candidate.ID})
		return o.queued(ctx, request), nil
	}
	pair := []string{request.ID, candidate.ID}

	region := request.Region
	if region == nil {
		region = candidate.Region
	}
	expiresAt := now.Add(o.cfg.AcceptTimeout())
	session := &matchmaking.MatchSession{
		ID:         sessionID,
		GameID:     request.GameID,
		Region:     region,
		PlayerIDs:  []string{request.UserID, candidate.UserID},
		RequestIDs: pair,
		Status:     matchmaking.SessionPending,
		AcceptedBy: []string{},
		DeclinedBy: []string{},
		ExpiresAt:  &expiresAt,
		CreatedAt:  now,
	}
	if err := o.sessions.Create(ctx, session); err != nil {
		log.Error("Failed to create match session", "sessionID", sessionID, "error", err)
		o.compensate(ctx, sessionID, pair)
		return o.queued(ctx, request), nil
	}

	o.metrics.IncMatchesMade()
	log.Info("Match found", "sessionID", sessionID, "players", session.PlayerIDs, "gameID", session.GameID)
	o.notify(ctx, session.PlayerIDs, notifier.EventOffer, session.View())

	return &matchmaking.SubmitResult{
		RequestID:            request.ID,
		Status:               matchmaking.RequestMatched,
		EstimatedWaitSeconds: 0,
		MatchSessionID:       &sessionID,
	}, nil
}

// Cancel withdraws a queued request. Cancelling a request that already left
// the queue is a no-op returning its current state.
func (o *Orchestrator) Cancel(ctx context.Context, requestID, userID string) (*matchmaking.MatchRequest, error) {
	request, err := o.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.UserID != userID {
		return nil, matchmaking.ErrNotParticipant
	}
	cancelled, err := o.requests.Cancel(ctx, requestID, userID)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		log.Debug("Request not cancellable", "requestID", requestID, "status", request.Status)
		return o.requests.Get(ctx, requestID)
	}
	log.Info("Match request cancelled", "requestID", requestID, "userID", userID)
	request.Status = matchmaking.RequestCancelled
	return request, nil
}

func (o *Orchestrator) queued(ctx context.Context, request *matchmaking.MatchRequest) *matchmaking.SubmitResult {
	return &matchmaking.SubmitResult{
		RequestID:            request.ID,
		Status:               matchmaking.RequestQueued,
		EstimatedWaitSeconds: o.estimateWait(ctx, request.GameID),
	}
}

func (o *Orchestrator) estimateWait(ctx context.Context, gameID string) int {
	count, err := o.requests.CountQueued(ctx, gameID)
	if err != nil {
		log.Warn("Failed to count queued requests", "gameID", gameID, "error", err)
		return minEstimatedWaitSeconds
	}
	return max(minEstimatedWaitSeconds, count*secondsPerQueuedRequest)
}

// compensate undoes a reservation that did not lead to a live session.
func (o *Orchestrator) compensate(ctx context.Context, sessionID string, requestIDs []string) {
	o.metrics.IncCompensations()
	o.release(ctx, sessionID, requestIDs)
}

// release requeues the requests held by sessionID, retrying transient failures. It runs detached
// from the caller's cancellation: a matched request without a live session
// would never be paired again.
func (o *Orchestrator) release(ctx context.Context, sessionID string, requestIDs []string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	err := retry.Do(ctx, o.releaseBackoff(), func(ctx context.Context) error {
		if err := o.requests.Release(ctx, sessionID, requestIDs); err != nil {
			log.Warn("Release failed, retrying", "sessionID", sessionID, "requestIDs", requestIDs, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to release requests; they stay matched", "sessionID", sessionID, "requestIDs", requestIDs, "error", err)
	}
}

func (o *Orchestrator) notify(ctx context.Context, userIDs []string, event string, payload any) {
	if err := o.notifier.Notify(ctx, userIDs, event, payload); err != nil {
		log.Warn("Failed to notify players", "event", event, "users", userIDs, "error", err)
	}
}
