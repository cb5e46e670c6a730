package matchmaking

import (
	"context"
	"time"
)

// RequestStore persists match requests. Reserve is the only mutual-exclusion
// point of the engine and must be a single atomic compare-and-set.
type RequestStore interface {
	// Submit persists a new queued request and returns its id.
	Submit(ctx context.Context, request *MatchRequest) (string, error)

	// Get retrieves a request by id.
	Get(ctx context.Context, id string) (*MatchRequest, error)

	// FindCandidates returns queued, unexpired requests for the same game,
	// excluding the requester, oldest first, capped at limit.
	FindCandidates(ctx context.Context, request *MatchRequest, limit int) ([]*MatchRequest, error)

	// Reserve sets status=matched and the session id only if the request is
	// still in expectedStatus. It returns false when another reservation won.
	Reserve(ctx context.Context, id string, expectedStatus RequestStatus, sessionID string) (bool, error)

	// Release puts requests matched into sessionID back in the queue and clears
	// their session id. Requests held by any other session are left alone.
	Release(ctx context.Context, sessionID string, ids []string) error

	// CountQueued counts queued requests for a game.
	CountQueued(ctx context.Context, gameID string) (int, error)

	// Cancel withdraws a queued request owned by userID.
	Cancel(ctx context.Context, id string, userID string) (bool, error)

	// ExpireStale marks queued requests past their expiry as expired.
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// SessionStore persists match sessions. Only the orchestrator writes to it.
type SessionStore interface {
	Create(ctx context.Context, session *MatchSession) error
	Get(ctx context.Context, id string) (*MatchSession, error)

	// Update writes session if its stored version still equals session.Version,
	// then bumps the version. It returns false when a concurrent update won.
	Update(ctx context.Context, session *MatchSession) (bool, error)

	// ListExpiredPending returns pending sessions whose accept window closed.
	ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*MatchSession, error)
}
