package matchmaking

import (
	"slices"
	"time"
)

// DefaultCandidateLimit caps how many queued requests a single match attempt scans.
const DefaultCandidateLimit = 10

// RequestStatus represents the lifecycle state of a match request.
type RequestStatus string

const (
	RequestQueued    RequestStatus = "queued"
	RequestMatched   RequestStatus = "matched"
	RequestCancelled RequestStatus = "cancelled"
	RequestExpired   RequestStatus = "expired"
)

// SessionStatus represents the lifecycle state of a match session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionDeclined  SessionStatus = "declined"
)

// MatchRequest is one user's intent to be matched for one game.
type MatchRequest struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	GameID         string        `json:"game_id"`
	Region         *string       `json:"region,omitempty"`
	Skill          *int          `json:"skill,omitempty"`
	PingMs         *int          `json:"ping_ms,omitempty"`
	MaxPingMs      *int          `json:"max_ping_ms,omitempty"`
	Status         RequestStatus `json:"status"`
	MatchSessionID *string       `json:"match_session_id,omitempty"`
	ExpiresAt      time.Time     `json:"expires_at"`
	CreatedAt      time.Time     `json:"created_at"`
}

// MatchSession is a tentative or confirmed pairing of two or more requests.
// PlayerIDs and RequestIDs are parallel lists.
type MatchSession struct {
	ID         string        `json:"id"`
	GameID     string        `json:"game_id"`
	Region     *string       `json:"region,omitempty"`
	PlayerIDs  []string      `json:"player_ids"`
	RequestIDs []string      `json:"request_ids"`
	Status     SessionStatus `json:"status"`
	AcceptedBy []string      `json:"accepted_by"`
	DeclinedBy []string      `json:"declined_by"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	StartedAt  *time.Time    `json:"started_at,omitempty"`
	EndedAt    *time.Time    `json:"ended_at,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	// Version is bumped on every successful update and guards concurrent writers.
	Version int64 `json:"version"`
}

// HasPlayer reports whether userID takes part in the session.
func (s *MatchSession) HasPlayer(userID string) bool {
	return slices.Contains(s.PlayerIDs, userID)
}

// MarkAccepted adds userID to AcceptedBy once. It reports whether every
// player has now accepted.
func (s *MatchSession) MarkAccepted(userID string) bool {
	if !slices.Contains(s.AcceptedBy, userID) {
		s.AcceptedBy = append(s.AcceptedBy, userID)
	}
	return s.AllAccepted()
}

// MarkDeclined adds userID to DeclinedBy once.
func (s *MatchSession) MarkDeclined(userID string) {
	if !slices.Contains(s.DeclinedBy, userID) {
		s.DeclinedBy = append(s.DeclinedBy, userID)
	}
}

// AllAccepted reports whether AcceptedBy covers every player.
func (s *MatchSession) AllAccepted() bool {
	for _, id := range s.PlayerIDs {
		if !slices.Contains(s.AcceptedBy, id) {
			return false
		}
	}
	return len(s.PlayerIDs) > 0
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (s *MatchSession) Clone() *MatchSession {
	c := *s
	c.PlayerIDs = slices.Clone(s.PlayerIDs)
	c.RequestIDs = slices.Clone(s.RequestIDs)
	c.AcceptedBy = slices.Clone(s.AcceptedBy)
	c.DeclinedBy = slices.Clone(s.DeclinedBy)
	return &c
}

// Clone returns a copy of the request.
func (r *MatchRequest) Clone() *MatchRequest {
	c := *r
	return &c
}

// SubmitResult is returned to the caller of a submission.
type SubmitResult struct {
	RequestID            string        `json:"requestId"`
	Status               RequestStatus `json:"status"`
	EstimatedWaitSeconds int           `json:"estimatedWaitSeconds"`
	MatchSessionID       *string       `json:"matchSessionId,omitempty"`
}

// SessionView is the representation of a session handed to clients.
type SessionView struct {
	SessionID  string        `json:"sessionId" msgpack:"sessionId"`
	GameID     string        `json:"gameId" msgpack:"gameId"`
	Region     *string       `json:"region" msgpack:"region"`
	PlayerIDs  []string      `json:"playerIds" msgpack:"playerIds"`
	Status     SessionStatus `json:"status" msgpack:"status"`
	AcceptedBy []string      `json:"acceptedBy" msgpack:"acceptedBy"`
	ExpiresAt  *time.Time    `json:"expiresAt" msgpack:"expiresAt"`
}

// View builds the client representation of the session.
func (s *MatchSession) View() SessionView {
	accepted := s.AcceptedBy
	if accepted == nil {
		accepted = []string{}
	}
	return SessionView{
		SessionID:  s.ID,
		GameID:     s.GameID,
		Region:     s.Region,
		PlayerIDs:  s.PlayerIDs,
		Status:     s.Status,
		AcceptedBy: accepted,
		ExpiresAt:  s.ExpiresAt,
	}
}
