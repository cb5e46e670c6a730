package dynamo

import (
	"time"

	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

const (
	// GameStatusIndex is the GSI used for candidate scans and queue counts.
	// Partition key gameStatus ("<gameId>#<status>"), sort key createdAt.
	GameStatusIndex = "gameStatus-createdAt-index"
	// StatusExpiresIndex is the GSI on sessions used by the sweeper.
	// Partition key status, sort key expiresAt.
	StatusExpiresIndex = "status-expiresAt-index"
)

// requestItem is the DynamoDB representation of a match request. Times are
// unix milliseconds except ttl, which DynamoDB expects in seconds.
type requestItem struct {
	ID             string  `dynamodbav:"id"`
	UserID         string  `dynamodbav:"userId"`
	GameID         string  `dynamodbav:"gameId"`
	GameStatus     string  `dynamodbav:"gameStatus"`
	Region         *string `dynamodbav:"region,omitempty"`
	Skill          *int    `dynamodbav:"skill,omitempty"`
	PingMs         *int    `dynamodbav:"pingMs,omitempty"`
	MaxPingMs      *int    `dynamodbav:"maxPingMs,omitempty"`
	Status         string  `dynamodbav:"status"`
	MatchSessionID *string `dynamodbav:"matchSessionId,omitempty"`
	ExpiresAt      int64   `dynamodbav:"expiresAt"`
	CreatedAt      int64   `dynamodbav:"createdAt"`
	UpdatedAt      int64   `dynamodbav:"updatedAt"`
	TTL            int64   `dynamodbav:"ttl"`
}

func gameStatus(gameID string, status matchmaking.RequestStatus) string {
	return gameID + "#" + string(status)
}

func toRequestItem(r *matchmaking.MatchRequest) requestItem {
	return requestItem{
		ID:             r.ID,
		UserID:         r.UserID,
		GameID:         r.GameID,
		GameStatus:     gameStatus(r.GameID, r.Status),
		Region:         r.Region,
		Skill:          r.Skill,
		PingMs:         r.PingMs,
		MaxPingMs:      r.MaxPingMs,
		Status:         string(r.Status),
		MatchSessionID: r.MatchSessionID,
		ExpiresAt:      r.ExpiresAt.UnixMilli(),
		CreatedAt:      r.CreatedAt.UnixMilli(),
		UpdatedAt:      r.CreatedAt.UnixMilli(),
		// Keep rows around for a day past expiry so late lookups still resolve.
		TTL: r.ExpiresAt.Add(24 * time.Hour).Unix(),
	}
}

func (i requestItem) toRequest() *matchmaking.MatchRequest {
	return &matchmaking.MatchRequest{
		ID:             i.ID,
		UserID:         i.UserID,
		GameID:         i.GameID,
		Region:         i.Region,
		Skill:          i.Skill,
		PingMs:         i.PingMs,
		MaxPingMs:      i.MaxPingMs,
		Status:         matchmaking.RequestStatus(i.Status),
		MatchSessionID: i.MatchSessionID,
		ExpiresAt:      time.UnixMilli(i.ExpiresAt),
		CreatedAt:      time.UnixMilli(i.CreatedAt),
	}
}

// sessionItem is the DynamoDB representation of a match session.
type sessionItem struct {
	ID         string   `dynamodbav:"id"`
	GameID     string   `dynamodbav:"gameId"`
	Region     *string  `dynamodbav:"region,omitempty"`
	PlayerIDs  []string `dynamodbav:"playerIds"`
	RequestIDs []string `dynamodbav:"requestIds"`
	Status     string   `dynamodbav:"status"`
	AcceptedBy []string `dynamodbav:"acceptedBy"`
	DeclinedBy []string `dynamodbav:"declinedBy"`
	ExpiresAt  *int64   `dynamodbav:"expiresAt,omitempty"`
	StartedAt  *int64   `dynamodbav:"startedAt,omitempty"`
	EndedAt    *int64   `dynamodbav:"endedAt,omitempty"`
	CreatedAt  int64    `dynamodbav:"createdAt"`
	UpdatedAt  int64    `dynamodbav:"updatedAt"`
	Version    int64    `dynamodbav:"version"`
}

func toSessionItem(s *matchmaking.MatchSession) sessionItem {
	return sessionItem{
		ID:         s.ID,
		GameID:     s.GameID,
		Region:     s.Region,
		PlayerIDs:  nonNil(s.PlayerIDs),
		RequestIDs: nonNil(s.RequestIDs),
		Status:     string(s.Status),
		AcceptedBy: nonNil(s.AcceptedBy),
		DeclinedBy: nonNil(s.DeclinedBy),
		ExpiresAt:  millis(s.ExpiresAt),
		StartedAt:  millis(s.StartedAt),
		EndedAt:    millis(s.EndedAt),
		CreatedAt:  s.CreatedAt.UnixMilli(),
		UpdatedAt:  s.UpdatedAt.UnixMilli(),
		Version:    s.Version,
	}
}

func (i sessionItem) toSession() *matchmaking.MatchSession {
	return &matchmaking.MatchSession{
		ID:         i.ID,
		GameID:     i.GameID,
		Region:     i.Region,
		PlayerIDs:  nonNil(i.PlayerIDs),
		RequestIDs: nonNil(i.RequestIDs),
		Status:     matchmaking.SessionStatus(i.Status),
		AcceptedBy: nonNil(i.AcceptedBy),
		DeclinedBy: nonNil(i.DeclinedBy),
		ExpiresAt:  fromMillis(i.ExpiresAt),
		StartedAt:  fromMillis(i.StartedAt),
		EndedAt:    fromMillis(i.EndedAt),
		CreatedAt:  time.UnixMilli(i.CreatedAt),
		UpdatedAt:  time.UnixMilli(i.UpdatedAt),
		Version:    i.Version,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func millis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	v := t.UnixMilli()
	return &v
}

func fromMillis(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(*v)
	return &t
}
