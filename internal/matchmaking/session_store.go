package matchmaking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/charmbracelet/log"
)

const sessionColumns = `id, game_id, region, player_ids_json, request_ids_json, status, accepted_by_json, declined_by_json,
	expires_at, started_at, ended_at, created_at, updated_at, version`

// sessionStore handles database operations for match sessions.
type sessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a SQL backed SessionStore.
func NewSessionStore(db *sql.DB) SessionStore {
	return &sessionStore{
		db: db,
	}
}

// Create inserts a new session at version 1.
func (s *sessionStore) Create(ctx context.Context, session *MatchSession) error {
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	session.Version = 1

	blobs, err := marshalSessionLists(session)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO match_sessions (
			id, game_id, region, player_ids_json, request_ids_json, status, accepted_by_json, declined_by_json,
			expires_at, started_at, ended_at, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID, session.GameID, nullString(session.Region),
		blobs[0], blobs[1], string(session.Status), blobs[2], blobs[3],
		nullTime(session.ExpiresAt), nullTime(session.StartedAt), nullTime(session.EndedAt),
		session.CreatedAt.UnixMilli(), session.UpdatedAt.UnixMilli(), session.Version,
	)
	if err != nil {
		return storageErr("create session", err)
	}

	log.Info("Created match session", "sessionID", session.ID, "gameID", session.GameID, "players", session.PlayerIDs)
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*MatchSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM match_sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, storageErr("get session", err)
	}
	return session, nil
}

// Update writes the mutable fields of session if nobody updated it since it was read.
func (s *sessionStore) Update(ctx context.Context, session *MatchSession) (bool, error) {
	blobs, err := marshalSessionLists(session)
	if err != nil {
		return false, err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE match_sessions
		SET status = ?, accepted_by_json = ?, declined_by_json = ?, expires_at = ?, started_at = ?, ended_at = ?,
			updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`,
		string(session.Status), blobs[2], blobs[3],
		nullTime(session.ExpiresAt), nullTime(session.StartedAt), nullTime(session.EndedAt),
		now.UnixMilli(), session.ID, session.Version,
	)
	if err != nil {
		return false, storageErr("update session", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("update session", err)
	}
	if affected == 0 {
		log.Debug("Session update lost to a concurrent writer", "sessionID", session.ID, "version", session.Version)
		return false, nil
	}

	session.Version++
	session.UpdatedAt = now
	return true, nil
}

// ListExpiredPending returns pending sessions whose expiry is at or before now.
func (s *sessionStore) ListExpiredPending(ctx context.Context, now time.Time, limit int) ([]*MatchSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM match_sessions
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY expires_at ASC LIMIT ?`,
		string(SessionPending), now.UnixMilli(), limit,
	)
	if err != nil {
		return nil, storageErr("list expired sessions", err)
	}
	defer rows.Close()

	var sessions []*MatchSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, storageErr("scan session", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list expired sessions", err)
	}
	return sessions, nil
}

func marshalSessionLists(session *MatchSession) ([4][]byte, error) {
	var blobs [4][]byte
	for i, list := range [][]string{session.PlayerIDs, session.RequestIDs, session.AcceptedBy, session.DeclinedBy} {
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return blobs, err
		}
		blobs[i] = b
	}
	return blobs, nil
}

func scanSession(scanner interface{ Scan(...any) error }) (*MatchSession, error) {
	var session MatchSession
	var region sql.NullString
	var playersJSON, requestsJSON, acceptedJSON, declinedJSON []byte
	var status string
	var expiresAt, startedAt, endedAt sql.NullInt64
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&session.ID, &session.GameID, &region, &playersJSON, &requestsJSON, &status, &acceptedJSON, &declinedJSON,
		&expiresAt, &startedAt, &endedAt, &createdAt, &updatedAt, &session.Version,
	)
	if err != nil {
		return nil, err
	}

	for _, field := range []struct {
		blob   []byte
		target *[]string
	}{
		{playersJSON, &session.PlayerIDs},
		{requestsJSON, &session.RequestIDs},
		{acceptedJSON, &session.AcceptedBy},
		{declinedJSON, &session.DeclinedBy},
	} {
		if len(field.blob) == 0 {
			*field.target = []string{}
			continue
		}
		if err := json.Unmarshal(field.blob, field.target); err != nil {
			return nil, err
		}
	}

	session.Region = fromNullString(region)
	session.Status = SessionStatus(status)
	session.ExpiresAt = fromNullTime(expiresAt)
	session.StartedAt = fromNullTime(startedAt)
	session.EndedAt = fromNullTime(endedAt)
	session.CreatedAt = time.UnixMilli(createdAt)
	session.UpdatedAt = time.UnixMilli(updatedAt)
	return &session, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullTime(i sql.NullInt64) *time.Time {
	if !i.Valid {
		return nil
	}
	t := time.UnixMilli(i.Int64)
	return &t
}
