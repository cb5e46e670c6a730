package matchmaking

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const requestColumns = `id, user_id, game_id, region, skill, ping_ms, max_ping_ms, status, match_session_id, expires_at, created_at`

// requestStore handles database operations for match requests.
type requestStore struct {
	db *sql.DB
}

// NewRequestStore creates a SQL backed RequestStore.
func NewRequestStore(db *sql.DB) RequestStore {
	return &requestStore{
		db: db,
	}
}

// Submit inserts a new queued match request.
func (s *requestStore) Submit(ctx context.Context, request *MatchRequest) (string, error) {
	if request.ID == "" {
		request.ID = uuid.New().String()
	}
	if request.CreatedAt.IsZero() {
		request.CreatedAt = time.Now()
	}
	if request.Status == "" {
		request.Status = RequestQueued
	}

	query := `
		INSERT INTO match_requests (
			id, user_id, game_id, region, skill, ping_ms, max_ping_ms, status, match_session_id, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		request.ID,
		request.UserID,
		request.GameID,
		nullString(request.Region),
		nullInt(request.Skill),
		nullInt(request.PingMs),
		nullInt(request.MaxPingMs),
		string(request.Status),
		nullString(request.MatchSessionID),
		request.ExpiresAt.UnixMilli(),
		request.CreatedAt.UnixMilli(),
		request.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return "", storageErr("submit request", err)
	}

	log.Debug("Stored match request", "requestID", request.ID, "userID", request.UserID, "gameID", request.GameID)
	return request.ID, nil
}

// Get retrieves a match request by ID.
func (s *requestStore) Get(ctx context.Context, id string) (*MatchRequest, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM match_requests WHERE id = ?`, id)
	request, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, storageErr("get request", err)
	}
	return request, nil
}

// FindCandidates returns the oldest queued requests that could be paired with request.
func (s *requestStore) FindCandidates(ctx context.Context, request *MatchRequest, limit int) ([]*MatchRequest, error) {
	if limit <= 0 {
		limit = DefaultCandidateLimit
	}

	query := `SELECT ` + requestColumns + ` FROM match_requests
		WHERE game_id = ? AND status = ? AND id != ? AND user_id != ? AND expires_at > ?`
	args := []any{request.GameID, string(RequestQueued), request.ID, request.UserID, time.Now().UnixMilli()}
	if request.Region != nil {
		query += ` AND region = ?`
		args = append(args, *request.Region)
	}
	query += ` ORDER BY created_at ASC, rowid ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("find candidates", err)
	}
	defer rows.Close()

	var candidates []*MatchRequest
	for rows.Next() {
		candidate, err := scanRequest(rows)
		if err != nil {
			return nil, storageErr("scan candidate", err)
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("find candidates", err)
	}
	return candidates, nil
}

// Reserve is a single conditional UPDATE: the row only changes when its
// status still equals expectedStatus, so exactly one concurrent caller wins.
func (s *requestStore) Reserve(ctx context.Context, id string, expectedStatus RequestStatus, sessionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE match_requests
		SET status = ?, match_session_id = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, string(RequestMatched), sessionID, time.Now().UnixMilli(), id, string(expectedStatus))
	if err != nil {
		return false, storageErr("reserve request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("reserve request", err)
	}
	if affected == 0 {
		log.Debug("Reservation lost", "requestID", id, "sessionID", sessionID)
		return false, nil
	}
	return true, nil
}

// Release requeues the requests matched into sessionID in a single transaction.
func (s *requestStore) Release(ctx context.Context, sessionID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("release requests", err)
	}
	defer tx.Rollback()

	query := `UPDATE match_requests SET status = ?, match_session_id = NULL, updated_at = ?
		WHERE status = ? AND match_session_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{string(RequestQueued), time.Now().UnixMilli(), string(RequestMatched), sessionID}, ToAnySlice(ids)...)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return storageErr("release requests", err)
	}
	if err = tx.Commit(); err != nil {
		return storageErr("release requests", err)
	}

	released, _ := result.RowsAffected()
	log.Info("Released match requests", "sessionID", sessionID, "ids", ids, "released", released)
	return nil
}

// CountQueued counts the queued requests for a game.
func (s *requestStore) CountQueued(ctx context.Context, gameID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM match_requests WHERE game_id = ? AND status = ?`,
		gameID, string(RequestQueued),
	).Scan(&count)
	if err != nil {
		return 0, storageErr("count queued", err)
	}
	return count, nil
}

// Cancel withdraws a queued request owned by userID.
func (s *requestStore) Cancel(ctx context.Context, id string, userID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE match_requests SET status = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?
	`, string(RequestCancelled), time.Now().UnixMilli(), id, userID, string(RequestQueued))
	if err != nil {
		return false, storageErr("cancel request", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, storageErr("cancel request", err)
	}
	return affected == 1, nil
}

// ExpireStale marks queued requests whose expiry has passed.
func (s *requestStore) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE match_requests SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at <= ?
	`, string(RequestExpired), now.UnixMilli(), string(RequestQueued), now.UnixMilli())
	if err != nil {
		return 0, storageErr("expire requests", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, storageErr("expire requests", err)
	}
	if affected > 0 {
		log.Info("Expired stale match requests", "count", affected)
	}
	return int(affected), nil
}

// scanRequest is a helper function to scan a single request row.
func scanRequest(scanner interface{ Scan(...any) error }) (*MatchRequest, error) {
	var request MatchRequest
	var region, sessionID sql.NullString
	var skill, pingMs, maxPingMs sql.NullInt64
	var status string
	var expiresAt, createdAt int64

	err := scanner.Scan(
		&request.ID, &request.UserID, &request.GameID, &region, &skill, &pingMs, &maxPingMs,
		&status, &sessionID, &expiresAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	request.Region = fromNullString(region)
	request.Skill = fromNullInt(skill)
	request.PingMs = fromNullInt(pingMs)
	request.MaxPingMs = fromNullInt(maxPingMs)
	request.Status = RequestStatus(status)
	request.MatchSessionID = fromNullString(sessionID)
	request.ExpiresAt = time.UnixMilli(expiresAt)
	request.CreatedAt = time.UnixMilli(createdAt)
	return &request, nil
}

// ToAnySlice converts a typed slice into query arguments.
func ToAnySlice[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func fromNullInt(i sql.NullInt64) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int64)
	return &v
}
