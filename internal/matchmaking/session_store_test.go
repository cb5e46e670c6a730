package matchmaking_test

import (
	"context"
	"testing"
	"time"

	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string, expiresAt time.Time) *matchmaking.MatchSession {
	return &matchmaking.MatchSession{
		ID:         id,
		GameID:     "valorant",
		Region:     ptr("eu"),
		PlayerIDs:  []string{"a", "b"},
		RequestIDs: []string{"ra", "rb"},
		Status:     matchmaking.SessionPending,
		ExpiresAt:  &expiresAt,
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	_, sessions, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	s := newSession("s1", time.Now().Add(90*time.Second))
	require.NoError(t, sessions.Create(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	got, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.PlayerIDs)
	assert.Equal(t, []string{"ra", "rb"}, got.RequestIDs)
	assert.Equal(t, []string{}, got.AcceptedBy)
	assert.Equal(t, []string{}, got.DeclinedBy)
	assert.Equal(t, matchmaking.SessionPending, got.Status)
	assert.Equal(t, int64(1), got.Version)
	require.NotNil(t, got.ExpiresAt)
	assert.Equal(t, s.ExpiresAt.UnixMilli(), got.ExpiresAt.UnixMilli())
	assert.Nil(t, got.StartedAt)
}

func TestSessionGet_NotFound(t *testing.T) {
	_, sessions, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := sessions.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, matchmaking.ErrSessionNotFound)
}

func TestSessionUpdate_VersionGuard(t *testing.T) {
	_, sessions, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	require.NoError(t, sessions.Create(ctx, newSession("s1", time.Now().Add(time.Minute))))

	first, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	second, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)

	first.MarkAccepted("a")
	ok, err := sessions.Update(ctx, first)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), first.Version)

	second.MarkAccepted("b")
	ok, err = sessions.Update(ctx, second)
	require.NoError(t, err)
	assert.False(t, ok, "stale writer must lose")

	got, err := sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.AcceptedBy)
	assert.Equal(t, int64(2), got.Version)

	now := time.Now()
	got.MarkAccepted("b")
	got.Status = matchmaking.SessionActive
	got.StartedAt = &now
	ok, err = sessions.Update(ctx, got)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, matchmaking.SessionActive, got.Status)
	assert.ElementsMatch(t, []string{"a", "b"}, got.AcceptedBy)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, int64(3), got.Version)
}

func TestListExpiredPending(t *testing.T) {
	_, sessions, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, sessions.Create(ctx, newSession("late", now.Add(-time.Second))))
	require.NoError(t, sessions.Create(ctx, newSession("later", now.Add(-time.Minute))))
	require.NoError(t, sessions.Create(ctx, newSession("open", now.Add(time.Minute))))

	active := newSession("active", now.Add(-time.Minute))
	require.NoError(t, sessions.Create(ctx, active))
	active.Status = matchmaking.SessionActive
	ok, err := sessions.Update(ctx, active)
	require.NoError(t, err)
	require.True(t, ok)

	expired, err := sessions.ListExpiredPending(ctx, now, 10)
	require.NoError(t, err)
	var ids []string
	for _, s := range expired {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"later", "late"}, ids)
}
