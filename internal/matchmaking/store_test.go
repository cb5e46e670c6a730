package matchmaking_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/matchqueue/internal/database"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database with both stores on top of it.
func setupTestDB(t *testing.T) (matchmaking.RequestStore, matchmaking.SessionStore, *sql.DB, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	teardown := func() {
		dbTeardown()
		db.Close()
	}
	return matchmaking.NewRequestStore(db), matchmaking.NewSessionStore(db), db, teardown
}

func ptr[T any](v T) *T { return &v }

func newRequest(userID, gameID string, createdAt time.Time) *matchmaking.MatchRequest {
	return &matchmaking.MatchRequest{
		UserID:    userID,
		GameID:    gameID,
		Status:    matchmaking.RequestQueued,
		ExpiresAt: createdAt.Add(10 * time.Minute),
		CreatedAt: createdAt,
	}
}

func TestSubmitAndGet(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	req := newRequest("u1", "valorant", time.Now())
	req.Region = ptr("eu")
	req.Skill = ptr(5)
	req.MaxPingMs = ptr(150)

	id, err := store.Submit(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "valorant", got.GameID)
	require.NotNil(t, got.Region)
	assert.Equal(t, "eu", *got.Region)
	require.NotNil(t, got.Skill)
	assert.Equal(t, 5, *got.Skill)
	assert.Nil(t, got.PingMs)
	assert.Equal(t, matchmaking.RequestQueued, got.Status)
	assert.Nil(t, got.MatchSessionID)
	assert.Equal(t, req.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
}

func TestGet_NotFound(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, matchmaking.ErrRequestNotFound)
}

func TestFindCandidates(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	older := newRequest("u-old", "valorant", base)
	newer := newRequest("u-new", "valorant", base.Add(time.Second))
	sameUser := newRequest("u-me", "valorant", base.Add(-time.Second))
	otherGame := newRequest("u-other", "chess", base)
	expired := newRequest("u-expired", "valorant", base)
	expired.ExpiresAt = time.Now().Add(-time.Second)
	otherRegion := newRequest("u-na", "valorant", base)
	otherRegion.Region = ptr("na")

	for _, r := range []*matchmaking.MatchRequest{newer, older, sameUser, otherGame, expired, otherRegion} {
		_, err := store.Submit(ctx, r)
		require.NoError(t, err)
	}

	me := newRequest("u-me", "valorant", time.Now())
	_, err := store.Submit(ctx, me)
	require.NoError(t, err)

	t.Run("oldest first and excludes ineligible rows", func(t *testing.T) {
		candidates, err := store.FindCandidates(ctx, me, 10)
		require.NoError(t, err)
		var users []string
		for _, c := range candidates {
			users = append(users, c.UserID)
		}
		assert.Equal(t, []string{"u-old", "u-na", "u-new"}, users)
	})

	t.Run("region filter applies when requester has a region", func(t *testing.T) {
		me.Region = ptr("na")
		defer func() { me.Region = nil }()
		candidates, err := store.FindCandidates(ctx, me, 10)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "u-na", candidates[0].UserID)
	})

	t.Run("limit caps the window", func(t *testing.T) {
		candidates, err := store.FindCandidates(ctx, me, 1)
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, "u-old", candidates[0].UserID)
	})

	t.Run("matched requests are not candidates", func(t *testing.T) {
		ok, err := store.Reserve(ctx, older.ID, matchmaking.RequestQueued, "s1")
		require.NoError(t, err)
		require.True(t, ok)

		candidates, err := store.FindCandidates(ctx, me, 10)
		require.NoError(t, err)
		for _, c := range candidates {
			assert.NotEqual(t, older.ID, c.ID)
		}
	})
}

func TestReserve(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	req := newRequest("u1", "valorant", time.Now())
	id, err := store.Submit(ctx, req)
	require.NoError(t, err)

	ok, err := store.Reserve(ctx, id, matchmaking.RequestQueued, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, matchmaking.RequestMatched, got.Status)
	require.NotNil(t, got.MatchSessionID)
	assert.Equal(t, "s1", *got.MatchSessionID)

	ok, err = store.Reserve(ctx, id, matchmaking.RequestQueued, "s2")
	require.NoError(t, err)
	assert.False(t, ok, "second reservation must fail")

	got, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "s1", *got.MatchSessionID, "losing reservation must not overwrite the session id")

	ok, err = store.Reserve(ctx, "missing", matchmaking.RequestQueued, "s3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReserve_ConcurrentSingleWinner(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	id, err := store.Submit(ctx, newRequest("u1", "valorant", time.Now()))
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := store.Reserve(ctx, id, matchmaking.RequestQueued, "session")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestRelease(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.Submit(ctx, newRequest("a", "valorant", time.Now()))
	require.NoError(t, err)
	b, err := store.Submit(ctx, newRequest("b", "valorant", time.Now()))
	require.NoError(t, err)
	c, err := store.Submit(ctx, newRequest("c", "valorant", time.Now()))
	require.NoError(t, err)

	for _, id := range []string{a, b} {
		ok, err := store.Reserve(ctx, id, matchmaking.RequestQueued, "s1")
		require.NoError(t, err)
		require.True(t, ok)
	}
	cancelled, err := store.Cancel(ctx, c, "c")
	require.NoError(t, err)
	require.True(t, cancelled)

	require.NoError(t, store.Release(ctx, "s1", []string{a, b, c}))

	for _, id := range []string{a, b} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, matchmaking.RequestQueued, got.Status)
		assert.Nil(t, got.MatchSessionID)
	}

	got, err := store.Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, matchmaking.RequestCancelled, got.Status, "release only requeues matched requests")

	assert.NoError(t, store.Release(ctx, "s1", nil))
}

func TestRelease_LeavesOtherSessionsAlone(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	a, err := store.Submit(ctx, newRequest("a", "valorant", time.Now()))
	require.NoError(t, err)
	ok, err := store.Reserve(ctx, a, matchmaking.RequestQueued, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(ctx, "s2", []string{a}))

	got, err := store.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, matchmaking.RequestMatched, got.Status)
	require.NotNil(t, got.MatchSessionID)
	assert.Equal(t, "s1", *got.MatchSessionID)
}

func TestCountQueued(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	for _, u := range []string{"a", "b", "c"} {
		_, err := store.Submit(ctx, newRequest(u, "valorant", time.Now()))
		require.NoError(t, err)
	}
	chess, err := store.Submit(ctx, newRequest("d", "chess", time.Now()))
	require.NoError(t, err)
	_, err = store.Reserve(ctx, chess, matchmaking.RequestQueued, "s1")
	require.NoError(t, err)

	count, err := store.CountQueued(ctx, "valorant")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = store.CountQueued(ctx, "chess")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCancel(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()

	id, err := store.Submit(ctx, newRequest("owner", "valorant", time.Now()))
	require.NoError(t, err)

	ok, err := store.Cancel(ctx, id, "someone-else")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Cancel(ctx, id, "owner")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Cancel(ctx, id, "owner")
	require.NoError(t, err)
	assert.False(t, ok, "already cancelled")

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, matchmaking.RequestCancelled, got.Status)
}

func TestExpireStale(t *testing.T) {
	store, _, _, teardown := setupTestDB(t)
	defer teardown()
	ctx := context.Background()
	now := time.Now()

	stale := newRequest("a", "valorant", now.Add(-20*time.Minute))
	fresh := newRequest("b", "valorant", now)
	_, err := store.Submit(ctx, stale)
	require.NoError(t, err)
	_, err = store.Submit(ctx, fresh)
	require.NoError(t, err)

	expired, err := store.ExpireStale(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := store.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, matchmaking.RequestExpired, got.Status)

	got, err = store.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, matchmaking.RequestQueued, got.Status)
}
