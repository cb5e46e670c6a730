package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type req struct {
	skill, ping, maxPing *int
}

func (r req) build(id string) *matchmaking.MatchRequest {
	return &matchmaking.MatchRequest{
		ID:        id,
		UserID:    "user-" + id,
		GameID:    "valorant",
		Skill:     r.skill,
		PingMs:    r.ping,
		MaxPingMs: r.maxPing,
		Status:    matchmaking.RequestQueued,
	}
}

func TestCompatible(t *testing.T) {
	m := New(nil, config.DefaultMatchmaking())

	tests := []struct {
		name      string
		request   req
		candidate req
		want      bool
	}{
		{"skill gap within limit", req{skill: intPtr(5)}, req{skill: intPtr(7)}, true},
		{"skill gap too large", req{skill: intPtr(5)}, req{skill: intPtr(8)}, false},
		{"skill only on one side", req{skill: intPtr(1)}, req{}, true},
		{"both pings under default", req{ping: intPtr(40)}, req{ping: intPtr(60)}, true},
		{"candidate ping over requester max", req{ping: intPtr(40), maxPing: intPtr(50)}, req{ping: intPtr(60), maxPing: intPtr(150)}, false},
		{"requester ping over candidate max", req{ping: intPtr(100), maxPing: intPtr(150)}, req{ping: intPtr(20), maxPing: intPtr(80)}, false},
		{"unset max falls back to default", req{ping: intPtr(151)}, req{}, false},
		{"ping exactly at limit", req{ping: intPtr(150)}, req{ping: intPtr(150)}, true},
		{"no constraints at all", req{}, req{}, true},
		{"valorant pair", req{skill: intPtr(5), ping: intPtr(40), maxPing: intPtr(150)}, req{skill: intPtr(6), ping: intPtr(60), maxPing: intPtr(150)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Compatible(tt.request.build("r"), tt.candidate.build("c")))
			assert.Equal(t, tt.want, m.Compatible(tt.candidate.build("c"), tt.request.build("r")), "compatibility is symmetric")
		})
	}
}

func TestFindMatch_FirstFit(t *testing.T) {
	store := matchmaking.NewMockRequestStore()
	store.FindCandidatesFunc = func(ctx context.Context, request *matchmaking.MatchRequest, limit int) ([]*matchmaking.MatchRequest, error) {
		return []*matchmaking.MatchRequest{
			req{skill: intPtr(1)}.build("too-weak"),
			req{skill: intPtr(4)}.build("first-fit"),
			req{skill: intPtr(5)}.build("best-fit"),
		}, nil
	}
	m := New(store, config.DefaultMatchmaking())

	got, err := m.FindMatch(context.Background(), req{skill: intPtr(5)}.build("me"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first-fit", got.ID)

	require.Len(t, store.FindCandidatesCalls, 1)
	assert.Equal(t, matchmaking.DefaultCandidateLimit, store.FindCandidatesCalls[0].Limit)
}

func TestFindMatch_NoneInWindow(t *testing.T) {
	store := matchmaking.NewMockRequestStore()
	store.FindCandidatesFunc = func(ctx context.Context, request *matchmaking.MatchRequest, limit int) ([]*matchmaking.MatchRequest, error) {
		return []*matchmaking.MatchRequest{req{skill: intPtr(10)}.build("far")}, nil
	}
	m := New(store, config.DefaultMatchmaking())

	got, err := m.FindMatch(context.Background(), req{skill: intPtr(1)}.build("me"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindMatch_StoreError(t *testing.T) {
	store := matchmaking.NewMockRequestStore()
	store.FindCandidatesFunc = func(ctx context.Context, request *matchmaking.MatchRequest, limit int) ([]*matchmaking.MatchRequest, error) {
		return nil, matchmaking.NewStorageError("find candidates", errors.New("db down"))
	}
	m := New(store, config.DefaultMatchmaking())

	_, err := m.FindMatch(context.Background(), req{}.build("me"))
	require.Error(t, err)
	assert.True(t, matchmaking.IsStorage(err))
}

func TestFindMatch_ZeroSkillGap(t *testing.T) {
	cfg := config.DefaultMatchmaking()
	cfg.MaxSkillGap = 0
	m := New(nil, cfg)

	assert.True(t, m.Compatible(req{skill: intPtr(3)}.build("a"), req{skill: intPtr(3)}.build("b")))
	assert.False(t, m.Compatible(req{skill: intPtr(3)}.build("a"), req{skill: intPtr(4)}.build("b")))
}
