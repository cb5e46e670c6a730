package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"MATCH_MAX_SKILL_GAP", "MATCH_MAX_PING_MS", "MATCH_REQUEST_TTL_SECONDS",
		"MATCH_ACCEPT_TIMEOUT_SECONDS", "STORE_BACKEND", "PORT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultMatchmaking(), cfg.Matchmaking)
	assert.Equal(t, BackendSQL, cfg.StoreBackend)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 600, int(cfg.Matchmaking.RequestTTL().Seconds()))
	assert.Equal(t, 90, int(cfg.Matchmaking.AcceptTimeout().Seconds()))
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MATCH_MAX_SKILL_GAP", "4")
	t.Setenv("MATCH_MAX_PING_MS", "80")
	t.Setenv("MATCH_REQUEST_TTL_SECONDS", "120")
	t.Setenv("MATCH_ACCEPT_TIMEOUT_SECONDS", "30")
	t.Setenv("STORE_BACKEND", "dynamodb")
	t.Setenv("NOTIFY_DRY_RUN", "true")
	t.Setenv("SWEEP_TOKEN", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, MatchmakingConfig{
		MaxSkillGap:          4,
		DefaultMaxPingMs:     80,
		RequestTTLSeconds:    120,
		AcceptTimeoutSeconds: 30,
	}, cfg.Matchmaking)
	assert.Equal(t, BackendDynamo, cfg.StoreBackend)
	assert.True(t, cfg.NotifyDryRun)
	assert.Equal(t, "s3cret", cfg.SweepToken)
}

func TestFromEnv_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"skill gap above 10", "MATCH_MAX_SKILL_GAP", "11"},
		{"negative skill gap", "MATCH_MAX_SKILL_GAP", "-1"},
		{"ping above 1000", "MATCH_MAX_PING_MS", "1001"},
		{"ttl below 30", "MATCH_REQUEST_TTL_SECONDS", "29"},
		{"accept timeout below 10", "MATCH_ACCEPT_TIMEOUT_SECONDS", "9"},
		{"not a number", "MATCH_MAX_PING_MS", "fast"},
		{"unknown backend", "STORE_BACKEND", "mongo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
