package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Defaults for the matchmaking engine.
const (
	DefaultMaxSkillGap          = 2
	DefaultMaxPingMs            = 150
	DefaultRequestTTLSeconds    = 600
	DefaultAcceptTimeoutSeconds = 90
)

// Load reads configuration from environment variables and .env file.
func Load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		DBName:        getEnv("DB_NAME", "matchqueue.db"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./migrations"),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StoreBackend:  StoreBackend(getEnv("STORE_BACKEND", string(BackendSQL))),
		Turso: TursoConfig{
			PrimaryURL: getEnv("TURSO_PRIMARY_URL", ""),
			AuthToken:  getEnv("TURSO_AUTH_TOKEN", ""),
		},
		Dynamo: DynamoConfig{
			Region:        getEnv("AWS_REGION", ""),
			RequestsTable: getEnv("DYNAMO_REQUESTS_TABLE", "match_requests"),
			SessionsTable: getEnv("DYNAMO_SESSIONS_TABLE", "match_sessions"),
		},
		JWTSecret:  getEnv("JWT_SECRET", ""),
		SweepToken: getEnv("SWEEP_TOKEN", ""),
		Slack: SlackConfig{
			Token:     getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
		PubSub: PubSubConfig{
			ProjectID: getEnv("GCP_PROJECT", ""),
			Topic:     getEnv("PUBSUB_TOPIC", "matchmaking-events"),
		},
		Inngest: InngestConfig{
			AppID:      getEnv("INNGEST_APP_ID", ""),
			SigningKey: getEnv("INNGEST_SIGNING_KEY", ""),
			EventKey:   getEnv("INNGEST_EVENT_KEY", ""),
		},
	}

	var err error
	if cfg.NotifyDryRun, err = getBool("NOTIFY_DRY_RUN", false); err != nil {
		return Config{}, err
	}
	if cfg.Inngest.Dev, err = getBool("INNGEST_DEV", false); err != nil {
		return Config{}, err
	}
	if cfg.Matchmaking.MaxSkillGap, err = getInt("MATCH_MAX_SKILL_GAP", DefaultMaxSkillGap); err != nil {
		return Config{}, err
	}
	if cfg.Matchmaking.DefaultMaxPingMs, err = getInt("MATCH_MAX_PING_MS", DefaultMaxPingMs); err != nil {
		return Config{}, err
	}
	if cfg.Matchmaking.RequestTTLSeconds, err = getInt("MATCH_REQUEST_TTL_SECONDS", DefaultRequestTTLSeconds); err != nil {
		return Config{}, err
	}
	if cfg.Matchmaking.AcceptTimeoutSeconds, err = getInt("MATCH_ACCEPT_TIMEOUT_SECONDS", DefaultAcceptTimeoutSeconds); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultMatchmaking returns the matchmaking options with every default applied.
func DefaultMatchmaking() MatchmakingConfig {
	return MatchmakingConfig{
		MaxSkillGap:          DefaultMaxSkillGap,
		DefaultMaxPingMs:     DefaultMaxPingMs,
		RequestTTLSeconds:    DefaultRequestTTLSeconds,
		AcceptTimeoutSeconds: DefaultAcceptTimeoutSeconds,
	}
}

// Validate checks that every option is inside its accepted range.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendSQL, BackendDynamo:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendSQL, BackendDynamo, c.StoreBackend)
	}
	return c.Matchmaking.Validate()
}

// Validate checks the matchmaking ranges.
func (m MatchmakingConfig) Validate() error {
	if m.MaxSkillGap < 0 || m.MaxSkillGap > 10 {
		return fmt.Errorf("MATCH_MAX_SKILL_GAP must be between 0 and 10, got %d", m.MaxSkillGap)
	}
	if m.DefaultMaxPingMs < 0 || m.DefaultMaxPingMs > 1000 {
		return fmt.Errorf("MATCH_MAX_PING_MS must be between 0 and 1000, got %d", m.DefaultMaxPingMs)
	}
	if m.RequestTTLSeconds < 30 {
		return fmt.Errorf("MATCH_REQUEST_TTL_SECONDS must be at least 30, got %d", m.RequestTTLSeconds)
	}
	if m.AcceptTimeoutSeconds < 10 {
		return fmt.Errorf("MATCH_ACCEPT_TIMEOUT_SECONDS must be at least 10, got %d", m.AcceptTimeoutSeconds)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return b, nil
}
