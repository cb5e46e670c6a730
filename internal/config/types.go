package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	LogLevel      string
	StoreBackend  StoreBackend
	Turso         TursoConfig
	Dynamo        DynamoConfig
	Matchmaking   MatchmakingConfig
	JWTSecret     string
	SweepToken    string
	Slack         SlackConfig
	PubSub        PubSubConfig
	Inngest       InngestConfig
	NotifyDryRun  bool
}

// StoreBackend selects where match requests and sessions are persisted.
type StoreBackend string

const (
	BackendSQL    StoreBackend = "sqlite"
	BackendDynamo StoreBackend = "dynamodb"
)

// MatchmakingConfig holds the tunables of the matching engine.
type MatchmakingConfig struct {
	MaxSkillGap          int
	DefaultMaxPingMs     int
	RequestTTLSeconds    int
	AcceptTimeoutSeconds int
}

// RequestTTL is how long a queued request stays matchable.
func (m MatchmakingConfig) RequestTTL() time.Duration {
	return time.Duration(m.RequestTTLSeconds) * time.Second
}

// AcceptTimeout is how long a pending session waits for every player to accept.
func (m MatchmakingConfig) AcceptTimeout() time.Duration {
	return time.Duration(m.AcceptTimeoutSeconds) * time.Second
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type DynamoConfig struct {
	Region        string
	RequestsTable string
	SessionsTable string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

type PubSubConfig struct {
	ProjectID string
	Topic     string
}

type InngestConfig struct {
	AppID      string
	SigningKey string
	EventKey   string
	Dev        bool
}

// Enabled reports whether the Slack feed has been configured.
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.ChannelID != ""
}

// Enabled reports whether the Pub/Sub event bus has been configured.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != ""
}

// Enabled reports whether scheduled functions should be served through Inngest.
func (i InngestConfig) Enabled() bool {
	return i.AppID != ""
}
