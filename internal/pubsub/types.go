package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of command sent via pubsub.
type EventType string

const (
	// EventSweepSessions asks a worker to force-decline expired pending sessions.
	EventSweepSessions EventType = "sweep-sessions"
)

// Command is the msgpack body of a work item delivered by a push subscription.
type Command struct {
	Type  EventType `msgpack:"type"`
	Limit int       `msgpack:"limit,omitempty"`
}

// PushEnvelope is the JSON wrapper Pub/Sub push subscriptions POST.
type PushEnvelope struct {
	Subscription string `json:"subscription"`
	Message      struct {
		ID   string `json:"messageId"`
		Data string `json:"data"`
	} `json:"message"`
}
