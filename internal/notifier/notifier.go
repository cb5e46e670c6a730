package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

// Session lifecycle events delivered to players.
const (
	EventOffer    = "match.offer"
	EventAccepted = "match.accepted"
	EventStarted  = "match.started"
	EventDeclined = "match.declined"
)

// Notifier delivers session lifecycle events to a set of users.
// This decouples the matchmaking engine from the delivery channel (e.g., socket.io, Slack).
type Notifier interface {
	Notify(ctx context.Context, userIDs []string, event string, payload any) error
}

// AcceptedPayload is sent with EventAccepted while other players are still pending.
type AcceptedPayload struct {
	SessionID  string `json:"sessionId" msgpack:"sessionId"`
	AcceptedBy string `json:"acceptedBy" msgpack:"acceptedBy"`
}

// DeclinedPayload is sent with EventDeclined.
type DeclinedPayload struct {
	SessionID  string `json:"sessionId" msgpack:"sessionId"`
	DeclinedBy string `json:"declinedBy" msgpack:"declinedBy"`
	// Reason is "timeout" when the sweeper declined on behalf of a player.
	Reason string `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

// Envelope is the serialized form of an event for transports that carry
// the recipients alongside the payload.
type Envelope struct {
	Event   string    `json:"event" msgpack:"event"`
	UserIDs []string  `json:"userIds" msgpack:"userIds"`
	Payload any       `json:"payload" msgpack:"payload"`
	SentAt  time.Time `json:"sentAt" msgpack:"sentAt"`
}

// SessionID extracts the session id from any of the lifecycle payloads.
func SessionID(payload any) string {
	switch p := payload.(type) {
	case matchmaking.SessionView:
		return p.SessionID
	case AcceptedPayload:
		return p.SessionID
	case DeclinedPayload:
		return p.SessionID
	}
	return ""
}

// Multi fans an event out to several notifiers. Every notifier is tried;
// the returned error joins all failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userIDs []string, event string, payload any) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, userIDs, event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards every event.
type Noop struct{}

func (Noop) Notify(context.Context, []string, string, any) error { return nil }
