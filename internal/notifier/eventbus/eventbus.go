package eventbus

import (
	"context"
	"time"

	"github.com/mauv0809/matchqueue/internal/notifier"
	"github.com/mauv0809/matchqueue/internal/pubsub"
)

var _ notifier.Notifier = (*Notifier)(nil)

// Notifier publishes lifecycle events to a Pub/Sub topic so other services
// (gameplay servers, analytics) can react to them.
type Notifier struct {
	client pubsub.PubSubClient
	topic  string
	now    func() time.Time
}

// New creates a Notifier publishing to topic.
func New(client pubsub.PubSubClient, topic string) *Notifier {
	return &Notifier{client: client, topic: topic, now: time.Now}
}

func (n *Notifier) Notify(ctx context.Context, userIDs []string, event string, payload any) error {
	return n.client.SendMessage(ctx, n.topic, notifier.Envelope{
		Event:   event,
		UserIDs: userIDs,
		Payload: payload,
		SentAt:  n.now().UTC(),
	})
}
