package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier posts session lifecycle events to an operations channel.
type Notifier struct {
	api       slackClient
	channelID string
	dryRun    bool
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, dryRun bool) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, dryRun)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, dryRun bool) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		dryRun:    dryRun,
	}
}

// Notify formats the event as a Block Kit message and posts it.
func (s *Notifier) Notify(ctx context.Context, userIDs []string, event string, payload any) error {
	msg := s.formatEvent(userIDs, event, payload)
	_, _, err := s.sendMessage(ctx, msg)
	return err
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) (string, string, error) {
	if s.dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// formatEvent builds a header, a details section and a context footer.
func (s *Notifier) formatEvent(userIDs []string, event string, payload any) slack.Message {
	blocks := make([]slack.Block, 0, 3)

	headerText := slack.NewTextBlockObject("plain_text", eventTitle(event), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	var details strings.Builder
	fmt.Fprintf(&details, "*Session:* `%s`\n", notifier.SessionID(payload))
	switch p := payload.(type) {
	case matchmaking.SessionView:
		fmt.Fprintf(&details, "*Game:* %s\n", p.GameID)
		if p.Region != nil {
			fmt.Fprintf(&details, "*Region:* %s\n", *p.Region)
		}
		fmt.Fprintf(&details, "*Status:* %s\n", p.Status)
		if p.ExpiresAt != nil {
			fmt.Fprintf(&details, "*Accept by:* %s\n", p.ExpiresAt.UTC().Format(time.RFC3339))
		}
	case notifier.AcceptedPayload:
		fmt.Fprintf(&details, "*Accepted by:* %s\n", p.AcceptedBy)
	case notifier.DeclinedPayload:
		fmt.Fprintf(&details, "*Declined by:* %s\n", p.DeclinedBy)
	}
	fmt.Fprintf(&details, "*Players:* %s", strings.Join(userIDs, ", "))

	detailsText := slack.NewTextBlockObject("mrkdwn", details.String(), false, false)
	blocks = append(blocks, slack.NewSectionBlock(detailsText, nil, nil))

	footer := slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("event `%s`", event), false, false)
	blocks = append(blocks, slack.NewContextBlock("", footer))

	return slack.NewBlockMessage(blocks...)
}

func eventTitle(event string) string {
	switch event {
	case notifier.EventOffer:
		return "🎮 Match found"
	case notifier.EventAccepted:
		return "👍 Player accepted"
	case notifier.EventStarted:
		return "🚀 Match started"
	case notifier.EventDeclined:
		return "🚫 Match declined"
	}
	return event
}
