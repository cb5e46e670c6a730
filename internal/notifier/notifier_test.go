package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_ReturnsBeforeDelivery(t *testing.T) {
	release := make(chan struct{})
	next := NewMock()
	next.NotifyFunc = func(ctx context.Context, userIDs []string, event string, payload any) error {
		<-release
		return nil
	}
	m := metrics.NewMock()
	d := NewDispatcher(next, m)

	done := make(chan error, 1)
	go func() { done <- d.Notify(context.Background(), []string{"a"}, EventOffer, nil) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on delivery")
	}

	close(release)
	d.Close()
	assert.Equal(t, 1, m.NotificationsSent())
}

func TestDispatcher_SwallowsFailures(t *testing.T) {
	next := NewMock()
	next.NotifyFunc = func(ctx context.Context, userIDs []string, event string, payload any) error {
		return errors.New("socket gone")
	}
	m := metrics.NewMock()
	d := NewDispatcher(next, m)

	require.NoError(t, d.Notify(context.Background(), []string{"a", "b"}, EventDeclined, nil))
	d.Close()

	assert.Equal(t, 1, m.NotificationsFailed())
	assert.Equal(t, 0, m.NotificationsSent())
}

func TestDispatcher_OutlivesCallerContext(t *testing.T) {
	next := NewMock()
	var deliveredErr error
	next.NotifyFunc = func(ctx context.Context, userIDs []string, event string, payload any) error {
		time.Sleep(10 * time.Millisecond)
		deliveredErr = ctx.Err()
		return nil
	}
	d := NewDispatcher(next, metrics.NewMock())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Notify(ctx, []string{"a"}, EventStarted, nil))
	cancel()
	d.Close()

	assert.NoError(t, deliveredErr)
}

func TestDispatcher_DropsAfterClose(t *testing.T) {
	next := NewMock()
	d := NewDispatcher(next, metrics.NewMock())
	d.Close()

	require.NoError(t, d.Notify(context.Background(), []string{"a"}, EventOffer, nil))
	assert.Empty(t, next.Calls())
}

func TestMulti_TriesEveryNotifier(t *testing.T) {
	failing := NewMock()
	failing.NotifyFunc = func(ctx context.Context, userIDs []string, event string, payload any) error {
		return errors.New("down")
	}
	ok := NewMock()

	err := Multi{failing, ok}.Notify(context.Background(), []string{"a"}, EventOffer, nil)
	require.Error(t, err)
	assert.Len(t, failing.Calls(), 1)
	assert.Len(t, ok.Calls(), 1)

	assert.NoError(t, Multi{ok}.Notify(context.Background(), nil, EventOffer, nil))
}

func TestSessionID(t *testing.T) {
	assert.Equal(t, "s1", SessionID(matchmaking.SessionView{SessionID: "s1"}))
	assert.Equal(t, "s2", SessionID(AcceptedPayload{SessionID: "s2"}))
	assert.Equal(t, "s3", SessionID(DeclinedPayload{SessionID: "s3"}))
	assert.Equal(t, "", SessionID("other"))
}
