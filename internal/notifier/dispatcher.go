package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/metrics"
)

// DefaultDispatchTimeout bounds a single background delivery.
const DefaultDispatchTimeout = 10 * time.Second

// Dispatcher makes any Notifier fire-and-forget: Notify returns at once and
// delivery happens on its own goroutine with its own deadline. Failures are
// logged and counted, never returned.
type Dispatcher struct {
	next    Notifier
	metrics metrics.Metrics
	timeout time.Duration

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

var _ Notifier = (*Dispatcher)(nil)

// NewDispatcher wraps next.
func NewDispatcher(next Notifier, metrics metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		next:    next,
		metrics: metrics,
		timeout: DefaultDispatchTimeout,
	}
}

// Notify schedules delivery and always returns nil.
func (d *Dispatcher) Notify(ctx context.Context, userIDs []string, event string, payload any) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		log.Warn("Dropping notification after shutdown", "event", event, "users", userIDs)
		return nil
	}
	d.wg.Add(1)
	d.mu.Unlock()

	// The caller's context ends with its request; delivery must outlive it.
	deliverCtx := context.WithoutCancel(ctx)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(deliverCtx, d.timeout)
		defer cancel()

		if err := d.next.Notify(ctx, userIDs, event, payload); err != nil {
			d.metrics.IncNotificationsFailed()
			log.Error("Failed to deliver notification", "error", err, "event", event, "users", userIDs)
			return
		}
		d.metrics.IncNotificationsSent()
		log.Debug("Delivered notification", "event", event, "users", userIDs)
	}()
	return nil
}

// Close stops accepting notifications and waits for in-flight deliveries.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}
