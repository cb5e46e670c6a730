package inngest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/inngest/inngestgo"
	"github.com/inngest/inngestgo/step"
	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/orchestrator"
)

// NewProvider builds the Inngest SDK client from configuration.
func NewProvider(cfg config.InngestConfig) (inngestgo.Client, error) {
	dev := cfg.Dev
	options := inngestgo.ClientOpts{
		AppID: cfg.AppID,
		Dev:   &dev,
	}
	if cfg.SigningKey != "" {
		options.SigningKey = &cfg.SigningKey
	}
	if cfg.EventKey != "" {
		options.EventKey = &cfg.EventKey
	}
	return inngestgo.NewClient(options)
}

// New registers the sweep functions on inngestClient.
func New(inngestClient inngestgo.Client, sweeper Sweeper) (InngestClient, error) {
	c := &client{
		inngestClient: inngestClient,
		sweeper:       sweeper,
	}
	if _, err := c.createScheduledSweepFunction(); err != nil {
		return nil, err
	}
	if _, err := c.createRequestedSweepFunction(); err != nil {
		return nil, err
	}
	return c, nil
}

func (i *client) createScheduledSweepFunction() (inngestgo.ServableFunction, error) {
	config := inngestgo.FunctionOpts{
		ID:   "expire-pending-sessions",
		Name: "Expire pending match sessions",
	}
	f, err := inngestgo.CreateFunction(
		i.inngestClient,
		config,
		inngestgo.CronTrigger(SweepSchedule),
		func(ctx context.Context, input inngestgo.Input[map[string]any]) (any, error) {
			return i.sweep(ctx, orchestrator.DefaultSweepLimit)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled sweep: %w", err)
	}
	return f, nil
}

func (i *client) createRequestedSweepFunction() (inngestgo.ServableFunction, error) {
	config := inngestgo.FunctionOpts{
		ID:   "expire-pending-sessions-on-demand",
		Name: "Expire pending match sessions on demand",
	}
	f, err := inngestgo.CreateFunction(
		i.inngestClient,
		config,
		inngestgo.EventTrigger(SweepEvent, nil),
		func(ctx context.Context, input inngestgo.Input[SweepData]) (any, error) {
			return i.sweep(ctx, input.Event.Data.Limit)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requested sweep: %w", err)
	}
	return f, nil
}

// sweep runs inside a step so a failed sweep is retried by Inngest.
func (i *client) sweep(ctx context.Context, limit int) (orchestrator.SweepResult, error) {
	result, err := step.Run(ctx, "sweep-expired", func(ctx context.Context) (orchestrator.SweepResult, error) {
		return i.sweeper.SweepExpired(ctx, limit)
	})
	if err != nil {
		log.Error("Sweep step failed", "error", err)
		return result, err
	}
	log.Info("Sweep step finished", "sessionsExpired", result.SessionsExpired, "requestsExpired", result.RequestsExpired)
	return result, nil
}

func (i *client) Serve() http.Handler {
	return i.inngestClient.Serve()
}

func (i *client) RequestSweep(ctx context.Context, limit int) error {
	id, err := i.inngestClient.Send(ctx, inngestgo.Event{Name: SweepEvent, Data: map[string]any{"limit": limit}})
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", SweepEvent, err)
	}
	log.Info("Sweep requested", "eventID", id, "limit", limit)
	return nil
}
