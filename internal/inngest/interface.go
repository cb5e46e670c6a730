package inngest

import (
	"context"
	"net/http"

	"github.com/mauv0809/matchqueue/internal/orchestrator"
)

// InngestClient serves the durable background functions of the service.
type InngestClient interface {
	Serve() http.Handler
	// RequestSweep asks the sweep function to run as soon as possible.
	RequestSweep(ctx context.Context, limit int) error
}

// Sweeper expires pending sessions whose accept window closed.
type Sweeper interface {
	SweepExpired(ctx context.Context, limit int) (orchestrator.SweepResult, error)
}
