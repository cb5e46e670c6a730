package inngest

import (
	"github.com/inngest/inngestgo"
)

const (
	// SweepEvent triggers an on-demand sweep.
	SweepEvent = "matchqueue/sessions.sweep"
	// SweepSchedule runs the sweep every minute.
	SweepSchedule = "* * * * *"
)

type client struct {
	inngestClient inngestgo.Client
	sweeper       Sweeper
}

// SweepData is the payload of SweepEvent.
type SweepData struct {
	Limit int `json:"limit"`
}
