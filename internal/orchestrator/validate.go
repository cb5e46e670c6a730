package orchestrator

import (
	"strings"

	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

const (
	minSkill  = 1
	maxSkill  = 10
	maxPingMs = 1000
)

func (o *Orchestrator) validate(input SubmitInput) error {
	if strings.TrimSpace(input.UserID) == "" {
		return &matchmaking.ValidationError{Field: "userId", Reason: "required"}
	}
	if len(strings.TrimSpace(input.GameID)) < 2 {
		return &matchmaking.ValidationError{Field: "gameId", Reason: "must be at least 2 characters"}
	}
	if input.Region != nil && len(strings.TrimSpace(*input.Region)) < 2 {
		return &matchmaking.ValidationError{Field: "region", Reason: "must be at least 2 characters"}
	}
	if input.Skill != nil && (*input.Skill < minSkill || *input.Skill > maxSkill) {
		return &matchmaking.ValidationError{Field: "skill", Reason: "must be between 1 and 10"}
	}
	if input.PingMs != nil && (*input.PingMs < 0 || *input.PingMs > maxPingMs) {
		return &matchmaking.ValidationError{Field: "pingMs", Reason: "must be between 0 and 1000"}
	}
	if input.MaxPingMs != nil && (*input.MaxPingMs < 0 || *input.MaxPingMs > maxPingMs) {
		return &matchmaking.ValidationError{Field: "maxPingMs", Reason: "must be between 0 and 1000"}
	}
	if input.PingMs != nil && input.MaxPingMs != nil && *input.PingMs > *input.MaxPingMs {
		return &matchmaking.ValidationError{Field: "pingMs", Reason: "cannot exceed maxPingMs"}
	}
	return nil
}
