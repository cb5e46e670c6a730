package matcher

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
)

// CandidateSource is the part of the request store the matcher reads from.
type CandidateSource interface {
	FindCandidates(ctx context.Context, request *matchmaking.MatchRequest, limit int) ([]*matchmaking.MatchRequest, error)
}

// Matcher picks the first compatible queued request for a new request.
type Matcher struct {
	source           CandidateSource
	maxSkillGap      int
	defaultMaxPingMs int
	candidateLimit   int
}

// New creates a Matcher using the configured skill and ping limits.
func New(source CandidateSource, cfg config.MatchmakingConfig) *Matcher {
	return &Matcher{
		source:           source,
		maxSkillGap:      cfg.MaxSkillGap,
		defaultMaxPingMs: cfg.DefaultMaxPingMs,
		candidateLimit:   matchmaking.DefaultCandidateLimit,
	}
}

// FindMatch scans the oldest queued candidates and returns the first
// compatible one, or nil. It never looks past the candidate window.
func (m *Matcher) FindMatch(ctx context.Context, request *matchmaking.MatchRequest) (*matchmaking.MatchRequest, error) {
	candidates, err := m.source.FindCandidates(ctx, request, m.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}

	for _, candidate := range candidates {
		if m.Compatible(request, candidate) {
			log.Debug("Found compatible candidate", "requestID", request.ID, "candidateID", candidate.ID)
			return candidate, nil
		}
	}
	log.Debug("No compatible candidate in window", "requestID", request.ID, "scanned", len(candidates))
	return nil, nil
}

// Compatible reports whether two requests may share a session.
func (m *Matcher) Compatible(request, candidate *matchmaking.MatchRequest) bool {
	if request.Skill != nil && candidate.Skill != nil {
		if abs(*request.Skill-*candidate.Skill) > m.maxSkillGap {
			return false
		}
	}

	allowed := min(m.maxPing(request), m.maxPing(candidate))
	if request.PingMs != nil && *request.PingMs > allowed {
		return false
	}
	if candidate.PingMs != nil && *candidate.PingMs > allowed {
		return false
	}
	return true
}

func (m *Matcher) maxPing(r *matchmaking.MatchRequest) int {
	if r.MaxPingMs != nil {
		return *r.MaxPingMs
	}
	return m.defaultMaxPingMs
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
