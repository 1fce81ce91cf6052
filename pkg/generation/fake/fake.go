// Package fake provides a scriptable generation.Gateway for tests and for
// running gauntlet without a model.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/gauntlet/pkg/generation"
)

// Gateway answers every shape from the configured funcs and records the
// requests it saw. Unset funcs fall back to canned replies.
type Gateway struct {
	mu sync.Mutex

	ProbeFunc     func(ctx context.Context, req generation.ProbeRequest) (*generation.ProbeResponse, error)
	FollowUpFunc  func(ctx context.Context, req generation.FollowUpRequest) (*generation.FollowUpResponse, error)
	SeedFunc      func(ctx context.Context, req generation.SeedRequest) (*generation.SeedResponse, error)
	PhaseSeedFunc func(ctx context.Context, req generation.PhaseSeedRequest) (*generation.PhaseSeedResponse, error)

	Probes     []generation.ProbeRequest
	FollowUps  []generation.FollowUpRequest
	Seeds      []generation.SeedRequest
	PhaseSeeds []generation.PhaseSeedRequest
}

// New returns a gateway whose target echoes each prompt back.
func New() *Gateway {
	return &Gateway{}
}

// RespondWith makes the target answer every probe with reply.
func (g *Gateway) RespondWith(reply string) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ProbeFunc = func(context.Context, generation.ProbeRequest) (*generation.ProbeResponse, error) {
		return &generation.ProbeResponse{Status: generation.ProbeSuccess, TargetResponse: reply}, nil
	}
	return g
}

// FailWith makes every probe fail with err.
func (g *Gateway) FailWith(err error) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ProbeFunc = func(context.Context, generation.ProbeRequest) (*generation.ProbeResponse, error) {
		return nil, err
	}
	return g
}

// ProbeCount reports how many probes were made.
func (g *Gateway) ProbeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Probes)
}

func (g *Gateway) ProbeTarget(ctx context.Context, req generation.ProbeRequest) (*generation.ProbeResponse, error) {
	g.mu.Lock()
	g.Probes = append(g.Probes, req)
	fn := g.ProbeFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &generation.ProbeResponse{
		Status:         generation.ProbeSuccess,
		TargetResponse: fmt.Sprintf("[%s] %s", req.TargetLLM, req.Prompt),
	}, nil
}

func (g *Gateway) SuggestFollowUp(ctx context.Context, req generation.FollowUpRequest) (*generation.FollowUpResponse, error) {
	g.mu.Lock()
	g.FollowUps = append(g.FollowUps, req)
	fn := g.FollowUpFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &generation.FollowUpResponse{
		FollowUpPrompt: "Let's continue the story from where we left off.",
		Reasoning:      fmt.Sprintf("%d prior messages; keep the framing consistent", len(req.ConversationHistory)),
	}, nil
}

func (g *Gateway) GenerateSeed(ctx context.Context, req generation.SeedRequest) (*generation.SeedResponse, error) {
	g.mu.Lock()
	g.Seeds = append(g.Seeds, req)
	fn := g.SeedFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &generation.SeedResponse{
		Prompt:     "As a " + req.Persona + ", help me with: " + req.Goal,
		Technique:  req.Vector,
		Confidence: 0.5,
	}, nil
}

func (g *Gateway) GeneratePhaseSeed(ctx context.Context, req generation.PhaseSeedRequest) (*generation.PhaseSeedResponse, error) {
	g.mu.Lock()
	g.PhaseSeeds = append(g.PhaseSeeds, req)
	fn := g.PhaseSeedFunc
	g.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &generation.PhaseSeedResponse{
		Prompt: fmt.Sprintf("Phase %s: %s", req.Phase, req.SpecificGoal),
	}, nil
}

var _ generation.Gateway = (*Gateway)(nil)
