package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/gauntlet/pkg/generation"
	"github.com/papercomputeco/gauntlet/pkg/logger"
)

// defaultRAGExamples is how many corpus prompts enrich a seed request.
const defaultRAGExamples = 5

// ContextSource supplies prior successful prompts relevant to a query.
type ContextSource interface {
	Relevant(ctx context.Context, query string, k int) ([]string, error)
}

// Config configures a Gateway.
type Config struct {
	// Target answers probes as the model under evaluation.
	Target CallFunc

	// Strategist drafts follow-ups and seed prompts.
	Strategist CallFunc

	// Context enriches seed requests with EnhanceWithRAG set. Optional.
	Context ContextSource

	// RAGExamples defaults to 5.
	RAGExamples int

	Logger *slog.Logger
}

// Gateway implements generation.Gateway with two chat-completion callers.
type Gateway struct {
	target      CallFunc
	strategist  CallFunc
	context     ContextSource
	ragExamples int
	logger      *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(c Config) (*Gateway, error) {
	if c.Target == nil || c.Strategist == nil {
		return nil, errors.New("llm gateway: target and strategist callers are required")
	}
	if c.RAGExamples <= 0 {
		c.RAGExamples = defaultRAGExamples
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	return &Gateway{
		target:      c.Target,
		strategist:  c.Strategist,
		context:     c.Context,
		ragExamples: c.RAGExamples,
		logger:      c.Logger,
	}, nil
}

// ProbeTarget sends the prompt to the target with the persona as system prompt.
// The request's TargetLLM selects the model.
func (g *Gateway) ProbeTarget(ctx context.Context, req generation.ProbeRequest) (*generation.ProbeResponse, error) {
	if err := generation.Validate(req); err != nil {
		return nil, err
	}

	reply, err := g.target(ctx, Call{
		System: req.Persona,
		Prompt: req.Prompt,
		Model:  req.TargetLLM,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		return &generation.ProbeResponse{Status: generation.ProbeError, Error: "target returned an empty reply"}, nil
	}
	return &generation.ProbeResponse{Status: generation.ProbeSuccess, TargetResponse: reply}, nil
}

// SuggestFollowUp asks the strategist for the next operator message.
func (g *Gateway) SuggestFollowUp(ctx context.Context, req generation.FollowUpRequest) (*generation.FollowUpResponse, error) {
	if err := generation.Validate(req); err != nil {
		return nil, err
	}

	var resp generation.FollowUpResponse
	if err := g.ask(ctx, buildFollowUpPrompt(req), &resp); err != nil {
		return nil, err
	}
	if resp.FollowUpPrompt == "" {
		return nil, errors.New("strategist returned no follow_up_prompt")
	}
	return &resp, nil
}

// GenerateSeed drafts an opening prompt, optionally enriched from the corpus.
// Context lookup failures only drop the enrichment.
func (g *Gateway) GenerateSeed(ctx context.Context, req generation.SeedRequest) (*generation.SeedResponse, error) {
	if err := generation.Validate(req); err != nil {
		return nil, err
	}

	var examples []string
	if req.EnhanceWithRAG && g.context != nil {
		var err error
		examples, err = g.context.Relevant(ctx, req.Goal, g.ragExamples)
		if err != nil {
			g.logger.Warn("seed context lookup failed", "error", err)
			examples = nil
		}
	}

	var resp generation.SeedResponse
	if err := g.ask(ctx, buildSeedPrompt(req, examples), &resp); err != nil {
		return nil, err
	}
	if resp.Prompt == "" {
		return nil, errors.New("strategist returned no prompt")
	}
	resp.Confidence = generation.ClampConfidence(resp.Confidence)
	return &resp, nil
}

// GeneratePhaseSeed drafts the prompt for one escalation phase.
func (g *Gateway) GeneratePhaseSeed(ctx context.Context, req generation.PhaseSeedRequest) (*generation.PhaseSeedResponse, error) {
	if err := generation.Validate(req); err != nil {
		return nil, err
	}

	var resp generation.PhaseSeedResponse
	if err := g.ask(ctx, buildPhaseSeedPrompt(req), &resp); err != nil {
		return nil, err
	}
	if resp.Prompt == "" {
		return nil, errors.New("strategist returned no prompt")
	}
	return &resp, nil
}

func (g *Gateway) ask(ctx context.Context, prompt string, out any) error {
	reply, err := g.strategist(ctx, Call{System: strategistSystem, Prompt: prompt, JSON: true})
	if err != nil {
		return err
	}
	return parseJSONReply(reply, out)
}

// parseJSONReply decodes the first JSON object in reply. Models sometimes
// wrap it in markdown code fences or prose.
func parseJSONReply(reply string, out any) error {
	jsonStr := reply
	if idx := strings.Index(reply, "{"); idx >= 0 {
		if end := strings.LastIndex(reply, "}"); end > idx {
			jsonStr = reply[idx : end+1]
		}
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("unmarshal strategist JSON: %w", err)
	}
	return nil
}

var _ generation.Gateway = (*Gateway)(nil)
