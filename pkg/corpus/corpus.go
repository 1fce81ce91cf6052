// Package corpus serves the payload corpus: prompts operators flagged as
// effective, reused to enrich future prompt generation.
//
// Reads and writes fail differently. A read that fails, or finds nothing,
// degrades to a fixed fallback set so that generation callers always get
// context. A write that fails is returned to the caller, since a silently
// lost payload would corrupt the feedback loop.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/papercomputeco/gauntlet/pkg/embeddings"
	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/metrics"
	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
	"github.com/papercomputeco/gauntlet/pkg/vector"
)

// DefaultLimit is the number of payloads returned when no limit is given.
const DefaultLimit = 10

// Corpus reads and writes successful payloads.
type Corpus struct {
	driver   storage.Driver
	embedder embeddings.Embedder
	vectors  vector.Driver
	logger   *slog.Logger

	degradeOnReadError bool
	defaultLimit       int
	fallback           []fallbackPrompt

	validate *validator.Validate
}

// Option configures a Corpus.
type Option func(*Corpus)

// WithDegradeOnReadError controls whether store read failures are masked by
// the fallback set (true, the default) or returned (false).
func WithDegradeOnReadError(degrade bool) Option {
	return func(c *Corpus) {
		c.degradeOnReadError = degrade
	}
}

// WithDefaultLimit overrides DefaultLimit.
func WithDefaultLimit(limit int) Option {
	return func(c *Corpus) {
		if limit > 0 {
			c.defaultLimit = limit
		}
	}
}

// WithFallback replaces the built-in fallback prompts.
func WithFallback(prompts ...string) Option {
	return func(c *Corpus) {
		if len(prompts) == 0 {
			return
		}
		c.fallback = make([]fallbackPrompt, len(prompts))
		for i, p := range prompts {
			c.fallback[i] = fallbackPrompt{prompt: p}
		}
	}
}

// WithIndex enables semantic retrieval through Relevant.
func WithIndex(e embeddings.Embedder, v vector.Driver) Option {
	return func(c *Corpus) {
		c.embedder = e
		c.vectors = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Corpus) {
		c.logger = l
	}
}

// New creates a Corpus over driver.
func New(driver storage.Driver, opts ...Option) *Corpus {
	c := &Corpus{
		driver:             driver,
		logger:             logger.Nop(),
		degradeOnReadError: true,
		defaultLimit:       DefaultLimit,
		fallback:           defaultFallback,
		validate:           validator.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DegradesOnReadError reports the configured read policy.
func (c *Corpus) DegradesOnReadError() bool {
	return c.degradeOnReadError
}

// Fallback returns the fallback set as it would be served for limit.
func (c *Corpus) Fallback(limit int) []*operation.Payload {
	return fallbackPayloads(c.fallback, c.limit(limit))
}

func (c *Corpus) limit(limit int) int {
	if limit <= 0 {
		return c.defaultLimit
	}
	return limit
}

// List returns up to limit payloads, newest first. An empty store, or a
// failing one when degrading, yields the fallback set instead.
func (c *Corpus) List(ctx context.Context, limit int) ([]*operation.Payload, error) {
	limit = c.limit(limit)

	payloads, err := c.driver.ListPayloads(ctx, storage.PayloadQuery{Limit: limit})
	if err != nil {
		if !c.degradeOnReadError {
			return nil, fmt.Errorf("listing payloads: %w", err)
		}
		c.logger.Warn("payload corpus read failed, serving fallback set", "error", err)
		metrics.CorpusFallbacks.WithLabelValues(metrics.ReasonReadError).Inc()
		return fallbackPayloads(c.fallback, limit), nil
	}

	if len(payloads) == 0 {
		c.logger.Debug("payload corpus empty, serving fallback set")
		metrics.CorpusFallbacks.WithLabelValues(metrics.ReasonEmpty).Inc()
		return fallbackPayloads(c.fallback, limit), nil
	}
	return payloads, nil
}

// PromptsOnly is List projected to prompt text, for use as generation context.
func (c *Corpus) PromptsOnly(ctx context.Context, limit int) ([]string, error) {
	payloads, err := c.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	return prompts(payloads), nil
}

func prompts(payloads []*operation.Payload) []string {
	out := make([]string, len(payloads))
	for i, p := range payloads {
		out[i] = p.Prompt
	}
	return out
}

// SaveRequest describes a payload to store. SuccessRate defaults to 1.0.
type SaveRequest struct {
	Prompt       string `validate:"required"`
	AttackVector string
	TargetLLM    string
	OperationID  string `validate:"required"`
	Description  string
	SuccessRate  *float64 `validate:"omitempty,min=0,max=1"`
}

// Save stores one payload with a single create. Store failures are
// returned. Indexing the prompt for Relevant is best-effort.
func (c *Corpus) Save(ctx context.Context, req SaveRequest) (*operation.Payload, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", operation.ErrInvalidInput, err)
	}

	rate := 1.0
	if req.SuccessRate != nil {
		rate = *req.SuccessRate
	}

	p, err := c.driver.CreatePayload(ctx, &operation.Payload{
		Prompt:       req.Prompt,
		AttackVector: req.AttackVector,
		TargetLLM:    req.TargetLLM,
		SuccessRate:  rate,
		OperationID:  req.OperationID,
		Description:  req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("saving payload: %w", err)
	}

	c.logger.Info("payload saved", "payload_id", p.ID, "operation_id", p.OperationID)

	if err := c.index(ctx, p); err != nil {
		c.logger.Warn("payload indexing failed", "payload_id", p.ID, "error", err)
	}
	return p, nil
}

func (c *Corpus) index(ctx context.Context, p *operation.Payload) error {
	if c.embedder == nil || c.vectors == nil {
		return nil
	}
	emb, err := c.embedder.Embed(ctx, p.Prompt)
	if err != nil {
		return err
	}
	return c.vectors.Add(ctx, []vector.Document{{
		ID:          p.ID,
		OperationID: p.OperationID,
		Embedding:   emb,
	}})
}

// Relevant returns up to k stored prompts most similar to query. Without a
// configured index, or when the index fails or has no hits, it degrades to
// PromptsOnly(k).
func (c *Corpus) Relevant(ctx context.Context, query string, k int) ([]string, error) {
	k = c.limit(k)
	if c.embedder == nil || c.vectors == nil {
		return c.PromptsOnly(ctx, k)
	}

	found, err := c.search(ctx, query, k)
	if err != nil {
		c.logger.Warn("payload similarity search failed, using recent payloads", "error", err)
		return c.PromptsOnly(ctx, k)
	}
	if len(found) == 0 {
		return c.PromptsOnly(ctx, k)
	}
	return prompts(found), nil
}

func (c *Corpus) search(ctx context.Context, query string, k int) ([]*operation.Payload, error) {
	emb, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := c.vectors.Query(ctx, emb, k)
	if err != nil {
		return nil, err
	}

	found := make([]*operation.Payload, 0, len(hits))
	for _, hit := range hits {
		p, err := c.driver.GetPayload(ctx, hit.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, p)
	}
	return found, nil
}
