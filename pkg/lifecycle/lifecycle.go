// Package lifecycle owns the state machine of an operation: its status,
// terminal result and start/end timestamps.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/metrics"
	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
)

// Config configures a Manager.
type Config struct {
	Driver storage.Driver
	Logger *slog.Logger

	// Strict rejects transitions outside the declared lifecycle graph.
	// When false any known status may follow any other.
	Strict bool

	// Now stamps start and end times. Defaults to time.Now.
	Now func() time.Time
}

// Manager applies status transitions to operations held in a storage.Driver.
type Manager struct {
	driver   storage.Driver
	logger   *slog.Logger
	strict   bool
	now      func() time.Time
	validate *validator.Validate
}

// New creates a Manager.
func New(c Config) (*Manager, error) {
	if c.Driver == nil {
		return nil, errors.New("lifecycle: storage driver is required")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return &Manager{
		driver:   c.Driver,
		logger:   c.Logger,
		strict:   c.Strict,
		now:      c.Now,
		validate: validator.New(),
	}, nil
}

// CreateRequest describes a new operation.
type CreateRequest struct {
	Name          string `json:"name" validate:"required"`
	MaliciousGoal string `json:"malicious_goal" validate:"required"`
	TargetLLM     string `json:"target_llm" validate:"required"`
	TargetPersona string `json:"target_persona"`
	AttackVector  string `json:"attack_vector"`
	InitialPrompt string `json:"initial_prompt"`
}

// Create stores a new operation in draft status.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*operation.Operation, error) {
	if err := m.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", operation.ErrInvalidInput, err)
	}

	op, err := m.driver.CreateOperation(ctx, &operation.Operation{
		Name:          req.Name,
		MaliciousGoal: req.MaliciousGoal,
		TargetLLM:     req.TargetLLM,
		TargetPersona: req.TargetPersona,
		AttackVector:  req.AttackVector,
		InitialPrompt: req.InitialPrompt,
		Status:        operation.StatusDraft,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}

	m.logger.Info("operation created", "operation_id", op.ID, "target_llm", op.TargetLLM)
	return op, nil
}

// Get loads an operation.
func (m *Manager) Get(ctx context.Context, id string) (*operation.Operation, error) {
	return m.driver.GetOperation(ctx, id)
}

// List returns operations newest first. An empty status lists all of them.
func (m *Manager) List(ctx context.Context, status operation.Status, limit int) ([]*operation.Operation, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", operation.ErrInvalidInput, status)
	}
	return m.driver.ListOperations(ctx, storage.OperationQuery{Status: status, Limit: limit})
}

// TransitionOption supplies the optional arguments of Transition.
type TransitionOption func(*transition)

type transition struct {
	result *operation.Result
	notes  *string
}

// WithResult attaches a terminal result.
func WithResult(r operation.Result) TransitionOption {
	return func(t *transition) {
		t.result = &r
	}
}

// WithNotes replaces the operation's notes.
func WithNotes(notes string) TransitionOption {
	return func(t *transition) {
		t.notes = &notes
	}
}

// Transition moves an operation to status.
//
// Entering active stamps StartTime only if it is unset. Entering a terminal
// status stamps EndTime and requires a result. Leaving a terminal status
// clears the result. Each call performs exactly one write, and a rejected
// call performs none.
func (m *Manager) Transition(ctx context.Context, id string, status operation.Status, opts ...TransitionOption) (*operation.Operation, error) {
	t := &transition{}
	for _, opt := range opts {
		opt(t)
	}

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", operation.ErrInvalidTransition, status)
	}
	if t.result != nil && !t.result.Valid() {
		return nil, fmt.Errorf("%w: unknown result %q", operation.ErrInvalidTransition, *t.result)
	}

	current, err := m.driver.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.check(current, status, t); err != nil {
		m.logger.Debug("transition rejected",
			"operation_id", id,
			"from", current.Status,
			"to", status,
			"error", err,
		)
		return nil, err
	}

	now := m.now().UTC()
	update := storage.OperationUpdate{
		Status: &status,
		Notes:  t.notes,
	}
	if status == operation.StatusActive && current.StartTime == nil {
		update.StartTime = &now
	}
	if status.Terminal() {
		update.EndTime = &now
		update.Result = t.result
	} else if current.Result != nil {
		update.ClearResult = true
	}

	updated, err := m.driver.UpdateOperation(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("transitioning operation %s: %w", id, err)
	}

	metrics.OperationTransitions.WithLabelValues(string(status)).Inc()
	m.logger.Info("operation transitioned",
		"operation_id", id,
		"from", current.Status,
		"to", status,
	)
	return updated, nil
}

func (m *Manager) check(current *operation.Operation, status operation.Status, t *transition) error {
	if status.Terminal() && t.result == nil {
		return fmt.Errorf("%w: status %s requires a result", operation.ErrInvalidTransition, status)
	}
	if !status.Terminal() && t.result != nil {
		return fmt.Errorf("%w: result is only allowed on a terminal status, not %s", operation.ErrInvalidTransition, status)
	}
	if m.strict && !operation.CanTransition(current.Status, status) {
		return fmt.Errorf("%w: %s -> %s", operation.ErrInvalidTransition, current.Status, status)
	}
	return nil
}
