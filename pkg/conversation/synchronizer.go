// Package conversation keeps each operation's append-only message log and
// the optimistic view shown to the operator while a turn is in flight.
//
// A turn applies the operator message locally, persists it, probes the
// target, applies and persists the reply, then folds both committed records
// back into the view. Provisional entries carry no store identity, so they
// are matched to their committed counterparts by role and content.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/corpus"
	"github.com/papercomputeco/gauntlet/pkg/eventstream"
	"github.com/papercomputeco/gauntlet/pkg/eventstream/nop"
	"github.com/papercomputeco/gauntlet/pkg/generation"
	"github.com/papercomputeco/gauntlet/pkg/lifecycle"
	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/metrics"
	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
)

// Config configures a Synchronizer.
type Config struct {
	Driver    storage.Driver
	Lifecycle *lifecycle.Manager
	Gateway   generation.Gateway
	Corpus    *corpus.Corpus

	// Publisher receives turn and payload events. Defaults to a no-op.
	Publisher eventstream.Publisher

	Logger *slog.Logger

	// Now stamps provisional entries. Defaults to time.Now.
	Now func() time.Time
}

// Synchronizer drives conversations. It keeps one Session per opened
// operation; different operations may be driven concurrently, but turns on
// one operation must come from a single caller at a time.
type Synchronizer struct {
	driver    storage.Driver
	lifecycle *lifecycle.Manager
	gateway   generation.Gateway
	corpus    *corpus.Corpus
	publisher eventstream.Publisher
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates a Synchronizer.
func New(c Config) (*Synchronizer, error) {
	switch {
	case c.Driver == nil:
		return nil, errors.New("conversation: storage driver is required")
	case c.Lifecycle == nil:
		return nil, errors.New("conversation: lifecycle manager is required")
	case c.Gateway == nil:
		return nil, errors.New("conversation: generation gateway is required")
	case c.Corpus == nil:
		return nil, errors.New("conversation: payload corpus is required")
	}
	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return &Synchronizer{
		driver:    c.Driver,
		lifecycle: c.Lifecycle,
		gateway:   c.Gateway,
		corpus:    c.Corpus,
		publisher: c.Publisher,
		logger:    c.Logger,
		now:       c.Now,
		sessions:  make(map[string]*Session),
	}, nil
}

// Open loads an operation and its committed log, ordered by commit time,
// into a fresh view. Reopening an operation discards its overlay.
func (s *Synchronizer) Open(ctx context.Context, operationID string) (*Session, error) {
	op, err := s.lifecycle.Get(ctx, operationID)
	if err != nil {
		return nil, err
	}

	log, err := s.driver.ListMessages(ctx, storage.MessageQuery{OperationID: operationID})
	if err != nil {
		return nil, fmt.Errorf("loading conversation for %s: %w", operationID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[operationID]
	if ok {
		sess.reset(op, log)
	} else {
		sess = newSession(op, log)
		s.sessions[operationID] = sess
	}

	s.logger.Debug("conversation opened", "operation_id", operationID, "messages", len(log))
	return sess, nil
}

// Transcript returns an operation's committed log in commit order without
// opening a session.
func (s *Synchronizer) Transcript(ctx context.Context, operationID string) ([]*operation.Message, error) {
	if _, err := s.lifecycle.Get(ctx, operationID); err != nil {
		return nil, err
	}

	log, err := s.driver.ListMessages(ctx, storage.MessageQuery{OperationID: operationID})
	if err != nil {
		return nil, fmt.Errorf("loading conversation for %s: %w", operationID, err)
	}
	slices.SortStableFunc(log, compareCommitted)
	return log, nil
}

// Session returns the open session for an operation, if any.
func (s *Synchronizer) Session(operationID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[operationID]
	return sess, ok
}

// Close forgets an operation's session.
func (s *Synchronizer) Close(operationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, operationID)
}

func (s *Synchronizer) session(ctx context.Context, operationID string) (*Session, error) {
	if sess, ok := s.Session(operationID); ok {
		return sess, nil
	}
	return s.Open(ctx, operationID)
}

// Turn is the committed result of one operator submission.
type Turn struct {
	Operator *operation.Message `json:"operator"`
	Target   *operation.Message `json:"target"`
}

// SubmitOperatorTurn runs one turn. Blank text is ignored and returns a nil
// Turn with no error.
//
// Once the operator message is persisted it stays persisted: a gateway
// failure returns a GenerationFailedError and leaves the message in the
// overlay without a reply. The next completed reconciliation moves it into
// the committed log at its commit position.
func (s *Synchronizer) SubmitOperatorTurn(ctx context.Context, operationID, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	sess, err := s.session(ctx, operationID)
	if err != nil {
		return nil, err
	}
	op := sess.Operation()
	startedAt := s.now()

	operatorSeq := sess.apply(operation.RoleOperator, text, startedAt)
	operatorMsg, err := s.driver.CreateMessage(ctx, &operation.Message{
		OperationID: operationID,
		Role:        operation.RoleOperator,
		Content:     text,
	})
	if err != nil {
		sess.discard(operatorSeq)
		metrics.Turns.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		return nil, fmt.Errorf("persisting operator message: %w", err)
	}

	resp, err := s.gateway.ProbeTarget(ctx, generation.ProbeRequest{
		OperationID: operationID,
		Prompt:      text,
		TargetLLM:   op.TargetLLM,
		Persona:     op.TargetPersona,
	})
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		sess.hold(operatorSeq, operatorMsg)
		metrics.Turns.WithLabelValues(metrics.OutcomeGenerationFailed).Inc()
		s.logger.Warn("target probe failed",
			"operation_id", operationID,
			"operator_message_id", operatorMsg.ID,
			"error", err,
		)
		return nil, generation.Failed(err)
	}

	targetSeq := sess.apply(operation.RoleTarget, resp.TargetResponse, s.now())
	targetMsg, err := s.driver.CreateMessage(ctx, &operation.Message{
		OperationID: operationID,
		Role:        operation.RoleTarget,
		Content:     resp.TargetResponse,
	})
	if err != nil {
		sess.discard(targetSeq)
		sess.hold(operatorSeq, operatorMsg)
		metrics.Turns.WithLabelValues(metrics.OutcomeStoreFailed).Inc()
		return nil, fmt.Errorf("persisting target message: %w", err)
	}

	sess.reconcile(settled{operatorSeq, operatorMsg}, settled{targetSeq, targetMsg})
	metrics.Turns.WithLabelValues(metrics.OutcomeCommitted).Inc()
	s.publish(ctx, eventstream.NewTurnCommitted(operatorMsg, targetMsg, startedAt))

	s.logger.Info("turn committed",
		"operation_id", operationID,
		"operator_message_id", operatorMsg.ID,
		"target_message_id", targetMsg.ID,
	)
	return &Turn{Operator: operatorMsg, Target: targetMsg}, nil
}

// Suggestion is a persisted strategist follow-up.
type Suggestion struct {
	Message   *operation.Message `json:"message"`
	Reasoning string             `json:"reasoning"`
}

// SuggestFollowUp asks the strategist for the operator's next message based
// on the committed conversation, and stores it as a strategist message
// tagged "suggestion".
func (s *Synchronizer) SuggestFollowUp(ctx context.Context, operationID string) (*Suggestion, error) {
	op, err := s.lifecycle.Get(ctx, operationID)
	if err != nil {
		return nil, err
	}
	log, err := s.driver.ListMessages(ctx, storage.MessageQuery{OperationID: operationID})
	if err != nil {
		return nil, fmt.Errorf("loading conversation for %s: %w", operationID, err)
	}

	history := make([]generation.HistoryEntry, 0, len(log))
	for _, m := range log {
		history = append(history, generation.HistoryEntry{Role: m.Role, Content: m.Content})
	}

	resp, err := s.gateway.SuggestFollowUp(ctx, generation.FollowUpRequest{
		OperationID:         operationID,
		ConversationHistory: history,
		MaliciousGoal:       op.MaliciousGoal,
		AttackVector:        op.AttackVector,
	})
	if err != nil {
		return nil, generation.Failed(err)
	}

	msg, err := s.driver.CreateMessage(ctx, &operation.Message{
		OperationID: operationID,
		Role:        operation.RoleStrategist,
		Content:     resp.FollowUpPrompt,
		MessageType: operation.MessageTypeSuggestion,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting suggestion: %w", err)
	}

	if sess, ok := s.Session(operationID); ok {
		sess.reconcile(settled{msg: msg})
	}
	return &Suggestion{Message: msg, Reasoning: resp.Reasoning}, nil
}

// MarkSuccessful saves an operator message's content to the payload corpus
// with success rate 1.0, tagged with the operation's attack vector and
// target. Messages of any other role fail with ErrInvalidRole.
func (s *Synchronizer) MarkSuccessful(ctx context.Context, msg *operation.Message, description string) (*operation.Payload, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: no message", operation.ErrInvalidInput)
	}
	if msg.Role != operation.RoleOperator {
		return nil, fmt.Errorf("%w: only operator messages can be marked successful, got %q", operation.ErrInvalidRole, msg.Role)
	}

	op, err := s.lifecycle.Get(ctx, msg.OperationID)
	if err != nil {
		return nil, err
	}
	if description == "" {
		description = "goal: " + op.MaliciousGoal
	}

	rate := 1.0
	p, err := s.corpus.Save(ctx, corpus.SaveRequest{
		Prompt:       msg.Content,
		AttackVector: op.AttackVector,
		TargetLLM:    op.TargetLLM,
		OperationID:  op.ID,
		Description:  description,
		SuccessRate:  &rate,
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, eventstream.NewPayloadSaved(p))
	return p, nil
}

// MarkSuccessfulByID looks up a committed message of an operation and marks
// it successful.
func (s *Synchronizer) MarkSuccessfulByID(ctx context.Context, operationID, messageID, description string) (*operation.Payload, error) {
	log, err := s.driver.ListMessages(ctx, storage.MessageQuery{OperationID: operationID})
	if err != nil {
		return nil, fmt.Errorf("loading conversation for %s: %w", operationID, err)
	}
	for _, m := range log {
		if m.ID == messageID {
			return s.MarkSuccessful(ctx, m, description)
		}
	}
	return nil, storage.NotFoundError{Kind: storage.KindMessage, ID: messageID}
}

// publish ships an event. Failures are logged only.
func (s *Synchronizer) publish(ctx context.Context, e *eventstream.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed", "event_type", e.Type, "event_id", e.ID, "error", err)
	}
}
