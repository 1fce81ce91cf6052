// Package operation holds the data model shared by every gauntlet component:
// operations, their conversation messages and the successful payloads
// harvested from them.
package operation

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an Operation.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusFailed}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s ends the lifecycle. Terminal statuses carry a Result.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, raw)
	}
	return s, nil
}

// transitions is the declared state machine. Non-terminal statuses may be
// re-entered (active -> active) so that repeated requests stay idempotent.
var transitions = map[Status][]Status{
	StatusDraft:  {StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusFailed},
	StatusActive: {StatusActive, StatusPaused, StatusCompleted, StatusFailed},
	StatusPaused: {StatusPaused, StatusActive, StatusCompleted, StatusFailed},
}

// CanTransition reports whether the declared lifecycle graph allows moving
// from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Result is the outcome attached to an operation when it reaches a terminal status.
type Result string

const (
	ResultSuccess Result = "success"
	ResultPartial Result = "partial"
	ResultFailure Result = "failure"
	ResultBlocked Result = "blocked"
)

// Valid reports whether r is a known result.
func (r Result) Valid() bool {
	switch r {
	case ResultSuccess, ResultPartial, ResultFailure, ResultBlocked:
		return true
	}
	return false
}

// ParseResult converts a raw string into a Result.
func ParseResult(raw string) (Result, error) {
	r := Result(raw)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown result %q", ErrInvalidTransition, raw)
	}
	return r, nil
}

// Operation is one adversarial-prompt exercise against a target model.
// It owns no pointer to its messages or payloads; both reference it by ID.
type Operation struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	MaliciousGoal string  `json:"malicious_goal"`
	TargetLLM     string  `json:"target_llm"`
	TargetPersona string  `json:"target_persona,omitempty"`
	AttackVector  string  `json:"attack_vector,omitempty"`
	InitialPrompt string  `json:"initial_prompt,omitempty"`
	Status        Status  `json:"status"`
	Result        *Result `json:"result,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

// Clone returns a deep copy so callers can never alias store-owned records.
func (o *Operation) Clone() *Operation {
	if o == nil {
		return nil
	}
	c := *o
	if o.Result != nil {
		r := *o.Result
		c.Result = &r
	}
	if o.Notes != nil {
		n := *o.Notes
		c.Notes = &n
	}
	if o.StartTime != nil {
		t := *o.StartTime
		c.StartTime = &t
	}
	if o.EndTime != nil {
		t := *o.EndTime
		c.EndTime = &t
	}
	return &c
}
