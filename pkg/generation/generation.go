// Package generation defines the Generation Gateway: the opaque, possibly
// slow and possibly failing collaborator that probes the target model and
// drafts adversarial prompts. Failures are returned as-is; nothing here
// retries.
package generation

import (
	"context"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// Gateway serves the four generation request shapes.
type Gateway interface {
	// ProbeTarget sends an operator prompt to the target model.
	ProbeTarget(ctx context.Context, req ProbeRequest) (*ProbeResponse, error)

	// SuggestFollowUp drafts the next operator prompt from the conversation so far.
	SuggestFollowUp(ctx context.Context, req FollowUpRequest) (*FollowUpResponse, error)

	// GenerateSeed drafts an opening prompt for a goal, persona and vector.
	GenerateSeed(ctx context.Context, req SeedRequest) (*SeedResponse, error)

	// GeneratePhaseSeed drafts an opening prompt for one phase of a
	// staged escalation.
	GeneratePhaseSeed(ctx context.Context, req PhaseSeedRequest) (*PhaseSeedResponse, error)
}

// ProbeStatus reports whether the target produced a reply.
type ProbeStatus string

const (
	ProbeSuccess ProbeStatus = "success"
	ProbeError   ProbeStatus = "error"
)

// ProbeRequest asks the target model to answer one operator prompt.
type ProbeRequest struct {
	OperationID string `json:"operation_id" validate:"required"`
	Prompt      string `json:"prompt" validate:"required"`
	TargetLLM   string `json:"target_llm" validate:"required"`
	Persona     string `json:"persona,omitempty"`
}

// ProbeResponse carries the target's reply, or the reason it has none.
type ProbeResponse struct {
	Status         ProbeStatus `json:"status"`
	TargetResponse string      `json:"target_response,omitempty"`
	Error          string      `json:"error,omitempty"`
}

// HistoryEntry is one prior turn shown to the strategist.
type HistoryEntry struct {
	Role    operation.Role `json:"role" validate:"required"`
	Content string         `json:"content"`
}

// FollowUpRequest asks the strategist for the next operator prompt.
type FollowUpRequest struct {
	OperationID         string         `json:"operation_id" validate:"required"`
	ConversationHistory []HistoryEntry `json:"conversation_history" validate:"dive"`
	MaliciousGoal       string         `json:"malicious_goal" validate:"required"`
	AttackVector        string         `json:"attack_vector,omitempty"`
}

// FollowUpResponse is the strategist's suggestion.
type FollowUpResponse struct {
	FollowUpPrompt string `json:"follow_up_prompt"`
	Reasoning      string `json:"reasoning"`
}

// SeedRequest asks for an opening prompt. With EnhanceWithRAG the
// gateway enriches the request with prompts from the payload corpus.
type SeedRequest struct {
	Goal           string `json:"goal" validate:"required"`
	Persona        string `json:"persona,omitempty"`
	Vector         string `json:"vector,omitempty"`
	EnhanceWithRAG bool   `json:"enhance_with_rag"`
}

// SeedResponse is a drafted opening prompt. Confidence is in [0,1].
type SeedResponse struct {
	Prompt     string  `json:"prompt"`
	Technique  string  `json:"technique"`
	Confidence float64 `json:"confidence"`
}

// PhaseSeedRequest asks for an opening prompt for one escalation phase.
// Intensity runs from 1 (subtle) to 10 (overt); zero means unspecified.
type PhaseSeedRequest struct {
	Phase                string `json:"phase" validate:"required"`
	CurrentOntologyState string `json:"current_ontology_state,omitempty"`
	SpecificGoal         string `json:"specific_goal" validate:"required"`
	MathFormalism        string `json:"math_formalism,omitempty"`
	Intensity            int    `json:"intensity,omitempty" validate:"omitempty,min=1,max=10"`
}

// PhaseSeedResponse is a drafted phase prompt.
type PhaseSeedResponse struct {
	Prompt string `json:"prompt"`
}

// ClampConfidence limits c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0 || c != c:
		return 0
	case c > 1:
		return 1
	}
	return c
}
