package operation

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleTarget     Role = "target"
	RoleStrategist Role = "strategist"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleTarget || r == RoleStrategist
}

// MessageTypeSuggestion tags strategist follow-up suggestions.
const MessageTypeSuggestion = "suggestion"

// Message is one turn of an operation's dialogue. Messages are immutable once
// committed; CommittedAt is assigned by the store and defines conversation order.
type Message struct {
	ID          string    `json:"id,omitempty"`
	OperationID string    `json:"operation_id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	CommittedAt time.Time `json:"committed_at,omitzero"`
	MessageType string    `json:"message_type,omitempty"`
}

// Committed reports whether the store has assigned this message an identity.
func (m *Message) Committed() bool {
	return m != nil && m.ID != ""
}

// Payload is a prompt an operator flagged as effective. The prompt text is
// copied from the source message, never referenced.
type Payload struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	AttackVector string    `json:"attack_vector,omitempty"`
	TargetLLM    string    `json:"target_llm,omitempty"`
	SuccessRate  float64   `json:"success_rate"`
	OperationID  string    `json:"operation_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}
