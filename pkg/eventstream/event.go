// Package eventstream defines the domain events gauntlet emits and the
// publishers that ship them.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCommitted is emitted after both messages of a turn are committed.
	EventTypeTurnCommitted = "gauntlet.turn.committed"

	// EventTypePayloadSaved is emitted after an operator message is marked successful.
	EventTypePayloadSaved = "gauntlet.payload.saved"
)

// Event is a transport-neutral envelope. Exactly one of Turn or Payload is
// set, according to Type.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	Type          string    `json:"event_type"`
	ID            string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	OperationID   string    `json:"operation_id"`

	Turn    *TurnCommitted     `json:"turn,omitempty"`
	Payload *operation.Payload `json:"payload,omitempty"`
}

// TurnCommitted carries the two messages of a committed turn.
type TurnCommitted struct {
	Operator   *operation.Message `json:"operator"`
	Target     *operation.Message `json:"target"`
	DurationMs int64              `json:"duration_ms"`
}

func newEvent(eventType, operationID string, now time.Time) *Event {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Event{
		SchemaVersion: SchemaVersionV1,
		Type:          eventType,
		ID:            "evt_" + id.String(),
		EmittedAt:     now.UTC(),
		OperationID:   operationID,
	}
}

// NewTurnCommitted builds a turn event. startedAt is when the operator
// submitted the turn.
func NewTurnCommitted(operator, target *operation.Message, startedAt time.Time) *Event {
	now := time.Now()
	e := newEvent(EventTypeTurnCommitted, operator.OperationID, now)
	e.Turn = &TurnCommitted{
		Operator:   operator,
		Target:     target,
		DurationMs: now.Sub(startedAt).Milliseconds(),
	}
	return e
}

// NewPayloadSaved builds a payload event.
func NewPayloadSaved(p *operation.Payload) *Event {
	e := newEvent(EventTypePayloadSaved, p.OperationID, time.Now())
	e.Payload = p
	return e
}
