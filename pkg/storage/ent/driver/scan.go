package entdriver

import (
	"database/sql"
	"time"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

var (
	operationColumns = []string{
		"id", "name", "malicious_goal", "target_llm", "target_persona",
		"attack_vector", "initial_prompt", "status", "result", "notes",
		"created_at", "updated_at", "start_time", "end_time",
	}

	messageColumns = []string{
		"id", "operation_id", "role", "content", "message_type", "committed_at",
	}

	payloadColumns = []string{
		"id", "prompt", "attack_vector", "target_llm", "success_rate",
		"operation_id", "description", "created_at",
	}
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanOperation reads one operations row. Optional columns may be NULL on
// rows written by older versions.
func scanOperation(s scanner) (*operation.Operation, error) {
	var (
		op                                  operation.Operation
		name, goal, target, persona, vector sql.NullString
		initial, status, result, notes      sql.NullString
		createdAt, updatedAt, start, end    sql.NullTime
	)

	err := s.Scan(
		&op.ID, &name, &goal, &target, &persona,
		&vector, &initial, &status, &result, &notes,
		&createdAt, &updatedAt, &start, &end,
	)
	if err != nil {
		return nil, err
	}

	op.Name = name.String
	op.MaliciousGoal = goal.String
	op.TargetLLM = target.String
	op.TargetPersona = persona.String
	op.AttackVector = vector.String
	op.InitialPrompt = initial.String
	op.Status = operation.Status(status.String)
	if result.Valid && result.String != "" {
		r := operation.Result(result.String)
		op.Result = &r
	}
	if notes.Valid {
		n := notes.String
		op.Notes = &n
	}
	op.CreatedAt = createdAt.Time.UTC()
	op.UpdatedAt = updatedAt.Time.UTC()
	op.StartTime = timePtr(start)
	op.EndTime = timePtr(end)

	return &op, nil
}

func scanMessage(s scanner) (*operation.Message, error) {
	var (
		m           operation.Message
		role        string
		messageType sql.NullString
		committedAt time.Time
	)

	if err := s.Scan(&m.ID, &m.OperationID, &role, &m.Content, &messageType, &committedAt); err != nil {
		return nil, err
	}

	m.Role = operation.Role(role)
	m.MessageType = messageType.String
	m.CommittedAt = committedAt.UTC()

	return &m, nil
}

func scanPayload(s scanner) (*operation.Payload, error) {
	var (
		p                                 operation.Payload
		vector, target, opID, description sql.NullString
		createdAt                         time.Time
	)

	err := s.Scan(&p.ID, &p.Prompt, &vector, &target, &p.SuccessRate, &opID, &description, &createdAt)
	if err != nil {
		return nil, err
	}

	p.AttackVector = vector.String
	p.TargetLLM = target.String
	p.OperationID = opID.String
	p.Description = description.String
	p.CreatedAt = createdAt.UTC()

	return &p, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableResult(r *operation.Result) any {
	if r == nil {
		return nil
	}
	return string(*r)
}
