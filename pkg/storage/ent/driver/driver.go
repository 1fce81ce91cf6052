// Package entdriver implements storage.Driver on top of ent's SQL dialect
// layer. It is database-agnostic and is embedded by the sqlite and postgres
// drivers.
package entdriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
	"github.com/papercomputeco/gauntlet/pkg/storage/ent/migrate"
)

// EntDriver provides storage operations using an ent SQL driver.
type EntDriver struct {
	drv   *entsql.Driver
	clock *storage.Clock
}

// New wraps an opened ent SQL driver and runs the schema migration.
func New(ctx context.Context, drv *entsql.Driver, clock *storage.Clock) (*EntDriver, error) {
	if clock == nil {
		clock = storage.NewClock(nil)
	}

	if err := migrate.Create(ctx, drv); err != nil {
		return nil, err
	}

	return &EntDriver{drv: drv, clock: clock}, nil
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.drv.Dialect())
}

func (ed *EntDriver) db() *sql.DB {
	return ed.drv.DB()
}

// unavailable wraps a transport failure so callers can match storage.ErrUnavailable.
func unavailable(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", storage.ErrUnavailable, action, err)
}

// CreateOperation stores op with a fresh ID and timestamps.
func (ed *EntDriver) CreateOperation(ctx context.Context, op *operation.Operation) (*operation.Operation, error) {
	if op == nil {
		return nil, errors.New("cannot store nil operation")
	}

	stored := op.Clone()
	stored.ID = storage.NewID()
	now := ed.clock.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	query, args := ed.builder().Insert(migrate.OperationsTable).
		Columns(operationColumns...).
		Values(
			stored.ID,
			stored.Name,
			stored.MaliciousGoal,
			stored.TargetLLM,
			stored.TargetPersona,
			stored.AttackVector,
			stored.InitialPrompt,
			string(stored.Status),
			nullableResult(stored.Result),
			nullableString(stored.Notes),
			stored.CreatedAt,
			stored.UpdatedAt,
			nullableTime(stored.StartTime),
			nullableTime(stored.EndTime),
		).
		Query()

	if _, err := ed.db().ExecContext(ctx, query, args...); err != nil {
		return nil, unavailable("inserting operation", err)
	}

	return stored, nil
}

// GetOperation retrieves an operation by ID.
func (ed *EntDriver) GetOperation(ctx context.Context, id string) (*operation.Operation, error) {
	query, args := ed.builder().Select(operationColumns...).
		From(ed.builder().Table(migrate.OperationsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	row := ed.db().QueryRowContext(ctx, query, args...)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: storage.KindOperation, ID: id}
	}
	if err != nil {
		return nil, unavailable("reading operation", err)
	}

	return op, nil
}

// UpdateOperation applies a partial update in a single UPDATE statement.
func (ed *EntDriver) UpdateOperation(ctx context.Context, id string, update storage.OperationUpdate) (*operation.Operation, error) {
	upd := ed.builder().Update(migrate.OperationsTable).
		Set("updated_at", ed.clock.Now()).
		Where(entsql.EQ("id", id))

	if update.Status != nil {
		upd.Set("status", string(*update.Status))
	}
	switch {
	case update.ClearResult:
		upd.SetNull("result")
	case update.Result != nil:
		upd.Set("result", string(*update.Result))
	}
	if update.Notes != nil {
		upd.Set("notes", *update.Notes)
	}
	if update.StartTime != nil {
		upd.Set("start_time", update.StartTime.UTC())
	}
	if update.EndTime != nil {
		upd.Set("end_time", update.EndTime.UTC())
	}

	query, args := upd.Query()
	res, err := ed.db().ExecContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("updating operation", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, unavailable("updating operation", err)
	}
	if n == 0 {
		return nil, storage.NotFoundError{Kind: storage.KindOperation, ID: id}
	}

	return ed.GetOperation(ctx, id)
}

// ListOperations returns operations newest first.
func (ed *EntDriver) ListOperations(ctx context.Context, q storage.OperationQuery) ([]*operation.Operation, error) {
	sel := ed.builder().Select(operationColumns...).
		From(ed.builder().Table(migrate.OperationsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))

	if q.Status != "" {
		sel.Where(entsql.EQ("status", string(q.Status)))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}

	query, args := sel.Query()
	rows, err := ed.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("listing operations", err)
	}
	defer rows.Close()

	var result []*operation.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, unavailable("scanning operation", err)
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing operations", err)
	}

	return result, nil
}

// CreateMessage commits a message with a store-assigned commit timestamp.
func (ed *EntDriver) CreateMessage(ctx context.Context, msg *operation.Message) (*operation.Message, error) {
	if msg == nil {
		return nil, errors.New("cannot store nil message")
	}

	stored := *msg
	stored.ID = storage.NewID()
	stored.CommittedAt = ed.clock.Now()

	query, args := ed.builder().Insert(migrate.MessagesTable).
		Columns(messageColumns...).
		Values(
			stored.ID,
			stored.OperationID,
			string(stored.Role),
			stored.Content,
			stored.MessageType,
			stored.CommittedAt,
		).
		Query()

	if _, err := ed.db().ExecContext(ctx, query, args...); err != nil {
		return nil, unavailable("inserting message", err)
	}

	return &stored, nil
}

// ListMessages returns one operation's messages in commit order.
func (ed *EntDriver) ListMessages(ctx context.Context, q storage.MessageQuery) ([]*operation.Message, error) {
	sel := ed.builder().Select(messageColumns...).
		From(ed.builder().Table(migrate.MessagesTable)).
		Where(entsql.EQ("operation_id", q.OperationID)).
		OrderBy(entsql.Asc("committed_at"), entsql.Asc("id"))

	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}

	query, args := sel.Query()
	rows, err := ed.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("listing messages", err)
	}
	defer rows.Close()

	var result []*operation.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, unavailable("scanning message", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing messages", err)
	}

	return result, nil
}

// CreatePayload stores a payload.
func (ed *EntDriver) CreatePayload(ctx context.Context, p *operation.Payload) (*operation.Payload, error) {
	if p == nil {
		return nil, errors.New("cannot store nil payload")
	}

	stored := *p
	stored.ID = storage.NewID()
	stored.CreatedAt = ed.clock.Now()

	query, args := ed.builder().Insert(migrate.PayloadsTable).
		Columns(payloadColumns...).
		Values(
			stored.ID,
			stored.Prompt,
			stored.AttackVector,
			stored.TargetLLM,
			stored.SuccessRate,
			stored.OperationID,
			stored.Description,
			stored.CreatedAt,
		).
		Query()

	if _, err := ed.db().ExecContext(ctx, query, args...); err != nil {
		return nil, unavailable("inserting payload", err)
	}

	return &stored, nil
}

// GetPayload retrieves a payload by ID.
func (ed *EntDriver) GetPayload(ctx context.Context, id string) (*operation.Payload, error) {
	query, args := ed.builder().Select(payloadColumns...).
		From(ed.builder().Table(migrate.PayloadsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	p, err := scanPayload(ed.db().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{Kind: storage.KindPayload, ID: id}
	}
	if err != nil {
		return nil, unavailable("reading payload", err)
	}

	return p, nil
}

// ListPayloads returns payloads newest first.
func (ed *EntDriver) ListPayloads(ctx context.Context, q storage.PayloadQuery) ([]*operation.Payload, error) {
	sel := ed.builder().Select(payloadColumns...).
		From(ed.builder().Table(migrate.PayloadsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))

	if q.OperationID != "" {
		sel.Where(entsql.EQ("operation_id", q.OperationID))
	}
	if q.Limit > 0 {
		sel.Limit(q.Limit)
	}

	query, args := sel.Query()
	rows, err := ed.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("listing payloads", err)
	}
	defer rows.Close()

	var result []*operation.Payload
	for rows.Next() {
		p, err := scanPayload(rows)
		if err != nil {
			return nil, unavailable("scanning payload", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("listing payloads", err)
	}

	return result, nil
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.drv.Close()
}

var _ storage.Driver = (*EntDriver)(nil)
