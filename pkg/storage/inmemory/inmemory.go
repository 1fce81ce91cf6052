// Package inmemory provides an in-process storage.Driver. It is the default
// store for tests and for `gauntlet serve` without a configured database.
package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	// mu guards every map below
	mu sync.RWMutex

	operations map[string]*operation.Operation

	// messages is keyed by operation ID and kept in commit order
	messages map[string][]*operation.Message

	payloads map[string]*operation.Payload

	clock *storage.Clock
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock overrides the timestamp source.
func WithClock(c *storage.Clock) Option {
	return func(d *Driver) {
		d.clock = c
	}
}

// NewDriver creates a new in-memory driver.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{
		operations: make(map[string]*operation.Operation),
		messages:   make(map[string][]*operation.Message),
		payloads:   make(map[string]*operation.Payload),
		clock:      storage.NewClock(nil),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateOperation stores a copy of op with a fresh ID and timestamps.
func (d *Driver) CreateOperation(_ context.Context, op *operation.Operation) (*operation.Operation, error) {
	if op == nil {
		return nil, errors.New("cannot store nil operation")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := op.Clone()
	stored.ID = storage.NewID()
	now := d.clock.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	d.operations[stored.ID] = stored
	return stored.Clone(), nil
}

// GetOperation retrieves an operation by ID.
func (d *Driver) GetOperation(_ context.Context, id string) (*operation.Operation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	op, ok := d.operations[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindOperation, ID: id}
	}
	return op.Clone(), nil
}

// UpdateOperation applies update under the write lock, so it is atomic.
func (d *Driver) UpdateOperation(_ context.Context, id string, update storage.OperationUpdate) (*operation.Operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current, ok := d.operations[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindOperation, ID: id}
	}

	next := current.Clone()
	if update.Status != nil {
		next.Status = *update.Status
	}
	if update.Result != nil {
		r := *update.Result
		next.Result = &r
	}
	if update.ClearResult {
		next.Result = nil
	}
	if update.Notes != nil {
		n := *update.Notes
		next.Notes = &n
	}
	if update.StartTime != nil {
		t := update.StartTime.UTC()
		next.StartTime = &t
	}
	if update.EndTime != nil {
		t := update.EndTime.UTC()
		next.EndTime = &t
	}
	next.UpdatedAt = d.clock.Now()

	d.operations[id] = next
	return next.Clone(), nil
}

// ListOperations returns operations newest first.
func (d *Driver) ListOperations(_ context.Context, query storage.OperationQuery) ([]*operation.Operation, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*operation.Operation, 0, len(d.operations))
	for _, op := range d.operations {
		if query.Status != "" && op.Status != query.Status {
			continue
		}
		result = append(result, op.Clone())
	}

	slices.SortFunc(result, func(a, b *operation.Operation) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})

	return truncate(result, query.Limit), nil
}

// CreateMessage commits a message and assigns its commit timestamp.
func (d *Driver) CreateMessage(_ context.Context, msg *operation.Message) (*operation.Message, error) {
	if msg == nil {
		return nil, errors.New("cannot store nil message")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *msg
	stored.ID = storage.NewID()
	stored.CommittedAt = d.clock.Now()

	d.messages[stored.OperationID] = append(d.messages[stored.OperationID], &stored)

	out := stored
	return &out, nil
}

// ListMessages returns one operation's messages in commit order.
func (d *Driver) ListMessages(_ context.Context, query storage.MessageQuery) ([]*operation.Message, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stored := d.messages[query.OperationID]
	result := make([]*operation.Message, 0, len(stored))
	for _, m := range stored {
		c := *m
		result = append(result, &c)
	}

	// Appends happen under the lock with a monotonic clock, so the slice is
	// already ordered; the sort documents the contract.
	slices.SortStableFunc(result, func(a, b *operation.Message) int {
		return a.CommittedAt.Compare(b.CommittedAt)
	})

	return truncate(result, query.Limit), nil
}

// CreatePayload stores a payload.
func (d *Driver) CreatePayload(_ context.Context, p *operation.Payload) (*operation.Payload, error) {
	if p == nil {
		return nil, errors.New("cannot store nil payload")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stored := *p
	stored.ID = storage.NewID()
	stored.CreatedAt = d.clock.Now()
	d.payloads[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetPayload retrieves a payload by ID.
func (d *Driver) GetPayload(_ context.Context, id string) (*operation.Payload, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.payloads[id]
	if !ok {
		return nil, storage.NotFoundError{Kind: storage.KindPayload, ID: id}
	}
	out := *p
	return &out, nil
}

// ListPayloads returns payloads newest first.
func (d *Driver) ListPayloads(_ context.Context, query storage.PayloadQuery) ([]*operation.Payload, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*operation.Payload, 0, len(d.payloads))
	for _, p := range d.payloads {
		if query.OperationID != "" && p.OperationID != query.OperationID {
			continue
		}
		c := *p
		result = append(result, &c)
	}

	slices.SortFunc(result, func(a, b *operation.Payload) int {
		return cmp.Or(
			b.CreatedAt.Compare(a.CreatedAt),
			strings.Compare(b.ID, a.ID),
		)
	})

	return truncate(result, query.Limit), nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

var _ storage.Driver = (*Driver)(nil)
