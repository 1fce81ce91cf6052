// Package storage defines the store gateway: typed access to the document
// store holding operations, conversation messages and successful payloads.
package storage

import (
	"context"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// Driver defines the interface for persisting and querying gauntlet records in
// a storage backend. Implementations assign identities and timestamps
// server-side, atomically with the write, and wrap every transport failure
// with ErrUnavailable.
type Driver interface {
	// CreateOperation stores a new operation. ID, CreatedAt and UpdatedAt are
	// assigned by the store and returned on the created record.
	CreateOperation(ctx context.Context, op *operation.Operation) (*operation.Operation, error)

	// GetOperation retrieves an operation by ID. Returns NotFoundError when absent.
	GetOperation(ctx context.Context, id string) (*operation.Operation, error)

	// UpdateOperation applies a partial update as a single atomic write and
	// stamps UpdatedAt. Returns the updated record.
	UpdateOperation(ctx context.Context, id string, update OperationUpdate) (*operation.Operation, error)

	// ListOperations returns operations, newest first.
	ListOperations(ctx context.Context, query OperationQuery) ([]*operation.Operation, error)

	// CreateMessage commits a message. ID and CommittedAt are assigned by the store.
	CreateMessage(ctx context.Context, msg *operation.Message) (*operation.Message, error)

	// ListMessages returns the committed messages of one operation ordered by
	// CommittedAt ascending.
	ListMessages(ctx context.Context, query MessageQuery) ([]*operation.Message, error)

	// CreatePayload stores a successful payload. ID and CreatedAt are assigned by the store.
	CreatePayload(ctx context.Context, p *operation.Payload) (*operation.Payload, error)

	// GetPayload retrieves a payload by ID. Returns NotFoundError when absent.
	GetPayload(ctx context.Context, id string) (*operation.Payload, error)

	// ListPayloads returns payloads ordered by CreatedAt descending, ties
	// broken by ID descending.
	ListPayloads(ctx context.Context, query PayloadQuery) ([]*operation.Payload, error)

	// Close closes the store and releases any resources.
	Close() error
}
