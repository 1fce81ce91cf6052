package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
)

// FailingDriver wraps a storage.Driver and injects ErrUnavailable into the
// calls switched on below. It also counts writes.
type FailingDriver struct {
	storage.Driver

	mu sync.Mutex

	FailCreateMessage bool
	FailListMessages  bool
	FailCreatePayload bool
	FailListPayloads  bool
	FailUpdate        bool

	// FailMessageRole, when set, fails CreateMessage only for that role.
	FailMessageRole operation.Role

	OperationUpdates int
	MessageCreates   int
}

// NewFailingDriver wraps d with every failure switched off.
func NewFailingDriver(d storage.Driver) *FailingDriver {
	return &FailingDriver{Driver: d}
}

// Set toggles failure switches under the driver's lock.
func (f *FailingDriver) Set(fn func(f *FailingDriver)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func unavailable(call string) error {
	return fmt.Errorf("%w: injected %s failure", storage.ErrUnavailable, call)
}

func (f *FailingDriver) UpdateOperation(ctx context.Context, id string, u storage.OperationUpdate) (*operation.Operation, error) {
	f.mu.Lock()
	fail := f.FailUpdate
	f.mu.Unlock()
	if fail {
		return nil, unavailable("UpdateOperation")
	}

	op, err := f.Driver.UpdateOperation(ctx, id, u)
	if err == nil {
		f.mu.Lock()
		f.OperationUpdates++
		f.mu.Unlock()
	}
	return op, err
}

func (f *FailingDriver) CreateMessage(ctx context.Context, m *operation.Message) (*operation.Message, error) {
	f.mu.Lock()
	fail := f.FailCreateMessage || (f.FailMessageRole != "" && f.FailMessageRole == m.Role)
	f.mu.Unlock()
	if fail {
		return nil, unavailable("CreateMessage")
	}

	created, err := f.Driver.CreateMessage(ctx, m)
	if err == nil {
		f.mu.Lock()
		f.MessageCreates++
		f.mu.Unlock()
	}
	return created, err
}

func (f *FailingDriver) ListMessages(ctx context.Context, q storage.MessageQuery) ([]*operation.Message, error) {
	f.mu.Lock()
	fail := f.FailListMessages
	f.mu.Unlock()
	if fail {
		return nil, unavailable("ListMessages")
	}
	return f.Driver.ListMessages(ctx, q)
}

func (f *FailingDriver) CreatePayload(ctx context.Context, p *operation.Payload) (*operation.Payload, error) {
	f.mu.Lock()
	fail := f.FailCreatePayload
	f.mu.Unlock()
	if fail {
		return nil, unavailable("CreatePayload")
	}
	return f.Driver.CreatePayload(ctx, p)
}

func (f *FailingDriver) ListPayloads(ctx context.Context, q storage.PayloadQuery) ([]*operation.Payload, error) {
	f.mu.Lock()
	fail := f.FailListPayloads
	f.mu.Unlock()
	if fail {
		return nil, unavailable("ListPayloads")
	}
	return f.Driver.ListPayloads(ctx, q)
}

var _ storage.Driver = (*FailingDriver)(nil)
