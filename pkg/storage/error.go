package storage

import "github.com/papercomputeco/gauntlet/pkg/operation"

var (
	// ErrNotFound is matched by NotFoundError via errors.Is.
	ErrNotFound = operation.ErrNotFound

	// ErrUnavailable wraps transport failures reported by a driver.
	ErrUnavailable = operation.ErrStoreUnavailable
)

// Record kinds used in NotFoundError.
const (
	KindOperation = "operation"
	KindMessage   = "message"
	KindPayload   = "payload"
)

// NotFoundError is returned when a record doesn't exist in the store.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "record"
	}

	if e.ID == "" {
		return kind + " not found"
	}

	return kind + " not found: " + e.ID
}

// Is makes errors.Is(err, ErrNotFound) true for any NotFoundError.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
