package operation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every storage.NotFoundError via errors.Is.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps transport failures of the store gateway.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidTransition is returned for status changes the lifecycle rejects,
	// e.g. a terminal status requested without a result.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrInvalidRole is returned when marking a non-operator message successful.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")

	// ErrGenerationFailed matches every GenerationFailedError via errors.Is.
	ErrGenerationFailed = errors.New("generation failed")
)

// GenerationFailedError reports that the generation gateway errored or
// returned an error status. Cause is the underlying failure.
type GenerationFailedError struct {
	Cause error
}

func (e *GenerationFailedError) Error() string {
	if e.Cause == nil {
		return ErrGenerationFailed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrGenerationFailed, e.Cause)
}

func (e *GenerationFailedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrGenerationFailed}
	}
	return []error{ErrGenerationFailed, e.Cause}
}
