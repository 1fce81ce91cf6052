package generation

import (
	"errors"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

var (
	errProbeStatus = errors.New("target returned an error status")
	errNoProbe     = errors.New("target returned no response")
)

// Err converts an error-status probe response into a Go error. It returns
// nil for a successful response.
func (r *ProbeResponse) Err() error {
	switch {
	case r == nil:
		return errNoProbe
	case r.Status == ProbeSuccess:
		return nil
	case r.Error != "":
		return errors.New(r.Error)
	default:
		return errProbeStatus
	}
}

// Failed wraps cause as a GenerationFailed error.
func Failed(cause error) error {
	return &operation.GenerationFailedError{Cause: cause}
}
