package generation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

var validate = validator.New()

// Validate checks a request struct's validator tags. Failures wrap
// operation.ErrInvalidInput.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", operation.ErrInvalidInput, err)
	}
	return nil
}
