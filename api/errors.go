package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeNotFound          = "not_found"
	CodeInvalidInput      = "invalid_input"
	CodeInvalidTransition = "invalid_transition"
	CodeInvalidRole       = "invalid_role"
	CodeGenerationFailed  = "generation_failed"
	CodeStoreUnavailable  = "store_unavailable"
	CodeInternal          = "internal"
)

// statusFor maps the domain error taxonomy to an HTTP status and code.
// Validation is checked first: a rejected request never reached the model
// or the store, whatever it was wrapped in.
func statusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, operation.ErrInvalidInput):
		return fiber.StatusBadRequest, CodeInvalidInput
	case errors.Is(err, operation.ErrNotFound):
		return fiber.StatusNotFound, CodeNotFound
	case errors.Is(err, operation.ErrInvalidTransition):
		return fiber.StatusUnprocessableEntity, CodeInvalidTransition
	case errors.Is(err, operation.ErrInvalidRole):
		return fiber.StatusUnprocessableEntity, CodeInvalidRole
	case errors.Is(err, operation.ErrGenerationFailed):
		return fiber.StatusBadGateway, CodeGenerationFailed
	case errors.Is(err, operation.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable, CodeStoreUnavailable
	case errors.As(err, &fiberErr):
		if fiberErr.Code == fiber.StatusNotFound {
			return fiberErr.Code, CodeNotFound
		}
		if fiberErr.Code < fiber.StatusInternalServerError {
			return fiberErr.Code, CodeInvalidInput
		}
		return fiberErr.Code, CodeInternal
	default:
		return fiber.StatusInternalServerError, CodeInternal
	}
}

// errorHandler renders handler errors as ErrorResponse.
func errorHandler(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Code: code})
}
