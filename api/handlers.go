package api

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gauntlet/pkg/lifecycle"
	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// TransitionRequest is the body of POST /operations/:id/transition.
type TransitionRequest struct {
	Status operation.Status  `json:"status"`
	Result *operation.Result `json:"result,omitempty"`
	Notes  *string           `json:"notes,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleCreateOperation(c *fiber.Ctx) error {
	var req lifecycle.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	op, err := s.engine.Lifecycle.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(op)
}

func (s *Server) handleListOperations(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	ops, err := s.engine.Lifecycle.List(c.UserContext(), operation.Status(c.Query("status")), limit)
	if err != nil {
		return err
	}
	return c.JSON(ops)
}

func (s *Server) handleGetOperation(c *fiber.Ctx) error {
	op, err := s.engine.Lifecycle.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(op)
}

func (s *Server) handleTransition(c *fiber.Ctx) error {
	var req TransitionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	var opts []lifecycle.TransitionOption
	if req.Result != nil {
		opts = append(opts, lifecycle.WithResult(*req.Result))
	}
	if req.Notes != nil {
		opts = append(opts, lifecycle.WithNotes(*req.Notes))
	}

	op, err := s.engine.Lifecycle.Transition(c.UserContext(), c.Params("id"), req.Status, opts...)
	if err != nil {
		return err
	}
	return c.JSON(op)
}

// bindJSON decodes the body, reporting malformed JSON as invalid input.
func bindJSON(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %w", operation.ErrInvalidInput, err)
	}
	return nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", operation.ErrInvalidInput, key)
	}
	return n, nil
}
