package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gauntlet/pkg/conversation"
	"github.com/papercomputeco/gauntlet/pkg/operation"
)

// ConversationResponse is an opened session.
type ConversationResponse struct {
	Operation *operation.Operation `json:"operation"`
	Entries   []conversation.Entry `json:"entries"`
}

// TurnRequest is the body of POST /operations/:id/turns.
type TurnRequest struct {
	Content string `json:"content"`
}

// MarkSuccessfulRequest is the body of
// POST /operations/:id/messages/:messageId/success.
type MarkSuccessfulRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleOpenConversation(c *fiber.Ctx) error {
	sess, err := s.engine.Synchronizer.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ConversationResponse{
		Operation: sess.Operation(),
		Entries:   sess.View(),
	})
}

func (s *Server) handleSubmitTurn(c *fiber.Ctx) error {
	var req TurnRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	turn, err := s.engine.Synchronizer.SubmitOperatorTurn(c.UserContext(), c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	if turn == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusCreated).JSON(turn)
}

func (s *Server) handleSuggestFollowUp(c *fiber.Ctx) error {
	suggestion, err := s.engine.Synchronizer.SuggestFollowUp(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(suggestion)
}

func (s *Server) handleMarkSuccessful(c *fiber.Ctx) error {
	var req MarkSuccessfulRequest
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &req); err != nil {
			return err
		}
	}

	p, err := s.engine.Synchronizer.MarkSuccessfulByID(c.UserContext(), c.Params("id"), c.Params("messageId"), req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}
