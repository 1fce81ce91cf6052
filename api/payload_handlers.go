package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gauntlet/pkg/generation"
)

// PromptsResponse lists corpus prompts.
type PromptsResponse struct {
	Prompts []string `json:"prompts"`
	Count   int      `json:"count"`
}

func (s *Server) handleListPayloads(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	payloads, err := s.engine.Corpus.List(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(payloads)
}

func (s *Server) handleListPrompts(c *fiber.Ctx) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	prompts, err := s.engine.Corpus.PromptsOnly(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(PromptsResponse{Prompts: prompts, Count: len(prompts)})
}

func (s *Server) handleRelevantPrompts(c *fiber.Ctx) error {
	k, err := queryInt(c, "k")
	if err != nil {
		return err
	}

	prompts, err := s.engine.Corpus.Relevant(c.UserContext(), c.Query("q"), k)
	if err != nil {
		return err
	}
	return c.JSON(PromptsResponse{Prompts: prompts, Count: len(prompts)})
}

func (s *Server) handleGenerateSeed(c *fiber.Ctx) error {
	var req generation.SeedRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := generation.Validate(req); err != nil {
		return err
	}

	resp, err := s.engine.Gateway.GenerateSeed(c.UserContext(), req)
	if err != nil {
		return generation.Failed(err)
	}
	return c.JSON(resp)
}

func (s *Server) handleGeneratePhaseSeed(c *fiber.Ctx) error {
	var req generation.PhaseSeedRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := generation.Validate(req); err != nil {
		return err
	}

	resp, err := s.engine.Gateway.GeneratePhaseSeed(c.UserContext(), req)
	if err != nil {
		return generation.Failed(err)
	}
	return c.JSON(resp)
}
