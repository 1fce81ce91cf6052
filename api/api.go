package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/papercomputeco/gauntlet/api/mcp"
	"github.com/papercomputeco/gauntlet/pkg/engine"
	"github.com/papercomputeco/gauntlet/pkg/logger"
)

// Server is the API server for the gauntlet engine.
type Server struct {
	config Config
	engine *engine.Engine
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server over an already built engine.
// The engine is shared, not owned: Shutdown does not close it.
func NewServer(config Config, e *engine.Engine, log *slog.Logger) (*Server, error) {
	if e == nil {
		return nil, errors.New("engine is required")
	}
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s := &Server{
		config: config,
		engine: e,
		logger: log,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Post("/operations", s.handleCreateOperation)
	app.Get("/operations", s.handleListOperations)
	app.Get("/operations/:id", s.handleGetOperation)
	app.Post("/operations/:id/transition", s.handleTransition)

	app.Get("/operations/:id/conversation", s.handleOpenConversation)
	app.Post("/operations/:id/turns", s.handleSubmitTurn)
	app.Post("/operations/:id/suggestions", s.handleSuggestFollowUp)
	app.Post("/operations/:id/messages/:messageId/success", s.handleMarkSuccessful)

	app.Get("/payloads", s.handleListPayloads)
	app.Get("/payloads/prompts", s.handleListPrompts)
	app.Get("/payloads/relevant", s.handleRelevantPrompts)

	app.Post("/seeds", s.handleGenerateSeed)
	app.Post("/seeds/phase", s.handleGeneratePhaseSeed)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Lifecycle:    e.Lifecycle,
			Synchronizer: e.Synchronizer,
			Corpus:       e.Corpus,
			Logger:       log.With("component", "mcp"),
		})
		if err != nil {
			return nil, err
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
