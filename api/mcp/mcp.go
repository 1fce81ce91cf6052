// Package mcp provides an MCP (Model Context Protocol) server exposing
// operations, conversations and the payload corpus as read-only tools.
package mcp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/gauntlet/pkg/conversation"
	"github.com/papercomputeco/gauntlet/pkg/corpus"
	"github.com/papercomputeco/gauntlet/pkg/lifecycle"
	"github.com/papercomputeco/gauntlet/pkg/utils"
)

type Config struct {
	// Lifecycle loads operations
	Lifecycle *lifecycle.Manager

	// Synchronizer reads committed conversation logs
	Synchronizer *conversation.Synchronizer

	// Corpus lists and searches saved payloads
	Corpus *corpus.Corpus

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured slog logger
	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the operation, conversation and
// payload tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "gauntlet",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)
	s.mcpServer = mcpServer

	if !c.Noop {
		if c.Lifecycle == nil {
			return nil, errors.New("lifecycle manager is required")
		}
		if c.Synchronizer == nil {
			return nil, errors.New("synchronizer is required")
		}
		if c.Corpus == nil {
			return nil, errors.New("corpus is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        operationGetToolName,
			Description: operationGetDescription,
		}, s.handleOperationGet)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        conversationGetToolName,
			Description: conversationGetDescription,
		}, s.handleConversationGet)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        payloadsListToolName,
			Description: payloadsListDescription,
		}, s.handlePayloadsList)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        payloadsRelevantToolName,
			Description: payloadsRelevantDescription,
		}, s.handlePayloadsRelevant)
	}

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolError reports a failed call to the client as tool output rather than
// a protocol error.
func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}
