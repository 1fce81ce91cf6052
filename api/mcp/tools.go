package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/gauntlet/pkg/operation"
)

var (
	operationGetToolName    = "operation_get"
	operationGetDescription = "Get a red-team operation by ID, including its goal, target model, status and result."

	conversationGetToolName    = "conversation_get"
	conversationGetDescription = "Get the committed conversation of an operation in commit order."

	payloadsListToolName    = "payloads_list"
	payloadsListDescription = "List saved payloads, the prompts operators flagged as effective. Newest first."

	payloadsRelevantToolName    = "payloads_relevant"
	payloadsRelevantDescription = "Find saved payload prompts semantically related to a query. Falls back to the most recent prompts when no vector index is configured."
)

// OperationInput selects one operation.
type OperationInput struct {
	OperationID string `json:"operation_id" jsonschema:"the ID of the operation"`
}

// OperationOutput wraps an operation.
type OperationOutput struct {
	Operation *operation.Operation `json:"operation"`
}

// ConversationOutput is an operation's committed log.
type ConversationOutput struct {
	OperationID string               `json:"operation_id"`
	Messages    []*operation.Message `json:"messages"`
	Count       int                  `json:"count"`
}

// PayloadsListInput bounds payloads_list.
type PayloadsListInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of payloads to return (default: the configured corpus limit)"`
}

// PayloadsListOutput lists payloads.
type PayloadsListOutput struct {
	Payloads []*operation.Payload `json:"payloads"`
	Count    int                  `json:"count"`
}

// PayloadsRelevantInput is a semantic payload query.
type PayloadsRelevantInput struct {
	Query string `json:"query" jsonschema:"text describing the kind of prompt to find"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of prompts to return (default: the configured corpus limit)"`
}

// PayloadsRelevantOutput lists matching prompts.
type PayloadsRelevantOutput struct {
	Query   string   `json:"query"`
	Prompts []string `json:"prompts"`
	Count   int      `json:"count"`
}

func (s *Server) handleOperationGet(ctx context.Context, _ *mcp.CallToolRequest, input OperationInput) (*mcp.CallToolResult, OperationOutput, error) {
	op, err := s.config.Lifecycle.Get(ctx, input.OperationID)
	if err != nil {
		s.config.Logger.Debug("MCP operation_get failed", "operation_id", input.OperationID, "error", err)
		return toolError("Failed to load operation: %v", err), OperationOutput{}, nil
	}
	return nil, OperationOutput{Operation: op}, nil
}

func (s *Server) handleConversationGet(ctx context.Context, _ *mcp.CallToolRequest, input OperationInput) (*mcp.CallToolResult, ConversationOutput, error) {
	msgs, err := s.config.Synchronizer.Transcript(ctx, input.OperationID)
	if err != nil {
		s.config.Logger.Debug("MCP conversation_get failed", "operation_id", input.OperationID, "error", err)
		return toolError("Failed to load conversation: %v", err), ConversationOutput{}, nil
	}
	return nil, ConversationOutput{
		OperationID: input.OperationID,
		Messages:    msgs,
		Count:       len(msgs),
	}, nil
}

func (s *Server) handlePayloadsList(ctx context.Context, _ *mcp.CallToolRequest, input PayloadsListInput) (*mcp.CallToolResult, PayloadsListOutput, error) {
	payloads, err := s.config.Corpus.List(ctx, max(input.Limit, 0))
	if err != nil {
		s.config.Logger.Error("MCP payloads_list failed", "error", err)
		return toolError("Failed to list payloads: %v", err), PayloadsListOutput{}, nil
	}
	return nil, PayloadsListOutput{Payloads: payloads, Count: len(payloads)}, nil
}

func (s *Server) handlePayloadsRelevant(ctx context.Context, _ *mcp.CallToolRequest, input PayloadsRelevantInput) (*mcp.CallToolResult, PayloadsRelevantOutput, error) {
	prompts, err := s.config.Corpus.Relevant(ctx, input.Query, max(input.TopK, 0))
	if err != nil {
		s.config.Logger.Error("MCP payloads_relevant failed", "query", input.Query, "error", err)
		return toolError("Failed to search payloads: %v", err), PayloadsRelevantOutput{}, nil
	}
	return nil, PayloadsRelevantOutput{
		Query:   input.Query,
		Prompts: prompts,
		Count:   len(prompts),
	}, nil
}
