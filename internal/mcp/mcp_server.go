// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the powerrank MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"AI Power Rankings Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_current_rankings ---
	s.AddTool(mcp.NewTool("get_current_rankings",
		mcp.WithDescription("Return the current published AI tool rankings with scores, tiers and movement."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of ranked tools returned.")),
	), h.handleGetCurrentRankings)

	// --- 2. Tool: get_tool_history ---
	s.AddTool(mcp.NewTool("get_tool_history",
		mcp.WithDescription("Return one tool's rank, score and tier across every stored snapshot, oldest first."),
		mcp.WithString("tool_id", mcp.Description("The tool id, e.g. 'cursor'."), mcp.Required()),
	), h.handleGetToolHistory)

	// --- 3. Tool: validate_current_snapshot ---
	s.AddTool(mcp.NewTool("validate_current_snapshot",
		mcp.WithDescription("Run the distribution checks on the current snapshot or a stored snapshot id."),
		mcp.WithString("snapshot_id", mcp.Description("Stored snapshot to validate (defaults to the current snapshot).")),
	), h.handleValidateSnapshot)

	return s
}

// StartMCPServer starts the powerrank MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
