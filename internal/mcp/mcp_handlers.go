package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/powerrank/core"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// currentRankings is the response of get_current_rankings.
type currentRankings struct {
	SnapshotID  string                `json:"snapshot_id"`
	PublishedAt string                `json:"published_at"`
	Payload     schema.RankingPayload `json:"payload"`
}

func (h *toolHandler) handleGetCurrentRankings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := h.baseCfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = min(l, contract.MaxResultLimit)
	}

	rec, payload, err := core.GetCurrentRankings(core.WithSuppressHeader(ctx), h.mgr, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read rankings: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(currentRankings{
		SnapshotID:  rec.SnapshotID,
		PublishedAt: rec.PublishedAt.UTC().Format(time.RFC3339),
		Payload:     payload,
	}, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetToolHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toolID := strings.TrimSpace(request.GetString("tool_id", ""))
	if toolID == "" {
		return mcp.NewToolResultError("tool_id is required"), nil
	}

	points, err := core.GetToolHistory(core.WithSuppressHeader(ctx), h.mgr, toolID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}
	if len(points) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("tool %q does not appear in any stored snapshot", toolID)), nil
	}

	jsonData, _ := json.MarshalIndent(points, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleValidateSnapshot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputFile = ""
	cfg.SnapshotID = strings.TrimSpace(request.GetString("snapshot_id", ""))

	report, err := core.GetSnapshotValidation(core.WithSuppressHeader(ctx), cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}

	// A failing report is still a successful call; the caller reads "passed".
	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
