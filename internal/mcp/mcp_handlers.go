package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kpitree/kpitree/core"
	"github.com/kpitree/kpitree/core/layout"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleGetPipelineGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if tnt := request.GetString("tenant", ""); tnt != "" {
		cfg.Tenant = tnt
	}
	if site := request.GetString("site", ""); site != "" {
		cfg.Site = site
	}
	if f := request.GetString("filter", ""); f != "" {
		cfg.Filter = f
	}
	cfg.Validate = request.GetBool("validate", cfg.Validate)

	result, err := core.ReadPipeline(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline read failed: %v", err)), nil
	}
	layoutResult := layout.Compute(result.Graph, cfg.Orientation)
	doc := schema.NewGraphDocument(cfg.Tenant, cfg.Site, cfg.Filter, result.Graph.Nodes(), layoutResult, result.Report)

	jsonData, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetPipelineLayout(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if o := request.GetString("orientation", ""); o != "" {
		orientation, ok := schema.ParseOrientation(o)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("invalid orientation '%s'. must be left-right or top-down", o)), nil
		}
		cfg.Orientation = orientation
	}
	if tnt := request.GetString("tenant", ""); tnt != "" {
		cfg.Tenant = tnt
	}
	if site := request.GetString("site", ""); site != "" {
		cfg.Site = site
	}
	if f := request.GetString("filter", ""); f != "" {
		cfg.Filter = f
	}

	result, err := core.ReadPipeline(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline read failed: %v", err)), nil
	}
	layoutResult := layout.Compute(result.Graph, cfg.Orientation)

	payload := struct {
		Orientation schema.Orientation  `json:"orientation"`
		Placements  []schema.PlacedNode `json:"placements"`
		Edges       []schema.LayoutEdge `json:"edges"`
	}{
		Orientation: layoutResult.Orientation,
		Placements:  layoutResult.PlacementList(),
		Edges:       layoutResult.Edges,
	}

	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetNodeClosure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeRef := request.GetString("node", "")
	if nodeRef == "" {
		return mcp.NewToolResultError("node reference is required"), nil
	}
	direction := request.GetString("direction", "inputs")
	if direction != "inputs" && direction != "dependents" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid direction '%s'. must be inputs or dependents", direction)), nil
	}

	cfg := h.baseCfg.Clone()
	if tnt := request.GetString("tenant", ""); tnt != "" {
		cfg.Tenant = tnt
	}
	if site := request.GetString("site", ""); site != "" {
		cfg.Site = site
	}
	if f := request.GetString("filter", ""); f != "" {
		cfg.Filter = f
	}

	inspection, err := core.InspectNode(ctx, cfg, h.mgr, nodeRef)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspection failed: %v", err)), nil
	}

	// "inputs" walks toward raw sources, "dependents" toward consumers.
	direct, closure := inspection.Inputs, inspection.Descendants
	if direction == "dependents" {
		direct, closure = inspection.Dependents, inspection.Ancestors
	}
	payload := struct {
		Node      *schema.KpiFunctionNode `json:"node"`
		Direction string                  `json:"direction"`
		Direct    []schema.NodeID         `json:"direct"`
		Closure   []schema.NodeID         `json:"closure"`
	}{
		Node:      inspection.Node,
		Direction: direction,
		Direct:    direct,
		Closure:   closure,
	}

	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetProcessingQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if tnt := request.GetString("tenant", ""); tnt != "" {
		cfg.Tenant = tnt
	}
	if site := request.GetString("site", ""); site != "" {
		cfg.Site = site
	}
	if f := request.GetString("filter", ""); f != "" {
		cfg.Filter = f
	}

	result, err := core.ReadPipeline(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("pipeline read failed: %v", err)), nil
	}

	payload := struct {
		Batches []schema.QueueBatch `json:"batches"`
	}{
		Batches: layout.ProcessingQueue(result.Graph),
	}

	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
