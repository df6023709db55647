// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the KPI pipeline MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"KPI Pipeline Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_pipeline_graph ---
	s.AddTool(mcp.NewTool("get_pipeline_graph",
		mcp.WithDescription("Read the KPI pipeline for a site and return its full dependency graph: nodes, positioned layout, edges and the build report."),
		mcp.WithString("tenant", mcp.Description("Tenant to read from (defaults to the configured tenant).")),
		mcp.WithString("site", mcp.Description("Site (building) to read. Defaults to the configured site.")),
		mcp.WithString("filter", mcp.Description("Case-insensitive location name filter. Ancestor locations are always included.")),
		mcp.WithBoolean("validate", mcp.Description("Prune nodes whose catalog function is unavailable.")),
	), h.handleGetPipelineGraph)

	// --- 2. Tool: get_pipeline_layout ---
	s.AddTool(mcp.NewTool("get_pipeline_layout",
		mcp.WithDescription("Compute drawable positions for the pipeline graph: rank and order per node, grid coordinates and the edge list."),
		mcp.WithString("orientation", mcp.Description("Flow direction of the layout. Defaults to 'left-right'."), mcp.Enum("left-right", "top-down")),
		mcp.WithString("tenant", mcp.Description("Tenant to read from.")),
		mcp.WithString("site", mcp.Description("Site (building) to read.")),
		mcp.WithString("filter", mcp.Description("Case-insensitive location name filter.")),
	), h.handleGetPipelineLayout)

	// --- 3. Tool: get_node_closure ---
	s.AddTool(mcp.NewTool("get_node_closure",
		mcp.WithDescription("Inspect one pipeline node and return its transitive closure in the requested direction."),
		mcp.WithString("node", mcp.Description("Node reference as 'location/name', or a bare name when unique in the graph."), mcp.Required()),
		mcp.WithString("direction", mcp.Description("Closure direction: 'inputs' walks toward raw sources, 'dependents' toward final consumers. Defaults to 'inputs'."), mcp.Enum("inputs", "dependents")),
		mcp.WithString("tenant", mcp.Description("Tenant to read from.")),
		mcp.WithString("site", mcp.Description("Site (building) to read.")),
		mcp.WithString("filter", mcp.Description("Case-insensitive location name filter.")),
	), h.handleGetNodeClosure)

	// --- 4. Tool: get_processing_queue ---
	s.AddTool(mcp.NewTool("get_processing_queue",
		mcp.WithDescription("Return the rank-ordered processing queue: batches of derived nodes that can be evaluated once all earlier batches have run."),
		mcp.WithString("tenant", mcp.Description("Tenant to read from.")),
		mcp.WithString("site", mcp.Description("Site (building) to read.")),
		mcp.WithString("filter", mcp.Description("Case-insensitive location name filter.")),
	), h.handleGetProcessingQueue)

	return s
}

// StartMCPServer starts the KPI pipeline MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
