package mcp_test

import (
	"context"
	"testing"

	"github.com/kpitree/kpitree/internal/contract"
	mcp_internal "github.com/kpitree/kpitree/internal/mcp"
	"github.com/kpitree/kpitree/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServerRegistersTools(t *testing.T) {
	baseCfg := &contract.Config{
		Tenant:      "acme",
		Site:        "campus",
		Orientation: schema.LeftRight,
	}

	var mgr contract.CacheManager
	s := mcp_internal.NewMCPServer(baseCfg, mgr)

	for _, name := range []string{
		"get_pipeline_graph",
		"get_pipeline_layout",
		"get_node_closure",
		"get_processing_queue",
	} {
		tool := s.GetTool(name)
		require.NotNil(t, tool, "Tool %s should exist", name)
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	// No BaseURL: every tool that reaches for the platform must fail
	// before any network activity.
	baseCfg := &contract.Config{
		Tenant:      "acme",
		Site:        "campus",
		Orientation: schema.LeftRight,
	}

	var mgr contract.CacheManager
	s := mcp_internal.NewMCPServer(baseCfg, mgr)

	ctx := context.Background()

	t.Run("get_pipeline_graph without platform", func(t *testing.T) {
		tool := s.GetTool("get_pipeline_graph")
		require.NotNil(t, tool, "Tool get_pipeline_graph should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "get_pipeline_graph",
				Arguments: map[string]any{
					"site": "campus",
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "platform base URL is not configured")
	})

	t.Run("get_pipeline_layout invalid orientation", func(t *testing.T) {
		tool := s.GetTool("get_pipeline_layout")
		require.NotNil(t, tool, "Tool get_pipeline_layout should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "get_pipeline_layout",
				Arguments: map[string]any{
					"orientation": "diagonal", // Invalid
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid orientation")
	})

	t.Run("get_node_closure missing node", func(t *testing.T) {
		tool := s.GetTool("get_node_closure")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "get_node_closure",
				Arguments: map[string]any{
					"node": "", // Missing required
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "node reference is required")
	})

	t.Run("get_node_closure invalid direction", func(t *testing.T) {
		tool := s.GetTool("get_node_closure")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "get_node_closure",
				Arguments: map[string]any{
					"node":      "s1/Rolling15",
					"direction": "sideways", // Invalid
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid direction")
	})

	t.Run("get_processing_queue without platform", func(t *testing.T) {
		tool := s.GetTool("get_processing_queue")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_processing_queue",
				Arguments: map[string]any{},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "platform base URL is not configured")
	})
}
