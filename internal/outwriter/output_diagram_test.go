package outwriter

import (
	"strings"
	"testing"

	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMermaid(t *testing.T) {
	nodes, layout := graphFixture()

	out := BuildMermaid(nodes, layout)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	assert.Equal(t, "graph LR", lines[0])
	assert.Contains(t, out, `s1_OccupancyCount["s1/OccupancyCount"]`)
	assert.Contains(t, out, `s1_Rolling15["s1/Rolling15"]`)
	assert.Contains(t, out, "s1_OccupancyCount -- RollingAverage --> s1_Rolling15")
	assert.Contains(t, out, "s1_Rolling15 -- WindowMax --> s1_HourlyMax")

	// Only the edge into the unavailable consumer is highlighted
	assert.Contains(t, out, "linkStyle 1 stroke:#ff3,stroke-width:4px")
	assert.NotContains(t, out, "linkStyle 0")
}

func TestBuildMermaidTopDown(t *testing.T) {
	nodes, layout := graphFixture()
	layout.Orientation = schema.TopDown

	out := BuildMermaid(nodes, layout)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
}

func TestBuildMermaidNodeOrderFollowsRanks(t *testing.T) {
	nodes, layout := graphFixture()

	out := BuildMermaid(nodes, layout)
	occ := strings.Index(out, `s1_OccupancyCount["`)
	rolling := strings.Index(out, `s1_Rolling15["`)
	require.GreaterOrEqual(t, occ, 0)
	require.GreaterOrEqual(t, rolling, 0)
	assert.Less(t, occ, rolling, "source nodes should be declared first")
}

func TestBuildDot(t *testing.T) {
	nodes, layout := graphFixture()

	out := BuildDot(nodes, layout)
	assert.True(t, strings.HasPrefix(out, "digraph pipeline {\n"))
	assert.Contains(t, out, "rankdir=LR;")
	assert.Contains(t, out, `s1_OccupancyCount [label="s1/OccupancyCount", style=filled];`)
	assert.Contains(t, out, `s1_Rolling15 [label="s1/Rolling15"];`)
	assert.Contains(t, out, `s1_OccupancyCount -> s1_Rolling15 [label="RollingAverage"];`)
	assert.Contains(t, out, `s1_Rolling15 -> s1_HourlyMax [label="WindowMax", color=red, style=dashed];`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestBuildDotTopDown(t *testing.T) {
	nodes, layout := graphFixture()
	layout.Orientation = schema.TopDown

	out := BuildDot(nodes, layout)
	assert.Contains(t, out, "rankdir=TB;")
}

func TestBuildDotRankGroups(t *testing.T) {
	nodes, layout := graphFixture()

	// Single-node ranks need no grouping
	out := BuildDot(nodes, layout)
	assert.NotContains(t, out, "rank=same")

	// Put both derived nodes on one rank
	layout.Ranks = [][]schema.NodeID{
		{nodes[1].ID},
		{nodes[2].ID, nodes[0].ID},
	}
	out = BuildDot(nodes, layout)
	assert.Contains(t, out, "{ rank=same; s1_Rolling15; s1_HourlyMax; }")
}

func TestSanitizeNodeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already safe", input: "Rolling15", want: "Rolling15"},
		{name: "slash", input: "s1/Rolling15", want: "s1_Rolling15"},
		{name: "spaces collapse", input: "Office  21", want: "Office_21"},
		{name: "mixed punctuation", input: "max(temp)-v2", want: "max_temp_v2"},
		{name: "unicode stripped", input: "büro", want: "b_ro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeNodeName(tt.input))
		})
	}
}

func TestNodeKey(t *testing.T) {
	id := schema.NodeID{LocationID: "floor 1", Name: "Daily Max"}
	assert.Equal(t, "floor_1_Daily_Max", NodeKey(id))
}
