package layout

import (
	"sort"
	"testing"

	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGraph is a minimal Source for layout tests: nodes plus their input
// lists, with dependents and edges derived on demand.
type stubGraph struct {
	nodes  []*schema.KpiFunctionNode
	inputs map[schema.NodeID][]schema.NodeID
}

func newStubGraph() *stubGraph {
	return &stubGraph{inputs: make(map[schema.NodeID][]schema.NodeID)}
}

func (s *stubGraph) raw(name string) schema.NodeID {
	id := schema.NodeID{LocationID: "s1", Name: name}
	s.nodes = append(s.nodes, &schema.KpiFunctionNode{ID: id, Raw: true, Available: true})
	return id
}

func (s *stubGraph) derived(name string, inputs ...schema.NodeID) schema.NodeID {
	id := schema.NodeID{LocationID: "s1", Name: name}
	s.nodes = append(s.nodes, &schema.KpiFunctionNode{
		ID:           id,
		FunctionName: schema.FuncRollingAverage,
		Inputs:       inputs,
		Available:    true,
	})
	s.inputs[id] = inputs
	return id
}

func (s *stubGraph) Nodes() []*schema.KpiFunctionNode {
	sorted := append([]*schema.KpiFunctionNode(nil), s.nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.Less(sorted[j].ID) })
	return sorted
}

func (s *stubGraph) InputsOf(id schema.NodeID) []schema.NodeID {
	return s.inputs[id]
}

func (s *stubGraph) DependentsOf(id schema.NodeID) []schema.NodeID {
	var out []schema.NodeID
	for _, node := range s.Nodes() {
		for _, input := range s.inputs[node.ID] {
			if input == id {
				out = append(out, node.ID)
			}
		}
	}
	return out
}

func (s *stubGraph) Edges() []schema.LayoutEdge {
	var out []schema.LayoutEdge
	for _, node := range s.Nodes() {
		for _, input := range s.inputs[node.ID] {
			out = append(out, schema.LayoutEdge{
				From:      input,
				To:        node.ID,
				Label:     node.FunctionName,
				Available: true,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From.Less(out[j].From)
		}
		return out[i].To.Less(out[j].To)
	})
	return out
}

var _ Source = &stubGraph{} // Compile-time check

// chainGraph is the single-space derivation chain: a raw feed smoothed,
// then maxed hourly, then maxed daily.
func chainGraph() *stubGraph {
	g := newStubGraph()
	occupancy := g.raw("OccupancyCount")
	rolling := g.derived("Rolling15", occupancy)
	hourly := g.derived("HourlyMax", rolling)
	g.derived("DailyMax", hourly)
	return g
}

func TestRankNodesChain(t *testing.T) {
	ranks := rankNodes(chainGraph())
	want := map[string]int{
		"OccupancyCount": 0,
		"Rolling15":      1,
		"HourlyMax":      2,
		"DailyMax":       3,
	}
	for name, rank := range want {
		assert.Equal(t, rank, ranks[schema.NodeID{LocationID: "s1", Name: name}], name)
	}
}

func TestRankNodesUsesLongestPath(t *testing.T) {
	// Blend consumes the raw feed both directly and through the
	// smoothing stage; the longer path decides its layer.
	g := newStubGraph()
	raw := g.raw("Raw")
	smooth := g.derived("Smooth", raw)
	blend := g.derived("Blend", raw, smooth)

	ranks := rankNodes(g)
	assert.Equal(t, 0, ranks[raw])
	assert.Equal(t, 1, ranks[smooth])
	assert.Equal(t, 2, ranks[blend])
}

func TestRankNodesEveryEdgePointsForward(t *testing.T) {
	g := newStubGraph()
	occ := g.raw("Occupancy")
	temp := g.raw("Temperature")
	rolling := g.derived("Rolling", occ)
	comfort := g.derived("Comfort", temp, rolling)
	g.derived("Alert", comfort, occ)

	ranks := rankNodes(g)
	for _, edge := range g.Edges() {
		assert.Less(t, ranks[edge.From], ranks[edge.To],
			"%s -> %s must climb", edge.From, edge.To)
	}
}

func TestOrderRanksBarycenterFollowsInputs(t *testing.T) {
	// Name order alone would put Alpha before Beta. Alpha hangs under
	// the second source though, so the barycenter sweep flips them to
	// keep the edges straight.
	g := newStubGraph()
	g.raw("SourceA")
	srcB := g.derived("SourceB") // No inputs, rank 0, after SourceA by name
	alpha := g.derived("Alpha", srcB)
	g.derived("Beta", schema.NodeID{LocationID: "s1", Name: "SourceA"})

	ranks := rankNodes(g)
	ordered := orderRanks(g, ranks)
	require.Len(t, ordered, 2)
	assert.Equal(t, []schema.NodeID{
		{LocationID: "s1", Name: "SourceA"},
		{LocationID: "s1", Name: "SourceB"},
	}, ordered[0])
	assert.Equal(t, "Beta", ordered[1][0].Name)
	assert.Equal(t, alpha, ordered[1][1])
}

func TestOrderRanksBreaksTiesByName(t *testing.T) {
	g := newStubGraph()
	raw := g.raw("Raw")
	g.derived("Zeta", raw)
	g.derived("Alpha", raw)

	ordered := orderRanks(g, rankNodes(g))
	require.Len(t, ordered, 2)
	assert.Equal(t, "Alpha", ordered[1][0].Name)
	assert.Equal(t, "Zeta", ordered[1][1].Name)
}

func TestComputePlacements(t *testing.T) {
	g := chainGraph()

	t.Run("left-right runs ranks along x", func(t *testing.T) {
		result := Compute(g, schema.LeftRight)
		placement, ok := result.PlacementOf(schema.NodeID{LocationID: "s1", Name: "DailyMax"})
		require.True(t, ok)
		assert.Equal(t, 3, placement.Rank)
		assert.Equal(t, 0, placement.Order)
		assert.Equal(t, 3, placement.X)
		assert.Equal(t, 0, placement.Y)
	})

	t.Run("top-down is the transpose", func(t *testing.T) {
		leftRight := Compute(g, schema.LeftRight)
		topDown := Compute(g, schema.TopDown)
		require.Equal(t, len(leftRight.Placements), len(topDown.Placements))
		for id, lr := range leftRight.Placements {
			td, ok := topDown.PlacementOf(id)
			require.True(t, ok)
			assert.Equal(t, lr.Rank, td.Rank)
			assert.Equal(t, lr.Order, td.Order)
			assert.Equal(t, lr.X, td.Y, "%s transposes", id)
			assert.Equal(t, lr.Y, td.X, "%s transposes", id)
		}
	})

	t.Run("edges and ranks carry over", func(t *testing.T) {
		result := Compute(g, schema.LeftRight)
		assert.Equal(t, g.Edges(), result.Edges)
		assert.Len(t, result.Ranks, 4)
		for _, rank := range result.Ranks {
			assert.Len(t, rank, 1)
		}
	})
}

func TestComputeEmptyGraph(t *testing.T) {
	g := newStubGraph()
	result := Compute(g, schema.LeftRight)
	assert.Empty(t, result.Placements)
	assert.Empty(t, result.Ranks)
	assert.Empty(t, result.Edges)
}

func TestComputeIsDeterministic(t *testing.T) {
	g := newStubGraph()
	occ := g.raw("Occupancy")
	temp := g.raw("Temperature")
	for _, name := range []string{"A", "B", "C", "D"} {
		g.derived(name, occ, temp)
	}

	first := Compute(g, schema.LeftRight)
	second := Compute(g, schema.LeftRight)
	assert.Equal(t, first.Ranks, second.Ranks)
	assert.Equal(t, first.Placements, second.Placements)
}

func TestPlacementListFollowsRankOrder(t *testing.T) {
	result := Compute(chainGraph(), schema.LeftRight)
	list := result.PlacementList()
	require.Len(t, list, 4)
	assert.Equal(t, "OccupancyCount", list[0].ID.Name)
	assert.Equal(t, "DailyMax", list[3].ID.Name)
	for i, placed := range list {
		assert.Equal(t, i, placed.Rank)
	}
}

func TestProcessingQueueSkipsRawAndGroupsByRank(t *testing.T) {
	g := newStubGraph()
	occ := g.raw("Occupancy")
	temp := g.raw("Temperature")
	rolling := g.derived("Rolling", occ)
	comfort := g.derived("Comfort", temp)
	g.derived("Blend", rolling, comfort)

	batches := ProcessingQueue(g)
	require.Len(t, batches, 2)

	assert.Equal(t, 1, batches[0].Rank)
	assert.Equal(t, []schema.NodeID{
		{LocationID: "s1", Name: "Comfort"},
		{LocationID: "s1", Name: "Rolling"},
	}, batches[0].Nodes)

	assert.Equal(t, 2, batches[1].Rank)
	assert.Equal(t, []schema.NodeID{{LocationID: "s1", Name: "Blend"}}, batches[1].Nodes)
}

func TestProcessingQueueRawOnlyGraphIsEmpty(t *testing.T) {
	g := newStubGraph()
	g.raw("Occupancy")
	g.raw("Temperature")
	assert.Empty(t, ProcessingQueue(g))
}
