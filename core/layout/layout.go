// Package layout positions a dependency graph on an integer grid: nodes
// are layered by longest path from a source, ordered within each layer to
// keep edges short, and mapped to coordinates for the chosen orientation.
package layout

import (
	"github.com/kpitree/kpitree/schema"
)

// Source is the read side of a dependency graph the layout needs. The
// core graph satisfies it.
type Source interface {
	// Nodes returns all nodes sorted by identity.
	Nodes() []*schema.KpiFunctionNode

	// InputsOf returns the direct inputs of a node present in the graph.
	InputsOf(id schema.NodeID) []schema.NodeID

	// DependentsOf returns the direct consumers of a node, sorted.
	DependentsOf(id schema.NodeID) []schema.NodeID

	// Edges returns every drawable edge, producer to consumer, sorted.
	Edges() []schema.LayoutEdge
}

// Compute lays out the graph for one orientation. The ranked structure is
// orientation-independent; left-right and top-down placements are
// transposes of each other.
func Compute(graph Source, orientation schema.Orientation) *schema.LayoutResult {
	ranks := rankNodes(graph)
	ordered := orderRanks(graph, ranks)

	result := &schema.LayoutResult{
		Orientation: orientation,
		Placements:  make(map[schema.NodeID]schema.Placement),
		Edges:       graph.Edges(),
		Ranks:       ordered,
	}
	for rank, ids := range ordered {
		for order, id := range ids {
			placement := schema.Placement{Rank: rank, Order: order}
			if orientation == schema.TopDown {
				placement.X, placement.Y = order, rank
			} else {
				placement.X, placement.Y = rank, order
			}
			result.Placements[id] = placement
		}
	}
	return result
}
