package schema

import "time"

// Placement is the drawable position of one node: its layer, its slot
// within the layer, and the resulting grid coordinates for the chosen
// orientation.
type Placement struct {
	Rank  int `json:"rank"`  // Layer index, 0 for source nodes
	Order int `json:"order"` // Slot within the layer after crossing reduction
	X     int `json:"x"`
	Y     int `json:"y"`
}

// LayoutEdge is one drawable edge. From is the producing node, To the
// consuming node, so every edge points from a lower rank to a higher one.
type LayoutEdge struct {
	From      NodeID `json:"from"`
	To        NodeID `json:"to"`
	Label     string `json:"label,omitempty"` // Function name of the consumer
	Available bool   `json:"available"`       // False when the consumer's function is missing
}

// LayoutResult is the positioned form of a dependency graph for one
// orientation. Derived per render call and discarded afterwards.
type LayoutResult struct {
	Orientation Orientation          `json:"orientation"`
	Placements  map[NodeID]Placement `json:"-"`
	Edges       []LayoutEdge         `json:"edges"`
	Ranks       [][]NodeID           `json:"ranks"` // Node identities per rank, in intra-rank order
}

// PlacedNode pairs a node identity with its placement, for serialization
// (a NodeID cannot be a JSON object key).
type PlacedNode struct {
	ID NodeID `json:"id"`
	Placement
}

// PlacementOf returns the placement for a node identity.
func (r *LayoutResult) PlacementOf(id NodeID) (Placement, bool) {
	p, ok := r.Placements[id]
	return p, ok
}

// PlacementList flattens the placement map in rank-then-order sequence.
func (r *LayoutResult) PlacementList() []PlacedNode {
	out := make([]PlacedNode, 0, len(r.Placements))
	for _, rank := range r.Ranks {
		for _, id := range rank {
			if p, ok := r.Placements[id]; ok {
				out = append(out, PlacedNode{ID: id, Placement: p})
			}
		}
	}
	return out
}

// QueueBatch is one wave of the processing queue: every derived node of a
// rank, evaluable once all earlier batches have run.
type QueueBatch struct {
	Rank  int      `json:"rank"`
	Nodes []NodeID `json:"nodes"`
}

// GraphDocument is the serializable form of one pipeline read: the nodes,
// the positioned layout and the build report, together with the scope that
// produced them. Shared by JSON output, the web viewer API and the MCP
// tools.
type GraphDocument struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Tenant      string             `json:"tenant"`
	Site        string             `json:"site"`
	Filter      string             `json:"filter,omitempty"`
	Orientation Orientation        `json:"orientation"`
	Nodes       []*KpiFunctionNode `json:"nodes"`
	Placements  []PlacedNode       `json:"placements"`
	Edges       []LayoutEdge       `json:"edges"`
	Report      *BuildReport       `json:"report"`
}

// NewGraphDocument assembles the document for one read.
func NewGraphDocument(tenant, site, filter string, nodes []*KpiFunctionNode, layout *LayoutResult, report *BuildReport) *GraphDocument {
	return &GraphDocument{
		GeneratedAt: time.Now(),
		Tenant:      tenant,
		Site:        site,
		Filter:      filter,
		Orientation: layout.Orientation,
		Nodes:       nodes,
		Placements:  layout.PlacementList(),
		Edges:       layout.Edges,
		Report:      report,
	}
}
