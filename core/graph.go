package core

import (
	"sort"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// DependencyGraph is the resolved KPI computation graph for one reader run.
// Edges follow the depends-on direction: inputs[n] lists what n consumes,
// dependents[n] lists who consumes n. Adjacency entries may reference
// identities that are not (yet) present as nodes; edges become drawable
// once both endpoints exist.
//
// The graph is built sequentially by the pipeline reader and is not safe
// for concurrent mutation.
type DependencyGraph struct {
	nodes      map[schema.NodeID]*schema.KpiFunctionNode
	inputs     map[schema.NodeID][]schema.NodeID
	dependents map[schema.NodeID][]schema.NodeID
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:      make(map[schema.NodeID]*schema.KpiFunctionNode),
		inputs:     make(map[schema.NodeID][]schema.NodeID),
		dependents: make(map[schema.NodeID][]schema.NodeID),
	}
}

// Len returns the number of nodes in the graph.
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

// Has reports whether a node with the given identity is present.
func (g *DependencyGraph) Has(id schema.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given identity.
func (g *DependencyGraph) Node(id schema.NodeID) (*schema.KpiFunctionNode, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// AddNode inserts a node and wires its dependency edges. The insertion is
// atomic: a duplicate identity or a cycle rejects the node and leaves the
// graph exactly as it was.
//
// The cycle check answers "is this node reachable from any of its own
// inputs over the already-known adjacency". That covers both a direct
// self-reference and the case where an earlier node resolved one of its
// inputs to this identity before it existed.
func (g *DependencyGraph) AddNode(node *schema.KpiFunctionNode) error {
	if _, ok := g.nodes[node.ID]; ok {
		return &contract.DuplicateNodeError{Node: node.ID}
	}
	for _, input := range node.Inputs {
		if path := g.pathBetween(input, node.ID); path != nil {
			return &contract.CycleDetectedError{Node: node.ID, Path: path}
		}
	}

	g.nodes[node.ID] = node
	g.inputs[node.ID] = append([]schema.NodeID(nil), node.Inputs...)
	for _, input := range node.Inputs {
		g.dependents[input] = append(g.dependents[input], node.ID)
	}
	return nil
}

// Remove detaches a node from the graph. Consumers of the removed node
// keep their input reference; the edge simply stops being drawable, the
// same as an input whose producer never made it into the graph.
func (g *DependencyGraph) Remove(id schema.NodeID) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for _, input := range g.inputs[id] {
		g.dependents[input] = dropID(g.dependents[input], id)
		if len(g.dependents[input]) == 0 {
			delete(g.dependents, input)
		}
	}
	delete(g.inputs, id)
	delete(g.nodes, id)
	return true
}

// DescendantsOf returns every node the given node directly or transitively
// consumes, sorted. This is the full input closure: the set of items that
// must exist before the node can be evaluated.
func (g *DependencyGraph) DescendantsOf(id schema.NodeID) ([]schema.NodeID, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, &contract.NotFoundError{Kind: "node", Name: id.String()}
	}
	return g.closure(id, g.inputs), nil
}

// AncestorsOf returns every node that directly or transitively consumes
// the given node, sorted. This is the blast radius: everything that would
// break if the item changed or disappeared.
func (g *DependencyGraph) AncestorsOf(id schema.NodeID) ([]schema.NodeID, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, &contract.NotFoundError{Kind: "node", Name: id.String()}
	}
	return g.closure(id, g.dependents), nil
}

// Nodes returns all nodes sorted by identity.
func (g *DependencyGraph) Nodes() []*schema.KpiFunctionNode {
	nodes := make([]*schema.KpiFunctionNode, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID.Less(nodes[j].ID)
	})
	return nodes
}

// Sources returns the nodes with no inputs, sorted. These are the raw
// data items feeding the pipeline.
func (g *DependencyGraph) Sources() []*schema.KpiFunctionNode {
	var sources []*schema.KpiFunctionNode
	for _, node := range g.Nodes() {
		if len(g.inputs[node.ID]) == 0 {
			sources = append(sources, node)
		}
	}
	return sources
}

// InputsOf returns the direct inputs of a node that are present in the
// graph, in definition order.
func (g *DependencyGraph) InputsOf(id schema.NodeID) []schema.NodeID {
	var present []schema.NodeID
	for _, input := range g.inputs[id] {
		if _, ok := g.nodes[input]; ok {
			present = append(present, input)
		}
	}
	return present
}

// DependentsOf returns the direct consumers of a node, sorted.
func (g *DependencyGraph) DependentsOf(id schema.NodeID) []schema.NodeID {
	var present []schema.NodeID
	for _, dependent := range g.dependents[id] {
		if _, ok := g.nodes[dependent]; ok {
			present = append(present, dependent)
		}
	}
	sortNodeIDs(present)
	return present
}

// Edges returns every drawable edge, producer to consumer, sorted by
// producer then consumer. Edges whose producer was excluded from the
// graph are skipped.
func (g *DependencyGraph) Edges() []schema.LayoutEdge {
	var edges []schema.LayoutEdge
	for _, consumer := range g.Nodes() {
		for _, input := range g.inputs[consumer.ID] {
			producer, ok := g.nodes[input]
			if !ok {
				continue
			}
			edges = append(edges, schema.LayoutEdge{
				From:      producer.ID,
				To:        consumer.ID,
				Label:     consumer.FunctionName,
				Available: producer.Available && consumer.Available,
			})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From.Less(edges[j].From)
		}
		return edges[i].To.Less(edges[j].To)
	})
	return edges
}

// closure walks the given adjacency from id and collects every reachable
// identity that is present as a node, sorted. The start node itself is
// never part of its own closure.
func (g *DependencyGraph) closure(id schema.NodeID, adjacency map[schema.NodeID][]schema.NodeID) []schema.NodeID {
	seen := map[schema.NodeID]struct{}{id: {}}
	queue := []schema.NodeID{id}
	var result []schema.NodeID
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
			if _, ok := g.nodes[next]; ok {
				result = append(result, next)
			}
		}
	}
	sortNodeIDs(result)
	return result
}

// pathBetween walks depends-on edges from start looking for target and
// returns the chain start..target when one exists.
func (g *DependencyGraph) pathBetween(start, target schema.NodeID) []schema.NodeID {
	if start == target {
		return []schema.NodeID{start}
	}
	parent := make(map[schema.NodeID]schema.NodeID)
	seen := map[schema.NodeID]struct{}{start: {}}
	queue := []schema.NodeID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.inputs[current] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			parent[next] = current
			if next == target {
				chain := []schema.NodeID{target}
				for at := current; ; at = parent[at] {
					chain = append(chain, at)
					if at == start {
						break
					}
				}
				reverseNodeIDs(chain)
				return chain
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func sortNodeIDs(ids []schema.NodeID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Less(ids[j])
	})
}

func reverseNodeIDs(ids []schema.NodeID) {
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func dropID(ids []schema.NodeID, id schema.NodeID) []schema.NodeID {
	kept := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			kept = append(kept, candidate)
		}
	}
	return kept
}
