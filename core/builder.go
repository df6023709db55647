package core

import (
	"sort"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// unreachableDistance ranks candidates in a different location tree below
// every candidate reachable through parent links.
const unreachableDistance = 1 << 30

// producerEntry is one resolvable data item: the identity of the node that
// produces it plus what the resolver needs to know about it.
type producerEntry struct {
	ID    schema.NodeID
	Raw   bool
	Grain schema.Grain
}

// NodeBuilder resolves KPI function definitions into graph nodes. It holds
// the location tree for distance ranking and an index of every data item
// the loaded catalogs can serve as an input.
//
// A builder is created per reader run and populated once, in sorted
// location order, before any node is built.
type NodeBuilder struct {
	locations map[string]*schema.LocationNode
	byName    map[string][]producerEntry      // item name -> producers, registration order
	qualified map[schema.NodeID]producerEntry // (location, item name) -> producer
}

// NewNodeBuilder returns a builder over the given location tree.
func NewNodeBuilder(locations []*schema.LocationNode) *NodeBuilder {
	index := make(map[string]*schema.LocationNode, len(locations))
	for _, loc := range locations {
		index[loc.ID] = loc
	}
	return &NodeBuilder{
		locations: index,
		byName:    make(map[string][]producerEntry),
		qualified: make(map[schema.NodeID]producerEntry),
	}
}

// RegisterCatalog indexes one location's producers: every raw data item,
// and the output item of every enabled definition. Definitions are indexed
// under their output item name, since that is what inputs reference.
func (b *NodeBuilder) RegisterCatalog(locationID string, items []schema.DataItemDescriptor, defs []schema.KpiFunctionDef) {
	for _, item := range items {
		if !item.Raw {
			continue // derived items are indexed through their definition
		}
		b.register(item.Name, producerEntry{
			ID:    schema.NodeID{LocationID: locationID, Name: item.Name},
			Raw:   true,
			Grain: item.Grain,
		})
	}
	for _, def := range defs {
		if !def.Enabled {
			continue
		}
		b.register(def.Output.Name, producerEntry{
			ID:    schema.NodeID{LocationID: locationID, Name: def.Name},
			Grain: def.Grain,
		})
	}
}

// register adds a producer under the given item name. Item names are
// unique per location, so a second producer for the same (location, name)
// pair is dropped and the first registration stays authoritative.
func (b *NodeBuilder) register(itemName string, entry producerEntry) {
	key := schema.NodeID{LocationID: entry.ID.LocationID, Name: itemName}
	if _, ok := b.qualified[key]; ok {
		return
	}
	b.qualified[key] = entry
	b.byName[itemName] = append(b.byName[itemName], entry)
}

// BuildNode resolves a definition's inputs against the index and returns
// the graph node. Resolution failures return the typed error for the
// report; the definition is then excluded and construction continues.
func (b *NodeBuilder) BuildNode(locationID string, def schema.KpiFunctionDef) (*schema.KpiFunctionNode, error) {
	id := schema.NodeID{LocationID: locationID, Name: def.Name}
	inputs := make([]schema.NodeID, 0, len(def.Inputs))
	for _, ref := range def.Inputs {
		producer, err := b.resolveInput(id, ref)
		if err != nil {
			return nil, err
		}
		// A node may only coarsen: evaluating finer than a derived input
		// would demand values the input never produces. Raw items are
		// sampled at the source and are exempt.
		if !producer.Raw && !def.Grain.AtLeastAsCoarseAs(producer.Grain) {
			return nil, &contract.GrainMismatchError{
				Node:       id,
				Input:      producer.ID,
				NodeGrain:  def.Grain,
				InputGrain: producer.Grain,
			}
		}
		inputs = append(inputs, producer.ID)
	}
	return &schema.KpiFunctionNode{
		ID:           id,
		FunctionName: def.FunctionName,
		Category:     def.Category,
		Output:       def.Output,
		Inputs:       inputs,
		Grain:        def.Grain,
	}, nil
}

// resolveInput maps one input reference to its producer. A qualified
// reference is looked up only at the named location. An unqualified one is
// searched across all registered catalogs, ranked by undirected tree
// distance from the referencing node's location; the closest candidate
// wins and a tie at the minimal distance is ambiguous.
func (b *NodeBuilder) resolveInput(node schema.NodeID, ref schema.InputRef) (producerEntry, error) {
	if ref.LocationID != "" {
		entry, ok := b.qualified[schema.NodeID{LocationID: ref.LocationID, Name: ref.ItemName}]
		if !ok {
			return producerEntry{}, &contract.UnresolvedInputError{Node: node, Ref: ref}
		}
		return entry, nil
	}

	candidates := b.byName[ref.ItemName]
	switch len(candidates) {
	case 0:
		return producerEntry{}, &contract.UnresolvedInputError{Node: node, Ref: ref}
	case 1:
		return candidates[0], nil
	}

	bestDistance := unreachableDistance + 1
	var best []producerEntry
	for _, candidate := range candidates {
		distance := b.treeDistance(node.LocationID, candidate.ID.LocationID)
		switch {
		case distance < bestDistance:
			bestDistance = distance
			best = append(best[:0], candidate)
		case distance == bestDistance:
			best = append(best, candidate)
		}
	}
	if len(best) > 1 {
		ids := make([]schema.NodeID, len(best))
		for i, candidate := range best {
			ids[i] = candidate.ID
		}
		sortNodeIDs(ids)
		return producerEntry{}, &contract.AmbiguousReferenceError{Node: node, Ref: ref, Candidates: ids}
	}
	return best[0], nil
}

// treeDistance is the undirected path length between two locations in the
// hierarchy: 0 for the same location, 1 for a parent or child, and so on.
// Locations without a common root are unreachable from each other.
func (b *NodeBuilder) treeDistance(fromID, toID string) int {
	if fromID == toID {
		return 0
	}

	hops := make(map[string]int)
	id, steps := fromID, 0
	for id != "" {
		hops[id] = steps
		loc, ok := b.locations[id]
		if !ok {
			break
		}
		id = loc.ParentID
		steps++
	}

	id, steps = toID, 0
	for id != "" {
		if up, ok := hops[id]; ok {
			return up + steps
		}
		loc, ok := b.locations[id]
		if !ok {
			break
		}
		id = loc.ParentID
		steps++
	}
	return unreachableDistance
}

// ProducersNamed returns the identities able to serve an item name, sorted.
// The inspect command uses this to explain how a reference resolved.
func (b *NodeBuilder) ProducersNamed(itemName string) []schema.NodeID {
	entries := b.byName[itemName]
	ids := make([]schema.NodeID, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	sortNodeIDs(ids)
	return ids
}

// sortLocations orders locations by depth, then name, then ID, the order
// every pass and report uses.
func sortLocations(locations []*schema.LocationNode) {
	sort.Slice(locations, func(i, j int) bool {
		if locations[i].Depth != locations[j].Depth {
			return locations[i].Depth < locations[j].Depth
		}
		if locations[i].Name != locations[j].Name {
			return locations[i].Name < locations[j].Name
		}
		return locations[i].ID < locations[j].ID
	})
}
