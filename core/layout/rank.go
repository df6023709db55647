package layout

import (
	"sort"

	"github.com/kpitree/kpitree/schema"
)

// rankNodes assigns every node the length of the longest path reaching it
// from a source: sources sit at rank 0 and every edge points from a lower
// rank to a strictly higher one. Kahn-style traversal; the graph is a DAG
// by construction, so the queue always drains.
func rankNodes(graph Source) map[schema.NodeID]int {
	nodes := graph.Nodes()
	ranks := make(map[schema.NodeID]int, len(nodes))
	pending := make(map[schema.NodeID]int, len(nodes))

	var queue []schema.NodeID
	for _, node := range nodes {
		inputs := len(graph.InputsOf(node.ID))
		pending[node.ID] = inputs
		if inputs == 0 {
			ranks[node.ID] = 0
			queue = append(queue, node.ID)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, consumer := range graph.DependentsOf(current) {
			if next := ranks[current] + 1; next > ranks[consumer] {
				ranks[consumer] = next
			}
			pending[consumer]--
			if pending[consumer] == 0 {
				queue = append(queue, consumer)
			}
		}
	}
	return ranks
}

// orderRanks fixes the intra-rank order with a single forward barycenter
// sweep: rank 0 is ordered by name, and every later rank by the mean
// position of each node's inputs, ties broken by name. One pass is enough
// for the shallow fan-in these pipelines have.
func orderRanks(graph Source, ranks map[schema.NodeID]int) [][]schema.NodeID {
	if len(ranks) == 0 {
		return [][]schema.NodeID{}
	}
	maxRank := 0
	for _, rank := range ranks {
		if rank > maxRank {
			maxRank = rank
		}
	}
	byRank := make([][]schema.NodeID, maxRank+1)
	for _, node := range graph.Nodes() {
		rank := ranks[node.ID]
		byRank[rank] = append(byRank[rank], node.ID)
	}

	// Nodes() is identity-sorted, so rank 0 is already in name order.
	position := make(map[schema.NodeID]float64, len(ranks))
	for order, id := range byRank[0] {
		position[id] = float64(order)
	}

	for rank := 1; rank <= maxRank; rank++ {
		ids := byRank[rank]
		barycenters := make(map[schema.NodeID]float64, len(ids))
		for _, id := range ids {
			barycenters[id] = meanPosition(graph.InputsOf(id), position)
		}
		sort.Slice(ids, func(i, j int) bool {
			if barycenters[ids[i]] != barycenters[ids[j]] {
				return barycenters[ids[i]] < barycenters[ids[j]]
			}
			return ids[i].Less(ids[j])
		})
		for order, id := range ids {
			position[id] = float64(order)
		}
	}
	return byRank
}

// meanPosition averages the already-fixed positions of a node's inputs.
func meanPosition(inputs []schema.NodeID, position map[schema.NodeID]float64) float64 {
	if len(inputs) == 0 {
		return 0
	}
	var sum float64
	for _, input := range inputs {
		sum += position[input]
	}
	return sum / float64(len(inputs))
}
