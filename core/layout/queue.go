package layout

import (
	"sort"

	"github.com/kpitree/kpitree/schema"
)

// ProcessingQueue groups the derived nodes into execution waves: batch N
// holds every derived node of rank N, evaluable once all earlier batches
// have run. Raw items are sources and need no evaluation, so they never
// appear in the queue.
func ProcessingQueue(graph Source) []schema.QueueBatch {
	ranks := rankNodes(graph)

	byRank := make(map[int][]schema.NodeID)
	for _, node := range graph.Nodes() {
		if node.Raw {
			continue
		}
		rank := ranks[node.ID]
		byRank[rank] = append(byRank[rank], node.ID)
	}

	levels := make([]int, 0, len(byRank))
	for rank := range byRank {
		levels = append(levels, rank)
	}
	sort.Ints(levels)

	batches := make([]schema.QueueBatch, 0, len(levels))
	for _, rank := range levels {
		// Nodes() iterates identity-sorted, so each batch is already
		// in name order.
		batches = append(batches, schema.QueueBatch{Rank: rank, Nodes: byRank[rank]})
	}
	return batches
}
