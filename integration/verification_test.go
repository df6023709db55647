//go:build integration

// Package integration contains integration tests for kpitree.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpitree/kpitree/schema"
)

// TestRenderGraphVerification renders the fixture site as JSON and checks
// the document against counts derived independently from the fixture shape.
func TestRenderGraphVerification(t *testing.T) {
	doc := renderDocument(t, "")

	spaces := stubBuildings * stubFloorsPerBldg * stubSpacesPerFloor
	floors := stubBuildings * stubFloorsPerBldg

	// Each space yields a raw item plus its three-step chain; each floor
	// and building yields one rollup node.
	expectedNodes := spaces*4 + floors + stubBuildings
	// Three chain edges per space, one rollup edge per space and floor.
	expectedEdges := spaces*3 + spaces + floors

	require.Len(t, doc.Nodes, expectedNodes)
	require.Len(t, doc.Edges, expectedEdges)
	require.Len(t, doc.Placements, expectedNodes)

	require.NotNil(t, doc.Report)
	assert.Equal(t, stubLocationCount(), doc.Report.LocationsSelected)
	assert.Equal(t, stubLocationCount(), doc.Report.LocationsLoaded)
	assert.Equal(t, expectedNodes, doc.Report.NodesBuilt)
	assert.Empty(t, doc.Report.Exclusions)
	assert.Empty(t, doc.Report.FailedLocations)

	// Count nodes per role and verify rollup fan-in
	var rawCount, floorSums, buildingSums int
	for _, node := range doc.Nodes {
		switch {
		case node.Raw:
			rawCount++
			assert.Empty(t, node.Inputs, "raw node %s has inputs", node.ID)
		case node.ID.Name == "FloorSum":
			floorSums++
			assert.Len(t, node.Inputs, stubSpacesPerFloor, "fan-in of %s", node.ID)
		case node.ID.Name == "BuildingSum":
			buildingSums++
			assert.Len(t, node.Inputs, stubFloorsPerBldg, "fan-in of %s", node.ID)
		}
		assert.True(t, node.Available, "node %s should be available", node.ID)
	}
	assert.Equal(t, spaces, rawCount)
	assert.Equal(t, floors, floorSums)
	assert.Equal(t, stubBuildings, buildingSums)

	// Raw items sit at rank 0 and the building rollup tops the longest
	// path: raw, Rolling15, HourlyMax, DailyMax, FloorSum, BuildingSum.
	rankByID := make(map[schema.NodeID]int, len(doc.Placements))
	maxRank := 0
	for _, placed := range doc.Placements {
		rankByID[placed.ID] = placed.Rank
		if placed.Rank > maxRank {
			maxRank = placed.Rank
		}
	}
	assert.Equal(t, 5, maxRank)
	for _, node := range doc.Nodes {
		rank, ok := rankByID[node.ID]
		require.True(t, ok, "node %s has no placement", node.ID)
		if node.Raw {
			assert.Equal(t, 0, rank, "raw node %s should be a source", node.ID)
		}
		if node.ID.Name == "BuildingSum" {
			assert.Equal(t, 5, rank, "rollup %s should top the graph", node.ID)
		}
	}

	// Every edge must point at a later rank
	for _, edge := range doc.Edges {
		assert.Less(t, rankByID[edge.From], rankByID[edge.To],
			"edge %s -> %s goes backwards", edge.From, edge.To)
	}
}

// TestFilteredRenderVerification filters on a space name and checks that
// only the matching space chains survive, with the starved floor rollups
// reported as exclusions.
func TestFilteredRenderVerification(t *testing.T) {
	doc := renderDocument(t, "Space 1")

	// One "Space 1" per floor, a four-node chain each. The floors and the
	// building are widened in as ancestors; each FloorSum references an
	// unselected space and cannot resolve. BuildingSum resolves against
	// the floor definitions and stays, but its producers never made it
	// into the graph, so it contributes no edges.
	matched := stubBuildings * stubFloorsPerBldg
	require.Len(t, doc.Nodes, matched*4+stubBuildings)
	require.Len(t, doc.Edges, matched*3)

	for _, node := range doc.Nodes {
		if node.ID.Name == "BuildingSum" {
			continue
		}
		assert.Contains(t, node.ID.LocationID, "-s1",
			"node %s is outside the filtered spaces", node.ID)
	}
	for _, edge := range doc.Edges {
		assert.NotEqual(t, "BuildingSum", edge.To.Name,
			"edge %s -> %s should not be drawable", edge.From, edge.To)
	}

	require.NotNil(t, doc.Report)
	assert.Equal(t, matched+stubFloorsPerBldg*stubBuildings+stubBuildings, doc.Report.LocationsSelected)

	// One starved FloorSum per floor
	require.Len(t, doc.Report.Exclusions, stubFloorsPerBldg*stubBuildings)
	for _, exclusion := range doc.Report.Exclusions {
		assert.Equal(t, "FloorSum", exclusion.Node.Name)
		assert.NotEmpty(t, exclusion.Detail)
	}
}

// renderDocument runs a JSON render against the stub and parses the
// resulting graph document.
func renderDocument(t *testing.T, filter string) *schema.GraphDocument {
	t.Helper()

	baseURL := startPlatformStub(t)
	setPlatformEnv(t, baseURL)

	_ = os.Setenv("KPITREE_CACHE_BACKEND", "none")
	t.Cleanup(func() { _ = os.Unsetenv("KPITREE_CACHE_BACKEND") })

	outPath := filepath.Join(t.TempDir(), "graph.json")
	args := []string{"render"}
	if filter != "" {
		args = append(args, filter)
	}
	args = append(args, "--output", "json", "--output-file", outPath)

	_, err := runKpitree(t, args...)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var doc schema.GraphDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	return &doc
}
