package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queueFixture() ([]schema.QueueBatch, []*schema.KpiFunctionNode) {
	nodes, _ := graphFixture()
	batches := []schema.QueueBatch{
		{Rank: 1, Nodes: []schema.NodeID{nodes[2].ID}},
		{Rank: 2, Nodes: []schema.NodeID{nodes[0].ID}},
	}
	return batches, nodes
}

func TestWriteQueueTable(t *testing.T) {
	batches, nodes := queueFixture()
	cfg := writerConfig(schema.TableOut)

	var buf bytes.Buffer
	err := writeQueueTable(batches, nodes, nil, cfg, 10*time.Millisecond, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Batch 1 (rank 1, 1 nodes)")
	assert.Contains(t, out, "Batch 2 (rank 2, 1 nodes)")
	assert.Contains(t, out, "s1/Rolling15")
	assert.Contains(t, out, "s1/HourlyMax")
	assert.Contains(t, out, "Queued 2 derived nodes in 2 batches")
	assert.Contains(t, out, "Cache backend: none")

	// Raw sources never queue
	assert.NotContains(t, out, "OccupancyCount")
}

func TestWriteQueueTableSkipsUnknownNodes(t *testing.T) {
	batches, nodes := queueFixture()
	batches = append(batches, schema.QueueBatch{
		Rank:  3,
		Nodes: []schema.NodeID{{LocationID: "s9", Name: "Ghost"}},
	})

	var buf bytes.Buffer
	err := writeQueueTable(batches, nodes, nil, writerConfig(schema.TableOut), time.Millisecond, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Batch 3 (rank 3, 1 nodes)")
	assert.NotContains(t, out, "Ghost")
	assert.Contains(t, out, "Queued 2 derived nodes in 3 batches")
}

func TestWriteQueueResultsJSON(t *testing.T) {
	batches, nodes := queueFixture()
	cfg := writerConfig(schema.JSONOut)
	cfg.Filter = "floor-1"
	cfg.OutputFile = filepath.Join(t.TempDir(), "queue.json")

	err := WriteQueueResults(batches, nodes, nil, cfg, time.Millisecond)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var got struct {
		Tenant  string `json:"tenant"`
		Site    string `json:"site"`
		Filter  string `json:"filter"`
		Batches []struct {
			Rank  int `json:"rank"`
			Nodes []struct {
				LocationID string `json:"locationId"`
				Name       string `json:"name"`
			} `json:"nodes"`
		} `json:"batches"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))

	assert.Equal(t, "campus", got.Site)
	assert.Equal(t, "floor-1", got.Filter)
	require.Len(t, got.Batches, 2)
	assert.Equal(t, 1, got.Batches[0].Rank)
	require.Len(t, got.Batches[0].Nodes, 1)
	assert.Equal(t, "Rolling15", got.Batches[0].Nodes[0].Name)
	assert.Equal(t, "s1", got.Batches[0].Nodes[0].LocationID)
}

func TestWriteQueueResultsCSV(t *testing.T) {
	batches, nodes := queueFixture()
	cfg := writerConfig(schema.CSVOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "queue.csv")

	err := WriteQueueResults(batches, nodes, nil, cfg, time.Millisecond)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "batch,rank,location,name", lines[0])
	assert.Equal(t, "1,1,s1,Rolling15", lines[1])
	assert.Equal(t, "2,2,s1,HourlyMax", lines[2])
}

func TestWriteQueueResultsDiagramFallsBackToTable(t *testing.T) {
	batches, nodes := queueFixture()
	cfg := writerConfig(schema.MermaidOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "queue.txt")

	err := WriteQueueResults(batches, nodes, nil, cfg, time.Millisecond)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Queued 2 derived nodes in 2 batches")
}
