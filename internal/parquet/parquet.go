// Package parquet exports pipeline read snapshots to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kpitree/kpitree/schema"
	"github.com/parquet-go/parquet-go"
)

// File names written by WriteSnapshot inside the target directory.
const (
	RunsFileName  = "kpitree_runs.parquet"
	NodesFileName = "kpitree_nodes.parquet"
	EdgesFileName = "kpitree_edges.parquet"
)

// RunRecord represents one pipeline read with its scope and totals.
// This struct maps to the kpitree_run_history database table.
type RunRecord struct {
	// RunID is the run-history identifier (0 when history is disabled)
	RunID int64 `parquet:"run_id,snappy"`

	// Tenant is the tenant the read ran against
	Tenant string `parquet:"tenant,snappy"`

	// Site is the site that was read
	Site string `parquet:"site,snappy"`

	// Filter is the location selection filter (nullable, nil reads the whole site)
	Filter *string `parquet:"filter,optional,snappy"`

	// Orientation is the layout orientation the run rendered with
	Orientation string `parquet:"orientation,snappy"`

	// NodeCount is the number of nodes in the built graph
	NodeCount int32 `parquet:"node_count,snappy"`

	// EdgeCount is the number of edges in the built graph
	EdgeCount int32 `parquet:"edge_count,snappy"`

	// ExclusionCount is the number of nodes excluded by resolution problems
	ExclusionCount int32 `parquet:"exclusion_count,snappy"`

	// FailureCount is the number of locations whose metadata read failed
	FailureCount int32 `parquet:"failure_count,snappy"`

	// DurationMs is the wall-clock duration of the read in milliseconds
	DurationMs int64 `parquet:"duration_ms,snappy"`

	// CreatedAt is when the read ran (stored as TIMESTAMP with nanosecond precision)
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// NodeRecord represents one graph node together with its layout placement.
type NodeRecord struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// LocationID and Name identify the node
	LocationID string `parquet:"location_id,snappy"`
	Name       string `parquet:"name,snappy"`

	// FunctionName is the catalog function the node runs (nullable, nil for raw items)
	FunctionName *string `parquet:"function_name,optional,snappy"`

	// Category is the function category (nullable, nil for raw items)
	Category *string `parquet:"category,optional,snappy"`

	// Grain is the temporal granularity the node evaluates at
	Grain string `parquet:"grain,snappy"`

	// Raw is true when the node is a raw data item
	Raw bool `parquet:"raw,snappy"`

	// Available is false when the catalog function is missing
	Available bool `parquet:"available,snappy"`

	// Rank and Order position the node in the layered layout
	Rank  int32 `parquet:"rank,snappy"`
	Order int32 `parquet:"order,snappy"`

	// X and Y are the grid coordinates after orientation transpose
	X int32 `parquet:"x,snappy"`
	Y int32 `parquet:"y,snappy"`
}

// EdgeRecord represents one dependency edge of the graph.
type EdgeRecord struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// FromLocationID and FromName identify the producing node
	FromLocationID string `parquet:"from_location_id,snappy"`
	FromName       string `parquet:"from_name,snappy"`

	// ToLocationID and ToName identify the consuming node
	ToLocationID string `parquet:"to_location_id,snappy"`
	ToName       string `parquet:"to_name,snappy"`

	// Label is the consumer function name shown on the edge (nullable)
	Label *string `parquet:"label,optional,snappy"`

	// Available is false when the consumer function is missing from the catalog
	Available bool `parquet:"available,snappy"`
}

// WriteSnapshot writes one pipeline read as a set of Parquet files inside
// dir, creating the directory if needed. The three files share the run ID
// so warehouse joins line up.
func WriteSnapshot(dir string, run schema.RunRecord, nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult) error {
	if dir == "" {
		return errors.New("parquet directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create parquet directory: %w", err)
	}

	if err := WriteRunsParquet([]RunRecord{ConvertRun(run)}, filepath.Join(dir, RunsFileName)); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	if err := WriteNodesParquet(ConvertNodes(run.RunID, nodes, layout), filepath.Join(dir, NodesFileName)); err != nil {
		return fmt.Errorf("failed to write nodes: %w", err)
	}

	var edges []schema.LayoutEdge
	if layout != nil {
		edges = layout.Edges
	}
	if err := WriteEdgesParquet(ConvertEdges(run.RunID, edges), filepath.Join(dir, EdgesFileName)); err != nil {
		return fmt.Errorf("failed to write edges: %w", err)
	}
	return nil
}

// WriteRunsParquet writes run rows to a Parquet file.
func WriteRunsParquet(data []RunRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteNodesParquet writes node rows to a Parquet file.
func WriteNodesParquet(data []NodeRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteEdgesParquet writes edge rows to a Parquet file.
func WriteEdgesParquet(data []EdgeRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows to outputPath, inferring the Parquet schema from
// the row struct tags. The footer lands on Close, so its error matters.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertRun converts a run-history record for Parquet export.
func ConvertRun(run schema.RunRecord) RunRecord {
	out := RunRecord{
		RunID:          run.RunID,
		Tenant:         run.Tenant,
		Site:           run.Site,
		Orientation:    string(run.Orientation),
		NodeCount:      int32(run.NodeCount),
		EdgeCount:      int32(run.EdgeCount),
		ExclusionCount: int32(run.ExclusionCount),
		FailureCount:   int32(run.FailureCount),
		DurationMs:     run.DurationMs,
		CreatedAt:      run.CreatedAt,
	}
	if run.Filter != "" {
		out.Filter = &run.Filter
	}
	return out
}

// ConvertNodes flattens graph nodes with their placements into export rows.
// Nodes missing from the layout keep zero placements.
func ConvertNodes(runID int64, nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult) []NodeRecord {
	result := make([]NodeRecord, len(nodes))
	for i, node := range nodes {
		rec := NodeRecord{
			RunID:      runID,
			LocationID: node.ID.LocationID,
			Name:       node.ID.Name,
			Grain:      string(node.Grain),
			Raw:        node.Raw,
			Available:  node.Available,
		}
		if node.FunctionName != "" {
			name := node.FunctionName
			rec.FunctionName = &name
		}
		if node.Category != "" {
			category := string(node.Category)
			rec.Category = &category
		}
		if layout != nil {
			if p, ok := layout.Placements[node.ID]; ok {
				rec.Rank = int32(p.Rank)
				rec.Order = int32(p.Order)
				rec.X = int32(p.X)
				rec.Y = int32(p.Y)
			}
		}
		result[i] = rec
	}
	return result
}

// ConvertEdges converts layout edges into export rows.
func ConvertEdges(runID int64, edges []schema.LayoutEdge) []EdgeRecord {
	result := make([]EdgeRecord, len(edges))
	for i, edge := range edges {
		rec := EdgeRecord{
			RunID:          runID,
			FromLocationID: edge.From.LocationID,
			FromName:       edge.From.Name,
			ToLocationID:   edge.To.LocationID,
			ToName:         edge.To.Name,
			Available:      edge.Available,
		}
		if edge.Label != "" {
			label := edge.Label
			rec.Label = &label
		}
		result[i] = rec
	}
	return result
}
