package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteQueueResults outputs the processing queue, dispatching based on the output format configured.
// Each batch holds the derived nodes of one rank; a batch can run once every
// earlier batch has finished.
func WriteQueueResults(batches []schema.QueueBatch, nodes []*schema.KpiFunctionNode, report *schema.BuildReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeQueueJSONResults(batches, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeQueueCSVResults(batches, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		// Default to human-readable table; diagram formats have no
		// meaningful queue rendition and fall back to it too
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeQueueTable(batches, nodes, report, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeQueueJSONResults handles opening the file and calling the JSON writer.
func writeQueueJSONResults(batches []schema.QueueBatch, cfg *contract.Config) error {
	// Prepare the envelope with the read scope attached
	type JSONQueueResult struct {
		GeneratedAt time.Time           `json:"generatedAt"`
		Tenant      string              `json:"tenant"`
		Site        string              `json:"site"`
		Filter      string              `json:"filter,omitempty"`
		Batches     []schema.QueueBatch `json:"batches"`
	}

	output := JSONQueueResult{
		GeneratedAt: time.Now(),
		Tenant:      cfg.Tenant,
		Site:        cfg.Site,
		Filter:      cfg.Filter,
		Batches:     batches,
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, output)
	}, "Wrote JSON")
}

// writeQueueCSVResults handles opening the file and calling the CSV writer.
func writeQueueCSVResults(batches []schema.QueueBatch, cfg *contract.Config) error {
	header := []string{"batch", "rank", "location", "name"}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			for i, batch := range batches {
				for _, id := range batch.Nodes {
					rec := []string{
						strconv.Itoa(i + 1),
						strconv.Itoa(batch.Rank),
						id.LocationID,
						id.Name,
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeQueueTable generates one table section per batch.
func writeQueueTable(batches []schema.QueueBatch, nodes []*schema.KpiFunctionNode, report *schema.BuildReport, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	byID := make(map[schema.NodeID]*schema.KpiFunctionNode, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}
	nameWidth := getMaxTableNameWidth(cfg)

	total := 0
	for i, batch := range batches {
		if _, err := fmt.Fprintf(writer, "Batch %d (rank %d, %d nodes)\n", i+1, batch.Rank, len(batch.Nodes)); err != nil {
			return err
		}

		table := tablewriter.NewWriter(writer)
		table.Header([]string{"Node", "Kind", "Function", "Grain"})

		var data [][]string
		for _, id := range batch.Nodes {
			node, ok := byID[id]
			if !ok {
				continue
			}
			data = append(data, []string{
				contract.TruncatePath(id.String(), nameWidth),
				kindLabel(node, cfg),
				node.FunctionName,
				string(node.Grain),
			})
			total++
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(writer, "Queued %d derived nodes in %d batches\n", total, len(batches)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Read completed in %v with %d workers. Cache backend: %s\n",
		duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return writeReportBlock(writer, report)
}
