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
	"github.com/olekukonko/tablewriter/tw"
)

// WriteGraphResults outputs the built graph, dispatching based on the output format configured.
func WriteGraphResults(nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult, report *schema.BuildReport, cfg *contract.Config, duration time.Duration) error {
	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeGraphJSONResults(nodes, layout, report, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeGraphCSVResults(nodes, layout, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MermaidOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := io.WriteString(w, BuildMermaid(nodes, layout))
			return err
		}, "Wrote mermaid"); err != nil {
			return fmt.Errorf("error writing mermaid output: %w", err)
		}
	case schema.DotOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := io.WriteString(w, BuildDot(nodes, layout))
			return err
		}, "Wrote dot"); err != nil {
			return fmt.Errorf("error writing dot output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeGraphTable(nodes, layout, report, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeGraphJSONResults handles opening the file and calling the JSON writer.
func writeGraphJSONResults(nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult, report *schema.BuildReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, schema.NewGraphDocument(cfg.Tenant, cfg.Site, cfg.Filter, nodes, layout, report))
	}, "Wrote JSON")
}

// writeGraphCSVResults handles opening the file and calling the CSV writer.
func writeGraphCSVResults(nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult, cfg *contract.Config) error {
	header := []string{
		"location",
		"name",
		"kind",
		"function",
		"grain",
		"status",
		"rank",
		"order",
		"x",
		"y",
		"inputs",
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			for _, node := range nodes {
				placement, _ := layout.PlacementOf(node.ID)
				rec := []string{
					node.ID.LocationID,
					node.ID.Name,
					contract.GetPlainKindLabel(node),
					node.FunctionName,
					string(node.Grain),
					contract.GetPlainAvailabilityLabel(node.Available),
					strconv.Itoa(placement.Rank),
					strconv.Itoa(placement.Order),
					strconv.Itoa(placement.X),
					strconv.Itoa(placement.Y),
					joinIDs(node.Inputs),
				}
				if err := csvWriter.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeGraphTable generates and writes the human-readable table.
func writeGraphTable(nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult, report *schema.BuildReport, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "Node", "Kind", "Grain", "Status", "Inputs"}
	table.Header(headers)

	// 2. Right-align the numeric columns
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.PerColumn = []tw.Align{tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignLeft, tw.AlignRight}
	})

	// 3. Populate Rows in rank-then-order sequence
	nameWidth := getMaxTableNameWidth(cfg)
	byID := make(map[schema.NodeID]*schema.KpiFunctionNode, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	var data [][]string
	for _, placed := range layout.PlacementList() {
		node, ok := byID[placed.ID]
		if !ok {
			continue
		}
		row := []string{
			strconv.Itoa(placed.Rank),
			contract.TruncatePath(node.ID.String(), nameWidth),
			kindLabel(node, cfg),
			string(node.Grain),
			availabilityLabel(node.Available, cfg),
			strconv.Itoa(len(node.Inputs)),
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Compute summary stats
	if _, err := fmt.Fprintf(writer, "Showing %d nodes across %d ranks (%d edges)\n",
		len(nodes), len(layout.Ranks), len(layout.Edges)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Read completed in %v with %d workers. Cache backend: %s\n",
		duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return writeReportBlock(writer, report)
}

// writeReportBlock appends the warning block for a non-clean read: every
// excluded node with its reason, then every failed location.
func writeReportBlock(w io.Writer, report *schema.BuildReport) error {
	if report == nil || report.Clean() {
		return nil
	}
	if len(report.Exclusions) > 0 {
		if _, err := fmt.Fprintf(w, "Excluded %d node(s):\n", len(report.Exclusions)); err != nil {
			return err
		}
		for _, ex := range report.Exclusions {
			if _, err := fmt.Fprintf(w, "  - %s: %s\n", ex.Node, ex.Detail); err != nil {
				return err
			}
		}
	}
	if len(report.FailedLocations) > 0 {
		if _, err := fmt.Fprintf(w, "Failed %d location(s):\n", len(report.FailedLocations)); err != nil {
			return err
		}
		for _, failure := range report.FailedLocations {
			if _, err := fmt.Fprintf(w, "  - %s (%s): %s\n", failure.LocationID, failure.Name, failure.Detail); err != nil {
				return err
			}
		}
	}
	return nil
}
