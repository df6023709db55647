package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// WriteNodeInspection displays one node with its neighbors and closures,
// dispatching based on the output format configured.
func WriteNodeInspection(inspection *schema.NodeInspection, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, inspection)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeInspectionCSVResults(inspection, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeInspectionText(w, inspection)
		}, "Wrote text")
	}
}

// writeInspectionCSVResults flattens the inspection into relation rows.
func writeInspectionCSVResults(inspection *schema.NodeInspection, cfg *contract.Config) error {
	header := []string{"relation", "location", "name"}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			writeRelation := func(relation string, ids []schema.NodeID) error {
				for _, id := range ids {
					if err := csvWriter.Write([]string{relation, id.LocationID, id.Name}); err != nil {
						return err
					}
				}
				return nil
			}

			node := inspection.Node
			if err := csvWriter.Write([]string{"self", node.ID.LocationID, node.ID.Name}); err != nil {
				return err
			}
			if err := writeRelation("input", inspection.Inputs); err != nil {
				return err
			}
			if err := writeRelation("dependent", inspection.Dependents); err != nil {
				return err
			}
			if err := writeRelation("descendant", inspection.Descendants); err != nil {
				return err
			}
			return writeRelation("ancestor", inspection.Ancestors)
		})
	}, "Wrote CSV")
}

// writeInspectionText displays the inspection in human-readable text format.
func writeInspectionText(w io.Writer, inspection *schema.NodeInspection) error {
	node := inspection.Node
	if _, err := fmt.Fprintf(w, "%s\n", node.ID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", underline(len(node.ID.String()))); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Kind:     %s\n", contract.GetPlainKindLabel(node)); err != nil {
		return err
	}
	if node.FunctionName != "" {
		if _, err := fmt.Fprintf(w, "Function: %s\n", node.FunctionName); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Grain:    %s\n", node.Grain); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Status:   %s\n", contract.GetPlainAvailabilityLabel(node.Available)); err != nil {
		return err
	}

	sections := []struct {
		title string
		ids   []schema.NodeID
	}{
		{"Inputs", inspection.Inputs},
		{"Dependents", inspection.Dependents},
		{"Descendants", inspection.Descendants},
		{"Ancestors", inspection.Ancestors},
	}
	for _, section := range sections {
		if _, err := fmt.Fprintf(w, "\n%s (%d):\n", section.title, len(section.ids)); err != nil {
			return err
		}
		if len(section.ids) == 0 {
			if _, err := fmt.Fprintf(w, "  (none)\n"); err != nil {
				return err
			}
			continue
		}
		for _, id := range section.ids {
			if _, err := fmt.Fprintf(w, "  - %s\n", id); err != nil {
				return err
			}
		}
	}
	return nil
}

// underline builds a separator line of the given width.
func underline(n int) string {
	line := make([]byte, n)
	for i := range line {
		line[i] = '='
	}
	return string(line)
}
