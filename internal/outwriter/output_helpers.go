package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return csvWriter.Error()
}

// NodeKey renders a node identity as a diagram-safe identifier. Mermaid and
// DOT identifiers cannot carry slashes, spaces or quotes.
func NodeKey(id schema.NodeID) string {
	return SanitizeNodeName(id.LocationID) + "_" + SanitizeNodeName(id.Name)
}

// SanitizeNodeName strips every character that is not safe inside a diagram
// identifier, replacing runs of them with a single underscore.
func SanitizeNodeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		safe := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		switch {
		case safe:
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return b.String()
}

// kindLabel picks the colored or plain kind label per config.
func kindLabel(node *schema.KpiFunctionNode, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorKindLabel(node)
	}
	return contract.GetPlainKindLabel(node)
}

// availabilityLabel picks the colored or plain availability label per config.
func availabilityLabel(available bool, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorAvailabilityLabel(available)
	}
	return contract.GetPlainAvailabilityLabel(available)
}

// joinIDs renders node identities as a compact pipe-separated list.
func joinIDs(ids []schema.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, "|")
}
