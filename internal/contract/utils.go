package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kpitree/kpitree/schema"
)

// Node kind label constants.
const (
	RawValue         = "Raw"         // Raw sensor item
	TransformerValue = "Transformer" // Derives one stream from another
	AggregatorValue  = "Aggregator"  // Combines child-location streams
	AlertValue       = "Alert"       // Fires on threshold breaches
	UnknownValue     = "Unknown"     // Category missing or unrecognized
)

// Color variables for console output.
var (
	RawColor         = color.New(color.FgYellow)            // rawColor marks pipeline sources.
	TransformerColor = color.New(color.FgCyan)              // transformerColor marks in-place derivations.
	AggregatorColor  = color.New(color.FgMagenta)           // aggregatorColor marks cross-location rollups.
	AlertColor       = color.New(color.FgRed, color.Bold)   // alertColor marks alerting nodes.
	MissingColor     = color.New(color.FgRed, color.Bold)   // missingColor marks unavailable functions.
	OKColor          = color.New(color.FgGreen)             // okColor marks available functions.
)

// GetPlainKindLabel returns a plain text label for a node's role in the
// pipeline. This is the core logic used for CSV, JSON, and table printing.
func GetPlainKindLabel(node *schema.KpiFunctionNode) string {
	if node.Raw {
		return RawValue
	}
	switch node.Category {
	case schema.TransformerCategory:
		return TransformerValue
	case schema.AggregatorCategory:
		return AggregatorValue
	case schema.AlertCategory:
		return AlertValue
	default:
		return UnknownValue
	}
}

// GetColorKindLabel returns a colored text label for console output (table).
// It uses GetPlainKindLabel to determine the string, and then applies the
// appropriate color.
func GetColorKindLabel(node *schema.KpiFunctionNode) string {
	text := GetPlainKindLabel(node)

	switch text {
	case RawValue:
		return RawColor.Sprint(text)
	case TransformerValue:
		return TransformerColor.Sprint(text)
	case AggregatorValue:
		return AggregatorColor.Sprint(text)
	case AlertValue:
		return AlertColor.Sprint(text)
	default:
		return text
	}
}

// GetPlainAvailabilityLabel returns "ok" or "missing" for a node's catalog
// function availability.
func GetPlainAvailabilityLabel(available bool) string {
	if available {
		return "ok"
	}
	return "missing"
}

// GetColorAvailabilityLabel returns the availability label colored for
// console output.
func GetColorAvailabilityLabel(available bool) string {
	if available {
		return OKColor.Sprint("ok")
	}
	return MissingColor.Sprint("missing")
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// MatchesFilter reports whether a location name matches the selection
// filter: case-insensitive substring, with the empty filter matching
// everything.
func MatchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// TruncatePath truncates a location path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at
// least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
