package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainKindLabel(t *testing.T) {
	tests := []struct {
		name     string
		node     *schema.KpiFunctionNode
		expected string
	}{
		{
			name:     "raw source node",
			node:     &schema.KpiFunctionNode{Raw: true},
			expected: RawValue,
		},
		{
			name:     "transformer node",
			node:     &schema.KpiFunctionNode{Category: schema.TransformerCategory},
			expected: TransformerValue,
		},
		{
			name:     "aggregator node",
			node:     &schema.KpiFunctionNode{Category: schema.AggregatorCategory},
			expected: AggregatorValue,
		},
		{
			name:     "alert node",
			node:     &schema.KpiFunctionNode{Category: schema.AlertCategory},
			expected: AlertValue,
		},
		{
			name:     "unknown category",
			node:     &schema.KpiFunctionNode{Category: schema.FunctionCategory("widget")},
			expected: UnknownValue,
		},
		{
			name:     "raw wins over category",
			node:     &schema.KpiFunctionNode{Raw: true, Category: schema.AlertCategory},
			expected: RawValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainKindLabel(tt.node))
		})
	}
}

func TestGetColorKindLabel(t *testing.T) {
	tests := []struct {
		name  string
		node  *schema.KpiFunctionNode
		label string
	}{
		{"raw", &schema.KpiFunctionNode{Raw: true}, RawValue},
		{"transformer", &schema.KpiFunctionNode{Category: schema.TransformerCategory}, TransformerValue},
		{"aggregator", &schema.KpiFunctionNode{Category: schema.AggregatorCategory}, AggregatorValue},
		{"alert", &schema.KpiFunctionNode{Category: schema.AlertCategory}, AlertValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorKindLabel(tt.node)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestAvailabilityLabels(t *testing.T) {
	assert.Equal(t, "ok", GetPlainAvailabilityLabel(true))
	assert.Equal(t, "missing", GetPlainAvailabilityLabel(false))
	assert.Contains(t, GetColorAvailabilityLabel(true), "ok")
	assert.Contains(t, GetColorAvailabilityLabel(false), "missing")
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "graph_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		// Verify file was created
		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestMatchesFilter(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		filter  string
		matches bool
	}{
		{
			name:    "empty filter matches everything",
			value:   "Floor 3",
			filter:  "",
			matches: true,
		},
		{
			name:    "case-insensitive substring",
			value:   "Floor 3",
			filter:  "floor",
			matches: true,
		},
		{
			name:    "substring in the middle",
			value:   "North Wing Floor",
			filter:  "wing",
			matches: true,
		},
		{
			name:    "no match",
			value:   "Room 301",
			filter:  "floor",
			matches: false,
		},
		{
			name:    "filter longer than value",
			value:   "HQ",
			filter:  "headquarters",
			matches: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, MatchesFilter(tt.value, tt.filter))
		})
	}
}

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		maxWidth int
		expected string
	}{
		{
			name:     "short path untouched",
			path:     "b1/f2",
			maxWidth: 20,
			expected: "b1/f2",
		},
		{
			name:     "long path gets ellipsis prefix",
			path:     "building-1/floor-2/space-21/temperature",
			maxWidth: 20,
			expected: "...ce-21/temperature",
		},
		{
			name:     "width too small to truncate",
			path:     "building-1/floor-2",
			maxWidth: 3,
			expected: "building-1/floor-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncatePath(tt.path, tt.maxWidth)
			assert.Equal(t, tt.expected, result)
			if tt.maxWidth > 3 {
				assert.LessOrEqual(t, len(result), tt.maxWidth)
			}
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    bool
		expectError bool
	}{
		{"true", "true", true, false},
		{"false", "false", false, false},
		{"yes", "yes", true, false},
		{"no", "no", false, false},
		{"one", "1", true, false},
		{"zero", "0", false, false},
		{"mixed case", "True", true, false},
		{"empty string", "", false, true},
		{"garbage", "maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseBoolString(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
