package schema

import (
	"strings"
	"testing"
)

// FuzzSanitizeNodeName fuzzes the diagram name sanitizer with arbitrary names.
func FuzzSanitizeNodeName(f *testing.F) {
	seeds := []string{
		"OccupancyCount",
		"Daily--Max",
		"  Floor Sum  ",
		"A----B",
		"",
		"--",
		"\t\n",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, name string) {
		out := SanitizeNodeName(name)
		if strings.Contains(out, "--") {
			t.Errorf("sanitized name %q still contains the edge operator", out)
		}
		if out != strings.TrimSpace(out) {
			t.Errorf("sanitized name %q has outer whitespace", out)
		}
		for _, r := range out {
			if r == ' ' || r == '\t' || r == '\n' {
				t.Errorf("sanitized name %q contains whitespace", out)
			}
		}
	})
}
