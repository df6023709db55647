package schema

import "strings"

// SanitizeNodeName makes a data item name safe for diagram syntaxes.
// A literal "--" inside a name collides with the mermaid edge operator,
// so it becomes "__"; whitespace becomes single underscores.
func SanitizeNodeName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "--", "__")
	return strings.Join(strings.Fields(s), "_")
}

// NodeKey renders a graph-unique diagram identifier for a node identity.
func NodeKey(id NodeID) string {
	return SanitizeNodeName(id.LocationID) + "_" + SanitizeNodeName(id.Name)
}
