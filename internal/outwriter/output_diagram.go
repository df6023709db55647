package outwriter

import (
	"fmt"
	"strings"

	"github.com/kpitree/kpitree/schema"
)

// mermaidDirection maps a layout orientation to the mermaid graph keyword.
func mermaidDirection(orientation schema.Orientation) string {
	if orientation == schema.TopDown {
		return "TD"
	}
	return "LR"
}

// dotDirection maps a layout orientation to the graphviz rankdir value.
func dotDirection(orientation schema.Orientation) string {
	if orientation == schema.TopDown {
		return "TB"
	}
	return "LR"
}

// BuildMermaid renders the graph as mermaid flowchart source. Nodes appear
// rank by rank so the source reads in evaluation order, and edges whose
// consumer function is unavailable are highlighted. Exported because the
// web viewer embeds the same source in its page.
func BuildMermaid(nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", mermaidDirection(layout.Orientation))

	byID := make(map[schema.NodeID]*schema.KpiFunctionNode, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	for _, rank := range layout.Ranks {
		for _, id := range rank {
			if _, ok := byID[id]; !ok {
				continue
			}
			fmt.Fprintf(&b, "  %s[\"%s\"]\n", NodeKey(id), id)
		}
	}

	var unavailable []int
	for i, edge := range layout.Edges {
		if edge.Label != "" {
			fmt.Fprintf(&b, "  %s -- %s --> %s\n", NodeKey(edge.From), edge.Label, NodeKey(edge.To))
		} else {
			fmt.Fprintf(&b, "  %s --> %s\n", NodeKey(edge.From), NodeKey(edge.To))
		}
		if !edge.Available {
			unavailable = append(unavailable, i)
		}
	}

	for _, i := range unavailable {
		fmt.Fprintf(&b, "  linkStyle %d stroke:#ff3,stroke-width:4px\n", i)
	}
	return b.String()
}

// BuildDot renders the graph as graphviz DOT source with one rank=same
// group per layout rank.
func BuildDot(nodes []*schema.KpiFunctionNode, layout *schema.LayoutResult) string {
	var b strings.Builder
	b.WriteString("digraph pipeline {\n")
	fmt.Fprintf(&b, "  rankdir=%s;\n", dotDirection(layout.Orientation))
	b.WriteString("  node [shape=box];\n")

	byID := make(map[schema.NodeID]*schema.KpiFunctionNode, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	for _, rank := range layout.Ranks {
		for _, id := range rank {
			node, ok := byID[id]
			if !ok {
				continue
			}
			if node.Raw {
				fmt.Fprintf(&b, "  %s [label=\"%s\", style=filled];\n", NodeKey(id), id)
			} else {
				fmt.Fprintf(&b, "  %s [label=\"%s\"];\n", NodeKey(id), id)
			}
		}
	}

	for _, rank := range layout.Ranks {
		if len(rank) < 2 {
			continue
		}
		b.WriteString("  { rank=same;")
		for _, id := range rank {
			if _, ok := byID[id]; !ok {
				continue
			}
			fmt.Fprintf(&b, " %s;", NodeKey(id))
		}
		b.WriteString(" }\n")
	}

	for _, edge := range layout.Edges {
		attrs := fmt.Sprintf("label=%q", edge.Label)
		if edge.Label == "" {
			attrs = ""
		}
		if !edge.Available {
			if attrs != "" {
				attrs += ", "
			}
			attrs += "color=red, style=dashed"
		}
		if attrs != "" {
			fmt.Fprintf(&b, "  %s -> %s [%s];\n", NodeKey(edge.From), NodeKey(edge.To), attrs)
		} else {
			fmt.Fprintf(&b, "  %s -> %s;\n", NodeKey(edge.From), NodeKey(edge.To))
		}
	}

	b.WriteString("}\n")
	return b.String()
}
