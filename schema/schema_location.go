package schema

// LocationNode is one location in the spatial hierarchy. Locations form a
// strict tree: every node has at most one parent and the root has none.
type LocationNode struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Kind     LocationKind    `json:"kind"`
	ParentID string          `json:"parentId,omitempty"`
	Depth    int             `json:"depth"` // 0 for the building, 1 for floors, 2 for spaces
	Children []*LocationNode `json:"children,omitempty"`
}

// IsRoot reports whether the location has no parent.
func (l *LocationNode) IsRoot() bool {
	return l.ParentID == ""
}

// AddChild links a child location under l, keeping insertion order.
func (l *LocationNode) AddChild(child *LocationNode) {
	child.ParentID = l.ID
	child.Depth = l.Depth + 1
	l.Children = append(l.Children, child)
}

// Walk visits l and every descendant location depth first, parents before
// children, preserving child order.
func (l *LocationNode) Walk(visit func(*LocationNode)) {
	visit(l)
	for _, child := range l.Children {
		child.Walk(visit)
	}
}

// KindForDepth maps a hierarchy depth to the location kind used by the
// demo deployment templates.
func KindForDepth(depth int) LocationKind {
	switch depth {
	case 0:
		return BuildingKind
	case 1:
		return FloorKind
	default:
		return SpaceKind
	}
}
