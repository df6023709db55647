package schema

// Exclusion records one node left out of the graph and why. The reason is
// one of the structural resolution errors (unresolved input, ambiguous
// reference, grain mismatch, cycle, unavailable function).
type Exclusion struct {
	Node   NodeID `json:"node"`
	Reason error  `json:"-"`
	Detail string `json:"detail"` // Reason rendered for serialization
}

// LocationFailure records one location whose metadata could not be read.
type LocationFailure struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
	Err        error  `json:"-"`
	Detail     string `json:"detail"`
}

// BuildReport summarizes what a pipeline read kept and what it dropped.
// Structural problems local to one node or location never abort the read;
// they land here instead.
type BuildReport struct {
	LocationsSelected int               `json:"locationsSelected"`
	LocationsLoaded   int               `json:"locationsLoaded"`
	NodesBuilt        int               `json:"nodesBuilt"`
	Exclusions        []Exclusion       `json:"exclusions,omitempty"`
	FailedLocations   []LocationFailure `json:"failedLocations,omitempty"`
}

// Clean reports whether the read completed without exclusions or failures.
func (r *BuildReport) Clean() bool {
	return len(r.Exclusions) == 0 && len(r.FailedLocations) == 0
}

// AddExclusion appends an excluded node with its reason.
func (r *BuildReport) AddExclusion(node NodeID, reason error) {
	r.Exclusions = append(r.Exclusions, Exclusion{Node: node, Reason: reason, Detail: reason.Error()})
}

// AddFailure appends a failed location with its cause.
func (r *BuildReport) AddFailure(locationID, name string, err error) {
	r.FailedLocations = append(r.FailedLocations, LocationFailure{
		LocationID: locationID,
		Name:       name,
		Err:        err,
		Detail:     err.Error(),
	})
}

// NodeInspection is the full picture of one node: its direct neighbors
// and both transitive closures.
type NodeInspection struct {
	Node        *KpiFunctionNode `json:"node"`
	Inputs      []NodeID         `json:"inputs,omitempty"`      // Direct inputs, definition order
	Dependents  []NodeID         `json:"dependents,omitempty"`  // Direct consumers
	Descendants []NodeID         `json:"descendants,omitempty"` // Everything the node consumes, transitively
	Ancestors   []NodeID         `json:"ancestors,omitempty"`   // Everything consuming the node, transitively
}
