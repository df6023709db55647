// Package schema has models, constants and helpers for all parts of kpitree.
package schema

import "fmt"

// DataItemDescriptor describes one data item registered at a location.
// It is created when metadata is read and never mutated afterwards.
type DataItemDescriptor struct {
	Name      string   `json:"name"`                // Unique name within the owning location
	DataType  DataType `json:"dataType"`            // Value type (numeric, string, boolean, timestamp)
	Dimension string   `json:"dimension,omitempty"` // Optional dimension the item is sliced by
	Raw       bool     `json:"raw"`                 // True for sensor readings, false for derived items
	Grain     Grain    `json:"grain"`               // Temporal granularity of the item
}

// InputRef is one input reference of a KPI function definition. An empty
// LocationID means the reference is unqualified and must be resolved by
// searching the loaded catalogs.
type InputRef struct {
	LocationID string `json:"locationId,omitempty"`
	ItemName   string `json:"itemName"`
}

// String renders the reference in "location/item" form, or just the item
// name when unqualified.
func (r InputRef) String() string {
	if r.LocationID == "" {
		return r.ItemName
	}
	return r.LocationID + "/" + r.ItemName
}

// KpiFunctionDef is the raw definition of a KPI function instance as served
// by the platform, before resolution against the catalogs.
type KpiFunctionDef struct {
	Name         string             `json:"name"`         // Unique name within the owning location
	FunctionName string             `json:"functionName"` // Catalog function this instance runs
	Category     FunctionCategory   `json:"category"`     // Transformer, aggregator or alert
	Output       DataItemDescriptor `json:"output"`       // Data item the function produces
	Inputs       []InputRef         `json:"inputs"`       // Ordered input references
	Grain        Grain              `json:"grain"`        // Granularity the function evaluates at
	Enabled      bool               `json:"enabled"`      // Disabled definitions are skipped
}

// NodeID identifies a node in the dependency graph. Identity is the pair
// of owning location and item name.
type NodeID struct {
	LocationID string `json:"locationId"`
	Name       string `json:"name"`
}

// String renders the identity in "location/name" form.
func (id NodeID) String() string {
	return id.LocationID + "/" + id.Name
}

// Less orders identities by name then location, for deterministic output.
func (id NodeID) Less(other NodeID) bool {
	if id.Name != other.Name {
		return id.Name < other.Name
	}
	return id.LocationID < other.LocationID
}

// KpiFunctionNode is one node of the dependency graph: either a derived KPI
// function instance with resolved inputs, or a raw data item acting as a
// source node. Immutable once inserted into a graph.
type KpiFunctionNode struct {
	ID           NodeID             `json:"id"`
	FunctionName string             `json:"functionName,omitempty"` // Empty for raw source nodes
	Category     FunctionCategory   `json:"category,omitempty"`
	Output       DataItemDescriptor `json:"output"`
	Inputs       []NodeID           `json:"inputs,omitempty"` // Resolved, in definition order
	Grain        Grain              `json:"grain"`
	Raw          bool               `json:"raw"`       // True when the node is a raw data item
	Available    bool               `json:"available"` // False when the catalog function is missing
}

// NewRawNode wraps a raw data item as a source node for the graph.
func NewRawNode(locationID string, item DataItemDescriptor) *KpiFunctionNode {
	return &KpiFunctionNode{
		ID:        NodeID{LocationID: locationID, Name: item.Name},
		Output:    item,
		Grain:     item.Grain,
		Raw:       true,
		Available: true,
	}
}

// Site is one site of a tenant on the platform.
type Site struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CatalogFunction describes one function class registered in the function
// catalog (the pool of transformer/aggregator/alert implementations that
// KPI definitions can instantiate).
type CatalogFunction struct {
	Name     string           `json:"name"`
	Category FunctionCategory `json:"category"`
}

// FunctionCatalog is the explicit set of available catalog functions for
// one run. It replaces any notion of a process-wide registry: the catalog
// is a value handed to the pipeline reader.
type FunctionCatalog map[string]CatalogFunction

// Has reports whether the named function is available.
func (c FunctionCatalog) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// Add registers a function class, failing on duplicates.
func (c FunctionCatalog) Add(fn CatalogFunction) error {
	if _, ok := c[fn.Name]; ok {
		return fmt.Errorf("catalog function %q already registered", fn.Name)
	}
	c[fn.Name] = fn
	return nil
}

// Canned catalog function names used by the demo pipeline templates.
const (
	FuncRollingAverage = "RollingAverage"
	FuncWindowMax      = "WindowMax"
	FuncChildSum       = "ChildSum"
	FuncThresholdAlert = "ThresholdAlert"
)

// DefaultFunctionCatalog returns the catalog of function classes shipped
// with the demo pipeline deployment.
func DefaultFunctionCatalog() FunctionCatalog {
	return FunctionCatalog{
		FuncRollingAverage: {Name: FuncRollingAverage, Category: TransformerCategory},
		FuncWindowMax:      {Name: FuncWindowMax, Category: TransformerCategory},
		FuncChildSum:       {Name: FuncChildSum, Category: AggregatorCategory},
		FuncThresholdAlert: {Name: FuncThresholdAlert, Category: AlertCategory},
	}
}
