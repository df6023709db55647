package contract

import (
	"fmt"
	"strings"

	"github.com/kpitree/kpitree/schema"
)

// NotFoundError signals that a tenant, site or location has no data.
// It is recoverable and treated as "no results" by callers.
type NotFoundError struct {
	Kind string // What was looked up: "site", "location", "data items", ...
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// UnresolvedInputError signals that a KPI function references an input item
// that cannot be located anywhere in the visible hierarchy. The node is
// excluded from the graph and construction continues.
type UnresolvedInputError struct {
	Node schema.NodeID
	Ref  schema.InputRef
}

func (e *UnresolvedInputError) Error() string {
	return fmt.Sprintf("node %s: input %q does not resolve to any known data item", e.Node, e.Ref)
}

// AmbiguousReferenceError signals that an unqualified input name resolves to
// more than one equally-close candidate. The node is excluded.
type AmbiguousReferenceError struct {
	Node       schema.NodeID
	Ref        schema.InputRef
	Candidates []schema.NodeID
}

func (e *AmbiguousReferenceError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.String()
	}
	return fmt.Sprintf("node %s: input %q is ambiguous between %s", e.Node, e.Ref, strings.Join(names, ", "))
}

// GrainMismatchError signals that a derived node declares a grain finer
// than one of its derived inputs. Raw inputs are exempt from the rule.
type GrainMismatchError struct {
	Node       schema.NodeID
	Input      schema.NodeID
	NodeGrain  schema.Grain
	InputGrain schema.Grain
}

func (e *GrainMismatchError) Error() string {
	return fmt.Sprintf("node %s: grain %s is finer than derived input %s at grain %s",
		e.Node, e.NodeGrain, e.Input, e.InputGrain)
}

// CycleDetectedError signals that inserting a node would create a cycle.
// The node is rejected and the graph is left unchanged; this indicates
// malformed upstream configuration rather than a bug in the graph code.
type CycleDetectedError struct {
	Node schema.NodeID
	Path []schema.NodeID // Dependency chain leading back to Node, when known
}

func (e *CycleDetectedError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("node %s: insertion would create a cycle", e.Node)
	}
	steps := make([]string, len(e.Path))
	for i, p := range e.Path {
		steps[i] = p.String()
	}
	return fmt.Sprintf("node %s: insertion would create a cycle via %s", e.Node, strings.Join(steps, " -> "))
}

// DuplicateNodeError signals that a node identity is already present in the
// graph. The graph is left unchanged.
type DuplicateNodeError struct {
	Node schema.NodeID
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %s already exists in the graph", e.Node)
}

// UnavailableFunctionError signals that a node instantiates a catalog
// function that is not registered. In validate mode the node and everything
// computed from it are excluded.
type UnavailableFunctionError struct {
	Node         schema.NodeID
	FunctionName string
}

func (e *UnavailableFunctionError) Error() string {
	return fmt.Sprintf("node %s: catalog function %q is not available", e.Node, e.FunctionName)
}

// PartialFetchError reports locations whose metadata could not be
// retrieved. It aborts the read only when every selected location failed.
type PartialFetchError struct {
	Failures []schema.LocationFailure
}

func (e *PartialFetchError) Error() string {
	if len(e.Failures) == 1 {
		return fmt.Sprintf("metadata fetch failed for location %s: %v", e.Failures[0].Name, e.Failures[0].Err)
	}
	return fmt.Sprintf("metadata fetch failed for %d locations", len(e.Failures))
}

// APIError carries a non-2xx platform response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("platform returned status %d: %s", e.Status, body)
}
