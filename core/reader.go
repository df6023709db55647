package core

import (
	"context"
	"sort"
	"sync"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// PipelineResult is everything a read produces: the dependency graph, the
// locations it covers, and the report of what was dropped along the way.
type PipelineResult struct {
	Graph     *DependencyGraph
	Locations []*schema.LocationNode
	Report    *schema.BuildReport
}

// PipelineReader builds the dependency graph for a tenant/site scope. One
// reader serves one invocation; nothing is shared across runs except the
// catalog store behind it.
type PipelineReader struct {
	cfg   *contract.Config
	src   contract.MetadataSource
	store contract.CatalogStore
}

// NewPipelineReader wires a reader to its metadata source and, when the
// cache manager has one, a catalog store.
func NewPipelineReader(cfg *contract.Config, src contract.MetadataSource, mgr contract.CacheManager) *PipelineReader {
	var store contract.CatalogStore
	if mgr != nil {
		store = mgr.GetCatalogStore()
	}
	return &PipelineReader{cfg: cfg, src: src, store: store}
}

// Read builds the graph for the configured tenant, site and filter.
//
// Locations are selected by case-insensitive substring match on their
// names, then widened with every ancestor so aggregation parents stay
// visible. Metadata is fetched on a worker pool (pass 1); nodes are built
// and inserted sequentially in sorted location order (pass 2), so the same
// metadata always yields the same graph.
//
// Per-location fetch failures and per-node build failures never abort the
// read; they land in the report. Only two things are fatal: the site
// lookup itself failing, and every selected location failing to load.
func (r *PipelineReader) Read(ctx context.Context) (*PipelineResult, error) {
	locations, err := r.src.ListLocations(ctx, r.cfg.Tenant, r.cfg.Site)
	if err != nil {
		return nil, err
	}

	selected := selectLocations(locations, r.cfg.Filter)
	report := &schema.BuildReport{LocationsSelected: len(selected)}
	if len(selected) == 0 {
		return &PipelineResult{
			Graph:  NewDependencyGraph(),
			Report: report,
		}, nil
	}

	catalogs := r.fetchCatalogs(ctx, selected, report)
	if len(report.FailedLocations) == len(selected) {
		return nil, &contract.PartialFetchError{Failures: report.FailedLocations}
	}
	report.LocationsLoaded = catalogs.Len()

	graph := r.buildGraph(locations, catalogs, report)
	if r.cfg.Validate {
		pruneUnavailable(graph, report)
	}
	report.NodesBuilt = graph.Len()

	return &PipelineResult{
		Graph:     graph,
		Locations: selected,
		Report:    report,
	}, nil
}

// fetchCatalogs is pass 1: load every selected location's metadata on a
// bounded worker pool. Failures are collected, not returned.
func (r *PipelineReader) fetchCatalogs(ctx context.Context, selected []*schema.LocationNode, report *schema.BuildReport) *CatalogSet {
	catalogs := NewCatalogSet()
	var mu sync.Mutex

	locCh := make(chan *schema.LocationNode, len(selected))
	var wg sync.WaitGroup
	for range r.cfg.Workers {
		wg.Go(func() {
			for loc := range locCh {
				catalog, err := loadLocationCatalog(ctx, r.cfg, r.src, r.store, loc)
				mu.Lock()
				if err != nil {
					report.AddFailure(loc.ID, loc.Name, err)
				} else if err := catalogs.Add(catalog); err != nil {
					report.AddFailure(loc.ID, loc.Name, err)
				}
				mu.Unlock()
			}
		})
	}
	for _, loc := range selected {
		locCh <- loc
	}
	close(locCh)
	wg.Wait()

	// Pool scheduling is nondeterministic, so fix the report order here.
	sort.Slice(report.FailedLocations, func(i, j int) bool {
		return report.FailedLocations[i].LocationID < report.FailedLocations[j].LocationID
	})
	return catalogs
}

// buildGraph is pass 2: index every producer, then turn raw items into
// source nodes and definitions into derived nodes, one sorted catalog at
// a time. Rejected nodes are excluded and reported; everything else is
// unaffected by them.
func (r *PipelineReader) buildGraph(locations []*schema.LocationNode, catalogs *CatalogSet, report *schema.BuildReport) *DependencyGraph {
	builder := NewNodeBuilder(locations)
	ordered := catalogs.Ordered()
	for _, catalog := range ordered {
		builder.RegisterCatalog(catalog.Location.ID, catalog.Items, catalog.Defs)
	}

	graph := NewDependencyGraph()
	for _, catalog := range ordered {
		for _, item := range catalog.Items {
			if !item.Raw {
				continue
			}
			node := schema.NewRawNode(catalog.Location.ID, item)
			if err := graph.AddNode(node); err != nil {
				report.AddExclusion(node.ID, err)
			}
		}
	}
	for _, catalog := range ordered {
		for _, def := range catalog.Defs {
			if !def.Enabled {
				continue
			}
			node, err := builder.BuildNode(catalog.Location.ID, def)
			if err != nil {
				report.AddExclusion(schema.NodeID{LocationID: catalog.Location.ID, Name: def.Name}, err)
				continue
			}
			node.Available = r.cfg.Catalog.Has(node.FunctionName)
			if err := graph.AddNode(node); err != nil {
				report.AddExclusion(node.ID, err)
			}
		}
	}
	return graph
}

// selectLocations filters the hierarchy by name and widens the match with
// every ancestor, returning the selection in canonical order.
func selectLocations(locations []*schema.LocationNode, filter string) []*schema.LocationNode {
	byID := make(map[string]*schema.LocationNode, len(locations))
	for _, loc := range locations {
		byID[loc.ID] = loc
	}

	keep := make(map[string]struct{})
	for _, loc := range locations {
		if !contract.MatchesFilter(loc.Name, filter) {
			continue
		}
		for id := loc.ID; id != ""; {
			if _, ok := keep[id]; ok {
				break
			}
			keep[id] = struct{}{}
			parent, ok := byID[id]
			if !ok {
				break
			}
			id = parent.ParentID
		}
	}

	selected := make([]*schema.LocationNode, 0, len(keep))
	for id := range keep {
		if loc, ok := byID[id]; ok {
			selected = append(selected, loc)
		}
	}
	sortLocations(selected)
	return selected
}

// pruneUnavailable removes every node whose catalog function is missing,
// plus everything computed from it, recording each removal.
func pruneUnavailable(graph *DependencyGraph, report *schema.BuildReport) {
	doomed := make(map[schema.NodeID]error)
	for _, node := range graph.Nodes() {
		if node.Raw || node.Available {
			continue
		}
		doomed[node.ID] = &contract.UnavailableFunctionError{
			Node:         node.ID,
			FunctionName: node.FunctionName,
		}
	}
	// Ancestors fall with their culprit, unless they are culprits
	// themselves and already carry their own reason.
	for _, culprit := range sortedIDs(doomed) {
		ancestors, err := graph.AncestorsOf(culprit)
		if err != nil {
			continue
		}
		for _, ancestor := range ancestors {
			if _, ok := doomed[ancestor]; !ok {
				doomed[ancestor] = doomed[culprit]
			}
		}
	}

	for _, id := range sortedIDs(doomed) {
		graph.Remove(id)
		report.AddExclusion(id, doomed[id])
	}
}

func sortedIDs(set map[schema.NodeID]error) []schema.NodeID {
	ids := make([]schema.NodeID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortNodeIDs(ids)
	return ids
}
