// Package core has core logic for catalog loading, dependency resolution
// and pipeline graph builds.
package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kpitree/kpitree/core/layout"
	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/internal/outwriter"
	"github.com/kpitree/kpitree/internal/parquet"
	"github.com/kpitree/kpitree/internal/platform"
	"github.com/kpitree/kpitree/schema"
)

// ExecutorFunc defines the function signature for executing pipeline commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ReadPipeline connects to the platform and builds the dependency graph
// for the configured scope. This is the shared read path behind the CLI,
// the web viewer and the MCP server.
func ReadPipeline(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*PipelineResult, error) {
	if err := cfg.RequirePlatform(); err != nil {
		return nil, err
	}
	src := platform.NewClient(cfg)
	reader := NewPipelineReader(cfg, src, mgr)
	return reader.Read(ctx)
}

// ExecuteRenderGraph reads the pipeline, lays it out and writes it in the
// configured output format. It serves as the main entry point for the
// 'render' command.
func ExecuteRenderGraph(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	outwriter.LogReadHeader(cfg)

	result, err := ReadPipeline(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	layoutResult := layout.Compute(result.Graph, cfg.Orientation)
	duration := time.Since(start)

	if err := outwriter.WriteGraphResults(result.Graph.Nodes(), layoutResult, result.Report, cfg, duration); err != nil {
		return err
	}
	run := recordRun(mgr, cfg, result, len(layoutResult.Edges), duration)
	if cfg.ParquetDir != "" {
		if err := parquet.WriteSnapshot(cfg.ParquetDir, run, result.Graph.Nodes(), layoutResult); err != nil {
			return fmt.Errorf("parquet export failed: %w", err)
		}
	}
	return nil
}

// ExecuteProcessingQueue reads the pipeline and writes the rank-ordered
// execution batches. It serves as the main entry point for the 'queue'
// command.
func ExecuteProcessingQueue(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	outwriter.LogReadHeader(cfg)

	result, err := ReadPipeline(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	batches := layout.ProcessingQueue(result.Graph)
	duration := time.Since(start)

	if err := outwriter.WriteQueueResults(batches, result.Graph.Nodes(), result.Report, cfg, duration); err != nil {
		return err
	}
	recordRun(mgr, cfg, result, len(result.Graph.Edges()), duration)
	return nil
}

// InspectNode reads the pipeline and assembles one node's descriptor,
// neighbors and closures. The reference is "location/name", or a bare
// name when it is unique in the graph.
func InspectNode(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, nodeRef string) (*schema.NodeInspection, error) {
	result, err := ReadPipeline(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	id, err := findNode(result.Graph, nodeRef)
	if err != nil {
		return nil, err
	}

	node, _ := result.Graph.Node(id)
	descendants, err := result.Graph.DescendantsOf(id)
	if err != nil {
		return nil, err
	}
	ancestors, err := result.Graph.AncestorsOf(id)
	if err != nil {
		return nil, err
	}
	return &schema.NodeInspection{
		Node:        node,
		Inputs:      result.Graph.InputsOf(id),
		Dependents:  result.Graph.DependentsOf(id),
		Descendants: descendants,
		Ancestors:   ancestors,
	}, nil
}

// ExecuteInspectNode writes one node's inspection in the configured output
// format. It serves as the main entry point for the 'inspect' command.
func ExecuteInspectNode(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, nodeRef string) error {
	inspection, err := InspectNode(ctx, cfg, mgr, nodeRef)
	if err != nil {
		return err
	}
	return outwriter.WriteNodeInspection(inspection, cfg)
}

// ExecuteDeploy registers the canned demo pipeline over the selected
// locations, or prints the plan in dry-run mode.
func ExecuteDeploy(ctx context.Context, cfg *contract.Config) error {
	plans, client, err := planForScope(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outwriter.WriteDeployPlan(plans, cfg); err != nil {
		return err
	}
	if cfg.DryRun {
		return nil
	}
	outcome := Deploy(ctx, client, plans)
	return outwriter.WriteDeployOutcome(outcome, "Registered", cfg)
}

// ExecuteTeardown unregisters the canned demo pipeline from the selected
// locations, leaves first, or prints the plan in dry-run mode.
func ExecuteTeardown(ctx context.Context, cfg *contract.Config) error {
	plans, client, err := planForScope(ctx, cfg)
	if err != nil {
		return err
	}
	if err := outwriter.WriteDeployPlan(plans, cfg); err != nil {
		return err
	}
	if cfg.DryRun {
		return nil
	}
	outcome := Teardown(ctx, client, plans)
	return outwriter.WriteDeployOutcome(outcome, "Unregistered", cfg)
}

// planForScope lists the site hierarchy, applies the filter and maps the
// templates over the selection.
func planForScope(ctx context.Context, cfg *contract.Config) ([]schema.DeployPlan, *platform.Client, error) {
	if err := cfg.RequirePlatform(); err != nil {
		return nil, nil, err
	}
	client := platform.NewClient(cfg)
	locations, err := client.ListLocations(ctx, cfg.Tenant, cfg.Site)
	if err != nil {
		return nil, nil, err
	}
	selected := selectLocations(locations, cfg.Filter)
	return PlanDeployment(selected), client, nil
}

// findNode resolves a node reference against the graph. A reference with
// a slash is an exact identity; a bare name must match exactly one node.
func findNode(graph *DependencyGraph, nodeRef string) (schema.NodeID, error) {
	if locationID, name, ok := strings.Cut(nodeRef, "/"); ok {
		id := schema.NodeID{LocationID: locationID, Name: name}
		if !graph.Has(id) {
			return schema.NodeID{}, &contract.NotFoundError{Kind: "node", Name: nodeRef}
		}
		return id, nil
	}

	var matches []schema.NodeID
	for _, node := range graph.Nodes() {
		if node.ID.Name == nodeRef {
			matches = append(matches, node.ID)
		}
	}
	switch len(matches) {
	case 0:
		return schema.NodeID{}, &contract.NotFoundError{Kind: "node", Name: nodeRef}
	case 1:
		return matches[0], nil
	}
	names := make([]string, len(matches))
	for i, id := range matches {
		names[i] = id.String()
	}
	return schema.NodeID{}, fmt.Errorf("node name %q matches %s; qualify it as location/name", nodeRef, strings.Join(names, ", "))
}

// recordRun stores one row of build history when a snapshot store is
// configured. Best effort: history must never fail a render.
func recordRun(mgr contract.CacheManager, cfg *contract.Config, result *PipelineResult, edgeCount int, duration time.Duration) schema.RunRecord {
	run := schema.RunRecord{
		Tenant:         cfg.Tenant,
		Site:           cfg.Site,
		Filter:         cfg.Filter,
		Orientation:    cfg.Orientation,
		NodeCount:      result.Graph.Len(),
		EdgeCount:      edgeCount,
		ExclusionCount: len(result.Report.Exclusions),
		FailureCount:   len(result.Report.FailedLocations),
		DurationMs:     duration.Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if mgr == nil {
		return run
	}
	store := mgr.GetSnapshotStore()
	if store == nil {
		return run
	}
	id, err := store.RecordRun(run)
	if err != nil {
		contract.LogWarn("Run history write failed", err)
		return run
	}
	run.RunID = id
	return run
}
