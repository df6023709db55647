package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRegistry captures register/unregister calls in order and can
// fail selected definitions.
type recordingRegistry struct {
	mu       sync.Mutex
	calls    []string
	failures map[string]error
}

func (r *recordingRegistry) Register(_ context.Context, locationID string, def schema.KpiFunctionDef) error {
	return r.record("register", locationID, def.Name)
}

func (r *recordingRegistry) Unregister(_ context.Context, locationID, functionName string) error {
	return r.record("unregister", locationID, functionName)
}

func (r *recordingRegistry) record(verb, locationID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := locationID + "/" + name
	r.calls = append(r.calls, verb+" "+key)
	return r.failures[key]
}

func TestPlanDeploymentFullHierarchy(t *testing.T) {
	plans := PlanDeployment(demoHierarchy())
	require.Len(t, plans, 6)

	// Hierarchy order: building, floors by name, spaces by name.
	var order []string
	for _, plan := range plans {
		order = append(order, plan.Location.ID)
	}
	assert.Equal(t, []string{"b1", "f1", "f2", "s11", "s21", "s22"}, order)

	// The building plan sums both floors.
	building := plans[0]
	require.Len(t, building.Defs, 1)
	assert.Equal(t, "BuildingSum", building.Defs[0].Name)
	assert.Equal(t, schema.FuncChildSum, building.Defs[0].FunctionName)
	assert.Equal(t, []schema.InputRef{
		{LocationID: "f1", ItemName: "FloorSum"},
		{LocationID: "f2", ItemName: "FloorSum"},
	}, building.Defs[0].Inputs)

	// Every space gets the three-stage chain at widening grains.
	space := plans[3]
	require.Len(t, space.Defs, 3)
	assert.Equal(t, "Rolling15", space.Defs[0].Name)
	assert.Equal(t, schema.MinuteGrain, space.Defs[0].Grain)
	assert.Equal(t, "HourlyMax", space.Defs[1].Name)
	assert.Equal(t, schema.HourGrain, space.Defs[1].Grain)
	assert.Equal(t, "DailyMax", space.Defs[2].Name)
	assert.Equal(t, schema.DayGrain, space.Defs[2].Grain)
	for _, def := range space.Defs {
		assert.True(t, def.Enabled)
		assert.Equal(t, def.Name, def.Output.Name)
	}
}

func TestPlanDeploymentScopesAggregators(t *testing.T) {
	// Selecting floor 2 and one office: the floor sum only references
	// the selected office, and no building plan exists at all.
	locations := demoHierarchy()
	byID := make(map[string]*schema.LocationNode, len(locations))
	for _, loc := range locations {
		byID[loc.ID] = loc
	}

	plans := PlanDeployment([]*schema.LocationNode{byID["f2"], byID["s21"]})
	require.Len(t, plans, 2)
	assert.Equal(t, "f2", plans[0].Location.ID)
	assert.Equal(t, []schema.InputRef{{LocationID: "s21", ItemName: "DailyMax"}},
		plans[0].Defs[0].Inputs)
	assert.Equal(t, "s21", plans[1].Location.ID)
}

func TestPlanDeploymentSkipsChildlessRollups(t *testing.T) {
	// A floor selected without any of its spaces has nothing to sum.
	locations := demoHierarchy()
	for _, loc := range locations {
		if loc.ID == "f1" {
			plans := PlanDeployment([]*schema.LocationNode{loc})
			assert.Empty(t, plans)
		}
	}
}

func TestDeployRegistersEverythingInOrder(t *testing.T) {
	registry := &recordingRegistry{}
	plans := PlanDeployment(demoHierarchy())

	outcome := Deploy(context.Background(), registry, plans)
	assert.Equal(t, 12, outcome.Planned)
	assert.Equal(t, 12, outcome.Applied)
	assert.Empty(t, outcome.Failures)

	// Rollups land before the space chains they reference; resolution
	// tolerates that since references are checked at read time.
	assert.Equal(t, "register b1/BuildingSum", registry.calls[0])
	assert.Equal(t, "register s11/Rolling15", registry.calls[3])
	assert.Equal(t, "register s22/DailyMax", registry.calls[11])
}

func TestDeployCollectsFailuresAndKeepsGoing(t *testing.T) {
	registry := &recordingRegistry{failures: map[string]error{
		"s21/HourlyMax": errors.New("409 conflict"),
	}}
	plans := PlanDeployment(demoHierarchy())

	outcome := Deploy(context.Background(), registry, plans)
	assert.Equal(t, 12, outcome.Planned)
	assert.Equal(t, 11, outcome.Applied)
	require.Len(t, outcome.Failures, 1)
	assert.Equal(t, "s21", outcome.Failures[0].LocationID)
	assert.Contains(t, outcome.Failures[0].Detail, "register HourlyMax")
	assert.Contains(t, outcome.Failures[0].Detail, "409 conflict")
	// The rest of the walk still happened.
	assert.Len(t, registry.calls, 12)
}

func TestTeardownReversesDeployOrder(t *testing.T) {
	registry := &recordingRegistry{}
	plans := PlanDeployment(demoHierarchy())

	outcome := Teardown(context.Background(), registry, plans)
	assert.Equal(t, 12, outcome.Planned)
	assert.Equal(t, 12, outcome.Applied)

	// Leaves first, chain tip first within a location, building last.
	assert.Equal(t, "unregister s22/DailyMax", registry.calls[0])
	assert.Equal(t, "unregister s22/HourlyMax", registry.calls[1])
	assert.Equal(t, "unregister s22/Rolling15", registry.calls[2])
	assert.Equal(t, "unregister b1/BuildingSum", registry.calls[11])
}

func TestTeardownCollectsFailures(t *testing.T) {
	registry := &recordingRegistry{failures: map[string]error{
		"f1/FloorSum": errors.New("404 not found"),
	}}
	plans := PlanDeployment(demoHierarchy())

	outcome := Teardown(context.Background(), registry, plans)
	assert.Equal(t, 11, outcome.Applied)
	require.Len(t, outcome.Failures, 1)
	assert.Contains(t, outcome.Failures[0].Detail, "unregister FloorSum")
}

func TestDeployedPlanReadsBackAsCleanGraph(t *testing.T) {
	// The templates must form a resolvable, acyclic, grain-correct
	// pipeline end to end.
	reader := NewPipelineReader(readerConfig(), demoSource(), nil)
	result, err := reader.Read(context.Background())
	require.NoError(t, err)
	require.True(t, result.Report.Clean())

	for _, node := range result.Graph.Nodes() {
		if node.Raw {
			continue
		}
		assert.True(t, node.Available, "%s should be runnable with the default catalog", node.ID)
	}
}
