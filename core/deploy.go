package core

import (
	"context"
	"fmt"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// Canned template names of the demo pipeline. The space chain derives a
// smoothed occupancy signal at coarser and coarser grains; floors and the
// building roll the daily values up the hierarchy.
const (
	rawOccupancyItem = "OccupancyCount"

	rolling15Name   = "Rolling15"
	hourlyMaxName   = "HourlyMax"
	dailyMaxName    = "DailyMax"
	floorSumName    = "FloorSum"
	buildingSumName = "BuildingSum"
)

// PlanDeployment maps the canned templates over the selected locations in
// hierarchy order. Aggregators only reference children that are part of
// the selection, and a location whose aggregator would have no inputs is
// skipped rather than deployed broken.
func PlanDeployment(selected []*schema.LocationNode) []schema.DeployPlan {
	inScope := make(map[string]struct{}, len(selected))
	for _, loc := range selected {
		inScope[loc.ID] = struct{}{}
	}

	ordered := append([]*schema.LocationNode(nil), selected...)
	sortLocations(ordered)

	var plans []schema.DeployPlan
	for _, loc := range ordered {
		var defs []schema.KpiFunctionDef
		switch loc.Kind {
		case schema.SpaceKind:
			defs = spaceTemplates()
		case schema.FloorKind:
			if def, ok := rollupTemplate(floorSumName, dailyMaxName, loc, inScope); ok {
				defs = append(defs, def)
			}
		case schema.BuildingKind:
			if def, ok := rollupTemplate(buildingSumName, floorSumName, loc, inScope); ok {
				defs = append(defs, def)
			}
		}
		if len(defs) > 0 {
			plans = append(plans, schema.DeployPlan{Location: loc, Defs: defs})
		}
	}
	return plans
}

// spaceTemplates is the per-space derivation chain: a 15 minute rolling
// average of the raw occupancy count, its hourly maximum, and the daily
// maximum of that.
func spaceTemplates() []schema.KpiFunctionDef {
	return []schema.KpiFunctionDef{
		derivedTemplate(rolling15Name, schema.FuncRollingAverage, schema.TransformerCategory,
			schema.MinuteGrain, schema.InputRef{ItemName: rawOccupancyItem}),
		derivedTemplate(hourlyMaxName, schema.FuncWindowMax, schema.TransformerCategory,
			schema.HourGrain, schema.InputRef{ItemName: rolling15Name}),
		derivedTemplate(dailyMaxName, schema.FuncWindowMax, schema.TransformerCategory,
			schema.DayGrain, schema.InputRef{ItemName: hourlyMaxName}),
	}
}

// rollupTemplate builds the aggregator definition summing a child item
// across the location's in-scope children.
func rollupTemplate(name, childItem string, loc *schema.LocationNode, inScope map[string]struct{}) (schema.KpiFunctionDef, bool) {
	var inputs []schema.InputRef
	for _, child := range loc.Children {
		if _, ok := inScope[child.ID]; !ok {
			continue
		}
		inputs = append(inputs, schema.InputRef{LocationID: child.ID, ItemName: childItem})
	}
	if len(inputs) == 0 {
		return schema.KpiFunctionDef{}, false
	}
	def := derivedTemplate(name, schema.FuncChildSum, schema.AggregatorCategory, schema.DayGrain, inputs...)
	return def, true
}

func derivedTemplate(name, functionName string, category schema.FunctionCategory, grain schema.Grain, inputs ...schema.InputRef) schema.KpiFunctionDef {
	return schema.KpiFunctionDef{
		Name:         name,
		FunctionName: functionName,
		Category:     category,
		Output: schema.DataItemDescriptor{
			Name:     name,
			DataType: schema.NumericType,
			Grain:    grain,
		},
		Inputs:  inputs,
		Grain:   grain,
		Enabled: true,
	}
}

// Deploy registers every planned definition in hierarchy order. Failures
// are collected per definition and never abort the walk.
func Deploy(ctx context.Context, registry contract.FunctionRegistry, plans []schema.DeployPlan) *schema.DeployOutcome {
	outcome := &schema.DeployOutcome{}
	for _, plan := range plans {
		for _, def := range plan.Defs {
			outcome.Planned++
			if err := registry.Register(ctx, plan.Location.ID, def); err != nil {
				outcome.Failures = append(outcome.Failures, schema.LocationFailure{
					LocationID: plan.Location.ID,
					Name:       plan.Location.Name,
					Err:        err,
					Detail:     fmt.Sprintf("register %s: %v", def.Name, err),
				})
				continue
			}
			outcome.Applied++
		}
	}
	return outcome
}

// Teardown unregisters every planned definition in the reverse of the
// deploy order, leaves first.
func Teardown(ctx context.Context, registry contract.FunctionRegistry, plans []schema.DeployPlan) *schema.DeployOutcome {
	outcome := &schema.DeployOutcome{}
	for i := len(plans) - 1; i >= 0; i-- {
		plan := plans[i]
		for j := len(plan.Defs) - 1; j >= 0; j-- {
			def := plan.Defs[j]
			outcome.Planned++
			if err := registry.Unregister(ctx, plan.Location.ID, def.Name); err != nil {
				outcome.Failures = append(outcome.Failures, schema.LocationFailure{
					LocationID: plan.Location.ID,
					Name:       plan.Location.Name,
					Err:        err,
					Detail:     fmt.Sprintf("unregister %s: %v", def.Name, err),
				})
				continue
			}
			outcome.Applied++
		}
	}
	return outcome
}
