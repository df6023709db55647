package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"

	"github.com/olekukonko/tablewriter"
)

// WriteDeployPlan outputs the per-location definition sets a deploy or
// teardown will touch, dispatching based on the output format configured.
func WriteDeployPlan(plans []schema.DeployPlan, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		type JSONDeployPlan struct {
			GeneratedAt time.Time           `json:"generatedAt"`
			Tenant      string              `json:"tenant"`
			Site        string              `json:"site"`
			DryRun      bool                `json:"dryRun"`
			Plans       []schema.DeployPlan `json:"plans"`
		}
		output := JSONDeployPlan{
			GeneratedAt: time.Now(),
			Tenant:      cfg.Tenant,
			Site:        cfg.Site,
			DryRun:      cfg.DryRun,
			Plans:       plans,
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, output)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeDeployPlanCSVResults(plans, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDeployPlanTable(plans, cfg, w)
		}, "Wrote table")
	}
}

// writeDeployPlanCSVResults flattens the plans into one row per definition.
func writeDeployPlanCSVResults(plans []schema.DeployPlan, cfg *contract.Config) error {
	header := []string{"location", "location_name", "def", "function", "grain", "inputs"}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			for _, plan := range plans {
				for _, def := range plan.Defs {
					refs := make([]string, len(def.Inputs))
					for i, ref := range def.Inputs {
						refs[i] = ref.String()
					}
					rec := []string{
						plan.Location.ID,
						plan.Location.Name,
						def.Name,
						def.FunctionName,
						string(def.Grain),
						strings.Join(refs, "|"),
					}
					if err := csvWriter.Write(rec); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}, "Wrote CSV")
}

// writeDeployPlanTable generates one table section per planned location.
func writeDeployPlanTable(plans []schema.DeployPlan, cfg *contract.Config, writer io.Writer) error {
	total := 0
	for _, plan := range plans {
		if _, err := fmt.Fprintf(writer, "%s %q (%s, %d definitions)\n",
			plan.Location.Kind, plan.Location.Name, plan.Location.ID, len(plan.Defs)); err != nil {
			return err
		}

		table := tablewriter.NewWriter(writer)
		table.Header([]string{"Def", "Function", "Grain", "Inputs"})

		var data [][]string
		for _, def := range plan.Defs {
			refs := make([]string, len(def.Inputs))
			for i, ref := range def.Inputs {
				refs[i] = ref.String()
			}
			data = append(data, []string{
				def.Name,
				def.FunctionName,
				string(def.Grain),
				strings.Join(refs, ", "),
			})
			total++
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}

	mode := "apply"
	if cfg.DryRun {
		mode = "dry-run"
	}
	_, err := fmt.Fprintf(writer, "Planned %d definitions across %d locations (%s)\n", total, len(plans), mode)
	return err
}

// WriteDeployOutcome summarizes an applied deploy or teardown walk. The verb
// names the operation that ran ("Registered" or "Unregistered").
func WriteDeployOutcome(outcome *schema.DeployOutcome, verb string, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, outcome)
		}, "Wrote JSON")
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "%s %d/%d definitions\n", verb, outcome.Applied, outcome.Planned); err != nil {
			return err
		}
		if len(outcome.Failures) == 0 {
			return nil
		}
		if _, err := fmt.Fprintf(w, "Failed %d definition(s):\n", len(outcome.Failures)); err != nil {
			return err
		}
		for _, failure := range outcome.Failures {
			if _, err := fmt.Fprintf(w, "  - %s (%s): %s\n", failure.LocationID, failure.Name, failure.Detail); err != nil {
				return err
			}
		}
		return nil
	}, "Wrote text")
}
