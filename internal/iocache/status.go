package iocache

import (
	"fmt"

	"github.com/kpitree/kpitree/internal/contract"
	"github.com/kpitree/kpitree/schema"
)

// PrintCacheStatus prints cache status information.
func PrintCacheStatus(status schema.CacheStatus) {
	fmt.Printf("Cache Backend: %s\n", status.Backend)
	fmt.Printf("Catalog Entries: %d\n", status.CatalogEntries)
	fmt.Printf("Recorded Runs: %d\n", status.RunEntries)
	if status.OldestFetch != nil {
		fmt.Printf("Oldest Fetch: %s\n", status.OldestFetch.Format(contract.DateTimeFormat))
	}
	fmt.Printf("Database Size: %d bytes\n", status.SizeBytes)
}

// PrintRunHistory prints the most recent recorded pipeline reads.
func PrintRunHistory(runs []schema.RunRecord) {
	if len(runs) == 0 {
		return
	}
	fmt.Println("Recent Runs:")
	for _, run := range runs {
		scope := run.Site
		if run.Filter != "" {
			scope = fmt.Sprintf("%s (filter: %q)", run.Site, run.Filter)
		}
		fmt.Printf("  #%d %s %s: %d nodes, %d edges, %d excluded, %d failed locations, %dms\n",
			run.RunID, run.CreatedAt.Format(contract.DateTimeFormat), scope,
			run.NodeCount, run.EdgeCount, run.ExclusionCount, run.FailureCount, run.DurationMs)
	}
}
