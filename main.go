// main is the command-line entrypoint for kpitree.
package main

import (
	"fmt"
	"os"

	"github.com/kpitree/kpitree/cmd"
	"github.com/kpitree/kpitree/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run exists so deferred cleanup survives the os.Exit in main.
func run() int {
	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseCaching()

	if err := cmd.Execute(); err != nil {
		// rootCmd silences cobra's own error printing.
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
