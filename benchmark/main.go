// Package main provides a comprehensive performance benchmarking tool for the kpitree CLI.
// It measures pipeline read times across different site sizes and command types,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// The platform metadata API is served by an in-process stub, so runs need
// no tenant, credentials or network access. Every synthetic site carries
// the canned demo pipeline: Rolling15, HourlyMax and DailyMax per space,
// FloorSum per floor and BuildingSum at the top.
//
// Prerequisites:
// - kpitree binary installed and available in PATH
//
// Usage: go run benchmark/main.go
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kpitree/kpitree/schema"
)

// benchCredential is the dummy API key and token handed to the CLI. The
// stub never checks them.
const benchCredential = "benchmark"

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Site        string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	BaseURL     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	TestSites   []string
	SiteShapes  map[string]siteShape
	SiteFilters map[string]string
}

// siteShape sizes one synthetic site tree.
type siteShape struct {
	Buildings int
	Floors    int // per building
	Spaces    int // per floor
}

func main() {
	config := BenchmarkConfig{
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		TestSites:   []string{"small-office", "mid-campus", "high-rise"},
		SiteShapes: map[string]siteShape{
			"small-office": {Buildings: 1, Floors: 2, Spaces: 4},
			"mid-campus":   {Buildings: 2, Floors: 4, Spaces: 6},
			"high-rise":    {Buildings: 1, Floors: 18, Spaces: 12},
		},
		SiteFilters: map[string]string{
			"small-office": "Floor 1",
			"mid-campus":   "Floor 2",
			"high-rise":    "Floor 9",
		},
	}

	if err := checkPrerequisites(); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	// Start the platform stub on an ephemeral port
	stub := newPlatformStub(config.TestSites, config.SiteShapes)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Printf("Failed to start platform stub: %v\n", err)
		os.Exit(1)
	}
	server := &http.Server{Handler: stub.router()}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			fmt.Printf("Platform stub stopped: %v\n", serveErr)
		}
	}()
	defer server.Close()

	config.BaseURL = "http://" + listener.Addr().String()
	fmt.Printf("Platform stub listening on %s\n", config.BaseURL)

	// Clear the cache using kpitree cache clear
	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("kpitree", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the kpitree binary is installed
func checkPrerequisites() error {
	if _, err := exec.LookPath("kpitree"); err != nil {
		return fmt.Errorf("kpitree binary not found in PATH")
	}
	return nil
}

// runBenchmarks executes all benchmark tests across configured sites
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sites, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.TestSites), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, site := range config.TestSites {
		shape := config.SiteShapes[site]
		locations := shape.Buildings * (1 + shape.Floors*(1+shape.Spaces))
		fmt.Printf("Benchmarking %s (%d locations)\n", site, locations)

		// Full graph render
		result := runBenchmarkSuite(config, site, "render", "render", "full graph render", "")
		results = append(results, result)

		// Filtered render, selection plus ancestors
		filter, hasFilter := config.SiteFilters[site]
		if hasFilter {
			desc := fmt.Sprintf("filtered render (%s)", filter)
			result = runBenchmarkSuite(config, site, "render", "render-filter", desc, fmt.Sprintf("%q", filter))
			results = append(results, result)
		}

		// Processing queue
		result = runBenchmarkSuite(config, site, "queue", "queue", "processing queue", "")
		results = append(results, result)
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, site, command, label, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, site)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, site, command, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Site:        site,
		Command:     label,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a kpitree command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, site, command, extraArgs, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	// Prepare command arguments
	args := []string{command,
		"--site", site,
		"--base-url", config.BaseURL,
		"--api-key", benchCredential,
		"--api-token", benchCredential,
		"--cache-backend", cacheBackend,
		"--workers", strconv.Itoa(config.Workers),
	}
	if extraArgs != "" {
		args = append(args, parseArgs(extraArgs)...)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("kpitree", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - kill the run so it stops hitting the stub
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func parseArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range argsStr {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			} else if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// isSuccess checks if command output indicates a completed pipeline read
func isSuccess(output []byte) bool {
	outputStr := string(output)

	// Both render and queue close their summary with the same line.
	return strings.Contains(outputStr, "Read completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/kpitree_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"site", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Site, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "render", "Full Graph Render:")
	printCommandSummary(results, "render-filter", "Filtered Render:")
	printCommandSummary(results, "queue", "Processing Queue:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Site, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}

// wireRef is a site or location reference in the platform wire format.
type wireRef struct {
	UUID  string `json:"uuid"`
	Alias string `json:"alias"`
}

// stubSite is one synthetic site with its full metadata tree.
type stubSite struct {
	ref   wireRef
	roots []wireRef
	subs  map[string][]wireRef
	items map[string][]schema.DataItemDescriptor
	defs  map[string][]schema.KpiFunctionDef
}

// platformStub serves the slice of the platform metadata API that the
// pipeline reader touches, backed by generated site trees.
type platformStub struct {
	order []string
	sites map[string]*stubSite
}

func newPlatformStub(order []string, shapes map[string]siteShape) *platformStub {
	stub := &platformStub{order: order, sites: make(map[string]*stubSite, len(order))}
	for _, alias := range order {
		stub.sites[alias] = buildSite(alias, shapes[alias])
	}
	return stub
}

// router wires the endpoints the kpitree platform client calls.
func (p *platformStub) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/v2/core/sites/search", p.handleSearch).Methods(http.MethodPost)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations", p.handleLocations).Methods(http.MethodGet)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations/{locID}/sublocations", p.handleSublocations).Methods(http.MethodGet)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations/{locID}/dataItems", p.handleDataItems).Methods(http.MethodGet)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations/{locID}/kpiFunctions", p.handleFunctionDefs).Methods(http.MethodGet)
	return r
}

// handleSearch answers the sites search with a bare array, matching by
// alias substring. The benchmark always passes an exact alias.
func (p *platformStub) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Search string `json:"search"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	matches := []wireRef{}
	for _, alias := range p.order {
		if req.Search == "" || strings.Contains(alias, req.Search) {
			matches = append(matches, p.sites[alias].ref)
		}
	}
	writeJSON(w, matches)
}

func (p *platformStub) handleLocations(w http.ResponseWriter, r *http.Request) {
	site, ok := p.sites[mux.Vars(r)["siteID"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeResults(w, site.roots)
}

func (p *platformStub) handleSublocations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	site, ok := p.sites[vars["siteID"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeResults(w, site.subs[vars["locID"]])
}

func (p *platformStub) handleDataItems(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	site, ok := p.sites[vars["siteID"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	items := site.items[vars["locID"]]
	if items == nil {
		items = []schema.DataItemDescriptor{}
	}
	writeResults(w, items)
}

func (p *platformStub) handleFunctionDefs(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	site, ok := p.sites[vars["siteID"]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	defs := site.defs[vars["locID"]]
	if defs == nil {
		defs = []schema.KpiFunctionDef{}
	}
	writeResults(w, defs)
}

func writeResults(w http.ResponseWriter, results any) {
	writeJSON(w, map[string]any{"results": results})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fmt.Printf("Warning: failed to encode response: %v\n", err)
	}
}

// buildSite generates one synthetic site: buildings at the top, floors
// below them, spaces at the leaves. Each space carries a raw occupancy
// item and the Rolling15/HourlyMax/DailyMax chain; floors and buildings
// carry rollup sums, so the read yields a fully connected graph.
func buildSite(alias string, shape siteShape) *stubSite {
	site := &stubSite{
		ref:   wireRef{UUID: alias, Alias: alias},
		subs:  make(map[string][]wireRef),
		items: make(map[string][]schema.DataItemDescriptor),
		defs:  make(map[string][]schema.KpiFunctionDef),
	}
	for b := 1; b <= shape.Buildings; b++ {
		building := wireRef{UUID: fmt.Sprintf("%s-b%d", alias, b), Alias: fmt.Sprintf("Building %d", b)}
		site.roots = append(site.roots, building)

		var floorRefs []schema.InputRef
		for f := 1; f <= shape.Floors; f++ {
			floor := wireRef{UUID: fmt.Sprintf("%s-f%d", building.UUID, f), Alias: fmt.Sprintf("Floor %d", f)}
			site.subs[building.UUID] = append(site.subs[building.UUID], floor)
			floorRefs = append(floorRefs, schema.InputRef{LocationID: floor.UUID, ItemName: "FloorSum"})

			var spaceRefs []schema.InputRef
			for s := 1; s <= shape.Spaces; s++ {
				space := wireRef{UUID: fmt.Sprintf("%s-s%d", floor.UUID, s), Alias: fmt.Sprintf("Space %d", s)}
				site.subs[floor.UUID] = append(site.subs[floor.UUID], space)
				spaceRefs = append(spaceRefs, schema.InputRef{LocationID: space.UUID, ItemName: "DailyMax"})

				site.items[space.UUID] = []schema.DataItemDescriptor{{
					Name:     "OccupancyCount",
					DataType: schema.NumericType,
					Raw:      true,
					Grain:    schema.MinuteGrain,
				}}
				site.defs[space.UUID] = spaceDefs()
			}
			site.defs[floor.UUID] = []schema.KpiFunctionDef{rollupDef("FloorSum", spaceRefs)}
		}
		site.defs[building.UUID] = []schema.KpiFunctionDef{rollupDef("BuildingSum", floorRefs)}
	}
	return site
}

// spaceDefs is the per-space derivation chain of the demo pipeline.
func spaceDefs() []schema.KpiFunctionDef {
	return []schema.KpiFunctionDef{
		derivedDef("Rolling15", schema.FuncRollingAverage, schema.TransformerCategory,
			schema.MinuteGrain, schema.InputRef{ItemName: "OccupancyCount"}),
		derivedDef("HourlyMax", schema.FuncWindowMax, schema.TransformerCategory,
			schema.HourGrain, schema.InputRef{ItemName: "Rolling15"}),
		derivedDef("DailyMax", schema.FuncWindowMax, schema.TransformerCategory,
			schema.DayGrain, schema.InputRef{ItemName: "HourlyMax"}),
	}
}

// rollupDef builds the aggregator summing one item across child locations.
func rollupDef(name string, inputs []schema.InputRef) schema.KpiFunctionDef {
	return derivedDef(name, schema.FuncChildSum, schema.AggregatorCategory, schema.DayGrain, inputs...)
}

func derivedDef(name, functionName string, category schema.FunctionCategory, grain schema.Grain, inputs ...schema.InputRef) schema.KpiFunctionDef {
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
