//go:build basic || database || integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/kpitree/kpitree/schema"
)

var (
	// sharedKpitreePath holds the path to a shared kpitree binary built once for all tests.
	sharedKpitreePath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// Fixture tree served by the platform stub: one building, two floors, two
// spaces per floor, every location carrying the canned demo pipeline.
const (
	stubSiteAlias = "integration-site"

	stubBuildings      = 1
	stubFloorsPerBldg  = 2
	stubSpacesPerFloor = 2
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getKpitreeBinary returns the path to the kpitree binary, building it once if needed.
func getKpitreeBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "kpitree-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		kpitreePath := filepath.Join(tempDir, "kpitree")
		buildCmd := exec.Command("go", "build", "-o", kpitreePath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build kpitree: %v", err))
		}

		sharedKpitreePath = kpitreePath
	})

	return sharedKpitreePath
}

// runKpitree executes the shared binary and returns its combined output.
func runKpitree(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getKpitreeBinary(), args...)
	cmd.Dir = ".." // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}

// setPlatformEnv points the CLI under test at the stub for the duration
// of the test. Credentials are dummies; the stub never checks them.
func setPlatformEnv(t *testing.T, baseURL string) {
	t.Helper()
	vars := map[string]string{
		"KPITREE_BASE_URL":  baseURL,
		"KPITREE_API_KEY":   "integration",
		"KPITREE_API_TOKEN": "integration",
		"KPITREE_SITE":      stubSiteAlias,
	}
	for key, value := range vars {
		_ = os.Setenv(key, value)
	}
	t.Cleanup(func() {
		for key := range vars {
			_ = os.Unsetenv(key)
		}
	})
}

// stubLocation is one location reference in the platform wire format.
type stubLocation struct {
	UUID  string `json:"uuid"`
	Alias string `json:"alias"`
}

// stubTree holds the fixture site's metadata, keyed by location UUID.
type stubTree struct {
	roots []stubLocation
	subs  map[string][]stubLocation
	items map[string][]schema.DataItemDescriptor
	defs  map[string][]schema.KpiFunctionDef
}

// startPlatformStub serves the slice of the platform metadata API the
// pipeline reader touches and returns its base URL. The server is torn
// down when the test finishes.
func startPlatformStub(t *testing.T) string {
	t.Helper()
	tree := buildStubTree()

	r := mux.NewRouter()
	r.HandleFunc("/api/v2/core/sites/search", func(w http.ResponseWriter, req *http.Request) {
		writeStubJSON(t, w, []stubLocation{{UUID: stubSiteAlias, Alias: stubSiteAlias}})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations", func(w http.ResponseWriter, req *http.Request) {
		writeStubResults(t, w, tree.roots)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations/{locID}/sublocations", func(w http.ResponseWriter, req *http.Request) {
		subs := tree.subs[mux.Vars(req)["locID"]]
		if subs == nil {
			subs = []stubLocation{}
		}
		writeStubResults(t, w, subs)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations/{locID}/dataItems", func(w http.ResponseWriter, req *http.Request) {
		items := tree.items[mux.Vars(req)["locID"]]
		if items == nil {
			items = []schema.DataItemDescriptor{}
		}
		writeStubResults(t, w, items)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/v2/core/sites/{siteID}/locations/{locID}/kpiFunctions", func(w http.ResponseWriter, req *http.Request) {
		defs := tree.defs[mux.Vars(req)["locID"]]
		if defs == nil {
			defs = []schema.KpiFunctionDef{}
		}
		writeStubResults(t, w, defs)
	}).Methods(http.MethodGet)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server.URL
}

func writeStubResults(t *testing.T, w http.ResponseWriter, results any) {
	t.Helper()
	writeStubJSON(t, w, map[string]any{"results": results})
}

func writeStubJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("stub failed to encode response: %v", err)
	}
}

// stubLocationCount is the number of locations in the fixture tree.
func stubLocationCount() int {
	return stubBuildings * (1 + stubFloorsPerBldg*(1+stubSpacesPerFloor))
}

// buildStubTree generates the fixture site. Spaces carry a raw occupancy
// item and the Rolling15/HourlyMax/DailyMax chain; floors and the building
// carry rollup sums referencing their children.
func buildStubTree() *stubTree {
	tree := &stubTree{
		subs:  make(map[string][]stubLocation),
		items: make(map[string][]schema.DataItemDescriptor),
		defs:  make(map[string][]schema.KpiFunctionDef),
	}
	for b := 1; b <= stubBuildings; b++ {
		building := stubLocation{UUID: fmt.Sprintf("b%d", b), Alias: fmt.Sprintf("Building %d", b)}
		tree.roots = append(tree.roots, building)

		var floorRefs []schema.InputRef
		for f := 1; f <= stubFloorsPerBldg; f++ {
			floor := stubLocation{UUID: fmt.Sprintf("%s-f%d", building.UUID, f), Alias: fmt.Sprintf("Floor %d", f)}
			tree.subs[building.UUID] = append(tree.subs[building.UUID], floor)
			floorRefs = append(floorRefs, schema.InputRef{LocationID: floor.UUID, ItemName: "FloorSum"})

			var spaceRefs []schema.InputRef
			for s := 1; s <= stubSpacesPerFloor; s++ {
				space := stubLocation{UUID: fmt.Sprintf("%s-s%d", floor.UUID, s), Alias: fmt.Sprintf("Space %d", s)}
				tree.subs[floor.UUID] = append(tree.subs[floor.UUID], space)
				spaceRefs = append(spaceRefs, schema.InputRef{LocationID: space.UUID, ItemName: "DailyMax"})

				tree.items[space.UUID] = []schema.DataItemDescriptor{{
					Name:     "OccupancyCount",
					DataType: schema.NumericType,
					Raw:      true,
					Grain:    schema.MinuteGrain,
				}}
				tree.defs[space.UUID] = spaceDefs()
			}
			tree.defs[floor.UUID] = []schema.KpiFunctionDef{rollupDef("FloorSum", spaceRefs)}
		}
		tree.defs[building.UUID] = []schema.KpiFunctionDef{rollupDef("BuildingSum", floorRefs)}
	}
	return tree
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
