//go:build basic

package integration

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestKpitreeRenderNoCache runs a full render against the platform stub
// with caching disabled.
func TestKpitreeRenderNoCache(t *testing.T) {
	baseURL := startPlatformStub(t)
	setPlatformEnv(t, baseURL)

	_ = os.Setenv("KPITREE_CACHE_BACKEND", "none")
	defer func() { _ = os.Unsetenv("KPITREE_CACHE_BACKEND") }()

	output, err := runKpitree(t, "render")
	require.NoError(t, err)
	require.Contains(t, output, "Read completed in")
	require.Contains(t, output, "Showing")
}

// TestKpitreeWithSQLite tests the kpitree CLI with the SQLite backend. HOME
// is redirected so the cache file lands in a temp directory.
func TestKpitreeWithSQLite(t *testing.T) {
	baseURL := startPlatformStub(t)
	setPlatformEnv(t, baseURL)

	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	_ = os.Setenv("HOME", home)
	defer func() { _ = os.Setenv("HOME", oldHome) }()

	_ = os.Setenv("KPITREE_CACHE_BACKEND", "sqlite")
	defer func() { _ = os.Unsetenv("KPITREE_CACHE_BACKEND") }()

	// Run kpitree cache clear
	_, err := runKpitree(t, "cache", "clear")
	require.NoError(t, err)

	// Cold render fills the catalog cache
	output, err := runKpitree(t, "render")
	require.NoError(t, err)
	require.Contains(t, output, "Read completed in")

	// Warm render reads it back
	output, err = runKpitree(t, "render")
	require.NoError(t, err)
	require.Contains(t, output, "Read completed in")

	// Run kpitree cache status
	output, err = runKpitree(t, "cache", "status")
	require.NoError(t, err)
	require.Contains(t, output, "Cache Backend: sqlite")
	require.Contains(t, output, fmt.Sprintf("Catalog Entries: %d", stubLocationCount()))
	require.Contains(t, output, "Recorded Runs: 2")
	require.Contains(t, output, "Recent Runs:")
}
