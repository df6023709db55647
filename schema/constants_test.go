package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrainOrdering(t *testing.T) {
	// AllGrains is the authoritative coarsening order.
	for i := 1; i < len(AllGrains); i++ {
		coarser, finer := AllGrains[i], AllGrains[i-1]
		assert.True(t, coarser.CoarserThan(finer), "%s should be coarser than %s", coarser, finer)
		assert.False(t, finer.CoarserThan(coarser))
		assert.True(t, coarser.AtLeastAsCoarseAs(finer))
		assert.False(t, finer.AtLeastAsCoarseAs(coarser))
	}

	// Reflexivity of the non-strict comparison.
	for _, g := range AllGrains {
		assert.True(t, g.AtLeastAsCoarseAs(g))
		assert.False(t, g.CoarserThan(g))
	}
}

func TestGrainUnknown(t *testing.T) {
	bogus := Grain("fortnight")
	assert.False(t, bogus.Valid())
	assert.Equal(t, -1, bogus.Index())
	assert.False(t, bogus.CoarserThan(MinuteGrain))
	assert.False(t, YearGrain.CoarserThan(bogus))
	assert.False(t, bogus.AtLeastAsCoarseAs(bogus))
}

func TestParseOrientation(t *testing.T) {
	tests := []struct {
		input string
		want  Orientation
		ok    bool
	}{
		{"left-right", LeftRight, true},
		{"top-down", TopDown, true},
		{"lr", LeftRight, true}, // mermaid-style alias
		{"LR", LeftRight, true},
		{"td", TopDown, true},
		{"TB", TopDown, true}, // graphviz-style alias
		{"diagonal", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseOrientation(tt.input)
		assert.Equal(t, tt.ok, ok, "input: %q", tt.input)
		if ok {
			assert.Equal(t, tt.want, got, "input: %q", tt.input)
		}
	}
}

func TestValidSets(t *testing.T) {
	assert.Len(t, ValidGrains, len(AllGrains))
	assert.Contains(t, ValidOutputModes, TableOut)
	assert.Contains(t, ValidOrientations, LeftRight)
	assert.Contains(t, ValidCacheBackends, NoneBackend)
	assert.Contains(t, ValidFunctionCategories, AggregatorCategory)
	assert.Contains(t, ValidLocationKinds, SpaceKind)
	assert.Contains(t, ValidDataTypes, NumericType)
}

func TestKindForDepth(t *testing.T) {
	assert.Equal(t, BuildingKind, KindForDepth(0))
	assert.Equal(t, FloorKind, KindForDepth(1))
	assert.Equal(t, SpaceKind, KindForDepth(2))
	assert.Equal(t, SpaceKind, KindForDepth(5)) // deeper levels are spaces
}

func TestDefaultFunctionCatalog(t *testing.T) {
	catalog := DefaultFunctionCatalog()
	assert.True(t, catalog.Has(FuncRollingAverage))
	assert.True(t, catalog.Has(FuncChildSum))
	assert.False(t, catalog.Has("Nonexistent"))

	// Duplicate registration is rejected.
	err := catalog.Add(CatalogFunction{Name: FuncChildSum, Category: AggregatorCategory})
	assert.Error(t, err)

	// Fresh names register fine.
	err = catalog.Add(CatalogFunction{Name: "MedianFilter", Category: TransformerCategory})
	assert.NoError(t, err)
	assert.True(t, catalog.Has("MedianFilter"))
}
