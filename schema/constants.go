package schema

// Custom string types for type safety.
type (
	// Grain represents the temporal granularity of a data item.
	Grain string

	// DataType represents the value type of a data item.
	DataType string

	// LocationKind represents the level of a location in the spatial hierarchy.
	LocationKind string

	// FunctionCategory represents the class of a KPI catalog function.
	FunctionCategory string

	// Orientation represents the drawing direction of the layout.
	Orientation string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All grains supported, finest to coarsest.
const (
	MinuteGrain Grain = "minute"
	HourGrain   Grain = "hour"
	DayGrain    Grain = "day"
	WeekGrain   Grain = "week"
	MonthGrain  Grain = "month"
	YearGrain   Grain = "year"
)

// All data item types supported.
const (
	NumericType   DataType = "numeric"
	StringType    DataType = "string"
	BooleanType   DataType = "boolean"
	TimestampType DataType = "timestamp"
)

// All location kinds supported.
const (
	BuildingKind LocationKind = "building"
	FloorKind    LocationKind = "floor"
	SpaceKind    LocationKind = "space"
)

// All function categories supported.
const (
	TransformerCategory FunctionCategory = "transformer"
	AggregatorCategory  FunctionCategory = "aggregator"
	AlertCategory       FunctionCategory = "alert"
)

// All layout orientations supported.
const (
	LeftRight Orientation = "left-right" // default
	TopDown   Orientation = "top-down"
)

// All output modes supported.
const (
	TableOut   OutputMode = "table" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	MermaidOut OutputMode = "mermaid"
	DotOut     OutputMode = "dot"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// AllGrains lists every grain in coarsening order (finest first).
var AllGrains = []Grain{MinuteGrain, HourGrain, DayGrain, WeekGrain, MonthGrain, YearGrain}

// grainRank is the position of each grain in the coarsening order.
var grainRank = map[Grain]int{
	MinuteGrain: 0,
	HourGrain:   1,
	DayGrain:    2,
	WeekGrain:   3,
	MonthGrain:  4,
	YearGrain:   5,
}

// ValidGrains lists all valid grains.
var ValidGrains = map[Grain]struct{}{
	MinuteGrain: {},
	HourGrain:   {},
	DayGrain:    {},
	WeekGrain:   {},
	MonthGrain:  {},
	YearGrain:   {},
}

// ValidDataTypes lists all valid data item types.
var ValidDataTypes = map[DataType]struct{}{
	NumericType:   {},
	StringType:    {},
	BooleanType:   {},
	TimestampType: {},
}

// ValidLocationKinds lists all valid location kinds.
var ValidLocationKinds = map[LocationKind]struct{}{
	BuildingKind: {},
	FloorKind:    {},
	SpaceKind:    {},
}

// ValidFunctionCategories lists all valid function categories.
var ValidFunctionCategories = map[FunctionCategory]struct{}{
	TransformerCategory: {},
	AggregatorCategory:  {},
	AlertCategory:       {},
}

// ValidOrientations lists all valid layout orientations.
var ValidOrientations = map[Orientation]struct{}{
	LeftRight: {},
	TopDown:   {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TableOut:   {},
	JSONOut:    {},
	CSVOut:     {},
	MermaidOut: {},
	DotOut:     {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Valid reports whether the grain is a known granularity.
func (g Grain) Valid() bool {
	_, ok := ValidGrains[g]
	return ok
}

// Index returns the grain's position in the coarsening order, with
// -1 for unknown grains.
func (g Grain) Index() int {
	if r, ok := grainRank[g]; ok {
		return r
	}
	return -1
}

// CoarserThan reports whether g is strictly coarser than other.
// Unknown grains are never coarser than anything.
func (g Grain) CoarserThan(other Grain) bool {
	gr, ok := grainRank[g]
	or, ok2 := grainRank[other]
	return ok && ok2 && gr > or
}

// AtLeastAsCoarseAs reports whether g is the same grain as other or coarser.
func (g Grain) AtLeastAsCoarseAs(other Grain) bool {
	gr, ok := grainRank[g]
	or, ok2 := grainRank[other]
	return ok && ok2 && gr >= or
}

// ParseOrientation maps user input to an Orientation, accepting the
// short aliases "lr" and "td" used by diagram tools.
func ParseOrientation(value string) (Orientation, bool) {
	switch Orientation(value) {
	case LeftRight, TopDown:
		return Orientation(value), true
	}
	switch value {
	case "lr", "LR":
		return LeftRight, true
	case "td", "TD", "tb", "TB":
		return TopDown, true
	}
	return "", false
}
