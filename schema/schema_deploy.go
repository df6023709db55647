package schema

// DeployPlan is the set of KPI function definitions one location receives
// when the canned demo pipeline is deployed.
type DeployPlan struct {
	Location *LocationNode    `json:"location"`
	Defs     []KpiFunctionDef `json:"defs"`
}

// DeployOutcome summarizes a deploy or teardown walk: how many
// definitions were planned, how many were applied, and what failed.
type DeployOutcome struct {
	Planned  int               `json:"planned"`
	Applied  int               `json:"applied"`
	Failures []LocationFailure `json:"failures,omitempty"`
}
