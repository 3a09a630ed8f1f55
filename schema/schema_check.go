package schema

// Names of the distribution checks.
const (
	CheckDuplicateScores      = "duplicate_scores"
	CheckTop10Unique          = "top10_unique"
	CheckTop20Unique          = "top20_unique"
	CheckRankDensity          = "rank_density"
	CheckTierConsistency      = "tier_consistency"
	CheckMovementPresence     = "movement_presence"
	CheckMovementPlausibility = "movement_plausibility"
	CheckCurrency             = "currency"
)

// ValidationThresholds configures the distribution checks.
type ValidationThresholds struct {
	MaxDuplicatePct     float64 // percent of ranked tools allowed to share a rounded score
	MinMovementCoverage float64 // fraction of entries that must carry movement when a previous snapshot exists
}

// Finding is the outcome of a single distribution check.
type Finding struct {
	Check  string `json:"check"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// ValidationReport holds the results of a distribution check run over one snapshot.
type ValidationReport struct {
	SnapshotID       string    `json:"snapshot_id,omitempty"`
	Period           string    `json:"period"`
	AlgorithmVersion string    `json:"algorithm_version"`
	Passed           bool      `json:"passed"`
	TotalTools       int       `json:"total_tools"`
	DuplicatePct     float64   `json:"duplicate_pct"`
	UniqueTop10      bool      `json:"unique_top10"`
	UniqueTop20      bool      `json:"unique_top20"`
	MovementCoverage float64   `json:"movement_coverage"`
	Findings         []Finding `json:"findings"`
}

// Failed returns the findings that did not pass.
func (r ValidationReport) Failed() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Passed {
			out = append(out, f)
		}
	}
	return out
}

// Degradation records one input field that resolved to its default.
type Degradation struct {
	ToolID    string `json:"tool_id"`
	Component string `json:"component"`
}
