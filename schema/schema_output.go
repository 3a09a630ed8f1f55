package schema

import (
	"strconv"
	"time"
)

// RankingPayload is the ranking blob persisted with each snapshot and served to consumers.
// Field names are consumed verbatim downstream.
type RankingPayload struct {
	Period           string         `json:"period"`
	AlgorithmVersion string         `json:"algorithm_version"`
	GeneratedAt      time.Time      `json:"generated_at"`
	TotalTools       int            `json:"total_tools"`
	Rankings         []PayloadEntry `json:"rankings"`
}

// PayloadEntry is one ranked tool in a RankingPayload.
type PayloadEntry struct {
	ToolID       string                `json:"tool_id"`
	ToolName     string                `json:"tool_name,omitempty"`
	Rank         int                   `json:"rank"`
	PreviousRank *int                  `json:"previous_rank"`
	Movement     *int                  `json:"movement"`
	Score        float64               `json:"score"`
	Tier         Tier                  `json:"tier"`
	Category     string                `json:"category"`
	FactorScores map[FactorKey]float64 `json:"factor_scores"`
}

// Direction returns the movement direction of the entry, or "" for a new entry.
func (e PayloadEntry) Direction() Direction {
	if e.Movement == nil {
		return ""
	}
	return DirectionOf(*e.Movement)
}

// DirectionOf maps a signed rank change onto a direction.
func DirectionOf(change int) Direction {
	switch {
	case change > 0:
		return DirectionUp
	case change < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// EntryFor finds a tool in the payload by id.
func (p RankingPayload) EntryFor(toolID string) (PayloadEntry, bool) {
	for _, e := range p.Rankings {
		if e.ToolID == toolID {
			return e, true
		}
	}
	return PayloadEntry{}, false
}

// GetPlainMovement returns a plain text label for an entry's movement.
func GetPlainMovement(e PayloadEntry) string {
	if e.Movement == nil {
		return "NEW"
	}
	switch d := *e.Movement; {
	case d > 0:
		return "+" + strconv.Itoa(d)
	case d < 0:
		return strconv.Itoa(d)
	default:
		return "="
	}
}

// RankingResult is everything a ranking run hands to the output layer.
type RankingResult struct {
	SnapshotID   string
	Payload      RankingPayload
	Unranked     int  // tools excluded by status
	Degradations int  // input components that resolved to defaults
	Persisted    bool // saved to the snapshot store
	Promoted     bool // made current
	Forced       bool // promoted despite failing checks
}
