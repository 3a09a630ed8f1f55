package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// SnapshotRecord represents a row from the powerrank_snapshots table.
type SnapshotRecord struct {
	SnapshotID       string
	Period           string
	AlgorithmVersion string
	IsCurrent        bool
	PublishedAt      time.Time
	TotalTools       int32
	Payload          []byte // raw payload JSON, decoded lazily by callers
}

// ToolHistoryPoint is one period of a single tool's ranking history.
type ToolHistoryPoint struct {
	SnapshotID       string    `json:"snapshot_id"`
	Period           string    `json:"period"`
	AlgorithmVersion string    `json:"algorithm_version"`
	PublishedAt      time.Time `json:"published_at"`
	IsCurrent        bool      `json:"is_current"`
	Rank             int       `json:"rank"`
	Score            float64   `json:"score"`
	Tier             Tier      `json:"tier"`
	Movement         *int      `json:"movement"`
}

// DecodePayload unmarshals the stored payload JSON.
func (r SnapshotRecord) DecodePayload() (RankingPayload, error) {
	var p RankingPayload
	if len(r.Payload) == 0 {
		return p, fmt.Errorf("snapshot %s has no payload", r.SnapshotID)
	}
	if err := json.Unmarshal(r.Payload, &p); err != nil {
		return p, fmt.Errorf("snapshot %s has an unreadable payload: %w", r.SnapshotID, err)
	}
	return p, nil
}

// HistoryPoint returns the tool's entry in this snapshot as a history point.
func (r SnapshotRecord) HistoryPoint(p RankingPayload, toolID string) (ToolHistoryPoint, bool) {
	e, ok := p.EntryFor(toolID)
	if !ok {
		return ToolHistoryPoint{}, false
	}
	return ToolHistoryPoint{
		SnapshotID:       r.SnapshotID,
		Period:           r.Period,
		AlgorithmVersion: r.AlgorithmVersion,
		PublishedAt:      r.PublishedAt,
		IsCurrent:        r.IsCurrent,
		Rank:             e.Rank,
		Score:            e.Score,
		Tier:             e.Tier,
		Movement:         e.Movement,
	}, true
}
