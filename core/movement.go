package core

import (
	"github.com/huangsam/powerrank/schema"
)

// ApplyMovement annotates each ranked entry with its movement against the previous
// snapshot. Entries are matched by tool id only; a tool whose id changed is new.
func ApplyMovement(ranked []schema.RankedEntry, previous *schema.RankingPayload) []schema.RankedEntry {
	if previous == nil {
		return ranked
	}
	prevRank := make(map[string]int, len(previous.Rankings))
	for _, e := range previous.Rankings {
		prevRank[e.ToolID] = e.Rank
	}
	for i := range ranked {
		prev, ok := prevRank[ranked[i].ToolID]
		if !ok {
			ranked[i].Movement = nil
			continue
		}
		change := prev - ranked[i].Rank
		ranked[i].Movement = &schema.Movement{
			PreviousPosition: prev,
			Change:           change,
			Direction:        schema.DirectionOf(change),
		}
	}
	return ranked
}
