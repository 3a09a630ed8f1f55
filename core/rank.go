package core

import (
	"cmp"
	"slices"
	"strings"

	"github.com/huangsam/powerrank/schema"
)

// isRankable reports whether a tool takes part in the ranking.
// An empty status is treated as active.
func isRankable(s schema.ToolStatus) bool {
	return s == "" || s == schema.ActiveStatus
}

// compareScored orders by score descending, then name and id ascending.
// Full precision scores are compared so rounding never creates ties.
func compareScored(a, b schema.ScoredEntry) int {
	if c := cmp.Compare(b.OverallScore, a.OverallScore); c != 0 {
		return c
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.ToolID, b.ToolID)
}

// RankEntries sorts the rankable entries and assigns dense ranks 1..N and tiers.
// Entries that are not rankable are returned separately in their input order.
func RankEntries(entries []schema.ScoredEntry, algo *schema.AlgorithmConfig) ([]schema.RankedEntry, []schema.ScoredEntry) {
	eligible := make([]schema.ScoredEntry, 0, len(entries))
	var unranked []schema.ScoredEntry
	for _, e := range entries {
		if isRankable(e.Status) {
			eligible = append(eligible, e)
		} else {
			unranked = append(unranked, e)
		}
	}
	slices.SortFunc(eligible, compareScored)

	ranked := make([]schema.RankedEntry, len(eligible))
	for i, e := range eligible {
		rank := i + 1
		ranked[i] = schema.RankedEntry{
			ScoredEntry: e,
			Rank:        rank,
			Tier:        algo.TierFor(rank),
		}
	}
	return ranked, unranked
}

// LimitRanked returns at most limit entries.
func LimitRanked(ranked []schema.RankedEntry, limit int) []schema.RankedEntry {
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
