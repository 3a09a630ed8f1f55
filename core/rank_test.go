package core

import (
	"fmt"
	"testing"

	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id, name string, score float64, status schema.ToolStatus) schema.ScoredEntry {
	return schema.ScoredEntry{ToolID: id, Name: name, OverallScore: score, Status: status}
}

func TestRankEntries(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")

	entries := []schema.ScoredEntry{
		scored("b", "Beta", 7.5, schema.ActiveStatus),
		scored("a", "alpha", 7.5, ""),
		scored("gone", "Gone", 9.9, schema.DeprecatedStatus),
		scored("c", "Gamma", 8.0001, schema.ActiveStatus),
		scored("a2", "Alpha", 7.5, schema.ActiveStatus),
		scored("off", "Off", 9.0, schema.InactiveStatus),
	}

	ranked, unranked := RankEntries(entries, algo)

	ids := make([]string, len(ranked))
	for i, e := range ranked {
		ids[i] = e.ToolID
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, []string{"c", "a", "a2", "b"}, ids)

	require.Len(t, unranked, 2)
	assert.Equal(t, "gone", unranked[0].ToolID)
	assert.Equal(t, "off", unranked[1].ToolID)
}

func TestRankEntriesTiers(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")

	entries := make([]schema.ScoredEntry, 60)
	for i := range entries {
		entries[i] = scored(fmt.Sprintf("tool-%02d", i), fmt.Sprintf("Tool %02d", i), float64(100-i), schema.ActiveStatus)
	}
	ranked, unranked := RankEntries(entries, algo)
	require.Len(t, ranked, 60)
	assert.Empty(t, unranked)

	assert.Equal(t, schema.TierS, ranked[0].Tier)
	assert.Equal(t, schema.TierS, ranked[4].Tier)
	assert.Equal(t, schema.TierA, ranked[5].Tier)
	assert.Equal(t, schema.TierA, ranked[14].Tier)
	assert.Equal(t, schema.TierB, ranked[15].Tier)
	assert.Equal(t, schema.TierC, ranked[44].Tier)
	assert.Equal(t, schema.TierD, ranked[45].Tier)
	assert.Equal(t, schema.TierD, ranked[59].Tier)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, schema.TierIndex(ranked[i].Tier), schema.TierIndex(ranked[i-1].Tier))
	}
}

func TestRankEntriesEmpty(t *testing.T) {
	ranked, unranked := RankEntries(nil, mustAlgorithm(t, "7.3"))
	assert.Empty(t, ranked)
	assert.Empty(t, unranked)
}

func TestLimitRanked(t *testing.T) {
	ranked := make([]schema.RankedEntry, 5)
	tests := []struct {
		limit    int
		expected int
	}{
		{limit: 0, expected: 5},
		{limit: -1, expected: 5},
		{limit: 3, expected: 3},
		{limit: 10, expected: 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.limit), func(t *testing.T) {
			assert.Len(t, LimitRanked(ranked, tt.limit), tt.expected)
		})
	}
}
