package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultThresholds = schema.ValidationThresholds{MaxDuplicatePct: 20, MinMovementCoverage: 0.5}

func intPtr(v int) *int { return &v }

// payloadOf builds a well-formed payload from scores in rank order.
func payloadOf(algo *schema.AlgorithmConfig, scores ...float64) schema.RankingPayload {
	p := schema.RankingPayload{Period: "2025-11", AlgorithmVersion: algo.Version, TotalTools: len(scores)}
	for i, s := range scores {
		p.Rankings = append(p.Rankings, schema.PayloadEntry{
			ToolID: fmt.Sprintf("tool-%02d", i),
			Rank:   i + 1,
			Score:  s,
			Tier:   algo.TierFor(i + 1),
		})
	}
	return p
}

func findingFor(t *testing.T, report schema.ValidationReport, check string) schema.Finding {
	t.Helper()
	for _, f := range report.Findings {
		if f.Check == check {
			return f
		}
	}
	require.Failf(t, "missing finding", "no %s finding", check)
	return schema.Finding{}
}

func TestValidateDistributionPasses(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")
	report := ValidateDistribution(ValidateInput{
		Payload:    payloadOf(algo, 9.1, 8.7, 8.2, 7.9, 7.5),
		SnapshotID: "s1",
		Algorithm:  algo,
		Thresholds: defaultThresholds,
	})

	assert.True(t, report.Passed, report.Failed())
	assert.Equal(t, "s1", report.SnapshotID)
	assert.Equal(t, 5, report.TotalTools)
	assert.Zero(t, report.DuplicatePct)
	assert.True(t, report.UniqueTop10)
	assert.True(t, report.UniqueTop20)
	assert.Len(t, report.Findings, 7)
	assert.Equal(t, "no previous snapshot", findingFor(t, report, schema.CheckMovementPresence).Detail)
	assert.Equal(t, "ranks 1..5", findingFor(t, report, schema.CheckRankDensity).Detail)
}

func TestValidateDistributionDuplicates(t *testing.T) {
	algo := mustAlgorithm(t, "7.2")
	// 7.34 and 7.31 both render as 7.3 at one decimal.
	report := ValidateDistribution(ValidateInput{
		Payload:    payloadOf(algo, 8.0, 7.34, 7.31, 6.0, 5.0),
		Algorithm:  algo,
		Thresholds: defaultThresholds,
	})

	assert.False(t, report.Passed)
	assert.InDelta(t, 40.0, report.DuplicatePct, 1e-9)
	assert.False(t, report.UniqueTop10)
	assert.False(t, findingFor(t, report, schema.CheckDuplicateScores).Passed)
	assert.Equal(t, "4 distinct scores in top 5", findingFor(t, report, schema.CheckTop10Unique).Detail)

	// The same scores are distinct at three decimals.
	fine := mustAlgorithm(t, "7.3")
	report = ValidateDistribution(ValidateInput{
		Payload:    payloadOf(fine, 8.0, 7.34, 7.31, 6.0, 5.0),
		Algorithm:  fine,
		Thresholds: defaultThresholds,
	})
	assert.True(t, report.Passed, report.Failed())
}

func TestValidateDistributionRankDensity(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")

	gap := payloadOf(algo, 9, 8, 7)
	gap.Rankings[2].Rank = 4
	f := findingFor(t, ValidateDistribution(ValidateInput{Payload: gap, Algorithm: algo, Thresholds: defaultThresholds}), schema.CheckRankDensity)
	assert.False(t, f.Passed)
	assert.Contains(t, f.Detail, "has rank 4")

	count := payloadOf(algo, 9, 8, 7)
	count.TotalTools = 4
	f = findingFor(t, ValidateDistribution(ValidateInput{Payload: count, Algorithm: algo, Thresholds: defaultThresholds}), schema.CheckRankDensity)
	assert.False(t, f.Passed)
}

func TestValidateDistributionTiers(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")

	t.Run("wrong band", func(t *testing.T) {
		p := payloadOf(algo, 9, 8, 7)
		p.Rankings[0].Tier = schema.TierA
		f := findingFor(t, ValidateDistribution(ValidateInput{Payload: p, Algorithm: algo, Thresholds: defaultThresholds}), schema.CheckTierConsistency)
		assert.False(t, f.Passed)
		assert.Contains(t, f.Detail, "want S")
	})

	t.Run("order only without algorithm", func(t *testing.T) {
		p := payloadOf(algo, 9, 8, 7)
		p.Rankings[0].Tier = schema.TierB
		f := findingFor(t, ValidateDistribution(ValidateInput{Payload: p, Thresholds: defaultThresholds}), schema.CheckTierConsistency)
		assert.False(t, f.Passed)
		assert.Contains(t, f.Detail, "above a worse rank")

		p = payloadOf(algo, 9, 8, 7)
		p.Rankings[2].Tier = schema.TierC
		f = findingFor(t, ValidateDistribution(ValidateInput{Payload: p, Thresholds: defaultThresholds}), schema.CheckTierConsistency)
		assert.True(t, f.Passed)
	})
}

func TestValidateDistributionMovement(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")

	t.Run("coverage below minimum", func(t *testing.T) {
		p := payloadOf(algo, 9, 8, 7, 6)
		p.Rankings[0].PreviousRank, p.Rankings[0].Movement = intPtr(2), intPtr(1)
		report := ValidateDistribution(ValidateInput{Payload: p, Algorithm: algo, HadPrevious: true, Thresholds: defaultThresholds})
		assert.InDelta(t, 0.25, report.MovementCoverage, 1e-9)
		assert.False(t, findingFor(t, report, schema.CheckMovementPresence).Passed)
		assert.True(t, findingFor(t, report, schema.CheckMovementPlausibility).Passed)
	})

	t.Run("first run ignores coverage", func(t *testing.T) {
		report := ValidateDistribution(ValidateInput{Payload: payloadOf(algo, 9, 8), Algorithm: algo, Thresholds: defaultThresholds})
		assert.True(t, findingFor(t, report, schema.CheckMovementPresence).Passed)
	})

	t.Run("implausible movement", func(t *testing.T) {
		p := payloadOf(algo, 9, 8)
		p.Rankings[1].PreviousRank, p.Rankings[1].Movement = intPtr(5), intPtr(1)
		f := findingFor(t, ValidateDistribution(ValidateInput{Payload: p, Algorithm: algo, Thresholds: defaultThresholds}), schema.CheckMovementPlausibility)
		assert.False(t, f.Passed)
		assert.Equal(t, "tool-01 moved 1 from 5 to 2", f.Detail)
	})

	t.Run("movement without previous rank", func(t *testing.T) {
		p := payloadOf(algo, 9, 8)
		p.Rankings[0].Movement = intPtr(0)
		f := findingFor(t, ValidateDistribution(ValidateInput{Payload: p, Algorithm: algo, Thresholds: defaultThresholds}), schema.CheckMovementPlausibility)
		assert.False(t, f.Passed)
	})
}

func TestValidateDistributionCurrency(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		history  []schema.SnapshotRecord
		expected string
		passed   bool
	}{
		{
			name:    "exactly one current",
			history: []schema.SnapshotRecord{{SnapshotID: "new", IsCurrent: true, PublishedAt: now}, {SnapshotID: "old", PublishedAt: now.AddDate(0, -1, 0)}},
			passed:  true,
		},
		{
			name:    "none current",
			history: []schema.SnapshotRecord{{SnapshotID: "old"}},
			passed:  false,
		},
		{
			name:    "two current",
			history: []schema.SnapshotRecord{{SnapshotID: "new", IsCurrent: true}, {SnapshotID: "old", IsCurrent: true}},
			passed:  false,
		},
		{
			name:     "previous still current",
			history:  []schema.SnapshotRecord{{SnapshotID: "old", IsCurrent: true}, {SnapshotID: "new"}},
			expected: "old",
			passed:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := ValidateDistribution(ValidateInput{
				Payload:            payloadOf(algo, 9, 8),
				Algorithm:          algo,
				History:            tt.history,
				ExpectedPreviousID: tt.expected,
				Thresholds:         defaultThresholds,
			})
			assert.Equal(t, tt.passed, findingFor(t, report, schema.CheckCurrency).Passed)
			assert.Equal(t, tt.passed, report.Passed)
		})
	}

	t.Run("skipped without history", func(t *testing.T) {
		report := ValidateDistribution(ValidateInput{Payload: payloadOf(algo, 9, 8), Algorithm: algo, Thresholds: defaultThresholds})
		for _, f := range report.Findings {
			assert.NotEqual(t, schema.CheckCurrency, f.Check)
		}
	})
}

func TestValidateDistributionEmpty(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")
	report := ValidateDistribution(ValidateInput{Payload: payloadOf(algo), Algorithm: algo, HadPrevious: true, Thresholds: defaultThresholds})
	assert.True(t, report.Passed, report.Failed())
	assert.Zero(t, report.DuplicatePct)
	assert.Equal(t, "no ranked tools", findingFor(t, report, schema.CheckMovementPresence).Detail)
}
