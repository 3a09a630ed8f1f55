package core

import (
	"errors"
	"fmt"

	"github.com/huangsam/powerrank/schema"
)

// ErrValidationFailed is returned by callers that gate on a failing report.
var ErrValidationFailed = errors.New("distribution validation failed")

// ValidateInput holds everything the distribution checks look at.
type ValidateInput struct {
	Payload            schema.RankingPayload
	SnapshotID         string
	Algorithm          *schema.AlgorithmConfig // nil skips the band check
	HadPrevious        bool
	History            []schema.SnapshotRecord // nil skips the currency check
	ExpectedPreviousID string
	Thresholds         schema.ValidationThresholds
}

// ValidateDistribution runs every distribution check over a payload. The report is
// advisory; callers decide whether a failure blocks promotion.
func ValidateDistribution(in ValidateInput) schema.ValidationReport {
	p := in.Payload
	report := schema.ValidationReport{
		SnapshotID:       in.SnapshotID,
		Period:           p.Period,
		AlgorithmVersion: p.AlgorithmVersion,
		TotalTools:       len(p.Rankings),
	}

	precision := 3
	if in.Algorithm != nil {
		precision = in.Algorithm.ScorePrecision
	}
	rounded := make([]string, len(p.Rankings))
	for i, e := range p.Rankings {
		rounded[i] = schema.FormatScore(e.Score, precision)
	}

	report.DuplicatePct = duplicatePct(rounded)
	report.Findings = append(report.Findings, schema.Finding{
		Check:  schema.CheckDuplicateScores,
		Passed: report.DuplicatePct <= in.Thresholds.MaxDuplicatePct,
		Detail: fmt.Sprintf("%.1f%% of tools share a score (max %.1f%%)", report.DuplicatePct, in.Thresholds.MaxDuplicatePct),
	})

	report.UniqueTop10 = uniqueTop(rounded, 10)
	report.UniqueTop20 = uniqueTop(rounded, 20)
	report.Findings = append(report.Findings,
		schema.Finding{Check: schema.CheckTop10Unique, Passed: report.UniqueTop10, Detail: topDetail(rounded, 10)},
		schema.Finding{Check: schema.CheckTop20Unique, Passed: report.UniqueTop20, Detail: topDetail(rounded, 20)},
		checkRankDensity(p),
		checkTierConsistency(p, in.Algorithm),
	)

	report.MovementCoverage = movementCoverage(p)
	report.Findings = append(report.Findings, checkMovementPresence(report.MovementCoverage, in), checkMovementPlausibility(p))

	if in.History != nil {
		report.Findings = append(report.Findings, checkCurrency(in.History, in.ExpectedPreviousID))
	}

	report.Passed = true
	for _, f := range report.Findings {
		if !f.Passed {
			report.Passed = false
			break
		}
	}
	return report
}

// duplicatePct is the percentage of entries whose rounded score appears more than once.
func duplicatePct(rounded []string) float64 {
	if len(rounded) == 0 {
		return 0
	}
	counts := make(map[string]int, len(rounded))
	for _, s := range rounded {
		counts[s]++
	}
	dup := 0
	for _, s := range rounded {
		if counts[s] > 1 {
			dup++
		}
	}
	return 100 * float64(dup) / float64(len(rounded))
}

func uniqueTop(rounded []string, n int) bool {
	n = min(n, len(rounded))
	seen := make(map[string]struct{}, n)
	for _, s := range rounded[:n] {
		if _, ok := seen[s]; ok {
			return false
		}
		seen[s] = struct{}{}
	}
	return true
}

func topDetail(rounded []string, n int) string {
	n = min(n, len(rounded))
	seen := make(map[string]struct{}, n)
	for _, s := range rounded[:n] {
		seen[s] = struct{}{}
	}
	return fmt.Sprintf("%d distinct scores in top %d", len(seen), n)
}

func checkRankDensity(p schema.RankingPayload) schema.Finding {
	f := schema.Finding{Check: schema.CheckRankDensity, Passed: true, Detail: fmt.Sprintf("ranks 1..%d", len(p.Rankings))}
	if p.TotalTools != len(p.Rankings) {
		f.Passed = false
		f.Detail = fmt.Sprintf("total_tools %d but %d entries", p.TotalTools, len(p.Rankings))
		return f
	}
	for i, e := range p.Rankings {
		if e.Rank != i+1 {
			f.Passed = false
			f.Detail = fmt.Sprintf("entry %d (%s) has rank %d", i+1, e.ToolID, e.Rank)
			return f
		}
	}
	return f
}

func checkTierConsistency(p schema.RankingPayload, algo *schema.AlgorithmConfig) schema.Finding {
	f := schema.Finding{Check: schema.CheckTierConsistency, Passed: true, Detail: "tiers follow rank order"}
	prev := -1
	for _, e := range p.Rankings {
		if algo != nil {
			if want := algo.TierFor(e.Rank); e.Tier != want {
				f.Passed = false
				f.Detail = fmt.Sprintf("%s at rank %d has tier %s, want %s", e.ToolID, e.Rank, e.Tier, want)
				return f
			}
		}
		idx := schema.TierIndex(e.Tier)
		if idx < prev {
			f.Passed = false
			f.Detail = fmt.Sprintf("%s at rank %d has tier %s above a worse rank", e.ToolID, e.Rank, e.Tier)
			return f
		}
		prev = idx
	}
	return f
}

func movementCoverage(p schema.RankingPayload) float64 {
	if len(p.Rankings) == 0 {
		return 0
	}
	with := 0
	for _, e := range p.Rankings {
		if e.Movement != nil {
			with++
		}
	}
	return float64(with) / float64(len(p.Rankings))
}

func checkMovementPresence(coverage float64, in ValidateInput) schema.Finding {
	f := schema.Finding{Check: schema.CheckMovementPresence, Passed: true}
	switch {
	case !in.HadPrevious:
		f.Detail = "no previous snapshot"
	case len(in.Payload.Rankings) == 0:
		f.Detail = "no ranked tools"
	default:
		f.Passed = coverage >= in.Thresholds.MinMovementCoverage
		f.Detail = fmt.Sprintf("%.0f%% of tools carry movement (min %.0f%%)", 100*coverage, 100*in.Thresholds.MinMovementCoverage)
	}
	return f
}

func checkMovementPlausibility(p schema.RankingPayload) schema.Finding {
	f := schema.Finding{Check: schema.CheckMovementPlausibility, Passed: true, Detail: "movement matches previous rank"}
	for _, e := range p.Rankings {
		if (e.Movement == nil) != (e.PreviousRank == nil) {
			f.Passed = false
			f.Detail = fmt.Sprintf("%s has movement without previous rank", e.ToolID)
			return f
		}
		if e.Movement == nil {
			continue
		}
		if *e.PreviousRank < 1 || *e.Movement != *e.PreviousRank-e.Rank {
			f.Passed = false
			f.Detail = fmt.Sprintf("%s moved %d from %d to %d", e.ToolID, *e.Movement, *e.PreviousRank, e.Rank)
			return f
		}
	}
	return f
}

func checkCurrency(history []schema.SnapshotRecord, expectedPreviousID string) schema.Finding {
	f := schema.Finding{Check: schema.CheckCurrency, Passed: true}
	var current []string
	for _, r := range history {
		if r.IsCurrent {
			current = append(current, r.SnapshotID)
		}
	}
	switch {
	case len(current) != 1:
		f.Passed = false
		f.Detail = fmt.Sprintf("%d current snapshots, want exactly 1", len(current))
	case expectedPreviousID != "" && current[0] == expectedPreviousID:
		f.Passed = false
		f.Detail = fmt.Sprintf("previous snapshot %s is still current", expectedPreviousID)
	default:
		f.Detail = fmt.Sprintf("current snapshot %s", current[0])
	}
	return f
}
