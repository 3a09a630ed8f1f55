package core

import (
	"github.com/huangsam/powerrank/schema"
)

// ComposeScore combines post-modifier factors with the version weights and adds the
// platform risk adjustment after weighting. The result is floored at zero and never rounded.
func ComposeScore(factors schema.FactorScores, algo *schema.AlgorithmConfig, riskAdjustment float64) float64 {
	var raw float64
	for _, k := range schema.AllFactors {
		raw += algo.Weight(k) * factors.Get(k)
	}
	raw += riskAdjustment
	if raw < 0 {
		return 0
	}
	return raw
}

// ScoreBreakdown returns the weighted contribution of each factor, used for explanations.
func ScoreBreakdown(factors schema.FactorScores, algo *schema.AlgorithmConfig) map[schema.FactorKey]float64 {
	out := make(map[schema.FactorKey]float64, len(schema.AllFactors))
	for _, k := range schema.AllFactors {
		out[k] = algo.Weight(k) * factors.Get(k)
	}
	return out
}
