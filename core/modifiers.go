package core

import (
	"math"
	"time"

	"github.com/huangsam/powerrank/schema"
)

// daysPerMonth is the mean Gregorian month length.
const daysPerMonth = 30.4375

// InnovationDecay returns the multiplier 2^(-age/halfLife) applied to the innovation factor.
// Undated innovation keeps full credit, so does a zero half-life. Event dates in the
// future relative to the evaluation time count as age zero.
func InnovationDecay(eventDate *time.Time, at time.Time, halfLifeMonths float64) float64 {
	if eventDate == nil || halfLifeMonths <= 0 {
		return 1
	}
	ageMonths := at.Sub(*eventDate).Hours() / 24 / daysPerMonth
	if ageMonths <= 0 {
		return 1
	}
	return math.Exp2(-ageMonths / halfLifeMonths)
}

// ComputeModifiers derives the contextual adjustments for one tool and returns them
// together with the adjusted factor scores. It is a pure function of its inputs.
func ComputeModifiers(tool schema.Tool, ex Extraction, algo *schema.AlgorithmConfig, at time.Time) (schema.ModifierSet, schema.FactorScores) {
	info := layers{tool.Info}
	factors := ex.Factors

	mods := schema.ModifierSet{
		InnovationDecay: InnovationDecay(ex.InnovationDate, at, algo.DecayHalfLifeMonths),
	}
	factors.Innovation *= mods.InnovationDecay

	mods.PlatformRisk, mods.RiskRules = evaluateRisk(info, algo.Risk)

	mods.RevenueModel, mods.RevenueQuality = classifyRevenue(info, algo)
	factors.MarketTraction -= ex.RevenueContribution * (1 - mods.RevenueQuality)
	factors.MarketTraction = max(factors.MarketTraction, 0)

	return mods, factors
}

// evaluateRisk applies every rule independently and sums the matching adjustments.
func evaluateRisk(info layers, rules []schema.RiskRule) (float64, []string) {
	var total float64
	var matched []string
	for _, rule := range rules {
		if matchRule(info, rule) {
			total += rule.Adjustment
			matched = append(matched, rule.Name)
		}
	}
	return total, matched
}

// matchRule evaluates one predicate. Absent fields never match.
func matchRule(info layers, rule schema.RiskRule) bool {
	switch rule.Kind {
	case schema.PredicateCountGTE, schema.PredicateCountLTE:
		for _, p := range rule.Paths {
			raw, ok := info.lookup(p)
			if !ok {
				continue
			}
			n, ok := toCount(raw)
			if !ok {
				continue
			}
			if rule.Kind == schema.PredicateCountGTE {
				return n >= rule.Threshold
			}
			return n <= rule.Threshold
		}
		return false
	}

	for _, p := range rule.Paths {
		raw, ok := info.lookup(p)
		if !ok {
			continue
		}
		switch rule.Kind {
		case schema.PredicateFlag:
			if b, ok := toBool(raw); ok && b {
				return true
			}
		case schema.PredicateIn:
			s, ok := raw.(string)
			if !ok {
				continue
			}
			key := schema.NormalizeKey(s)
			for _, want := range rule.Values {
				if key == schema.NormalizeKey(want) {
					return true
				}
			}
		case schema.PredicateGTE:
			if f, ok := toFloat(raw); ok && f >= rule.Threshold {
				return true
			}
		case schema.PredicateLTE:
			if f, ok := toFloat(raw); ok && f <= rule.Threshold {
				return true
			}
		}
	}
	return false
}

// classifyRevenue reads the first business model present and maps it onto a multiplier.
// Missing or unrecognized models resolve to the table default.
func classifyRevenue(info layers, algo *schema.AlgorithmConfig) (string, float64) {
	if !algo.Revenue.Enabled() {
		return "", 1
	}
	for _, p := range algo.Revenue.Paths {
		if raw, ok := info.lookup(p); ok {
			if s, ok := raw.(string); ok && s != "" {
				return algo.RevenueMultiplier(s)
			}
		}
	}
	return algo.RevenueMultiplier("")
}
