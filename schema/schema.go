// Package schema has configs, models and global variables for all parts of powerrank.
package schema

import (
	"encoding/json"
	"time"
)

// Tool is one tool record as supplied by the tool repository.
// Info is a free-form nested metadata bag whose shape varies between records.
type Tool struct {
	ID       string         `json:"id" validate:"required"`
	Name     string         `json:"name" validate:"required"`
	Category string         `json:"category"`
	Status   ToolStatus     `json:"status" validate:"omitempty,oneof=active inactive deprecated"`
	Info     map[string]any `json:"info"`
}

// NewsArticle is one news article with the tools it mentions.
type NewsArticle struct {
	ID           string    `json:"id" validate:"required"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Source       string    `json:"source"`
	PublishedAt  time.Time `json:"published_at" validate:"required"`
	Tags         []string  `json:"tags"`
	ToolMentions []string  `json:"tool_mentions"`
	Sentiment    *float64  `json:"sentiment,omitempty" validate:"omitempty,gte=-1,lte=1"`
	Importance   *float64  `json:"importance,omitempty"`
}

// FactorScores holds the eight scoring dimensions for one tool.
// Every field is always populated; absent source data resolves to a default.
type FactorScores struct {
	AgenticCapability    float64 `json:"agentic_capability"`
	Innovation           float64 `json:"innovation"`
	TechnicalPerformance float64 `json:"technical_performance"`
	DeveloperAdoption    float64 `json:"developer_adoption"`
	MarketTraction       float64 `json:"market_traction"`
	BusinessSentiment    float64 `json:"business_sentiment"`
	DevelopmentVelocity  float64 `json:"development_velocity"`
	PlatformResilience   float64 `json:"platform_resilience"`
}

// Get returns the value for a factor key. Unknown keys return 0.
func (f FactorScores) Get(key FactorKey) float64 {
	switch key {
	case AgenticCapability:
		return f.AgenticCapability
	case Innovation:
		return f.Innovation
	case TechnicalPerformance:
		return f.TechnicalPerformance
	case DeveloperAdoption:
		return f.DeveloperAdoption
	case MarketTraction:
		return f.MarketTraction
	case BusinessSentiment:
		return f.BusinessSentiment
	case DevelopmentVelocity:
		return f.DevelopmentVelocity
	case PlatformResilience:
		return f.PlatformResilience
	}
	return 0
}

// Set returns a copy of f with the factor key set to v.
func (f FactorScores) Set(key FactorKey, v float64) FactorScores {
	switch key {
	case AgenticCapability:
		f.AgenticCapability = v
	case Innovation:
		f.Innovation = v
	case TechnicalPerformance:
		f.TechnicalPerformance = v
	case DeveloperAdoption:
		f.DeveloperAdoption = v
	case MarketTraction:
		f.MarketTraction = v
	case BusinessSentiment:
		f.BusinessSentiment = v
	case DevelopmentVelocity:
		f.DevelopmentVelocity = v
	case PlatformResilience:
		f.PlatformResilience = v
	}
	return f
}

// Map returns the factor scores keyed by factor name.
func (f FactorScores) Map() map[FactorKey]float64 {
	out := make(map[FactorKey]float64, len(AllFactors))
	for _, k := range AllFactors {
		out[k] = f.Get(k)
	}
	return out
}

// ModifierSet holds the contextual adjustments computed for one tool in one run.
type ModifierSet struct {
	InnovationDecay float64  // multiplier applied to the innovation factor, 1 when undated
	PlatformRisk    float64  // additive adjustment applied after weighting
	RiskRules       []string // names of the matched risk rules, in table order
	RevenueModel    string   // classified business model
	RevenueQuality  float64  // multiplier applied to the revenue component of market traction
}

// ScoredEntry is the output of composing one tool.
type ScoredEntry struct {
	ToolID       string
	Name         string
	Category     string
	Status       ToolStatus
	OverallScore float64      // full precision, never rounded in the pipeline
	Factors      FactorScores // post-modifier
	Modifiers    ModifierSet
	Defaulted    []string // components resolved from defaults, as "factor.component"
}

// Movement records how a tool moved relative to the previous period.
type Movement struct {
	PreviousPosition int       `json:"previous_position"`
	Change           int       `json:"change"` // previous - current, positive is an improvement
	Direction        Direction `json:"direction"`
}

// RankedEntry is a scored entry with its rank, tier, and movement.
// Movement is nil for tools absent from the previous snapshot.
type RankedEntry struct {
	ScoredEntry
	Rank     int
	Tier     Tier
	Movement *Movement
}

// RankingSnapshot is the persisted artifact for one ranking run.
type RankingSnapshot struct {
	SnapshotID       string
	Period           string
	AlgorithmVersion string
	IsCurrent        bool
	PublishedAt      time.Time
	Payload          RankingPayload
}

// PayloadJSON returns the canonical JSON encoding of the snapshot payload.
func (s RankingSnapshot) PayloadJSON() ([]byte, error) {
	return json.Marshal(s.Payload)
}
