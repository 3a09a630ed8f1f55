package core

import (
	"math"
	"testing"
	"time"

	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAlgorithm(t *testing.T, version string) *schema.AlgorithmConfig {
	t.Helper()
	reg, err := schema.DefaultRegistry()
	require.NoError(t, err)
	algo, err := reg.Get(version)
	require.NoError(t, err)
	return algo
}

func uniformFactors(v float64) schema.FactorScores {
	var f schema.FactorScores
	for _, k := range schema.AllFactors {
		f = f.Set(k, v)
	}
	return f
}

// TestWeightsSumToOne checks every built-in version.
func TestWeightsSumToOne(t *testing.T) {
	reg, err := schema.DefaultRegistry()
	require.NoError(t, err)
	for _, v := range reg.Versions() {
		t.Run(v, func(t *testing.T) {
			algo, err := reg.Get(v)
			require.NoError(t, err)
			assert.InDelta(t, 1.0, algo.WeightSum(), 1e-9)
			assert.NoError(t, algo.ValidateWeights())
		})
	}
}

func TestComposeScore(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")

	tests := []struct {
		name     string
		factors  schema.FactorScores
		risk     float64
		expected float64
	}{
		{name: "uniform factors", factors: uniformFactors(6), expected: 6},
		{name: "risk applied after weighting", factors: uniformFactors(6), risk: -0.5, expected: 5.5},
		{name: "bonus", factors: uniformFactors(2), risk: 0.25, expected: 2.25},
		{name: "floored at zero", factors: uniformFactors(0.1), risk: -3, expected: 0},
		{name: "all zero", factors: schema.FactorScores{}, expected: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ComposeScore(tt.factors, algo, tt.risk), 1e-9)
		})
	}
}

func TestScoreBreakdownMatchesCompose(t *testing.T) {
	algo := mustAlgorithm(t, "7.2")
	factors := schema.FactorScores{
		AgenticCapability:    8,
		Innovation:           6,
		TechnicalPerformance: 7,
		DeveloperAdoption:    5,
		MarketTraction:       4,
		BusinessSentiment:    6,
		DevelopmentVelocity:  3,
		PlatformResilience:   2,
	}
	var sum float64
	for _, v := range ScoreBreakdown(factors, algo) {
		sum += v
	}
	assert.InDelta(t, ComposeScore(factors, algo, 0), sum, 1e-9)
}

// TestScoreToolEmptyInfo checks that a tool without any metadata still scores finitely.
func TestScoreToolEmptyInfo(t *testing.T) {
	at := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	reg, err := schema.DefaultRegistry()
	require.NoError(t, err)

	for _, v := range reg.Versions() {
		t.Run(v, func(t *testing.T) {
			algo, err := reg.Get(v)
			require.NoError(t, err)
			entry := ScoreTool(schema.Tool{ID: "bare", Name: "Bare"}, NewsSignal{}, algo, at)

			assert.False(t, math.IsNaN(entry.OverallScore))
			assert.False(t, math.IsInf(entry.OverallScore, 0))
			assert.GreaterOrEqual(t, entry.OverallScore, 0.0)
			for _, k := range schema.AllFactors {
				f := entry.Factors.Get(k)
				assert.False(t, math.IsNaN(f), "factor %s", k)
				assert.GreaterOrEqual(t, f, 0.0, "factor %s", k)
				assert.LessOrEqual(t, f, algo.FactorScale, "factor %s", k)
			}
			assert.NotEmpty(t, entry.Defaulted)
			assert.Equal(t, 1.0, entry.Modifiers.InnovationDecay)
		})
	}
}

func TestScoreToolUsesMetadata(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")
	at := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	weak := ScoreTool(schema.Tool{ID: "weak", Name: "Weak", Info: map[string]any{
		"metrics": map[string]any{"agentic_capability": 2.0, "innovation_score": 2.0},
	}}, NewsSignal{}, algo, at)
	strong := ScoreTool(schema.Tool{ID: "strong", Name: "Strong", Info: map[string]any{
		"metrics":   map[string]any{"agentic_capability": 9.5, "innovation_score": 9.0, "github_stars": 50_000},
		"technical": map[string]any{"autonomous_mode": true, "mcp_support": true, "multi_file_support": true},
	}}, NewsSignal{}, algo, at)

	assert.Greater(t, strong.OverallScore, weak.OverallScore)
	assert.Greater(t, strong.Factors.AgenticCapability, weak.Factors.AgenticCapability)
	assert.NotContains(t, strong.Defaulted, "agentic_capability.score")
	assert.Contains(t, weak.Defaulted, "agentic_capability.autonomy")
}

func TestScoreToolNewsRaisesVelocity(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")
	at := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	tool := schema.Tool{ID: "cursor", Name: "Cursor"}

	quiet := ScoreTool(tool, NewsSignal{}, algo, at)
	covered := ScoreTool(tool, NewsSignal{MentionCount: 12, RecentMentions: 10, SentimentSum: 8, SentimentCount: 10}, algo, at)

	assert.Greater(t, covered.Factors.DevelopmentVelocity, quiet.Factors.DevelopmentVelocity)
	assert.Greater(t, covered.Factors.BusinessSentiment, quiet.Factors.BusinessSentiment)
}

func TestScoreToolIgnoresNewsInMetadata(t *testing.T) {
	algo := mustAlgorithm(t, "7.3")
	at := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	plain := schema.Tool{ID: "cursor", Name: "Cursor"}
	stuffed := schema.Tool{ID: "cursor", Name: "Cursor", Info: map[string]any{
		"news": map[string]any{"avg_sentiment": 1.0, "recent_mentions": 999},
	}}

	// Without coverage, self-reported news fields change nothing.
	base := ScoreTool(plain, NewsSignal{}, algo, at)
	faked := ScoreTool(stuffed, NewsSignal{}, algo, at)
	assert.Equal(t, base.Factors, faked.Factors)
	assert.Equal(t, base.OverallScore, faked.OverallScore)
	assert.Contains(t, faked.Defaulted, "development_velocity.news_mentions")

	// With coverage, only the aggregated signal counts.
	signal := NewsSignal{MentionCount: 2, RecentMentions: 1, SentimentSum: -1, SentimentCount: 2}
	base = ScoreTool(plain, signal, algo, at)
	faked = ScoreTool(stuffed, signal, algo, at)
	assert.Equal(t, base.Factors, faked.Factors)
	assert.NotContains(t, faked.Defaulted, "development_velocity.news_mentions")
}
