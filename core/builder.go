package core

import (
	"time"

	"github.com/huangsam/powerrank/schema"
)

// ToolScoreBuilder builds the scored entry for one tool.
type ToolScoreBuilder struct {
	tool   schema.Tool
	news   NewsSignal
	algo   *schema.AlgorithmConfig
	at     time.Time
	result *schema.ScoredEntry

	// Internal data collected during the build process
	extraction Extraction
}

// NewToolScoreBuilder is the starting point for scoring a tool.
func NewToolScoreBuilder(tool schema.Tool, news NewsSignal, algo *schema.AlgorithmConfig, at time.Time) *ToolScoreBuilder {
	return &ToolScoreBuilder{
		tool: tool,
		news: news,
		algo: algo,
		at:   at,
		result: &schema.ScoredEntry{
			ToolID:   tool.ID,
			Name:     tool.Name,
			Category: tool.Category,
			Status:   tool.Status,
		},
	}
}

// ExtractFactors resolves the raw factor scores from the tool metadata and news signals.
func (b *ToolScoreBuilder) ExtractFactors() *ToolScoreBuilder {
	b.extraction = ExtractFactors(b.tool, b.news, b.algo)
	b.result.Factors = b.extraction.Factors
	b.result.Defaulted = b.extraction.Defaulted
	return b
}

// ApplyModifiers applies innovation decay, platform risk and revenue quality.
func (b *ToolScoreBuilder) ApplyModifiers() *ToolScoreBuilder {
	b.result.Modifiers, b.result.Factors = ComputeModifiers(b.tool, b.extraction, b.algo, b.at)
	return b
}

// ComposeScore computes the overall score from the adjusted factors.
func (b *ToolScoreBuilder) ComposeScore() *ToolScoreBuilder {
	b.result.OverallScore = ComposeScore(b.result.Factors, b.algo, b.result.Modifiers.PlatformRisk)
	return b
}

// Build returns the final scored entry.
func (b *ToolScoreBuilder) Build() schema.ScoredEntry {
	return *b.result
}

// ScoreTool runs the full per-tool chain.
func ScoreTool(tool schema.Tool, news NewsSignal, algo *schema.AlgorithmConfig, at time.Time) schema.ScoredEntry {
	return NewToolScoreBuilder(tool, news, algo, at).
		ExtractFactors().
		ApplyModifiers().
		ComposeScore().
		Build()
}
