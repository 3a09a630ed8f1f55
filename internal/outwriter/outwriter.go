// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRankings prints a ranking run using the configured output format.
func (ow *OutWriter) WriteRankings(result schema.RankingResult, cfg *contract.Config, duration time.Duration) error {
	return WriteRankings(result, cfg, duration)
}

// WriteValidation prints a distribution report using the configured output format.
func (ow *OutWriter) WriteValidation(report schema.ValidationReport, cfg *contract.Config) error {
	return WriteValidation(report, cfg)
}

// WriteAlgorithms prints algorithm versions using the configured output format.
func (ow *OutWriter) WriteAlgorithms(algos []*schema.AlgorithmConfig, cfg *contract.Config) error {
	return WriteAlgorithms(algos, cfg)
}

// WriteSnapshots prints snapshot metadata using the configured output format.
func (ow *OutWriter) WriteSnapshots(records []schema.SnapshotRecord, cfg *contract.Config) error {
	return WriteSnapshots(records, cfg)
}

// WriteToolHistory prints one tool's history using the configured output format.
func (ow *OutWriter) WriteToolHistory(toolID string, points []schema.ToolHistoryPoint, cfg *contract.Config) error {
	return WriteToolHistory(toolID, points, cfg)
}
