// Package parquet provides data structures and functions for exporting powerrank
// snapshots to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/powerrank/schema"
	"github.com/parquet-go/parquet-go"
)

// Snapshot represents the metadata of one persisted ranking snapshot.
// This struct maps to the powerrank_snapshots database table without the payload.
type Snapshot struct {
	// SnapshotID is the unique identifier for this snapshot
	SnapshotID string `parquet:"snapshot_id,snappy"`

	// Period is the ranking period in YYYY-MM form
	Period string `parquet:"period,snappy"`

	// AlgorithmVersion is the version of the algorithm that produced the snapshot
	AlgorithmVersion string `parquet:"algorithm_version,snappy"`

	// IsCurrent marks the single snapshot readers are served
	IsCurrent bool `parquet:"is_current,snappy"`

	// PublishedAt is the evaluation time of the run (stored as TIMESTAMP with nanosecond precision)
	PublishedAt time.Time `parquet:"published_at,snappy"`

	// TotalTools is the number of ranked tools
	TotalTools int32 `parquet:"total_tools,snappy"`
}

// Ranking represents one ranked tool inside a snapshot, flattened for analytics.
type Ranking struct {
	SnapshotID       string `parquet:"snapshot_id,snappy"`
	Period           string `parquet:"period,snappy"`
	AlgorithmVersion string `parquet:"algorithm_version,snappy"`

	Rank     int32   `parquet:"rank,snappy"`
	ToolID   string  `parquet:"tool_id,snappy"`
	ToolName string  `parquet:"tool_name,snappy"`
	Category string  `parquet:"category,snappy"`
	Score    float64 `parquet:"score,snappy"`
	Tier     string  `parquet:"tier,snappy"`

	// PreviousRank and Movement are null for tools that are new this period
	PreviousRank *int32 `parquet:"previous_rank,optional,snappy"`
	Movement     *int32 `parquet:"movement,optional,snappy"`

	AgenticCapability    float64 `parquet:"agentic_capability,snappy"`
	Innovation           float64 `parquet:"innovation,snappy"`
	TechnicalPerformance float64 `parquet:"technical_performance,snappy"`
	DeveloperAdoption    float64 `parquet:"developer_adoption,snappy"`
	MarketTraction       float64 `parquet:"market_traction,snappy"`
	BusinessSentiment    float64 `parquet:"business_sentiment,snappy"`
	DevelopmentVelocity  float64 `parquet:"development_velocity,snappy"`
	PlatformResilience   float64 `parquet:"platform_resilience,snappy"`
}

// WriteSnapshotsParquet writes snapshot metadata rows to a Parquet file.
func WriteSnapshotsParquet(data []Snapshot, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRankingsParquet writes flattened ranking rows to a Parquet file.
func WriteRankingsParquet(data []Ranking, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows using struct schema inference from the parquet tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ReadRankingsParquet reads ranking rows back from a Parquet file.
func ReadRankingsParquet(path string) ([]Ranking, error) {
	rows, err := parquet.ReadFile[Ranking](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}

// ConvertSnapshotRecords converts schema.SnapshotRecord to Snapshot for Parquet export.
func ConvertSnapshotRecords(records []schema.SnapshotRecord) []Snapshot {
	result := make([]Snapshot, len(records))
	for i, record := range records {
		result[i] = Snapshot{
			SnapshotID:       record.SnapshotID,
			Period:           record.Period,
			AlgorithmVersion: record.AlgorithmVersion,
			IsCurrent:        record.IsCurrent,
			PublishedAt:      record.PublishedAt,
			TotalTools:       record.TotalTools,
		}
	}
	return result
}

// ConvertPayload flattens a ranking payload into Ranking rows.
func ConvertPayload(snapshotID string, payload schema.RankingPayload) []Ranking {
	result := make([]Ranking, len(payload.Rankings))
	for i, e := range payload.Rankings {
		result[i] = Ranking{
			SnapshotID:           snapshotID,
			Period:               payload.Period,
			AlgorithmVersion:     payload.AlgorithmVersion,
			Rank:                 int32(e.Rank),
			ToolID:               e.ToolID,
			ToolName:             e.ToolName,
			Category:             e.Category,
			Score:                e.Score,
			Tier:                 string(e.Tier),
			PreviousRank:         int32Ptr(e.PreviousRank),
			Movement:             int32Ptr(e.Movement),
			AgenticCapability:    e.FactorScores[schema.AgenticCapability],
			Innovation:           e.FactorScores[schema.Innovation],
			TechnicalPerformance: e.FactorScores[schema.TechnicalPerformance],
			DeveloperAdoption:    e.FactorScores[schema.DeveloperAdoption],
			MarketTraction:       e.FactorScores[schema.MarketTraction],
			BusinessSentiment:    e.FactorScores[schema.BusinessSentiment],
			DevelopmentVelocity:  e.FactorScores[schema.DevelopmentVelocity],
			PlatformResilience:   e.FactorScores[schema.PlatformResilience],
		}
	}
	return result
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}
