package parquet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/powerrank/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingStructTags(t *testing.T) {
	// Verify struct tags are properly defined for parquet schema inference
	s := parquet.SchemaOf(new(Ranking))
	require.NotNil(t, s)

	expectedColumns := []string{
		"snapshot_id", "period", "algorithm_version", "rank", "tool_id", "tool_name",
		"category", "score", "tier", "previous_rank", "movement",
	}
	for _, k := range schema.AllFactors {
		expectedColumns = append(expectedColumns, string(k))
	}

	for _, colName := range expectedColumns {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func TestSnapshotStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(Snapshot))
	for _, colName := range []string{"snapshot_id", "period", "algorithm_version", "is_current", "published_at", "total_tools"} {
		_, ok := s.Lookup(colName)
		require.True(t, ok, "Column %s should exist in schema", colName)
	}
}

func samplePayload() schema.RankingPayload {
	prev, move := 3, 2
	return schema.RankingPayload{
		Period:           "2025-11",
		AlgorithmVersion: "7.3",
		GeneratedAt:      time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		TotalTools:       2,
		Rankings: []schema.PayloadEntry{
			{
				ToolID: "cursor", ToolName: "Cursor", Rank: 1, Score: 7.125, Tier: schema.TierS,
				PreviousRank: &prev, Movement: &move,
				FactorScores: map[schema.FactorKey]float64{schema.AgenticCapability: 8.5},
			},
			{ToolID: "aider", ToolName: "Aider", Rank: 2, Score: 6.5, Tier: schema.TierS},
		},
	}
}

func TestConvertPayload(t *testing.T) {
	rows := ConvertPayload("snap-1", samplePayload())
	require.Len(t, rows, 2)

	assert.Equal(t, "snap-1", rows[0].SnapshotID)
	assert.Equal(t, int32(1), rows[0].Rank)
	require.NotNil(t, rows[0].PreviousRank)
	assert.Equal(t, int32(3), *rows[0].PreviousRank)
	assert.Equal(t, int32(2), *rows[0].Movement)
	assert.InDelta(t, 8.5, rows[0].AgenticCapability, 1e-9)

	// New tools keep nullable columns empty
	assert.Nil(t, rows[1].PreviousRank)
	assert.Nil(t, rows[1].Movement)
	assert.Zero(t, rows[1].Innovation)
}

func TestWriteAndReadRankingsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "rankings.parquet")

	rows := ConvertPayload("snap-1", samplePayload())
	require.NoError(t, WriteRankingsParquet(rows, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	read, err := ReadRankingsParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, read, 2)
	assert.Equal(t, "cursor", read[0].ToolID)
	assert.Equal(t, "aider", read[1].ToolID)
	assert.Nil(t, read[1].Movement)
}

func TestWriteSnapshotsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "snapshots.parquet")
	records := []schema.SnapshotRecord{
		{SnapshotID: "a", Period: "2025-10", AlgorithmVersion: "7.3", PublishedAt: time.Now().UTC(), TotalTools: 10},
		{SnapshotID: "b", Period: "2025-11", AlgorithmVersion: "7.3", IsCurrent: true, PublishedAt: time.Now().UTC(), TotalTools: 12},
	}

	data := ConvertSnapshotRecords(records)
	require.Len(t, data, 2)
	assert.True(t, data[1].IsCurrent)

	require.NoError(t, WriteSnapshotsParquet(data, outputPath))
	_, err := os.Stat(outputPath)
	require.NoError(t, err)
}

func TestWriteRankingsParquetBadPath(t *testing.T) {
	err := WriteRankingsParquet(nil, filepath.Join(t.TempDir(), "missing", "out.parquet"))
	assert.Error(t, err)
}
