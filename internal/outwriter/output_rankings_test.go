package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/internal/parquet"
	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func testResult() schema.RankingResult {
	factors := func(v float64) map[schema.FactorKey]float64 {
		m := make(map[schema.FactorKey]float64, len(schema.AllFactors))
		for _, k := range schema.AllFactors {
			m[k] = v
		}
		return m
	}
	return schema.RankingResult{
		SnapshotID: "snap-1",
		Payload: schema.RankingPayload{
			Period:           "2025-11",
			AlgorithmVersion: "7.3",
			GeneratedAt:      time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
			TotalTools:       3,
			Rankings: []schema.PayloadEntry{
				{ToolID: "cursor", ToolName: "Cursor", Rank: 1, PreviousRank: intPtr(3), Movement: intPtr(2), Score: 8.125, Tier: schema.TierS, Category: "ide", FactorScores: factors(8)},
				{ToolID: "aider", ToolName: "Aider", Rank: 2, PreviousRank: intPtr(2), Movement: intPtr(0), Score: 7.5, Tier: schema.TierS, Category: "cli", FactorScores: factors(7)},
				{ToolID: "newbie", Rank: 3, Score: 6.25, Tier: schema.TierS, Category: "ide", FactorScores: factors(6)},
			},
		},
		Unranked:     1,
		Degradations: 4,
		Persisted:    true,
		Promoted:     true,
	}
}

func testConfig(output schema.OutputMode, outputFile string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   outputFile,
		ResultLimit:  2,
		Workers:      4,
		Width:        120,
		Algorithm:    &schema.AlgorithmConfig{Version: "7.3", ScorePrecision: 3},
		StoreBackend: schema.SQLiteBackend,
	}
}

func TestWriteRankingsTable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rankings.txt")
	require.NoError(t, WriteRankings(testResult(), testConfig(schema.TextOut, out), 2*time.Second))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Cursor")
	assert.Contains(t, text, "8.125")
	assert.Contains(t, text, "+2")
	assert.Contains(t, text, "=")
	assert.NotContains(t, text, "newbie", "limit keeps only the top 2")
	assert.Contains(t, text, "Showing top 2 of 3 tools (period 2025-11, algorithm v7.3)")
	assert.Contains(t, text, "Snapshot snap-1 promoted to current. Unranked: 1, degraded inputs: 4")
	assert.Contains(t, text, "Store backend: sqlite")
}

func TestWriteRankingsJSONIsPayload(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rankings.json")
	result := testResult()
	require.NoError(t, WriteRankings(result, testConfig(schema.JSONOut, out), time.Second))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded schema.RankingPayload
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.Len(t, decoded.Rankings, 3, "json carries the full payload")
	assert.Equal(t, "2025-11", decoded.Period)
	assert.Nil(t, decoded.Rankings[2].Movement)
	assert.NoError(t, schema.ValidatePayloadJSON(content))
}

func TestWriteRankingsCSV(t *testing.T) {
	var buf bytes.Buffer
	fmtScore, _ := createFormatters(3)
	require.NoError(t, writeRankingsCSV(&buf, testResult().Payload.Rankings, fmtScore))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, rankingsCSVHeader(), records[0])
	assert.Len(t, records[0], 8+len(schema.AllFactors))
	assert.Equal(t, []string{"1", "cursor", "Cursor", "ide", "8.125", "S", "3", "2"}, records[1][:8])
	assert.Equal(t, "8.000", records[1][8])
	assert.Equal(t, "", records[3][6], "new entries have no previous rank")
	assert.Equal(t, "", records[3][7])
}

func TestWriteRankingsCSVHonorsLimit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rankings.csv")
	require.NoError(t, WriteRankings(testResult(), testConfig(schema.CSVOut, out), time.Second))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 3)
}

func TestWriteRankingsParquet(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rankings.parquet")
	require.NoError(t, WriteRankings(testResult(), testConfig(schema.ParquetOut, out), time.Second))

	rows, err := parquet.ReadRankingsParquet(out)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "snap-1", rows[0].SnapshotID)
	assert.Equal(t, "cursor", rows[0].ToolID)
	assert.Nil(t, rows[2].Movement)
}

func TestLimitEntries(t *testing.T) {
	entries := testResult().Payload.Rankings
	assert.Len(t, limitEntries(entries, 0), 3)
	assert.Len(t, limitEntries(entries, 2), 2)
	assert.Len(t, limitEntries(entries, 10), 3)
}

func TestPersistenceLabel(t *testing.T) {
	assert.Equal(t, "promoted to current", persistenceLabel(schema.RankingResult{Persisted: true, Promoted: true}))
	assert.Equal(t, "force-promoted to current", persistenceLabel(schema.RankingResult{Persisted: true, Promoted: true, Forced: true}))
	assert.Equal(t, "saved without promotion", persistenceLabel(schema.RankingResult{Persisted: true}))
	assert.Equal(t, "not persisted", persistenceLabel(schema.RankingResult{}))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Cursor", displayName(schema.PayloadEntry{ToolID: "cursor", ToolName: "Cursor"}))
	assert.Equal(t, "cursor", displayName(schema.PayloadEntry{ToolID: "cursor"}))
}

func TestGetMaxTableNameWidth(t *testing.T) {
	tests := []struct {
		width    int
		expected int
	}{
		{width: 40, expected: 12},
		{width: 90, expected: 28},
		{width: 300, expected: 48},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, GetMaxTableNameWidth(&contract.Config{Width: tt.width}))
	}
}
