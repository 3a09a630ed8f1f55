package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(passed bool) schema.ValidationReport {
	return schema.ValidationReport{
		SnapshotID:       "snap-1",
		Period:           "2025-11",
		AlgorithmVersion: "7.3",
		Passed:           passed,
		TotalTools:       3,
		Findings: []schema.Finding{
			{Check: schema.CheckDuplicateScores, Passed: true, Detail: "0.00% of tools share a score"},
			{Check: schema.CheckRankDensity, Passed: passed, Detail: "ranks are 1..3"},
		},
	}
}

func TestWriteValidationTable(t *testing.T) {
	tests := []struct {
		name     string
		passed   bool
		contains []string
	}{
		{name: "passing", passed: true, contains: []string{"snap-1 (2025-11)", "PASS", "All 2 checks passed"}},
		{name: "failing", passed: false, contains: []string{"FAIL", "1 of 2 checks failed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeValidationTable(&buf, testReport(tt.passed), false))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestWriteValidationJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteValidation(testReport(false), testConfig(schema.JSONOut, out)))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded schema.ValidationReport
	require.NoError(t, json.Unmarshal(content, &decoded))
	assert.False(t, decoded.Passed)
	assert.Len(t, decoded.Failed(), 1)
}

func TestWriteValidationCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeValidationCSV(&buf, testReport(true)))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"snap-1", "2025-11", "7.3", schema.CheckRankDensity, "true", "ranks are 1..3"}, records[2])
}

func TestWriteValidationRejectsParquet(t *testing.T) {
	err := WriteValidation(testReport(true), testConfig(schema.ParquetOut, filepath.Join(t.TempDir(), "x.parquet")))
	assert.ErrorContains(t, err, "parquet output is only available")
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "PASS", resultLabel(true, false))
	assert.Equal(t, "FAIL", resultLabel(false, false))
	assert.Contains(t, resultLabel(true, true), "PASS")
}
