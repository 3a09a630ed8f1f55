package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTools(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantIDs      []string
		wantWarnings int
		wantErr      bool
	}{
		{
			name:    "bare array",
			input:   `[{"id":"cursor","name":"Cursor","status":"active"},{"id":"aider","name":"Aider"}]`,
			wantIDs: []string{"cursor", "aider"},
		},
		{
			name:    "wrapped object",
			input:   `{"tools":[{"id":"cursor","name":"Cursor","status":"Active"}]}`,
			wantIDs: []string{"cursor"},
		},
		{
			name:         "invalid records are skipped",
			input:        `[{"id":"a","name":"A"},{"name":"no id"},{"id":"b","name":"B","status":"retired"},{"id":"a","name":"dup"}]`,
			wantIDs:      []string{"a"},
			wantWarnings: 3,
		},
		{
			name:         "wrong field type",
			input:        `[{"id":"a","name":"A","info":"oops"},{"id":"b","name":"B"}]`,
			wantIDs:      []string{"b"},
			wantWarnings: 1,
		},
		{name: "empty input", input: "   ", wantErr: true},
		{name: "scalar input", input: `42`, wantErr: true},
		{name: "object without tools", input: `{"items":[]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools, warnings, err := ParseTools([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			ids := make([]string, len(tools))
			for i, tool := range tools {
				ids[i] = tool.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestParseToolsKeepsNumbers(t *testing.T) {
	tools, _, err := ParseTools([]byte(`[{"id":"a","name":"A","status":"ACTIVE","info":{"metrics":{"users":1500000}}}]`))
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, schema.ActiveStatus, tools[0].Status)

	metrics, ok := tools[0].Info["metrics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("1500000"), metrics["users"])
}

func TestParseToolsWarningText(t *testing.T) {
	_, warnings, err := ParseTools([]byte(`[{"id":"x","status":"gone"}]`))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].String(), "record 0 (x)")
	assert.Contains(t, warnings[0].Reason, "name failed required")
	assert.Contains(t, warnings[0].Reason, "status failed oneof")
}

func TestParseNews(t *testing.T) {
	input := `{"articles":[
		{"id":"n1","title":"Launch","published_at":"2025-11-01T10:00:00Z","tool_mentions":["cursor"],"sentiment":0.6},
		{"id":"n2","published_at":"November 3, 2025","tags":["aider"]},
		{"id":"n3","published_at":"not a date"},
		{"id":"n4","sentiment":0.2},
		{"id":"n5","published_at":"2025-11-04","sentiment":3}
	]}`
	articles, warnings, err := ParseNews([]byte(input))
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Len(t, warnings, 3)

	assert.Equal(t, "n1", articles[0].ID)
	require.NotNil(t, articles[0].Sentiment)
	assert.InDelta(t, 0.6, *articles[0].Sentiment, 1e-9)
	assert.Equal(t, time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC), articles[1].PublishedAt)
}

func TestLoadNewsEmptyPath(t *testing.T) {
	articles, warnings, err := LoadNews("")
	assert.NoError(t, err)
	assert.Nil(t, articles)
	assert.Nil(t, warnings)
}

func TestLoadTools(t *testing.T) {
	path := writeFile(t, "tools.json", `[{"id":"a","name":"A"}]`)
	tools, warnings, err := LoadTools(path)
	require.NoError(t, err)
	assert.Len(t, tools, 1)
	assert.Empty(t, warnings)

	_, _, err = LoadTools(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "cannot read tools file")
}

func TestLoadPayload(t *testing.T) {
	valid := `{
		"period": "2025-10",
		"algorithm_version": "7.3",
		"generated_at": "2025-10-15T00:00:00Z",
		"total_tools": 1,
		"rankings": [
			{"tool_id": "cursor", "rank": 1, "previous_rank": null, "movement": null,
			 "score": 7.5, "tier": "S", "category": "ide", "factor_scores": {"innovation": 6.1}}
		]
	}`
	p, err := LoadPayload(writeFile(t, "prev.json", valid))
	require.NoError(t, err)
	assert.Equal(t, "2025-10", p.Period)
	require.Len(t, p.Rankings, 1)
	assert.Nil(t, p.Rankings[0].Movement)

	invalid := `{"period": "October", "algorithm_version": "7.3", "generated_at": "2025-10-15T00:00:00Z", "total_tools": 0, "rankings": []}`
	_, err = LoadPayload(writeFile(t, "bad.json", invalid))
	var verr *schema.PayloadValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLoadPreviousMinimal(t *testing.T) {
	minimal := `{"period": "2025-10", "algorithm_version": "7.3",
		"rankings": [{"tool_id": "cursor", "rank": 3, "score": 7.1}, {"tool_id": "aider", "rank": 5}]}`
	p, err := LoadPrevious(writeFile(t, "prev.json", minimal))
	require.NoError(t, err)
	assert.Equal(t, "2025-10", p.Period)
	require.Len(t, p.Rankings, 2)
	assert.Equal(t, 3, p.Rankings[0].Rank)
	assert.InDelta(t, 7.1, p.Rankings[0].Score, 1e-9)
	assert.True(t, p.GeneratedAt.IsZero())

	// The full output schema still rejects the same file.
	_, err = ParsePayload([]byte(minimal))
	var verr *schema.PayloadValidationError
	assert.ErrorAs(t, err, &verr)

	tests := []struct {
		name    string
		content string
	}{
		{"Missing tool id", `{"period": "2025-10", "algorithm_version": "7.3", "rankings": [{"rank": 1}]}`},
		{"Missing rank", `{"period": "2025-10", "algorithm_version": "7.3", "rankings": [{"tool_id": "cursor"}]}`},
		{"Missing algorithm version", `{"period": "2025-10", "rankings": []}`},
		{"Bad period", `{"period": "Oct 2025", "algorithm_version": "7.3", "rankings": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrevious([]byte(tt.content))
			var verr *schema.PayloadValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err = LoadPrevious(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "cannot read previous rankings file")
}
