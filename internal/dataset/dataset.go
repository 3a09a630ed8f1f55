// Package dataset loads the JSON inputs of a ranking run: tools, news articles and a previous payload.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-playground/validator/v10"
	"github.com/huangsam/powerrank/schema"
)

var validate = validator.New()

// Warning describes one input record that was skipped.
type Warning struct {
	Index  int    // position in the input array
	ID     string // record id when present
	Reason string
}

func (w Warning) String() string {
	if w.ID != "" {
		return fmt.Sprintf("record %d (%s): %s", w.Index, w.ID, w.Reason)
	}
	return fmt.Sprintf("record %d: %s", w.Index, w.Reason)
}

// decodeRecords accepts either a bare JSON array or an object wrapping the array under key.
// Numbers are kept as json.Number so large values survive unchanged.
func decodeRecords(data []byte, key string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("input is empty")
	}
	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		raw, ok := envelope[key]
		if !ok {
			return nil, fmt.Errorf("object input has no %q key", key)
		}
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		return records, nil
	default:
		return nil, errors.New("input must be a JSON array or object")
	}
}

func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

// LoadTools reads tool records from path. Records that fail validation are skipped
// and reported as warnings; duplicate ids keep the first record.
func LoadTools(path string) ([]schema.Tool, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read tools file: %w", err)
	}
	return ParseTools(data)
}

// ParseTools decodes tool records from raw JSON.
func ParseTools(data []byte) ([]schema.Tool, []Warning, error) {
	records, err := decodeRecords(data, "tools")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid tools input: %w", err)
	}

	tools := make([]schema.Tool, 0, len(records))
	var warnings []Warning
	seen := make(map[string]struct{}, len(records))
	for i, raw := range records {
		var tool schema.Tool
		if err := decodeNumbers(raw, &tool); err != nil {
			warnings = append(warnings, Warning{Index: i, Reason: err.Error()})
			continue
		}
		tool.ID = strings.TrimSpace(tool.ID)
		tool.Status = schema.ToolStatus(strings.ToLower(strings.TrimSpace(string(tool.Status))))
		if err := validate.Struct(&tool); err != nil {
			warnings = append(warnings, Warning{Index: i, ID: tool.ID, Reason: describe(err)})
			continue
		}
		if _, dup := seen[tool.ID]; dup {
			warnings = append(warnings, Warning{Index: i, ID: tool.ID, Reason: "duplicate id"})
			continue
		}
		seen[tool.ID] = struct{}{}
		tools = append(tools, tool)
	}
	return tools, warnings, nil
}

// articleInput accepts published_at in any of the formats found in historical news data.
type articleInput struct {
	schema.NewsArticle
	PublishedAt string `json:"published_at"`
}

// LoadNews reads news articles from path. An empty path means no news.
func LoadNews(path string) ([]schema.NewsArticle, []Warning, error) {
	if path == "" {
		return nil, nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read news file: %w", err)
	}
	return ParseNews(data)
}

// ParseNews decodes news articles from raw JSON.
func ParseNews(data []byte) ([]schema.NewsArticle, []Warning, error) {
	records, err := decodeRecords(data, "articles")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid news input: %w", err)
	}

	articles := make([]schema.NewsArticle, 0, len(records))
	var warnings []Warning
	for i, raw := range records {
		var in articleInput
		if err := json.Unmarshal(raw, &in); err != nil {
			warnings = append(warnings, Warning{Index: i, Reason: err.Error()})
			continue
		}
		article := in.NewsArticle
		if s := strings.TrimSpace(in.PublishedAt); s != "" {
			t, err := dateparse.ParseIn(s, time.UTC)
			if err != nil {
				warnings = append(warnings, Warning{Index: i, ID: article.ID, Reason: fmt.Sprintf("unreadable published_at %q", s)})
				continue
			}
			article.PublishedAt = t.UTC()
		}
		if article.PublishedAt.IsZero() {
			warnings = append(warnings, Warning{Index: i, ID: article.ID, Reason: "missing published_at"})
			continue
		}
		if err := validate.Struct(&article); err != nil {
			warnings = append(warnings, Warning{Index: i, ID: article.ID, Reason: describe(err)})
			continue
		}
		articles = append(articles, article)
	}
	return articles, warnings, nil
}

// LoadPayload reads a previously published ranking payload and checks it against the payload schema.
func LoadPayload(path string) (*schema.RankingPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read payload file: %w", err)
	}
	return ParsePayload(data)
}

// ParsePayload decodes and schema-checks a ranking payload.
func ParsePayload(data []byte) (*schema.RankingPayload, error) {
	if err := schema.ValidatePayloadJSON(data); err != nil {
		return nil, err
	}
	var p schema.RankingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return &p, nil
}

// LoadPrevious reads a movement baseline. It accepts full payloads and minimal
// files carrying only period, algorithm_version and tool_id/rank/score entries.
func LoadPrevious(path string) (*schema.RankingPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read previous rankings file: %w", err)
	}
	return ParsePrevious(data)
}

// ParsePrevious decodes a movement baseline against the relaxed previous-rankings schema.
func ParsePrevious(data []byte) (*schema.RankingPayload, error) {
	if err := schema.ValidatePreviousPayloadJSON(data); err != nil {
		return nil, err
	}
	var p schema.RankingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid previous rankings: %w", err)
	}
	return &p, nil
}

// describe flattens validator errors into one line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
