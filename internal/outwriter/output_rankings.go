package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/internal/parquet"
	"github.com/huangsam/powerrank/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRankings outputs a ranking run, dispatching based on the output format configured.
// JSON and parquet carry the full payload; text and CSV honor the result limit.
func WriteRankings(result schema.RankingResult, cfg *contract.Config, duration time.Duration) error {
	fmtScore, _ := createFormatters(precisionOf(cfg.Algorithm))

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result.Payload)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingsCSV(w, limitEntries(result.Payload.Rankings, cfg.ResultLimit), fmtScore)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertPayload(result.SnapshotID, result.Payload)
		if err := parquet.WriteRankingsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
		contract.Logger().Info().Int("rows", len(rows)).Str("file", cfg.OutputFile).Msg("wrote parquet rankings")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRankingsTable(w, result, cfg, fmtScore, duration)
		}, "Wrote table")
	}
	return nil
}

// limitEntries returns at most limit entries. A non-positive limit keeps everything.
func limitEntries(entries []schema.PayloadEntry, limit int) []schema.PayloadEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

// displayName prefers the tool name and falls back to the id.
func displayName(e schema.PayloadEntry) string {
	if e.ToolName != "" {
		return e.ToolName
	}
	return e.ToolID
}

// writeRankingsTable generates and writes the human-readable table.
func writeRankingsTable(w io.Writer, result schema.RankingResult, cfg *contract.Config, fmtScore func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Tool", "Category", "Score", "Tier", "Move"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := GetMaxTableNameWidth(cfg)
	shown := limitEntries(result.Payload.Rankings, cfg.ResultLimit)
	data := make([][]string, 0, len(shown))
	for _, e := range shown {
		tier, move := string(e.Tier), schema.GetPlainMovement(e)
		if cfg.UseColors {
			tier, move = contract.GetColorTier(e.Tier), contract.GetColorMovement(e)
		}
		data = append(data, []string{
			strconv.Itoa(e.Rank),
			contract.TruncateText(displayName(e), nameWidth),
			e.Category,
			fmtScore(e.Score),
			tier,
			move,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	p := result.Payload
	if _, err := fmt.Fprintf(w, "Showing top %d of %d tools (period %s, algorithm v%s)\n", len(shown), p.TotalTools, p.Period, p.AlgorithmVersion); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Snapshot %s %s. Unranked: %d, degraded inputs: %d\n", result.SnapshotID, persistenceLabel(result), result.Unranked, result.Degradations); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Ranking completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

func persistenceLabel(result schema.RankingResult) string {
	switch {
	case result.Forced:
		return "force-promoted to current"
	case result.Promoted:
		return "promoted to current"
	case result.Persisted:
		return "saved without promotion"
	default:
		return "not persisted"
	}
}

// rankingsCSVHeader lists the fixed columns followed by one column per factor.
func rankingsCSVHeader() []string {
	header := []string{"rank", "tool_id", "tool_name", "category", "score", "tier", "previous_rank", "movement"}
	for _, k := range schema.AllFactors {
		header = append(header, string(k))
	}
	return header
}

// writeRankingsCSV writes one row per ranked tool.
func writeRankingsCSV(w io.Writer, entries []schema.PayloadEntry, fmtScore func(float64) string) error {
	return writeCSVWithHeader(w, rankingsCSVHeader(), func(cw *csv.Writer) error {
		for _, e := range entries {
			rec := []string{
				strconv.Itoa(e.Rank),
				e.ToolID,
				e.ToolName,
				e.Category,
				fmtScore(e.Score),
				string(e.Tier),
				optionalInt(e.PreviousRank),
				optionalInt(e.Movement),
			}
			for _, k := range schema.AllFactors {
				rec = append(rec, fmtScore(e.FactorScores[k]))
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
