package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// snapshotJSON is the JSON shape of snapshot metadata.
type snapshotJSON struct {
	SnapshotID       string    `json:"snapshot_id"`
	Period           string    `json:"period"`
	AlgorithmVersion string    `json:"algorithm_version"`
	IsCurrent        bool      `json:"is_current"`
	PublishedAt      time.Time `json:"published_at"`
	TotalTools       int32     `json:"total_tools"`
}

// WriteSnapshots prints snapshot metadata, newest first, using the configured output format.
func WriteSnapshots(records []schema.SnapshotRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		out := make([]snapshotJSON, len(records))
		for i, r := range records {
			out[i] = snapshotJSON{
				SnapshotID:       r.SnapshotID,
				Period:           r.Period,
				AlgorithmVersion: r.AlgorithmVersion,
				IsCurrent:        r.IsCurrent,
				PublishedAt:      r.PublishedAt,
				TotalTools:       r.TotalTools,
			}
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, out)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotsCSV(w, records)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("use 'snapshots export' for parquet output")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSnapshotsTable(w, records)
		}, "Wrote table")
	}
	return nil
}

func currentMark(current bool) string {
	if current {
		return "*"
	}
	return ""
}

func writeSnapshotsTable(w io.Writer, records []schema.SnapshotRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Snapshot", "Period", "Algorithm", "Current", "Published", "Tools"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(records))
	for _, r := range records {
		data = append(data, []string{
			r.SnapshotID,
			r.Period,
			r.AlgorithmVersion,
			currentMark(r.IsCurrent),
			r.PublishedAt.UTC().Format(time.DateTime),
			strconv.Itoa(int(r.TotalTools)),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d snapshots\n", len(records))
	return err
}

func writeSnapshotsCSV(w io.Writer, records []schema.SnapshotRecord) error {
	header := []string{"snapshot_id", "period", "algorithm_version", "is_current", "published_at", "total_tools"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			rec := []string{
				r.SnapshotID,
				r.Period,
				r.AlgorithmVersion,
				strconv.FormatBool(r.IsCurrent),
				r.PublishedAt.UTC().Format(time.RFC3339),
				strconv.Itoa(int(r.TotalTools)),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteToolHistory prints one tool's rank across snapshots using the configured output format.
func WriteToolHistory(toolID string, points []schema.ToolHistoryPoint, cfg *contract.Config) error {
	fmtScore, _ := createFormatters(precisionOf(cfg.Algorithm))

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, points)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryCSV(w, toolID, points, fmtScore)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("use 'snapshots export' for parquet output")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, toolID, points, cfg.UseColors, fmtScore)
		}, "Wrote table")
	}
	return nil
}

func writeHistoryTable(w io.Writer, toolID string, points []schema.ToolHistoryPoint, useColors bool, fmtScore func(float64) string) error {
	if _, err := fmt.Fprintf(w, "📈 History for %s\n", toolID); err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Period", "Rank", "Score", "Tier", "Move", "Algorithm", "Current"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(points))
	for _, p := range points {
		entry := schema.PayloadEntry{Tier: p.Tier, Movement: p.Movement}
		tier, move := string(p.Tier), schema.GetPlainMovement(entry)
		if useColors {
			tier, move = contract.GetColorTier(p.Tier), contract.GetColorMovement(entry)
		}
		data = append(data, []string{
			p.Period,
			strconv.Itoa(p.Rank),
			fmtScore(p.Score),
			tier,
			move,
			p.AlgorithmVersion,
			currentMark(p.IsCurrent),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Found in %d snapshots\n", len(points))
	return err
}

func writeHistoryCSV(w io.Writer, toolID string, points []schema.ToolHistoryPoint, fmtScore func(float64) string) error {
	header := []string{"tool_id", "snapshot_id", "period", "algorithm_version", "is_current", "rank", "score", "tier", "movement"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range points {
			rec := []string{
				toolID,
				p.SnapshotID,
				p.Period,
				p.AlgorithmVersion,
				strconv.FormatBool(p.IsCurrent),
				strconv.Itoa(p.Rank),
				fmtScore(p.Score),
				string(p.Tier),
				optionalInt(p.Movement),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
