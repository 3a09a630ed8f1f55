package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// WriteValidation outputs a distribution report, dispatching based on the output format configured.
func WriteValidation(report schema.ValidationReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationCSV(w, report)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is only available for rankings and snapshot export")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeValidationTable(w, report, cfg.UseColors)
		}, "Wrote table")
	}
	return nil
}

func resultLabel(passed, useColors bool) string {
	label := "FAIL"
	if passed {
		label = "PASS"
	}
	if !useColors {
		return label
	}
	if passed {
		return passColor.Sprint(label)
	}
	return failColor.Sprint(label)
}

func writeValidationTable(w io.Writer, report schema.ValidationReport, useColors bool) error {
	subject := report.Period
	if report.SnapshotID != "" {
		subject = fmt.Sprintf("%s (%s)", report.SnapshotID, report.Period)
	}
	if _, err := fmt.Fprintf(w, "Distribution check for %s, algorithm v%s, %d tools\n", subject, report.AlgorithmVersion, report.TotalTools); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Check", "Result", "Detail"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	data := make([][]string, 0, len(report.Findings))
	for _, f := range report.Findings {
		data = append(data, []string{f.Check, resultLabel(f.Passed, useColors), f.Detail})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if report.Passed {
		_, err := fmt.Fprintf(w, "✅ All %d checks passed\n", len(report.Findings))
		return err
	}
	_, err := fmt.Fprintf(w, "❌ %d of %d checks failed\n", len(report.Failed()), len(report.Findings))
	return err
}

func writeValidationCSV(w io.Writer, report schema.ValidationReport) error {
	header := []string{"snapshot_id", "period", "algorithm_version", "check", "passed", "detail"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, f := range report.Findings {
			rec := []string{
				report.SnapshotID,
				report.Period,
				report.AlgorithmVersion,
				f.Check,
				strconv.FormatBool(f.Passed),
				f.Detail,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
