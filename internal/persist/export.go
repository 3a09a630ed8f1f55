package persist

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/internal/parquet"
)

// ExportSnapshots writes every stored snapshot to Parquet files next to outputFile:
// one file of snapshot metadata and one of flattened ranking rows.
func ExportSnapshots(ctx context.Context, w io.Writer, store contract.SnapshotStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return errors.New("no snapshots found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total snapshots: %d\n", status.TotalSnapshots)

	records, err := store.GetAllSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve snapshots: %w", err)
	}

	var rankings []parquet.Ranking
	for _, rec := range records {
		payload, err := rec.DecodePayload()
		if err != nil {
			return err
		}
		rankings = append(rankings, parquet.ConvertPayload(rec.SnapshotID, payload)...)
	}

	snapshotsFile := outputFile + ".snapshots.parquet"
	if err := parquet.WriteSnapshotsParquet(parquet.ConvertSnapshotRecords(records), snapshotsFile); err != nil {
		return fmt.Errorf("failed to write snapshots: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d snapshots to: %s\n", len(records), snapshotsFile)

	rankingsFile := outputFile + ".rankings.parquet"
	if err := parquet.WriteRankingsParquet(rankings, rankingsFile); err != nil {
		return fmt.Errorf("failed to write rankings: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d ranking rows to: %s\n", len(rankings), rankingsFile)
	return nil
}
