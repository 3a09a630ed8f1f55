package persist

import (
	"fmt"
	"io"

	"github.com/huangsam/powerrank/schema"
)

// PrintStoreStatus prints snapshot store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Snapshots: %d\n", status.TotalSnapshots)
	if status.TotalSnapshots > 0 {
		if status.CurrentSnapshotID != "" {
			_, _ = fmt.Fprintf(w, "Current Snapshot: %s (%s)\n", status.CurrentSnapshotID, status.CurrentPeriod)
		} else {
			_, _ = fmt.Fprintln(w, "Current Snapshot: none")
		}
		_, _ = fmt.Fprintf(w, "Last Published: %s\n", status.LastPublished.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Published: %s\n", status.OldestPublished.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintf(w, "Payload Size: %d bytes\n", status.TableSizeBytes)
}
