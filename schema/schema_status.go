package schema

import "time"

// StoreStatus represents the status of the snapshot store.
type StoreStatus struct {
	Backend           string    `json:"backend"`
	Connected         bool      `json:"connected"`
	TotalSnapshots    int       `json:"total_snapshots"`
	CurrentSnapshotID string    `json:"current_snapshot_id"`
	CurrentPeriod     string    `json:"current_period"`
	CurrentCount      int       `json:"current_count"` // rows flagged current, must be 0 or 1
	LastPublished     time.Time `json:"last_published"`
	OldestPublished   time.Time `json:"oldest_published"`
	TableSizeBytes    int64     `json:"table_size_bytes"`
}
