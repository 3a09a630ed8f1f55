// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/powerrank/schema"
)

// StoreManager defines the interface for managing the snapshot store.
// This allows the storage layer to be mocked for testing.
type StoreManager interface {
	GetSnapshotStore() SnapshotStore
}

// SnapshotStore defines the interface for persisting ranking snapshots.
// Currency is owned by the store: at most one snapshot is current at any time.
type SnapshotStore interface {
	// Save writes a snapshot without touching currency.
	Save(ctx context.Context, snapshot schema.RankingSnapshot) error

	// Promote writes a snapshot as current and clears the previous current one
	// in a single transaction.
	Promote(ctx context.Context, snapshot schema.RankingSnapshot) error

	// PromoteExisting makes an already saved snapshot current in a single transaction.
	PromoteExisting(ctx context.Context, snapshotID string) error

	// GetCurrent returns the current snapshot, or nil when none exists.
	GetCurrent(ctx context.Context) (*schema.SnapshotRecord, error)

	// GetSnapshot returns one snapshot by id.
	GetSnapshot(ctx context.Context, snapshotID string) (*schema.SnapshotRecord, error)

	// ListSnapshots returns snapshot metadata, newest first, without payloads.
	ListSnapshots(ctx context.Context, limit int) ([]schema.SnapshotRecord, error)

	// GetAllSnapshots returns every snapshot with payloads, oldest first.
	GetAllSnapshots(ctx context.Context) ([]schema.SnapshotRecord, error)

	// GetStatus returns status information about the store.
	GetStatus() (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}
