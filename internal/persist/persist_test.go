package persist

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/powerrank/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SnapshotStoreImpl {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")
	store, err := NewSnapshotStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	impl, ok := store.(*SnapshotStoreImpl)
	require.True(t, ok)
	return impl
}

func testSnapshot(id, period string, published time.Time) schema.RankingSnapshot {
	prev, move := 2, 1
	return schema.RankingSnapshot{
		SnapshotID:       id,
		Period:           period,
		AlgorithmVersion: "7.3",
		PublishedAt:      published,
		Payload: schema.RankingPayload{
			Period:           period,
			AlgorithmVersion: "7.3",
			GeneratedAt:      published,
			TotalTools:       2,
			Rankings: []schema.PayloadEntry{
				{
					ToolID: "cursor", ToolName: "Cursor", Rank: 1, Score: 7.125, Tier: schema.TierS,
					Category: "ide", PreviousRank: &prev, Movement: &move,
					FactorScores: map[schema.FactorKey]float64{schema.AgenticCapability: 8.2},
				},
				{
					ToolID: "aider", ToolName: "Aider", Rank: 2, Score: 6.5, Tier: schema.TierS,
					Category: "cli", FactorScores: map[schema.FactorKey]float64{schema.AgenticCapability: 7.1},
				},
			},
		},
	}
}

func countCurrent(t *testing.T, store *SnapshotStoreImpl) int {
	t.Helper()
	all, err := store.GetAllSnapshots(context.Background())
	require.NoError(t, err)
	n := 0
	for _, r := range all {
		if r.IsCurrent {
			n++
		}
	}
	return n
}

func TestSnapshotStore_NoneBackend(t *testing.T) {
	store, err := NewSnapshotStore(schema.NoneBackend, "")
	require.NoError(t, err)
	ctx := context.Background()

	snap := testSnapshot("a", "2025-10", time.Now().UTC())
	assert.NoError(t, store.Save(ctx, snap))
	assert.NoError(t, store.Promote(ctx, snap))

	current, err := store.GetCurrent(ctx)
	assert.NoError(t, err)
	assert.Nil(t, current)

	_, err = store.GetSnapshot(ctx, "a")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.ErrorIs(t, store.PromoteExisting(ctx, "a"), ErrSnapshotNotFound)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestSnapshotStore_SaveAndGet(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	published := time.Date(2025, 11, 15, 6, 0, 0, 0, time.UTC)

	snap := testSnapshot("snap-1", "2025-11", published)
	require.NoError(t, store.Save(ctx, snap))

	rec, err := store.GetSnapshot(ctx, "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-11", rec.Period)
	assert.Equal(t, "7.3", rec.AlgorithmVersion)
	assert.False(t, rec.IsCurrent)
	assert.Equal(t, int32(2), rec.TotalTools)
	assert.True(t, published.Equal(rec.PublishedAt))

	want, err := snap.PayloadJSON()
	require.NoError(t, err)
	assert.Equal(t, want, rec.Payload)

	payload, err := rec.DecodePayload()
	require.NoError(t, err)
	assert.Equal(t, snap.Payload.Rankings[0].ToolID, payload.Rankings[0].ToolID)

	// Save leaves currency alone
	current, err := store.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = store.GetSnapshot(ctx, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotStore_PromoteExclusive(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	for i, period := range []string{"2025-09", "2025-10", "2025-11"} {
		id := fmt.Sprintf("snap-%d", i)
		require.NoError(t, store.Promote(ctx, testSnapshot(id, period, base.AddDate(0, i, 0))))
		assert.Equal(t, 1, countCurrent(t, store), "after promoting %s", id)

		current, err := store.GetCurrent(ctx)
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, id, current.SnapshotID)
	}
}

func TestSnapshotStore_PromoteExisting(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Promote(ctx, testSnapshot("a", "2025-10", now)))
	require.NoError(t, store.Save(ctx, testSnapshot("b", "2025-11", now.Add(time.Hour))))

	require.NoError(t, store.PromoteExisting(ctx, "b"))
	current, err := store.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", current.SnapshotID)
	assert.Equal(t, 1, countCurrent(t, store))

	// An unknown id rolls back and leaves the current snapshot in place
	err = store.PromoteExisting(ctx, "nope")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	current, err = store.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", current.SnapshotID)
}

func TestSnapshotStore_RejectsInvalidPayload(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	snap := testSnapshot("bad", "2025-13", time.Now().UTC())
	err := store.Promote(ctx, snap)
	var verr *schema.PayloadValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Errors)

	snap = testSnapshot("", "2025-11", time.Now().UTC())
	assert.Error(t, store.Save(ctx, snap))

	all, err := store.GetAllSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSnapshotStore_UniqueCurrentIndex(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Promote(ctx, testSnapshot("a", "2025-10", now)))
	require.NoError(t, store.Save(ctx, testSnapshot("b", "2025-11", now)))

	// Bypassing the store to mark a second row current must fail at the database level
	_, err := store.db.ExecContext(ctx, `UPDATE "powerrank_snapshots" SET is_current = 1 WHERE snapshot_id = 'b'`)
	assert.Error(t, err)
	assert.Equal(t, 1, countCurrent(t, store))
}

func TestSnapshotStore_ListAndStatus(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalSnapshots)

	require.NoError(t, store.Save(ctx, testSnapshot("jan", "2025-01", base)))
	require.NoError(t, store.Save(ctx, testSnapshot("feb", "2025-02", base.AddDate(0, 1, 0).Add(500*time.Millisecond))))
	require.NoError(t, store.Promote(ctx, testSnapshot("mar", "2025-03", base.AddDate(0, 2, 0))))

	list, err := store.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"mar", "feb", "jan"}, []string{list[0].SnapshotID, list[1].SnapshotID, list[2].SnapshotID})
	assert.Nil(t, list[0].Payload)

	limited, err := store.ListSnapshots(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	all, err := store.GetAllSnapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jan", all[0].SnapshotID)
	assert.NotEmpty(t, all[0].Payload)

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalSnapshots)
	assert.Equal(t, 1, status.CurrentCount)
	assert.Equal(t, "mar", status.CurrentSnapshotID)
	assert.Equal(t, "2025-03", status.CurrentPeriod)
	assert.True(t, base.Equal(status.OldestPublished))
	assert.Positive(t, status.TableSizeBytes)

	var buf bytes.Buffer
	PrintStoreStatus(&buf, status)
	assert.Contains(t, buf.String(), "Current Snapshot: mar (2025-03)")
}

func TestRebind(t *testing.T) {
	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, q, rebind(q, schema.SQLiteBackend))
	assert.Equal(t, q, rebind(q, schema.MySQLBackend))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(q, schema.PostgreSQLBackend))
}

func TestInitAndCloseStores(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "global.db")
	initOnce = sync.Once{}  // Reset for test
	closeOnce = sync.Once{} // Reset for test
	t.Cleanup(func() {
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &StoreManager{}
	})

	require.NoError(t, InitStores(schema.SQLiteBackend, dbPath))
	require.NoError(t, InitStores(schema.SQLiteBackend, dbPath)) // idempotent
	require.NotNil(t, Manager.GetSnapshotStore())

	CloseStores()
	CloseStores() // idempotent

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestClearSnapshots(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "clear.db")
	store, err := NewSnapshotStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearSnapshots(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearSnapshots(schema.SQLiteBackend, dbPath, ""))
	assert.NoError(t, ClearSnapshots(schema.NoneBackend, "", ""))
	assert.Error(t, ClearSnapshots(schema.SQLiteBackend, "", ""))
}

func TestMigrateSnapshots(t *testing.T) {
	var out bytes.Buffer

	err := MigrateSnapshots(&out, schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported")

	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	require.NoError(t, MigrateSnapshots(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "to version 2")

	out.Reset()
	require.NoError(t, MigrateSnapshots(&out, schema.SQLiteBackend, dbPath, -1))
	assert.Contains(t, out.String(), "No migration needed")

	require.NoError(t, MigrateSnapshots(&out, schema.SQLiteBackend, dbPath, 1))
	require.NoError(t, MigrateSnapshots(&out, schema.SQLiteBackend, dbPath, 0))
	require.NoError(t, MigrateSnapshots(&out, schema.SQLiteBackend, dbPath, -1))

	// A migrated database is usable by the store
	store, err := NewSnapshotStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.NoError(t, store.Promote(context.Background(), testSnapshot("m", "2025-11", time.Now().UTC())))
}

func TestExportSnapshots(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	var out bytes.Buffer
	outputFile := filepath.Join(t.TempDir(), "export")

	err := ExportSnapshots(ctx, &out, store, outputFile)
	assert.ErrorContains(t, err, "no snapshots")

	require.NoError(t, store.Promote(ctx, testSnapshot("a", "2025-10", time.Now().UTC())))
	require.NoError(t, ExportSnapshots(ctx, &out, store, outputFile))

	for _, suffix := range []string{".snapshots.parquet", ".rankings.parquet"} {
		_, err := os.Stat(outputFile + suffix)
		assert.NoError(t, err)
	}
	assert.Contains(t, out.String(), "Exported 2 ranking rows")

	assert.Error(t, ExportSnapshots(ctx, &out, store, ""))
}
