package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/powerrank/internal/contract"
	"github.com/huangsam/powerrank/schema"
)

// SnapshotStoreImpl implements the SnapshotStore interface over database/sql.
type SnapshotStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	table   string // quoted table name
}

var _ contract.SnapshotStore = &SnapshotStoreImpl{} // Compile-time check

// NewSnapshotStore creates a new SnapshotStore with the specified backend.
// For SQLite, connStr is the database file path and defaults to a file in the home directory.
func NewSnapshotStore(backend schema.DatabaseBackend, connStr string) (contract.SnapshotStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled persistence
		return &SnapshotStoreImpl{backend: backend}, nil
	}

	driverName, err := driverFor(backend)
	if err != nil {
		return nil, err
	}

	dsn := connStr
	if backend == schema.SQLiteBackend && dsn == "" {
		dsn = contract.GetDBFilePath()
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		switch backend {
		case schema.SQLiteBackend:
			return nil, fmt.Errorf("failed to open SQLite database at %q: %w. Check that the directory is writable", dsn, err)
		case schema.MySQLBackend:
			return nil, fmt.Errorf("failed to open MySQL database: %w. Check connection string format: user:password@tcp(host:port)/dbname?parseTime=true", err)
		default:
			return nil, fmt.Errorf("failed to open PostgreSQL database: %w. Check connection string format: host=... dbname=... user=... password=...", err)
		}
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Verify the database file is accessible."
		}
		return nil, fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}

	if err := createSnapshotTable(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return &SnapshotStoreImpl{
		db:      db,
		backend: backend,
		table:   quoteTableName(snapshotsTable, backend),
	}, nil
}

// createSnapshotTable creates the snapshot table and its indexes.
func createSnapshotTable(db *sql.DB, backend schema.DatabaseBackend) error {
	for _, query := range getCreateSnapshotQueries(backend) {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", snapshotsTable, err)
		}
	}
	return nil
}

// getCreateSnapshotQueries returns the DDL for powerrank_snapshots.
// Every backend enforces a single current row at the database level.
func getCreateSnapshotQueries(backend schema.DatabaseBackend) []string {
	quotedTableName := quoteTableName(snapshotsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		// MySQL has no partial indexes; a generated column that is NULL for
		// non-current rows carries the unique key instead.
		return []string{fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				snapshot_id VARCHAR(64) NOT NULL PRIMARY KEY,
				period VARCHAR(7) NOT NULL,
				algorithm_version VARCHAR(32) NOT NULL,
				is_current TINYINT(1) NOT NULL DEFAULT 0,
				current_marker TINYINT AS (IF(is_current = 1, 1, NULL)) STORED,
				published_at DATETIME(6) NOT NULL,
				total_tools INT NOT NULL,
				payload LONGTEXT NOT NULL,
				UNIQUE KEY uq_powerrank_snapshots_current (current_marker)
			);
		`, quotedTableName)}

	case schema.PostgreSQLBackend:
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					snapshot_id TEXT PRIMARY KEY,
					period TEXT NOT NULL,
					algorithm_version TEXT NOT NULL,
					is_current BOOLEAN NOT NULL DEFAULT FALSE,
					published_at TIMESTAMPTZ NOT NULL,
					total_tools INT NOT NULL,
					payload TEXT NOT NULL
				);
			`, quotedTableName),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_powerrank_snapshots_current ON %s (is_current) WHERE is_current`, quotedTableName),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_powerrank_snapshots_published ON %s (published_at)`, quotedTableName),
		}

	default: // SQLite
		return []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					snapshot_id TEXT PRIMARY KEY,
					period TEXT NOT NULL,
					algorithm_version TEXT NOT NULL,
					is_current INTEGER NOT NULL DEFAULT 0,
					published_at TEXT NOT NULL,
					total_tools INTEGER NOT NULL,
					payload TEXT NOT NULL
				);
			`, quotedTableName),
			fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS idx_powerrank_snapshots_current ON %s (is_current) WHERE is_current = 1`, quotedTableName),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_powerrank_snapshots_published ON %s (published_at)`, quotedTableName),
		}
	}
}

func (s *SnapshotStoreImpl) disabled() bool {
	return s.backend == schema.NoneBackend || s.db == nil
}

// encodeSnapshot renders and schema-checks the payload before anything is written.
func encodeSnapshot(snapshot schema.RankingSnapshot) ([]byte, error) {
	if snapshot.SnapshotID == "" {
		return nil, errors.New("snapshot id cannot be empty")
	}
	data, err := snapshot.PayloadJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := schema.ValidatePayloadJSON(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *SnapshotStoreImpl) insert(ctx context.Context, tx *sql.Tx, snapshot schema.RankingSnapshot, payload []byte, current bool) error {
	query := rebind(fmt.Sprintf(`
		INSERT INTO %s (snapshot_id, period, algorithm_version, is_current, published_at, total_tools, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.table), s.backend)
	args := []any{
		snapshot.SnapshotID,
		snapshot.Period,
		snapshot.AlgorithmVersion,
		current,
		formatTime(snapshot.PublishedAt, s.backend),
		len(snapshot.Payload.Rankings),
		string(payload),
	}
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, args...)
	} else {
		_, err = s.db.ExecContext(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snapshot.SnapshotID, err)
	}
	return nil
}

// Save writes a snapshot without touching currency.
func (s *SnapshotStoreImpl) Save(ctx context.Context, snapshot schema.RankingSnapshot) error {
	if s.disabled() {
		return nil
	}
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return s.insert(ctx, nil, snapshot, payload, false)
}

// Promote writes a snapshot as current and clears the previous current one in one transaction.
// Readers never observe zero or two current snapshots.
func (s *SnapshotStoreImpl) Promote(ctx context.Context, snapshot schema.RankingSnapshot) error {
	if s.disabled() {
		return nil
	}
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	return s.withCurrencyTx(ctx, func(tx *sql.Tx) error {
		if err := s.clearCurrent(ctx, tx); err != nil {
			return err
		}
		return s.insert(ctx, tx, snapshot, payload, true)
	})
}

// PromoteExisting makes an already saved snapshot current in one transaction.
func (s *SnapshotStoreImpl) PromoteExisting(ctx context.Context, snapshotID string) error {
	if s.disabled() {
		return ErrSnapshotNotFound
	}
	return s.withCurrencyTx(ctx, func(tx *sql.Tx) error {
		var exists int
		query := rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE snapshot_id = ?`, s.table), s.backend)
		if err := tx.QueryRowContext(ctx, query, snapshotID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to look up snapshot %s: %w", snapshotID, err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
		}
		if err := s.clearCurrent(ctx, tx); err != nil {
			return err
		}
		update := rebind(fmt.Sprintf(`UPDATE %s SET is_current = ? WHERE snapshot_id = ?`, s.table), s.backend)
		if _, err := tx.ExecContext(ctx, update, true, snapshotID); err != nil {
			return fmt.Errorf("failed to promote snapshot %s: %w", snapshotID, err)
		}
		return nil
	})
}

// withCurrencyTx runs fn in a transaction that holds the lock guarding the current flag.
func (s *SnapshotStoreImpl) withCurrencyTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	switch s.backend {
	case schema.PostgreSQLBackend:
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE`, s.table)); err != nil {
			return fmt.Errorf("failed to lock snapshot table: %w", err)
		}
	case schema.MySQLBackend:
		rows, err := tx.QueryContext(ctx, fmt.Sprintf(`SELECT snapshot_id FROM %s WHERE is_current = 1 FOR UPDATE`, s.table))
		if err != nil {
			return fmt.Errorf("failed to lock current snapshot: %w", err)
		}
		_ = rows.Close()
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit promotion: %w", err)
	}
	return nil
}

func (s *SnapshotStoreImpl) clearCurrent(ctx context.Context, tx *sql.Tx) error {
	query := rebind(fmt.Sprintf(`UPDATE %s SET is_current = ? WHERE is_current = ?`, s.table), s.backend)
	if _, err := tx.ExecContext(ctx, query, false, true); err != nil {
		return fmt.Errorf("failed to clear current snapshot: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row, with or without the payload column.
func (s *SnapshotStoreImpl) scanRecord(row rowScanner, withPayload bool) (schema.SnapshotRecord, error) {
	var rec schema.SnapshotRecord
	var payload string
	dest := []any{&rec.SnapshotID, &rec.Period, &rec.AlgorithmVersion, &rec.IsCurrent, nil, &rec.TotalTools}

	// Handle different time storage formats per backend
	var publishedStr string
	if s.backend == schema.SQLiteBackend {
		dest[4] = &publishedStr
	} else {
		dest[4] = &rec.PublishedAt
	}
	if withPayload {
		dest = append(dest, &payload)
	}
	if err := row.Scan(dest...); err != nil {
		return rec, err
	}
	if s.backend == schema.SQLiteBackend {
		t, err := time.Parse(time.RFC3339Nano, publishedStr)
		if err != nil {
			return rec, fmt.Errorf("failed to parse published_at: %w", err)
		}
		rec.PublishedAt = t
	}
	rec.PublishedAt = rec.PublishedAt.UTC()
	if withPayload {
		rec.Payload = []byte(payload)
	}
	return rec, nil
}

const (
	metaColumns = "snapshot_id, period, algorithm_version, is_current, published_at, total_tools"
	fullColumns = metaColumns + ", payload"
)

// GetCurrent returns the current snapshot, or nil when none exists.
func (s *SnapshotStoreImpl) GetCurrent(ctx context.Context) (*schema.SnapshotRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE is_current = ?`, fullColumns, s.table), s.backend)
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, true), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current snapshot: %w", err)
	}
	return &rec, nil
}

// GetSnapshot returns one snapshot by id.
func (s *SnapshotStoreImpl) GetSnapshot(ctx context.Context, snapshotID string) (*schema.SnapshotRecord, error) {
	if s.disabled() {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	query := rebind(fmt.Sprintf(`SELECT %s FROM %s WHERE snapshot_id = ?`, fullColumns, s.table), s.backend)
	rec, err := s.scanRecord(s.db.QueryRowContext(ctx, query, snapshotID), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, snapshotID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", snapshotID, err)
	}
	return &rec, nil
}

// ListSnapshots returns snapshot metadata, newest first, without payloads.
// A limit of zero or less returns every snapshot.
func (s *SnapshotStoreImpl) ListSnapshots(ctx context.Context, limit int) ([]schema.SnapshotRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY published_at DESC, snapshot_id DESC`, metaColumns, s.table)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryRecords(ctx, query, false)
}

// GetAllSnapshots returns every snapshot with payloads, oldest first.
func (s *SnapshotStoreImpl) GetAllSnapshots(ctx context.Context) ([]schema.SnapshotRecord, error) {
	if s.disabled() {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY published_at ASC, snapshot_id ASC`, fullColumns, s.table)
	return s.queryRecords(ctx, query, true)
}

func (s *SnapshotStoreImpl) queryRecords(ctx context.Context, query string, withPayload bool) ([]schema.SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SnapshotRecord
	for rows.Next() {
		rec, err := s.scanRecord(rows, withPayload)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return results, nil
}

// GetStatus returns status information about the snapshot store.
func (s *SnapshotStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(s.backend),
		Connected: s.db != nil,
	}
	if s.disabled() {
		return status, nil
	}
	ctx := context.Background()

	countQuery := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0) FROM %s", s.table)
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&status.TotalSnapshots, &status.TableSizeBytes); err != nil {
		return status, fmt.Errorf("failed to get total snapshots: %w", err)
	}
	if status.TotalSnapshots == 0 {
		return status, nil
	}

	currentQuery := rebind(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE is_current = ?", s.table), s.backend)
	if err := s.db.QueryRowContext(ctx, currentQuery, true).Scan(&status.CurrentCount); err != nil {
		return status, fmt.Errorf("failed to count current snapshots: %w", err)
	}
	current, err := s.GetCurrent(ctx)
	if err != nil {
		return status, err
	}
	if current != nil {
		status.CurrentSnapshotID = current.SnapshotID
		status.CurrentPeriod = current.Period
	}

	newest, err := s.ListSnapshots(ctx, 1)
	if err != nil {
		return status, err
	}
	if len(newest) > 0 {
		status.LastPublished = newest[0].PublishedAt
	}
	oldestQuery := fmt.Sprintf(`SELECT %s FROM %s ORDER BY published_at ASC, snapshot_id ASC LIMIT 1`, metaColumns, s.table)
	oldest, err := s.queryRecords(ctx, oldestQuery, false)
	if err != nil {
		return status, err
	}
	if len(oldest) > 0 {
		status.OldestPublished = oldest[0].PublishedAt
	}
	return status, nil
}

// Close closes the underlying connection.
func (s *SnapshotStoreImpl) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
