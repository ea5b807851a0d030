// Package store keeps fetched message transcripts in SQLite so questions can
// be answered offline against a fixed snapshot.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"chatqa/internal/domain"
	"chatqa/internal/source"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshot is returned by Fetch when the database holds no snapshot yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// SQLiteStore implements domain.SnapshotStore using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var _ domain.SnapshotStore = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Set connection pool (single connection for SQLite)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := RunMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath, logger: logger}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite:" + s.path }

// SaveSnapshot stores records as a new snapshot. When the latest snapshot from
// the same source holds identical records, that snapshot is returned instead.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, src string, records []domain.Record) (domain.Snapshot, error) {
	payloads := make([]string, len(records))
	h := sha256.New()
	for i, r := range records {
		data, err := r.MarshalJSON()
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("encode record %d: %w", i, err)
		}
		payloads[i] = string(data)
		h.Write(data)
		h.Write([]byte{'\n'})
	}
	checksum := hex.EncodeToString(h.Sum(nil))

	var existing domain.Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, record_count, created_at FROM snapshots
		 WHERE id = (SELECT MAX(id) FROM snapshots) AND source = ? AND checksum = ?`, src, checksum,
	).Scan(&existing.ID, &existing.Source, &existing.Records, &existing.CreatedAt)
	if err == nil {
		s.logger.Info("snapshot unchanged", "id", existing.ID, "records", existing.Records)
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, fmt.Errorf("query latest snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (source, record_count, checksum, created_at) VALUES (?, ?, ?, ?)`,
		src, len(records), checksum, now,
	)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Snapshot{}, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (snapshot_id, position, payload, fetched_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer stmt.Close()
	for i, p := range payloads {
		if _, err := stmt.ExecContext(ctx, id, i, p, now); err != nil {
			return domain.Snapshot{}, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}

	s.logger.Info("snapshot saved", "id", id, "source", src, "records", len(records))
	return domain.Snapshot{ID: id, Source: src, Records: len(records), CreatedAt: now}, nil
}

// LatestSnapshot returns the most recent snapshot, or nil when there is none.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, record_count, created_at FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&snap.ID, &snap.Source, &snap.Records, &snap.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]domain.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, record_count, created_at FROM snapshots ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.Snapshot
	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(&snap.ID, &snap.Source, &snap.Records, &snap.CreatedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Fetch returns the records of the latest snapshot in their original order.
func (s *SQLiteStore) Fetch(ctx context.Context) ([]domain.Record, error) {
	snap, err := s.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return s.Records(ctx, snap.ID)
}

// Records returns the records of one snapshot.
func (s *SQLiteStore) Records(ctx context.Context, snapshotID int64) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE snapshot_id = ? ORDER BY position ASC`, snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		rec, err := source.DecodeRecord([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", snapshotID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes all but the newest keep snapshots and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = 1
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := `SELECT id FROM snapshots ORDER BY id DESC LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE snapshot_id IN (`+cutoff+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE id IN (`+cutoff+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("snapshots pruned", "removed", n, "kept", keep)
	}
	return int(n), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
