package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS batches (
	id         TEXT PRIMARY KEY,
	tag        TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS batches_tag ON batches(tag);
CREATE TABLE IF NOT EXISTS results (
	batch_id     TEXT    NOT NULL REFERENCES batches(id),
	idx          INTEGER NOT NULL,
	status       TEXT    NOT NULL,
	kind         TEXT    NOT NULL DEFAULT '',
	cu           INTEGER NOT NULL DEFAULT 0,
	message      TEXT    NOT NULL DEFAULT '',
	reason       TEXT    NOT NULL DEFAULT '',
	priority_fee INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (batch_id, idx)
);`

// Store archives analyzed batches by tag in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed initializes) the archive at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// BatchInfo describes one archived batch.
type BatchInfo struct {
	ID        uuid.UUID
	Tag       string
	CreatedAt time.Time
	Count     int
}

// TaggedBatch is an archived batch with its per-slot results restored in
// input order.
type TaggedBatch struct {
	BatchInfo
	Results []Result
}

// SaveBatch archives one analyzed batch under tag and returns its ID.
func (s *Store) SaveBatch(ctx context.Context, tag string, results []Result) (uuid.UUID, error) {
	id := uuid.New()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO batches (id, tag, created_at) VALUES (?, ?, ?)`,
		id.String(), tag, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return uuid.Nil, err
	}
	for i, r := range results {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO results (batch_id, idx, status, kind, cu, message, reason, priority_fee)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(), i, string(r.Status), string(r.Kind), r.CU, r.Message, r.Reason, r.PriorityFee)
		if err != nil {
			return uuid.Nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// Batches lists every archived batch, newest first.
func (s *Store) Batches(ctx context.Context) ([]BatchInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.tag, b.created_at, COUNT(r.batch_id)
		FROM batches b LEFT JOIN results r ON r.batch_id = b.id
		GROUP BY b.id ORDER BY b.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []BatchInfo
	for rows.Next() {
		info, err := scanBatchInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ResultsByTag restores every batch archived under tag, oldest first.
func (s *Store) ResultsByTag(ctx context.Context, tag string) ([]TaggedBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.tag, b.created_at, COUNT(r.batch_id)
		FROM batches b LEFT JOIN results r ON r.batch_id = b.id
		WHERE b.tag = ?
		GROUP BY b.id ORDER BY b.rowid ASC`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []TaggedBatch
	for rows.Next() {
		info, err := scanBatchInfo(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, TaggedBatch{BatchInfo: info})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range batches {
		results, err := s.batchResults(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Results = results
	}
	return batches, nil
}

func (s *Store) batchResults(ctx context.Context, id uuid.UUID) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, kind, cu, message, reason, priority_fee
		FROM results WHERE batch_id = ? ORDER BY idx ASC`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var status, kind string
		if err := rows.Scan(&status, &kind, &r.CU, &r.Message, &r.Reason, &r.PriorityFee); err != nil {
			return nil, err
		}
		r.Status = Status(status)
		r.Kind = FailureKind(kind)
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanBatchInfo(rows *sql.Rows) (BatchInfo, error) {
	var info BatchInfo
	var id, createdAt string
	if err := rows.Scan(&id, &info.Tag, &createdAt, &info.Count); err != nil {
		return info, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return info, fmt.Errorf("batch id %q: %w", id, err)
	}
	info.ID = parsed
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return info, fmt.Errorf("batch %s created_at %q: %w", id, createdAt, err)
	}
	info.CreatedAt = ts
	return info, nil
}
