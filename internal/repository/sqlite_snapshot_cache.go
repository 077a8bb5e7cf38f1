package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/greenpath/internal/db"
)

// SQLiteSnapshotCacheRepo keeps the last fetched live-data payload per key.
type SQLiteSnapshotCacheRepo struct {
	db db.DBTX
}

// NewSQLiteSnapshotCacheRepo creates a new SQLiteSnapshotCacheRepo.
func NewSQLiteSnapshotCacheRepo(conn db.DBTX) *SQLiteSnapshotCacheRepo {
	return &SQLiteSnapshotCacheRepo{db: conn}
}

func (r *SQLiteSnapshotCacheRepo) Get(ctx context.Context, key string) (*CachedSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, payload, fetched_at FROM snapshot_cache WHERE key = ?`, key)

	var s CachedSnapshot
	var payload, fetchedAt string
	if err := row.Scan(&s.Key, &payload, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("snapshot cache %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning snapshot cache: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing fetched_at: %w", err)
	}
	s.Payload = []byte(payload)
	s.FetchedAt = t
	return &s, nil
}

func (r *SQLiteSnapshotCacheRepo) Put(ctx context.Context, s CachedSnapshot) error {
	query := `INSERT OR REPLACE INTO snapshot_cache (key, payload, fetched_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, s.Key, string(s.Payload), s.FetchedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing snapshot cache: %w", err)
	}
	return nil
}

func (r *SQLiteSnapshotCacheRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshot_cache WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting snapshot cache: %w", err)
	}
	return nil
}
