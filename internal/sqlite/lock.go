package sqlite

import (
	"context"
	"fmt"
	"time"
)

// LockRepository leases named job locks so only one instance runs a job
// at a time.
type LockRepository struct {
	db  *DB
	now func() time.Time
}

// NewLockRepository creates a new LockRepository
func NewLockRepository(db *DB) *LockRepository {
	return &LockRepository{db: db, now: time.Now}
}

// TryAcquire takes the lease when it is free, expired or already held by owner
func (r *LockRepository) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := r.now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO job_locks (name, owner, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET owner = excluded.owner, expires_at = excluded.expires_at
		WHERE job_locks.expires_at <= ? OR job_locks.owner = excluded.owner
	`, name, owner, formatTime(now.Add(ttl)), formatTime(now))
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// Release drops the lease if owner still holds it
func (r *LockRepository) Release(ctx context.Context, name, owner string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM job_locks WHERE name = ? AND owner = ?`, name, owner); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}
