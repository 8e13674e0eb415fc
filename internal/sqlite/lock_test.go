package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLockRepository_Lease(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLockRepository(db)
	ctx := context.Background()

	now := testNow
	repo.now = func() time.Time { return now }

	ok, err := repo.TryAcquire(ctx, "scan", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.TryAcquire(ctx, "scan", "b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "held lease must not be stolen")

	// Holder may renew
	ok, err = repo.TryAcquire(ctx, "scan", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Expired lease is taken over
	now = now.Add(2 * time.Minute)
	ok, err = repo.TryAcquire(ctx, "scan", "b", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// Releasing someone else's lease is a no-op
	require.NoError(t, repo.Release(ctx, "scan", "a"))
	ok, err = repo.TryAcquire(ctx, "scan", "a", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Release(ctx, "scan", "b"))
	ok, err = repo.TryAcquire(ctx, "scan", "a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}
