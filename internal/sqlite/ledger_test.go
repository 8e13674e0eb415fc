package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_ClaimIsIdempotent(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry := deadline.LedgerEntry{
		ItemKind:    workitem.KindTask,
		ItemID:      "t1",
		Threshold:   deadline.Threshold3Days,
		RecipientID: "u1",
		SentAt:      testNow,
	}

	claimed, err := repo.Claim(ctx, entry)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = repo.Claim(ctx, entry)
	require.NoError(t, err)
	require.False(t, claimed)

	// Other threshold, recipient or kind is a distinct key
	other := entry
	other.Threshold = deadline.Threshold1Day
	claimed, err = repo.Claim(ctx, other)
	require.NoError(t, err)
	require.True(t, claimed)

	project := entry
	project.ItemKind = workitem.KindProject
	claimed, err = repo.Claim(ctx, project)
	require.NoError(t, err)
	require.True(t, claimed)

	entries, err := repo.List(ctx, workitem.KindTask, "t1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].SentAt.Equal(testNow))
}

func TestLedgerRepository_Release(t *testing.T) {
	db := NewTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry := deadline.LedgerEntry{
		ItemKind:    workitem.KindTask,
		ItemID:      "t1",
		Threshold:   deadline.ThresholdOverdue,
		RecipientID: "u1",
		SentAt:      testNow,
	}
	_, err := repo.Claim(ctx, entry)
	require.NoError(t, err)
	require.NoError(t, repo.Release(ctx, entry))

	claimed, err := repo.Claim(ctx, entry)
	require.NoError(t, err)
	require.True(t, claimed)
}
