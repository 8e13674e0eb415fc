package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/stretchr/testify/require"
)

func createTestRequest(t *testing.T, db *DB, id, itemID string, requestedAt, newDeadline time.Time) *extension.Request {
	t.Helper()
	req := &extension.Request{
		ID:          id,
		ItemKind:    workitem.KindTask,
		ItemID:      itemID,
		RequestedBy: "u1",
		RequestedAt: requestedAt,
		NewDeadline: newDeadline,
		Reason:      "blocked",
		Status:      extension.StatusPending,
	}
	require.NoError(t, NewExtensionRepository(db).Create(context.Background(), req))
	return req
}

func TestExtensionRepository_CreateAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewExtensionRepository(db)
	ctx := context.Background()

	due := testNow.Add(24 * time.Hour)
	createTestTask(t, db, "t1", &due, ptr("u1"), nil)
	createTestRequest(t, db, "r2", "t1", testNow.Add(time.Hour), due.Add(72*time.Hour))
	createTestRequest(t, db, "r1", "t1", testNow, due.Add(48*time.Hour))

	list, err := repo.ListByItem(ctx, workitem.KindTask, "t1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "r1", list[0].ID)
	require.Equal(t, "r2", list[1].ID)
	require.Nil(t, list[0].ReviewedBy)

	list, err = repo.ListByItem(ctx, workitem.KindProject, "t1")
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExtensionRepository_DecideApproveMovesDeadline(t *testing.T) {
	db := NewTestDB(t)
	repo := NewExtensionRepository(db)
	items := NewWorkItemRepository(db)
	ctx := context.Background()

	due := testNow.Add(24 * time.Hour)
	extended := due.Add(5 * 24 * time.Hour)
	createTestTask(t, db, "t1", &due, ptr("u1"), nil)
	createTestRequest(t, db, "r1", "t1", testNow, extended)

	reviewedAt := testNow.Add(time.Hour)
	req, err := repo.Decide(ctx, "r1", extension.StatusApproved, "mgr", reviewedAt)
	require.NoError(t, err)
	require.Equal(t, extension.StatusApproved, req.Status)
	require.Equal(t, "mgr", *req.ReviewedBy)
	require.True(t, req.ReviewedAt.Equal(reviewedAt))

	task, err := items.Get(ctx, workitem.KindTask, "t1")
	require.NoError(t, err)
	require.True(t, task.Deadline.Equal(extended))

	// Decided requests are immutable
	_, err = repo.Decide(ctx, "r1", extension.StatusRejected, "mgr", reviewedAt)
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = repo.Decide(ctx, "missing", extension.StatusRejected, "mgr", reviewedAt)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestExtensionRepository_DecideRejectKeepsDeadline(t *testing.T) {
	db := NewTestDB(t)
	repo := NewExtensionRepository(db)
	items := NewWorkItemRepository(db)
	ctx := context.Background()

	due := testNow.Add(24 * time.Hour)
	createTestTask(t, db, "t1", &due, ptr("u1"), nil)
	createTestRequest(t, db, "r1", "t1", testNow, due.Add(48*time.Hour))

	req, err := repo.Decide(ctx, "r1", extension.StatusRejected, "mgr", testNow)
	require.NoError(t, err)
	require.Equal(t, extension.StatusRejected, req.Status)

	task, err := items.Get(ctx, workitem.KindTask, "t1")
	require.NoError(t, err)
	require.True(t, task.Deadline.Equal(due))
}
