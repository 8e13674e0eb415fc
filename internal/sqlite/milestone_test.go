package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/stretchr/testify/require"
)

func createTestMilestone(t *testing.T, db *DB, id, projectID string, due time.Time) *milestone.Milestone {
	t.Helper()
	m := &milestone.Milestone{
		ID:        id,
		ProjectID: projectID,
		Title:     "Milestone " + id,
		DueDate:   due,
		CreatedAt: testNow,
	}
	require.NoError(t, NewMilestoneRepository(db).Create(context.Background(), m))
	return m
}

func TestMilestoneRepository_CreateRequiresProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMilestoneRepository(db)

	err := repo.Create(context.Background(), &milestone.Milestone{
		ID:        "m1",
		ProjectID: "missing",
		Title:     "Orphan",
		DueDate:   testNow,
		CreatedAt: testNow,
	})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMilestoneRepository_ListByProject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMilestoneRepository(db)
	ctx := context.Background()

	createTestProject(t, db, "p1", nil)
	createTestProject(t, db, "p2", nil)
	createTestMilestone(t, db, "late", "p1", testNow.Add(72*time.Hour))
	createTestMilestone(t, db, "early", "p1", testNow.Add(24*time.Hour))
	createTestMilestone(t, db, "other", "p2", testNow.Add(24*time.Hour))

	list, err := repo.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "early", list[0].ID)
	require.Equal(t, "late", list[1].ID)

	_, err = repo.Get(ctx, "p2", "early")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMilestoneRepository_ListDueBetween(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMilestoneRepository(db)
	ctx := context.Background()

	createTestProject(t, db, "p1", nil)
	createTestProject(t, db, "p2", nil)
	start := testNow
	end := testNow.Add(7 * 24 * time.Hour)
	createTestMilestone(t, db, "at-start", "p1", start)
	createTestMilestone(t, db, "at-end", "p2", end)
	createTestMilestone(t, db, "outside", "p1", end.Add(time.Second))

	all, err := repo.ListDueBetween(ctx, nil, start, end)
	require.NoError(t, err)
	require.Len(t, all, 2)

	scoped, err := repo.ListDueBetween(ctx, []string{"p2"}, start, end)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, "at-end", scoped[0].ID)

	none, err := repo.ListDueBetween(ctx, []string{}, start, end)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMilestoneRepository_Complete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMilestoneRepository(db)
	ctx := context.Background()

	createTestProject(t, db, "p1", nil)
	createTestMilestone(t, db, "m1", "p1", testNow)

	changed, err := repo.Complete(ctx, "p1", "m1", testNow)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.Complete(ctx, "p1", "m1", testNow.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)

	got, err := repo.Get(ctx, "p1", "m1")
	require.NoError(t, err)
	require.True(t, got.Completed)
	require.True(t, got.CompletedAt.Equal(testNow))

	_, err = repo.Complete(ctx, "p1", "missing", testNow)
	require.ErrorIs(t, err, repository.ErrNotFound)
}
