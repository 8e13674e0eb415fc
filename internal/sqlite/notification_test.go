package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/stretchr/testify/require"
)

func createTestNotification(t *testing.T, db *DB, id, recipient string, createdAt time.Time) *notification.Notification {
	t.Helper()
	n := &notification.Notification{
		ID:          id,
		RecipientID: recipient,
		Title:       "Title " + id,
		Message:     "Message " + id,
		Type:        notification.TypeGeneral,
		Priority:    notification.PriorityMedium,
		Related:     notification.Related{Kind: "task", ID: "t1", Title: "Write docs"},
		CreatedAt:   createdAt,
	}
	require.NoError(t, NewNotificationRepository(db).Create(context.Background(), n))
	return n
}

func TestNotificationRepository_ListNewestFirst(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createTestNotification(t, db, fmt.Sprintf("n%d", i), "u1", testNow.Add(time.Duration(i)*time.Minute))
	}
	createTestNotification(t, db, "other", "u2", testNow)

	list, err := repo.ListByRecipient(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "n4", list[0].ID)
	require.Equal(t, "n2", list[2].ID)
	require.Equal(t, "Write docs", list[0].Related.Title)

	all, err := repo.ListByRecipient(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestNotificationRepository_ReadAndEmailFlags(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	createTestNotification(t, db, "n1", "u1", testNow)
	createTestNotification(t, db, "n2", "u1", testNow)
	createTestNotification(t, db, "n3", "u1", testNow)

	require.NoError(t, repo.MarkRead(ctx, "n1"))
	require.ErrorIs(t, repo.MarkRead(ctx, "missing"), repository.ErrNotFound)

	n, err := repo.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	sentAt := testNow.Add(time.Second)
	require.NoError(t, repo.MarkEmailSent(ctx, "n2", sentAt))
	got, err := repo.Get(ctx, "n2")
	require.NoError(t, err)
	require.True(t, got.Read)
	require.True(t, got.EmailSent)
	require.True(t, got.EmailSentAt.Equal(sentAt))
}

func TestNotificationRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	createTestNotification(t, db, "n1", "u1", testNow)
	createTestNotification(t, db, "n2", "u1", testNow)
	createTestNotification(t, db, "n3", "u2", testNow)

	require.NoError(t, repo.Delete(ctx, "n1"))
	require.ErrorIs(t, repo.Delete(ctx, "n1"), repository.ErrNotFound)

	n, err := repo.DeleteByRecipient(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	rest, err := repo.ListByRecipient(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
}
