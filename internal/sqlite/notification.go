package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/repository"
)

// NotificationRepository implements notification.Repository for SQLite
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationRow struct {
	ID                 string         `db:"id"`
	RecipientID        string         `db:"recipient_id"`
	Title              string         `db:"title"`
	Message            string         `db:"message"`
	Type               string         `db:"type"`
	Priority           string         `db:"priority"`
	IsRead             bool           `db:"is_read"`
	RelatedKind        string         `db:"related_kind"`
	RelatedID          string         `db:"related_id"`
	RelatedTitle       string         `db:"related_title"`
	RelatedProjectName string         `db:"related_project_name"`
	RelatedStatus      string         `db:"related_status"`
	EmailSent          bool           `db:"email_sent"`
	EmailSentAt        sql.NullString `db:"email_sent_at"`
	CreatedAt          string         `db:"created_at"`
}

const notificationColumns = `id, recipient_id, title, message, type, priority, is_read,
	related_kind, related_id, related_title, related_project_name, related_status,
	email_sent, email_sent_at, created_at`

func (r notificationRow) toDomain() (notification.Notification, error) {
	n := notification.Notification{
		ID:          r.ID,
		RecipientID: r.RecipientID,
		Title:       r.Title,
		Message:     r.Message,
		Type:        notification.Type(r.Type),
		Priority:    notification.Priority(r.Priority),
		Read:        r.IsRead,
		Related: notification.Related{
			Kind:        r.RelatedKind,
			ID:          r.RelatedID,
			Title:       r.RelatedTitle,
			ProjectName: r.RelatedProjectName,
			Status:      r.RelatedStatus,
		},
		EmailSent: r.EmailSent,
	}
	var err error
	if n.EmailSentAt, err = parseNullTime(r.EmailSentAt); err != nil {
		return n, err
	}
	if n.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return n, err
	}
	return n, nil
}

// Create inserts a notification
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		n.ID,
		n.RecipientID,
		n.Title,
		n.Message,
		string(n.Type),
		string(n.Priority),
		n.Read,
		n.Related.Kind,
		n.Related.ID,
		n.Related.Title,
		n.Related.ProjectName,
		n.Related.Status,
		n.EmailSent,
		nullTime(n.EmailSentAt),
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", constraintError(err))
	}
	return nil
}

// Get retrieves a notification by ID
func (r *NotificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	var row notificationRow
	err := r.db.GetContext(ctx, &row, `SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	n, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkEmailSent records a successful email delivery
func (r *NotificationRepository) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	return r.updateOne(ctx, `UPDATE notifications SET email_sent = 1, email_sent_at = ? WHERE id = ?`, formatTime(at), id)
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	return r.updateOne(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ?`, id)
}

// MarkAllRead marks every unread notification of a recipient read
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE recipient_id = ? AND is_read = 0`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

// ListByRecipient returns a recipient's notifications, newest first. A
// limit of zero returns all of them.
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ? ORDER BY created_at DESC, rowid DESC`
	args := []any{recipientID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	out := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Delete removes a notification
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	return r.updateOne(ctx, `DELETE FROM notifications WHERE id = ?`, id)
}

// DeleteByRecipient removes every notification of a recipient
func (r *NotificationRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE recipient_id = ?`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", err)
	}
	return res.RowsAffected()
}

func (r *NotificationRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
