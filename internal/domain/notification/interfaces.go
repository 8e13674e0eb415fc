package notification

import (
	"context"
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
)

// Repository provides persistence for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id string) (*Notification, error)
	MarkEmailSent(ctx context.Context, id string, at time.Time) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]Notification, error)
	Delete(ctx context.Context, id string) error
	DeleteByRecipient(ctx context.Context, recipientID string) (int64, error)
}

// UserRepository resolves recipients to email addresses.
type UserRepository interface {
	Get(ctx context.Context, id string) (*user.User, error)
}

// Notifier dispatches a single notification. Dispatcher implements it.
type Notifier interface {
	Dispatch(ctx context.Context, in DispatchInput) (*Notification, error)
}
