package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/duetrack/internal/email"
)

// DefaultSendTimeout bounds a single email send.
const DefaultSendTimeout = 10 * time.Second

// DispatchInput describes a notification to create.
type DispatchInput struct {
	RecipientID string
	Title       string
	Message     string
	Type        Type
	Priority    Priority
	Related     Related
}

// Dispatcher persists notifications and best-effort emails them.
type Dispatcher struct {
	repo        Repository
	users       UserRepository
	sender      email.Sender
	logger      *slog.Logger
	sendTimeout time.Duration
	now         func() time.Time
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithSendTimeout overrides DefaultSendTimeout.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.sendTimeout = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) DispatcherOption {
	return func(disp *Dispatcher) { disp.now = now }
}

// NewDispatcher creates a dispatcher. A nil sender disables email.
func NewDispatcher(repo Repository, users UserRepository, sender email.Sender, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := &Dispatcher{
		repo:        repo,
		users:       users,
		sender:      sender,
		logger:      logger,
		sendTimeout: DefaultSendTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch stores the notification and then attempts email delivery.
// Only a storage failure is returned; email failures leave EmailSent false.
func (d *Dispatcher) Dispatch(ctx context.Context, in DispatchInput) (*Notification, error) {
	if strings.TrimSpace(in.RecipientID) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, ErrInvalidInput
	}
	if in.Type == "" {
		in.Type = TypeGeneral
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}

	n := &Notification{
		ID:          uuid.NewString(),
		RecipientID: in.RecipientID,
		Title:       in.Title,
		Message:     in.Message,
		Type:        in.Type,
		Priority:    in.Priority,
		Related:     in.Related,
		CreatedAt:   d.now(),
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	d.deliver(ctx, n)
	return n, nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *Notification) {
	if d.sender == nil || d.users == nil {
		return
	}

	recipient, err := d.users.Get(ctx, n.RecipientID)
	if err != nil {
		d.logger.Warn("email skipped: recipient lookup failed", "notification_id", n.ID, "recipient_id", n.RecipientID, "error", err)
		return
	}
	if recipient.Email == "" {
		return
	}

	subject, body, err := email.Render(string(n.Type), email.TemplateData{
		RecipientName: recipient.Name,
		Title:         n.Title,
		Message:       n.Message,
		ItemKind:      n.Related.Kind,
		ItemTitle:     n.Related.Title,
		ProjectName:   n.Related.ProjectName,
	})
	if err != nil {
		d.logger.Warn("email skipped: render failed", "notification_id", n.ID, "error", err)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	err = d.sender.Send(sendCtx, email.Message{
		To:      recipient.Email,
		ToName:  recipient.Name,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		if errors.Is(err, email.ErrDisabled) {
			d.logger.Debug("email disabled", "notification_id", n.ID)
		} else {
			d.logger.Warn("email send failed", "notification_id", n.ID, "recipient_id", n.RecipientID, "error", err)
		}
		return
	}

	at := d.now()
	if err := d.repo.MarkEmailSent(ctx, n.ID, at); err != nil {
		d.logger.Warn("recording email delivery failed", "notification_id", n.ID, "error", err)
		return
	}
	n.EmailSent = true
	n.EmailSentAt = &at
}
