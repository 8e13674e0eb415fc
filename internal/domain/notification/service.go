package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/duetrack/internal/repository"
)

// InboxLimit caps how many notifications ListForUser returns.
const InboxLimit = 50

// Service exposes a user's notification inbox.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new inbox service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ListForUser returns the newest notifications for a user.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByRecipient(ctx, userID, InboxLimit)
}

// MarkRead flips the read flag of one notification.
func (s *Service) MarkRead(ctx context.Context, id string) (*Notification, error) {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("marking notification read: %w", err)
	}
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of a user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.MarkAllRead(ctx, userID)
}

// Stats counts a user's notifications by read state, type and priority.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if userID == "" {
		return Stats{}, ErrInvalidInput
	}
	all, err := s.repo.ListByRecipient(ctx, userID, 0)
	if err != nil {
		return Stats{}, fmt.Errorf("listing notifications: %w", err)
	}
	stats := Stats{
		ByType:     make(map[Type]int),
		ByPriority: make(map[Priority]int),
	}
	for _, n := range all {
		stats.Total++
		if !n.Read {
			stats.Unread++
		}
		stats.ByType[n.Type]++
		stats.ByPriority[n.Priority]++
	}
	return stats, nil
}

// Delete removes one notification.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("deleting notification: %w", err)
	}
	return nil
}

// DeleteAllForUser removes every notification of a user.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.DeleteByRecipient(ctx, userID)
}
