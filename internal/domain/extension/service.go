package extension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
)

// Service runs the extension request and review workflow.
type Service struct {
	repo      Repository
	items     workitem.Repository
	reviewers ReviewerResolver
	notifier  notification.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new extension service.
func NewService(repo Repository, items workitem.Repository, reviewers ReviewerResolver, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:      repo,
		items:     items,
		reviewers: reviewers,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock returns a copy of the service reading time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Request records a pending extension and notifies the reviewers. The
// item's deadline is left unchanged.
func (s *Service) Request(ctx context.Context, in RequestInput) (*Request, error) {
	if strings.TrimSpace(in.RequestedBy) == "" {
		return nil, fmt.Errorf("%w: requester is required", ErrInvalidInput)
	}
	if in.NewDeadline == nil || in.NewDeadline.IsZero() {
		return nil, fmt.Errorf("%w: new deadline is required", ErrInvalidInput)
	}

	item, err := workitem.Lookup(ctx, s.items, in.ItemKind, in.ItemID)
	if err != nil {
		return nil, err
	}

	req := &Request{
		ID:          uuid.NewString(),
		ItemKind:    item.Kind,
		ItemID:      item.ID,
		RequestedBy: in.RequestedBy,
		RequestedAt: s.now(),
		NewDeadline: *in.NewDeadline,
		Reason:      in.Reason,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating extension request: %w", err)
	}

	s.notifyReviewers(ctx, item, req)
	return req, nil
}

// Review approves or rejects a pending request. Approval replaces the item's
// deadline. A request that was already reviewed yields ErrAlreadyReviewed.
func (s *Service) Review(ctx context.Context, in ReviewInput) (*Request, error) {
	if !in.Decision.IsDecision() {
		return nil, fmt.Errorf("%w: decision must be %q or %q", ErrInvalidInput, StatusApproved, StatusRejected)
	}
	if strings.TrimSpace(in.ReviewerID) == "" {
		return nil, fmt.Errorf("%w: reviewer is required", ErrInvalidInput)
	}

	item, err := workitem.Lookup(ctx, s.items, in.ItemKind, in.ItemID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, in.RequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("getting extension request: %w", err)
	}
	if existing.ItemKind != item.Kind || existing.ItemID != item.ID {
		return nil, ErrRequestNotFound
	}

	req, err := s.repo.Decide(ctx, in.RequestID, in.Decision, in.ReviewerID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrAlreadyReviewed
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("reviewing extension request: %w", err)
	}

	s.logger.Info("extension reviewed",
		"request_id", req.ID,
		"item_kind", req.ItemKind,
		"item_id", req.ItemID,
		"decision", req.Status,
	)
	s.notifyRequester(ctx, item, req)
	return req, nil
}

// List returns an item's requests in request order.
func (s *Service) List(ctx context.Context, kind workitem.Kind, itemID string) ([]Request, error) {
	if _, err := workitem.Lookup(ctx, s.items, kind, itemID); err != nil {
		return nil, err
	}
	return s.repo.ListByItem(ctx, kind, itemID)
}

func (s *Service) notifyReviewers(ctx context.Context, item *workitem.WorkItem, req *Request) {
	if s.reviewers == nil {
		return
	}
	reviewers, err := s.reviewers.Reviewers(ctx, item, req.RequestedBy)
	if err != nil {
		s.logger.Warn("resolving reviewers failed", "request_id", req.ID, "error", err)
		return
	}

	in := notification.DispatchInput{
		Title:    "Deadline Extension Request",
		Message:  fmt.Sprintf("Task %q extension requested by %s", item.Title, req.RequestedBy),
		Type:     notification.TypeDeadlineExtension,
		Priority: notification.PriorityMedium,
		Related:  related(item),
	}
	if item.Kind == workitem.KindProject {
		in.Title = "Project Deadline Extension Request"
		in.Message = fmt.Sprintf("Project %q extension requested by %s", item.Title, req.RequestedBy)
		in.Priority = notification.PriorityHigh
	}
	for _, reviewer := range reviewers {
		in.RecipientID = reviewer
		if _, err := s.notifier.Dispatch(ctx, in); err != nil {
			s.logger.Warn("extension request notification failed", "request_id", req.ID, "recipient_id", reviewer, "error", err)
		}
	}
}

func (s *Service) notifyRequester(ctx context.Context, item *workitem.WorkItem, req *Request) {
	priority := notification.PriorityMedium
	if req.Status == StatusApproved {
		priority = notification.PriorityLow
	}
	_, err := s.notifier.Dispatch(ctx, notification.DispatchInput{
		RecipientID: req.RequestedBy,
		Title:       fmt.Sprintf("Deadline Extension %s", req.Status),
		Message:     fmt.Sprintf("Your deadline extension request for %s %q was %s", item.Kind, item.Title, req.Status),
		Type:        notification.TypeDeadlineExtensionReview,
		Priority:    priority,
		Related:     related(item),
	})
	if err != nil {
		s.logger.Warn("extension review notification failed", "request_id", req.ID, "recipient_id", req.RequestedBy, "error", err)
	}
}

func related(item *workitem.WorkItem) notification.Related {
	return notification.Related{
		Kind:   string(item.Kind),
		ID:     item.ID,
		Title:  item.Title,
		Status: string(item.Status),
	}
}
