package milestone

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

// Service tracks project milestones.
type Service struct {
	repo     Repository
	items    workitem.Repository
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new milestone service.
func NewService(repo Repository, items workitem.Repository, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, items: items, notifier: notifier, logger: logger, now: time.Now}
}

// WithClock returns a copy of the service reading time from now.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Add creates a milestone and notifies every project member.
func (s *Service) Add(ctx context.Context, in AddInput) (*Milestone, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrInvalidInput)
	}

	project, err := workitem.Lookup(ctx, s.items, workitem.KindProject, in.ProjectID)
	if err != nil {
		return nil, err
	}

	m := &Milestone{
		ID:          uuid.NewString(),
		ProjectID:   project.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		DueDate:     *in.DueDate,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("creating milestone: %w", err)
	}

	s.notifyMembers(ctx, project, notification.DispatchInput{
		Title:    "New Milestone Added",
		Message:  fmt.Sprintf("New milestone %q added to project %q", m.Title, project.Title),
		Type:     notification.TypeMilestone,
		Priority: notification.PriorityMedium,
	})
	return m, nil
}

// Complete marks a milestone completed. Completing it again returns the
// milestone as first completed and sends nothing.
func (s *Service) Complete(ctx context.Context, projectID, milestoneID string) (*Milestone, error) {
	project, err := workitem.Lookup(ctx, s.items, workitem.KindProject, projectID)
	if err != nil {
		return nil, err
	}

	changed, err := s.repo.Complete(ctx, projectID, milestoneID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("completing milestone: %w", err)
	}

	m, err := s.repo.Get(ctx, projectID, milestoneID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("getting milestone: %w", err)
	}

	if changed {
		s.notifyMembers(ctx, project, notification.DispatchInput{
			Title:    "Milestone Completed",
			Message:  fmt.Sprintf("Milestone %q completed in project %q", m.Title, project.Title),
			Type:     notification.TypeMilestoneComplete,
			Priority: notification.PriorityLow,
		})
	}
	return m, nil
}

// List returns a project's milestones ordered by due date.
func (s *Service) List(ctx context.Context, projectID string) ([]Milestone, error) {
	if _, err := workitem.Lookup(ctx, s.items, workitem.KindProject, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

func (s *Service) notifyMembers(ctx context.Context, project *workitem.WorkItem, in notification.DispatchInput) {
	in.Related = notification.Related{
		Kind:        string(workitem.KindProject),
		ID:          project.ID,
		Title:       project.Title,
		ProjectName: project.Title,
	}
	for _, member := range project.Recipients() {
		in.RecipientID = member
		if _, err := s.notifier.Dispatch(ctx, in); err != nil {
			s.logger.Warn("milestone notification failed", "project_id", project.ID, "recipient_id", member, "error", err)
		}
	}
}
