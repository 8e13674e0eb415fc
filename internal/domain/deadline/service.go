package deadline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// DefaultUpcomingDays is the window used when none is requested.
const DefaultUpcomingDays = 7

// Service answers deadline queries scoped to a user. An empty user id
// means every item.
type Service struct {
	items      workitem.Repository
	milestones milestone.Repository
	logger     *slog.Logger
}

// NewService creates a new deadline query service.
func NewService(items workitem.Repository, milestones milestone.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{items: items, milestones: milestones, logger: logger}
}

// Overdue returns open items whose deadline is before now.
func (s *Service) Overdue(ctx context.Context, userID string, now time.Time) (*OverdueItems, error) {
	items, err := s.items.List(ctx, workitem.ListOptions{
		UserID:        userID,
		HasDeadline:   true,
		OpenOnly:      true,
		DeadlineUntil: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("listing overdue items: %w", err)
	}
	tasks, projects := splitByKind(items)
	return &OverdueItems{Tasks: tasks, Projects: projects, Total: len(items)}, nil
}

// Upcoming returns open items due within the next days days, inclusive.
func (s *Service) Upcoming(ctx context.Context, userID string, days int, now time.Time) (*UpcomingItems, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	until := now.AddDate(0, 0, days).Add(time.Nanosecond)
	items, err := s.items.List(ctx, workitem.ListOptions{
		UserID:        userID,
		HasDeadline:   true,
		OpenOnly:      true,
		DeadlineFrom:  &now,
		DeadlineUntil: &until,
	})
	if err != nil {
		return nil, fmt.Errorf("listing upcoming items: %w", err)
	}
	tasks, projects := splitByKind(items)
	return &UpcomingItems{Tasks: tasks, Projects: projects, Total: len(items)}, nil
}

// Stats counts every item in scope by kind. Upcoming uses a seven day window.
func (s *Service) Stats(ctx context.Context, userID string, now time.Time) (*Stats, error) {
	items, err := s.items.List(ctx, workitem.ListOptions{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	weekOut := now.AddDate(0, 0, DefaultUpcomingDays)
	var stats Stats
	for i := range items {
		item := &items[i]
		ks := &stats.Tasks
		if item.Kind == workitem.KindProject {
			ks = &stats.Projects
		}
		ks.Total++
		switch {
		case item.IsOverdue(now):
			ks.Overdue++
		case item.HasDeadline() && !item.IsTerminal() && !item.Deadline.After(weekOut):
			ks.Upcoming++
		}
	}
	stats.Tasks.OnTime = stats.Tasks.Total - stats.Tasks.Overdue
	stats.Projects.OnTime = stats.Projects.Total - stats.Projects.Overdue
	return &stats, nil
}

// Calendar returns items and milestones dated within [start, end].
func (s *Service) Calendar(ctx context.Context, userID string, start, end, now time.Time) (*Calendar, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, fmt.Errorf("%w: start and end dates are required and start must not be after end", ErrInvalidInput)
	}

	until := end.Add(time.Nanosecond)
	items, err := s.items.List(ctx, workitem.ListOptions{
		UserID:        userID,
		HasDeadline:   true,
		DeadlineFrom:  &start,
		DeadlineUntil: &until,
	})
	if err != nil {
		return nil, fmt.Errorf("listing calendar items: %w", err)
	}

	cal := &Calendar{
		Tasks:      []CalendarItem{},
		Projects:   []CalendarItem{},
		Milestones: []CalendarMilestone{},
	}
	for i := range items {
		item := &items[i]
		entry := CalendarItem{
			ID:        item.ID,
			Kind:      item.Kind,
			Title:     item.Title,
			Deadline:  *item.Deadline,
			Status:    item.Status,
			IsOverdue: item.IsOverdue(now),
		}
		if item.Kind == workitem.KindProject {
			cal.Projects = append(cal.Projects, entry)
		} else {
			cal.Tasks = append(cal.Tasks, entry)
		}
	}

	var projectIDs []string
	if userID != "" {
		projects, err := s.items.List(ctx, workitem.ListOptions{Kind: workitem.KindProject, UserID: userID})
		if err != nil {
			return nil, fmt.Errorf("listing member projects: %w", err)
		}
		if len(projects) == 0 {
			return cal, nil
		}
		projectIDs = make([]string, 0, len(projects))
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	milestones, err := s.milestones.ListDueBetween(ctx, projectIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}
	for _, m := range milestones {
		cal.Milestones = append(cal.Milestones, calendarMilestone(m, now))
	}
	s.logger.Debug("calendar built",
		"user_id", userID,
		"tasks", len(cal.Tasks),
		"projects", len(cal.Projects),
		"milestones", len(cal.Milestones),
	)
	return cal, nil
}

func splitByKind(items []workitem.WorkItem) (tasks, projects []workitem.WorkItem) {
	tasks = []workitem.WorkItem{}
	projects = []workitem.WorkItem{}
	for _, item := range items {
		if item.Kind == workitem.KindProject {
			projects = append(projects, item)
		} else {
			tasks = append(tasks, item)
		}
	}
	return tasks, projects
}
