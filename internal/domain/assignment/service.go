package assignment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rpggio/duetrack/internal/domain/availability"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// Service assigns tasks to users who are available on each task's deadline.
type Service struct {
	items    workitem.Repository
	users    user.Repository
	oracle   *availability.Oracle
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService creates a new assignment service.
func NewService(items workitem.Repository, users user.Repository, oracle *availability.Oracle, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if oracle == nil {
		oracle = availability.NewOracle()
	}
	return &Service{items: items, users: users, oracle: oracle, notifier: notifier, logger: logger}
}

// Assign assigns one task.
func (s *Service) Assign(ctx context.Context, taskID, userID string) (*workitem.WorkItem, error) {
	tasks, err := s.BulkAssign(ctx, []string{taskID}, userID)
	if err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// BulkAssign assigns every task or none. When the user cannot take any of
// the tasks on its deadline the whole request fails with *UnavailableError.
func (s *Service) BulkAssign(ctx context.Context, taskIDs []string, userID string) ([]workitem.WorkItem, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: assignee is required", ErrInvalidInput)
	}
	if len(taskIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one task is required", ErrInvalidInput)
	}

	assignee, err := user.Lookup(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	tasks := make([]workitem.WorkItem, 0, len(taskIDs))
	var unavailable []string
	for _, id := range taskIDs {
		task, err := workitem.Lookup(ctx, s.items, workitem.KindTask, id)
		if err != nil {
			return nil, err
		}
		if task.HasDeadline() && !s.oracle.CanAssign(assignee, *task.Deadline) {
			unavailable = append(unavailable, task.Title)
		}
		tasks = append(tasks, *task)
	}
	if len(unavailable) > 0 {
		return nil, &UnavailableError{UserID: assignee.ID, Titles: unavailable}
	}

	for i := range tasks {
		task := &tasks[i]
		if err := s.items.SetAssignee(ctx, task.ID, assignee.ID); err != nil {
			return nil, fmt.Errorf("assigning task %s: %w", task.ID, err)
		}
		task.AssigneeID = &assignee.ID
	}

	for i := range tasks {
		s.notifyAssignee(ctx, assignee, &tasks[i])
	}
	s.logger.Info("tasks assigned", "user_id", assignee.ID, "count", len(tasks))
	return tasks, nil
}

func (s *Service) notifyAssignee(ctx context.Context, assignee *user.User, task *workitem.WorkItem) {
	_, err := s.notifier.Dispatch(ctx, notification.DispatchInput{
		RecipientID: assignee.ID,
		Title:       "New Task Assigned",
		Message:     fmt.Sprintf("You have been assigned a new task: %s", task.Title),
		Type:        notification.TypeTaskAssignment,
		Priority:    notification.PriorityMedium,
		Related: notification.Related{
			Kind:   string(workitem.KindTask),
			ID:     task.ID,
			Title:  task.Title,
			Status: string(task.Status),
		},
	})
	if err != nil {
		s.logger.Warn("assignment notification failed", "task_id", task.ID, "recipient_id", assignee.ID, "error", err)
	}
}
