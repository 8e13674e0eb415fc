package workload

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Service computes utilization from open assigned tasks.
type Service struct {
	users       user.Repository
	items       workitem.Repository
	concurrency int
	logger      *slog.Logger
}

// NewService creates a new workload service.
func NewService(users user.Repository, items workitem.Repository, concurrency int, logger *slog.Logger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{users: users, items: items, concurrency: concurrency, logger: logger}
}

// UserWorkload returns the workload of one user.
func (s *Service) UserWorkload(ctx context.Context, userID string) (*UserWorkload, error) {
	u, err := user.Lookup(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	w, err := s.compute(ctx, u)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// TeamWorkload returns the workload of every active user.
func (s *Service) TeamWorkload(ctx context.Context) ([]UserWorkload, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}

	out := make([]UserWorkload, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range users {
		i := i
		g.Go(func() error {
			w, err := s.compute(gctx, &users[i])
			if err != nil {
				return err
			}
			out[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) compute(ctx context.Context, u *user.User) (UserWorkload, error) {
	tasks, err := s.items.List(ctx, workitem.ListOptions{
		Kind:       workitem.KindTask,
		AssigneeID: u.ID,
		OpenOnly:   true,
	})
	if err != nil {
		return UserWorkload{}, fmt.Errorf("listing tasks for %s: %w", u.ID, err)
	}

	var hours float64
	for _, t := range tasks {
		hours += t.EstimatedHours
	}
	capacity := u.Capacity()
	util := Utilization(hours, capacity)
	return UserWorkload{
		UserID:      u.ID,
		UserName:    u.Name,
		TotalTasks:  len(tasks),
		TotalHours:  hours,
		MaxHours:    capacity,
		Utilization: util,
		Status:      Bucket(util),
	}, nil
}
