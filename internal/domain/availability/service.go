package availability

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
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"golang.org/x/sync/errgroup"
)

// DefaultTimezone applies when a schedule update names none.
const DefaultTimezone = "UTC"

// maxRangeDays bounds the per-day availability count.
const maxRangeDays = 366

// Service manages schedules and vacations and reports team availability.
type Service struct {
	users    user.Repository
	items    workitem.Repository
	oracle   *Oracle
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new availability service.
func NewService(users user.Repository, items workitem.Repository, oracle *Oracle, notifier notification.Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if oracle == nil {
		oracle = NewOracle()
	}
	return &Service{users: users, items: items, oracle: oracle, notifier: notifier, logger: logger, now: time.Now}
}

// GetSchedule returns the stored schedule or the default one. The default
// is not persisted.
func (s *Service) GetSchedule(ctx context.Context, userID string) (*ScheduleView, error) {
	u, err := user.Lookup(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	return scheduleView(u.ID, u.EffectiveSchedule(), u.Timezone), nil
}

// UpdateSchedule replaces the user's schedule with the listed work days
// between start and end.
func (s *Service) UpdateSchedule(ctx context.Context, userID string, in ScheduleInput) (*ScheduleView, error) {
	schedule, err := user.NewSchedule(in.WorkDays, in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}
	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = DefaultTimezone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", user.ErrInvalidSchedule, tz)
	}

	if err := s.users.UpdateSchedule(ctx, userID, schedule, tz); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("updating schedule: %w", err)
	}
	return scheduleView(userID, schedule, tz), nil
}

// RequestVacation records a vacation and notifies every admin and manager.
func (s *Service) RequestVacation(ctx context.Context, userID string, in VacationInput) (*user.VacationPeriod, error) {
	if in.StartDate == nil || in.EndDate == nil {
		return nil, fmt.Errorf("%w: start and end dates are required", user.ErrInvalidVacation)
	}
	if in.EndDate.Before(*in.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", user.ErrInvalidVacation)
	}

	u, err := user.Lookup(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}

	period := &user.VacationPeriod{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		StartDate: *in.StartDate,
		EndDate:   *in.EndDate,
		Reason:    in.Reason,
		CreatedAt: s.now(),
	}
	if err := s.users.AddVacation(ctx, period); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("adding vacation: %w", err)
	}

	managers, err := s.users.ListByRoles(ctx, []user.Role{user.RoleAdmin, user.RoleManager})
	if err != nil {
		s.logger.Warn("listing managers failed", "user_id", u.ID, "error", err)
		return period, nil
	}
	for _, m := range managers {
		_, err := s.notifier.Dispatch(ctx, notification.DispatchInput{
			RecipientID: m.ID,
			Title:       "Vacation Request",
			Message: fmt.Sprintf("%s has requested vacation from %s to %s",
				u.Name, period.StartDate.Format(time.DateOnly), period.EndDate.Format(time.DateOnly)),
			Type:     notification.TypeVacationRequest,
			Priority: notification.PriorityMedium,
			Related:  notification.Related{Kind: "user", ID: u.ID, Title: u.Name},
		})
		if err != nil {
			s.logger.Warn("vacation notification failed", "user_id", u.ID, "recipient_id", m.ID, "error", err)
		}
	}
	return period, nil
}

// TeamAvailability reports each user's capacity against assigned tasks.
// With a date range, only tasks due in the range count and AvailableDays
// holds the number of assignable days in it.
func (s *Service) TeamAvailability(ctx context.Context, q TeamQuery) ([]MemberAvailability, error) {
	ranged := q.Start != nil && q.End != nil
	if ranged && q.End.Before(*q.Start) {
		return nil, fmt.Errorf("%w: end date is before start date", ErrInvalidInput)
	}

	users, err := s.teamMembers(ctx, q.ProjectID)
	if err != nil {
		return nil, err
	}

	out := make([]MemberAvailability, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range users {
		i := i
		u := &users[i]
		g.Go(func() error {
			opts := workitem.ListOptions{Kind: workitem.KindTask, AssigneeID: u.ID}
			if ranged {
				until := q.End.Add(time.Nanosecond)
				opts.DeadlineFrom = q.Start
				opts.DeadlineUntil = &until
			}
			tasks, err := s.items.List(gctx, opts)
			if err != nil {
				return fmt.Errorf("listing tasks for %s: %w", u.ID, err)
			}

			var hours float64
			for _, t := range tasks {
				hours += t.EstimatedHours
			}
			available := u.Capacity() - u.CurrentWorkload
			entry := MemberAvailability{
				User:               MemberSummary{ID: u.ID, Name: u.Name, Email: u.Email},
				WorkSchedule:       u.EffectiveSchedule(),
				CurrentWorkload:    u.CurrentWorkload,
				MaxHoursPerWeek:    u.Capacity(),
				AvailableHours:     available,
				AssignedTasks:      len(tasks),
				TotalAssignedHours: hours,
				IsOverloaded:       hours > available,
			}
			if ranged {
				days := s.availableDays(u, *q.Start, *q.End)
				entry.AvailableDays = &days
			}

			out[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) teamMembers(ctx context.Context, projectID string) ([]user.User, error) {
	if projectID == "" {
		users, err := s.users.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing active users: %w", err)
		}
		return users, nil
	}
	project, err := workitem.Lookup(ctx, s.items, workitem.KindProject, projectID)
	if err != nil {
		return nil, err
	}
	members := project.Recipients()
	if len(members) == 0 {
		return []user.User{}, nil
	}
	users, err := s.users.ListByIDs(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("listing project members: %w", err)
	}
	return users, nil
}

func (s *Service) availableDays(u *user.User, start, end time.Time) int {
	count := 0
	for d, i := start, 0; !d.After(end) && i < maxRangeDays; d, i = d.AddDate(0, 0, 1), i+1 {
		if s.oracle.CanAssign(u, d) {
			count++
		}
	}
	return count
}

func scheduleView(userID string, schedule user.WeekSchedule, tz string) *ScheduleView {
	if tz == "" {
		tz = DefaultTimezone
	}
	start, end := user.DefaultStart, user.DefaultEnd
	for _, day := range user.Weekdays {
		if entry, ok := schedule[day]; ok && entry.Available {
			start, end = entry.Start, entry.End
			break
		}
	}
	return &ScheduleView{
		UserID:       userID,
		WorkDays:     schedule.WorkDays(),
		StartTime:    start,
		EndTime:      end,
		Timezone:     tz,
		WorkSchedule: schedule,
	}
}
