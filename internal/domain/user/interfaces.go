package user

import "context"

// Repository provides persistence for users, schedules and vacations.
type Repository interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)
	ListActive(ctx context.Context) ([]User, error)
	ListByIDs(ctx context.Context, ids []string) ([]User, error)
	ListByRoles(ctx context.Context, roles []Role) ([]User, error)
	UpdateSchedule(ctx context.Context, id string, schedule WeekSchedule, timezone string) error
	AddVacation(ctx context.Context, period *VacationPeriod) error
}
