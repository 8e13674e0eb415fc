package user

import "time"

// Role is a coarse permission class used for routing reviews and requests.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
)

// IsPrivileged reports whether the role may review requests.
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin || r == RoleManager
}

// DefaultMaxHoursPerWeek applies when a user has no explicit capacity.
const DefaultMaxHoursPerWeek = 40

// User is the subset of a user record the deadline core reads.
type User struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Role            Role             `json:"role"`
	IsActive        bool             `json:"isActive"`
	Timezone        string           `json:"timezone"`
	MaxHoursPerWeek float64          `json:"maxHoursPerWeek"`
	CurrentWorkload float64          `json:"currentWorkload"`
	Schedule        *WeekSchedule    `json:"workSchedule,omitempty"`
	Vacations       []VacationPeriod `json:"vacations,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// EffectiveSchedule returns the stored schedule or the default one.
func (u *User) EffectiveSchedule() WeekSchedule {
	if u.Schedule == nil {
		return DefaultSchedule()
	}
	return *u.Schedule
}

// Capacity returns the weekly hour budget, falling back to the default.
func (u *User) Capacity() float64 {
	if u.MaxHoursPerWeek <= 0 {
		return DefaultMaxHoursPerWeek
	}
	return u.MaxHoursPerWeek
}

// VacationPeriod is an inclusive range of calendar days off.
type VacationPeriod struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
