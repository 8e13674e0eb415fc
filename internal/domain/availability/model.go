package availability

import (
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
)

// ScheduleView is a user's schedule in the shape the schedule endpoints use.
type ScheduleView struct {
	UserID       string            `json:"userId"`
	WorkDays     []string          `json:"workDays"`
	StartTime    string            `json:"startTime"`
	EndTime      string            `json:"endTime"`
	Timezone     string            `json:"timezone"`
	WorkSchedule user.WeekSchedule `json:"workSchedule"`
}

// ScheduleInput replaces a user's weekly schedule.
type ScheduleInput struct {
	WorkDays  []string
	StartTime string
	EndTime   string
	Timezone  string
}

// VacationInput defines a vacation request.
type VacationInput struct {
	StartDate *time.Time
	EndDate   *time.Time
	Reason    string
}

// TeamQuery selects users and an optional date range. Without a project
// every active user is included.
type TeamQuery struct {
	ProjectID string
	Start     *time.Time
	End       *time.Time
}

// MemberSummary identifies a user in team views.
type MemberSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// MemberAvailability is one user's capacity against assigned work.
type MemberAvailability struct {
	User               MemberSummary     `json:"user"`
	WorkSchedule       user.WeekSchedule `json:"workSchedule"`
	CurrentWorkload    float64           `json:"currentWorkload"`
	MaxHoursPerWeek    float64           `json:"maxHoursPerWeek"`
	AvailableHours     float64           `json:"availableHours"`
	AssignedTasks      int               `json:"assignedTasks"`
	TotalAssignedHours float64           `json:"totalAssignedHours"`
	IsOverloaded       bool              `json:"isOverloaded"`
	AvailableDays      *int              `json:"availableDays,omitempty"`
}
