package deadline

import (
	"time"

	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// LedgerEntry records that a threshold notification reached a recipient.
// (ItemKind, ItemID, Threshold, RecipientID) is unique.
type LedgerEntry struct {
	ItemKind    workitem.Kind `json:"itemKind"`
	ItemID      string        `json:"itemId"`
	Threshold   Threshold     `json:"threshold"`
	RecipientID string        `json:"recipientId"`
	SentAt      time.Time     `json:"sentAt"`
}

// ScanResult summarizes one scanner pass.
type ScanResult struct {
	Sent     int           `json:"sent"`
	Skipped  int           `json:"skipped"`
	Errors   []string      `json:"errors"`
	Duration time.Duration `json:"duration"`
}

// OverdueItems groups overdue work by kind.
type OverdueItems struct {
	Tasks    []workitem.WorkItem `json:"overdueTasks"`
	Projects []workitem.WorkItem `json:"overdueProjects"`
	Total    int                 `json:"totalOverdue"`
}

// UpcomingItems groups work due within a window by kind.
type UpcomingItems struct {
	Tasks    []workitem.WorkItem `json:"upcomingTasks"`
	Projects []workitem.WorkItem `json:"upcomingProjects"`
	Total    int                 `json:"totalUpcoming"`
}

// KindStats are deadline counters for one kind of work item.
type KindStats struct {
	Total    int `json:"total"`
	Overdue  int `json:"overdue"`
	Upcoming int `json:"upcoming"`
	OnTime   int `json:"onTime"`
}

// Stats holds deadline counters per kind.
type Stats struct {
	Tasks    KindStats `json:"tasks"`
	Projects KindStats `json:"projects"`
}

// CalendarItem is a work item placed on a calendar.
type CalendarItem struct {
	ID        string          `json:"id"`
	Kind      workitem.Kind   `json:"kind"`
	Title     string          `json:"title"`
	Deadline  time.Time       `json:"deadline"`
	Status    workitem.Status `json:"status"`
	IsOverdue bool            `json:"isOverdue"`
}

// CalendarMilestone is a milestone placed on a calendar.
type CalendarMilestone struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	DueDate   time.Time `json:"dueDate"`
	Completed bool      `json:"completed"`
	IsOverdue bool      `json:"isOverdue"`
}

// Calendar is every dated item in a range.
type Calendar struct {
	Tasks      []CalendarItem      `json:"tasks"`
	Projects   []CalendarItem      `json:"projects"`
	Milestones []CalendarMilestone `json:"milestones"`
}

func calendarMilestone(m milestone.Milestone, now time.Time) CalendarMilestone {
	return CalendarMilestone{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Title:     m.Title,
		DueDate:   m.DueDate,
		Completed: m.Completed,
		IsOverdue: !m.Completed && m.DueDate.Before(now),
	}
}
