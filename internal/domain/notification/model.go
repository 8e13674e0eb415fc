package notification

import "time"

// Type classifies a notification and selects its email template.
type Type string

const (
	TypeTaskAssignment          Type = "task_assignment"
	TypeDeadlineApproaching     Type = "deadline_approaching"
	TypeDeadlineOverdue         Type = "deadline_overdue"
	TypeDeadlineExtension       Type = "deadline_extension"
	TypeDeadlineExtensionReview Type = "deadline_extension_review"
	TypeMilestone               Type = "milestone"
	TypeMilestoneComplete       Type = "milestone_complete"
	TypeVacationRequest         Type = "vacation_request"
	TypeGeneral                 Type = "general"
)

// Priority orders notifications for display.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Related is a loose reference to the record a notification is about,
// with denormalized display fields. It is not checked for existence.
type Related struct {
	Kind        string `json:"type,omitempty"`
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Notification is an in-app message for a single recipient.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"userId"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        Type       `json:"type"`
	Priority    Priority   `json:"priority"`
	Read        bool       `json:"read"`
	Related     Related    `json:"relatedItem"`
	EmailSent   bool       `json:"emailSent"`
	EmailSentAt *time.Time `json:"emailSentAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Stats summarizes a user's inbox.
type Stats struct {
	Total      int              `json:"total"`
	Unread     int              `json:"unread"`
	ByType     map[Type]int     `json:"byType"`
	ByPriority map[Priority]int `json:"byPriority"`
}
