package workitem

import (
	"strings"
	"time"
)

// Kind distinguishes the two work item shapes.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
)

// ParseKind accepts singular or plural item type names as used in URLs.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "task", "tasks":
		return KindTask, true
	case "project", "projects":
		return KindProject, true
	default:
		return "", false
	}
}

// Status is the workflow status of a work item. Valid values depend on Kind.
type Status string

const (
	TaskTodo       Status = "todo"
	TaskInProgress Status = "in_progress"
	TaskDone       Status = "done"

	ProjectNotStarted Status = "not_started"
	ProjectInProgress Status = "in_progress"
	ProjectCompleted  Status = "completed"
)

// TerminalStatus returns the status that closes an item of this kind.
func (k Kind) TerminalStatus() Status {
	if k == KindProject {
		return ProjectCompleted
	}
	return TaskDone
}

// ValidStatus reports whether s belongs to the status set of k.
func (k Kind) ValidStatus(s Status) bool {
	switch k {
	case KindTask:
		return s == TaskTodo || s == TaskInProgress || s == TaskDone
	case KindProject:
		return s == ProjectNotStarted || s == ProjectInProgress || s == ProjectCompleted
	}
	return false
}

// WorkItem is a task or a project carrying a deadline, a status and assignees.
type WorkItem struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Status         Status     `json:"status"`
	AssigneeID     *string    `json:"assigneeId,omitempty"`
	ProjectID      *string    `json:"projectId,omitempty"`
	Members        []string   `json:"members,omitempty"`
	EstimatedHours float64    `json:"estimatedHours,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// HasDeadline reports whether a deadline is set.
func (w *WorkItem) HasDeadline() bool {
	return w.Deadline != nil && !w.Deadline.IsZero()
}

// IsTerminal reports whether the item is done/completed.
func (w *WorkItem) IsTerminal() bool {
	return w.Status == w.Kind.TerminalStatus()
}

// IsOverdue reports whether an open item's deadline has passed at now.
func (w *WorkItem) IsOverdue(now time.Time) bool {
	if !w.HasDeadline() || w.IsTerminal() {
		return false
	}
	return now.After(*w.Deadline)
}

// Recipients returns the users implied by the item: the assignee of a task
// or every member of a project.
func (w *WorkItem) Recipients() []string {
	switch w.Kind {
	case KindTask:
		if w.AssigneeID != nil && *w.AssigneeID != "" {
			return []string{*w.AssigneeID}
		}
		return nil
	case KindProject:
		out := make([]string, 0, len(w.Members))
		seen := make(map[string]struct{}, len(w.Members))
		for _, m := range w.Members {
			if _, ok := seen[m]; ok || m == "" {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
		return out
	}
	return nil
}

// HasMember reports whether userID is a project member.
func (w *WorkItem) HasMember(userID string) bool {
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ListOptions filters work item listings. Zero values mean "no filter".
//
// UserID scopes to items the user is involved in: tasks assigned to the user
// or belonging to a project the user is a member of, and projects the user is
// a member of. DeadlineFrom is inclusive, DeadlineUntil exclusive; either one
// implies HasDeadline.
type ListOptions struct {
	Kind          Kind
	UserID        string
	AssigneeID    string
	ProjectID     string
	DeadlineFrom  *time.Time
	DeadlineUntil *time.Time
	HasDeadline   bool
	OpenOnly      bool
}
