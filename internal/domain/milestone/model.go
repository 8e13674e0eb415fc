package milestone

import "time"

// Milestone is a dated checkpoint on a project. Completion is one-way.
type Milestone struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     time.Time  `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// AddInput defines milestone creation inputs.
type AddInput struct {
	ProjectID   string
	Title       string
	Description string
	DueDate     *time.Time
}
