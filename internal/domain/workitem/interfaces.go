package workitem

import "context"

// Repository provides persistence for tasks and projects.
// Deadlines change only through an approved extension review.
type Repository interface {
	Create(ctx context.Context, item *WorkItem) error
	Get(ctx context.Context, kind Kind, id string) (*WorkItem, error)
	List(ctx context.Context, opts ListOptions) ([]WorkItem, error)
	SetAssignee(ctx context.Context, taskID, userID string) error
}
