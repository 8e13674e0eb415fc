package milestone

import (
	"context"
	"time"
)

// Repository provides persistence for milestones.
type Repository interface {
	Create(ctx context.Context, m *Milestone) error
	Get(ctx context.Context, projectID, id string) (*Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]Milestone, error)
	// ListDueBetween returns milestones due in [start, end]. A nil projectIDs
	// slice means every project.
	ListDueBetween(ctx context.Context, projectIDs []string, start, end time.Time) ([]Milestone, error)
	// Complete marks an open milestone completed at the given time. It
	// reports false when the milestone was already completed.
	Complete(ctx context.Context, projectID, id string, at time.Time) (bool, error)
}
