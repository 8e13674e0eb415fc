package extension

import (
	"context"
	"time"

	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// Repository provides persistence for extension requests.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	ListByItem(ctx context.Context, kind workitem.Kind, itemID string) ([]Request, error)
	// Decide moves a pending request to decision. An approval also sets the
	// item's deadline to the request's NewDeadline in the same operation.
	// It returns repository.ErrNotFound for an unknown request and
	// repository.ErrConflict when the request is no longer pending.
	Decide(ctx context.Context, id string, decision Status, reviewerID string, at time.Time) (*Request, error)
}

// ReviewerResolver picks who is told about a new extension request.
type ReviewerResolver interface {
	Reviewers(ctx context.Context, item *workitem.WorkItem, requesterID string) ([]string, error)
}
