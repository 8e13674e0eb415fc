package extension

import (
	"time"

	"github.com/rpggio/duetrack/internal/domain/workitem"
)

// Status is the review state of an extension request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsDecision reports whether s is a valid review outcome.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request asks for a work item's deadline to move. Approved and rejected
// requests are immutable.
type Request struct {
	ID          string        `json:"id"`
	ItemKind    workitem.Kind `json:"itemType"`
	ItemID      string        `json:"itemId"`
	RequestedBy string        `json:"requestedBy"`
	RequestedAt time.Time     `json:"requestedAt"`
	NewDeadline time.Time     `json:"newDeadline"`
	Reason      string        `json:"reason,omitempty"`
	Status      Status        `json:"status"`
	ReviewedBy  *string       `json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewedAt,omitempty"`
}

// RequestInput defines extension request inputs.
type RequestInput struct {
	ItemKind    workitem.Kind
	ItemID      string
	RequestedBy string
	NewDeadline *time.Time
	Reason      string
}

// ReviewInput defines extension review inputs.
type ReviewInput struct {
	ItemKind   workitem.Kind
	ItemID     string
	RequestID  string
	Decision   Status
	ReviewerID string
}
