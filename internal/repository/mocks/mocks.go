package mocks

import (
	"context"
	"time"

	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/email"
	"github.com/stretchr/testify/mock"
)

// WorkItemRepository is a mock for workitem.Repository.
type WorkItemRepository struct {
	mock.Mock
}

func (m *WorkItemRepository) Create(ctx context.Context, item *workitem.WorkItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *WorkItemRepository) Get(ctx context.Context, kind workitem.Kind, id string) (*workitem.WorkItem, error) {
	args := m.Called(ctx, kind, id)
	if item, ok := args.Get(0).(*workitem.WorkItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkItemRepository) List(ctx context.Context, opts workitem.ListOptions) ([]workitem.WorkItem, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]workitem.WorkItem); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WorkItemRepository) SetAssignee(ctx context.Context, taskID, userID string) error {
	args := m.Called(ctx, taskID, userID)
	return args.Error(0)
}

// UserRepository is a mock for user.Repository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*user.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) ListActive(ctx context.Context) ([]user.User, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) ListByIDs(ctx context.Context, ids []string) ([]user.User, error) {
	args := m.Called(ctx, ids)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	args := m.Called(ctx, roles)
	if list, ok := args.Get(0).([]user.User); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) UpdateSchedule(ctx context.Context, id string, schedule user.WeekSchedule, timezone string) error {
	args := m.Called(ctx, id, schedule, timezone)
	return args.Error(0)
}

func (m *UserRepository) AddVacation(ctx context.Context, period *user.VacationPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

// LedgerRepository is a mock for deadline.LedgerRepository.
type LedgerRepository struct {
	mock.Mock
}

func (m *LedgerRepository) Claim(ctx context.Context, entry deadline.LedgerEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *LedgerRepository) Release(ctx context.Context, entry deadline.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *LedgerRepository) List(ctx context.Context, kind workitem.Kind, itemID string) ([]deadline.LedgerEntry, error) {
	args := m.Called(ctx, kind, itemID)
	if list, ok := args.Get(0).([]deadline.LedgerEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ExtensionRepository is a mock for extension.Repository.
type ExtensionRepository struct {
	mock.Mock
}

func (m *ExtensionRepository) Create(ctx context.Context, req *extension.Request) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *ExtensionRepository) Get(ctx context.Context, id string) (*extension.Request, error) {
	args := m.Called(ctx, id)
	if req, ok := args.Get(0).(*extension.Request); ok {
		return req, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ExtensionRepository) ListByItem(ctx context.Context, kind workitem.Kind, itemID string) ([]extension.Request, error) {
	args := m.Called(ctx, kind, itemID)
	if list, ok := args.Get(0).([]extension.Request); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ExtensionRepository) Decide(ctx context.Context, id string, decision extension.Status, reviewerID string, at time.Time) (*extension.Request, error) {
	args := m.Called(ctx, id, decision, reviewerID, at)
	if req, ok := args.Get(0).(*extension.Request); ok {
		return req, args.Error(1)
	}
	return nil, args.Error(1)
}

// ReviewerResolver is a mock for extension.ReviewerResolver.
type ReviewerResolver struct {
	mock.Mock
}

func (m *ReviewerResolver) Reviewers(ctx context.Context, item *workitem.WorkItem, requesterID string) ([]string, error) {
	args := m.Called(ctx, item, requesterID)
	if list, ok := args.Get(0).([]string); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// MilestoneRepository is a mock for milestone.Repository.
type MilestoneRepository struct {
	mock.Mock
}

func (m *MilestoneRepository) Create(ctx context.Context, ms *milestone.Milestone) error {
	args := m.Called(ctx, ms)
	return args.Error(0)
}

func (m *MilestoneRepository) Get(ctx context.Context, projectID, id string) (*milestone.Milestone, error) {
	args := m.Called(ctx, projectID, id)
	if ms, ok := args.Get(0).(*milestone.Milestone); ok {
		return ms, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MilestoneRepository) ListByProject(ctx context.Context, projectID string) ([]milestone.Milestone, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]milestone.Milestone); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MilestoneRepository) ListDueBetween(ctx context.Context, projectIDs []string, start, end time.Time) ([]milestone.Milestone, error) {
	args := m.Called(ctx, projectIDs, start, end)
	if list, ok := args.Get(0).([]milestone.Milestone); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MilestoneRepository) Complete(ctx context.Context, projectID, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, projectID, id, at)
	return args.Bool(0), args.Error(1)
}

// NotificationRepository is a mock for notification.Repository.
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	if n, ok := args.Get(0).(*notification.Notification); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) MarkEmailSent(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]notification.Notification, error) {
	args := m.Called(ctx, recipientID, limit)
	if list, ok := args.Get(0).([]notification.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

// Notifier is a mock for notification.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Dispatch(ctx context.Context, in notification.DispatchInput) (*notification.Notification, error) {
	args := m.Called(ctx, in)
	if n, ok := args.Get(0).(*notification.Notification); ok {
		return n, args.Error(1)
	}
	return nil, args.Error(1)
}

// EmailSender is a mock for email.Sender.
type EmailSender struct {
	mock.Mock
}

func (m *EmailSender) Send(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
