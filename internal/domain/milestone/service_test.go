package milestone_test

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/rpggio/duetrack/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func project() *workitem.WorkItem {
	return &workitem.WorkItem{
		ID:      "p1",
		Kind:    workitem.KindProject,
		Title:   "Launch",
		Status:  workitem.ProjectInProgress,
		Members: []string{"a", "b"},
	}
}

func TestMilestoneService_AddNotifiesMembers(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MilestoneRepository{}
	items := &mocks.WorkItemRepository{}
	notifier := &mocks.Notifier{}

	items.On("Get", ctx, workitem.KindProject, "p1").Return(project(), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*milestone.Milestone")).Return(nil)
	notifier.On("Dispatch", ctx, mock.MatchedBy(func(in notification.DispatchInput) bool {
		return in.Type == notification.TypeMilestone && in.Priority == notification.PriorityMedium
	})).Return(&notification.Notification{}, nil).Twice()

	due := now.AddDate(0, 0, 14)
	svc := milestone.NewService(repo, items, notifier, nil).WithClock(func() time.Time { return now })
	m, err := svc.Add(ctx, milestone.AddInput{ProjectID: "p1", Title: "Beta", DueDate: &due})
	require.NoError(t, err)
	require.Equal(t, "Beta", m.Title)
	require.False(t, m.Completed)
	require.Equal(t, now, m.CreatedAt)
	notifier.AssertExpectations(t)
}

func TestMilestoneService_AddValidation(t *testing.T) {
	svc := milestone.NewService(&mocks.MilestoneRepository{}, &mocks.WorkItemRepository{}, &mocks.Notifier{}, nil)
	due := now

	_, err := svc.Add(context.Background(), milestone.AddInput{ProjectID: "p1", DueDate: &due})
	require.ErrorIs(t, err, milestone.ErrInvalidInput)

	_, err = svc.Add(context.Background(), milestone.AddInput{ProjectID: "p1", Title: "Beta"})
	require.ErrorIs(t, err, milestone.ErrInvalidInput)
}

func TestMilestoneService_AddUnknownProject(t *testing.T) {
	ctx := context.Background()
	items := &mocks.WorkItemRepository{}
	items.On("Get", ctx, workitem.KindProject, "nope").Return(nil, repository.ErrNotFound)

	due := now
	_, err := milestone.NewService(&mocks.MilestoneRepository{}, items, &mocks.Notifier{}, nil).
		Add(ctx, milestone.AddInput{ProjectID: "nope", Title: "Beta", DueDate: &due})
	require.ErrorIs(t, err, workitem.ErrItemNotFound)
}

func TestMilestoneService_CompleteIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MilestoneRepository{}
	items := &mocks.WorkItemRepository{}
	notifier := &mocks.Notifier{}

	completedAt := now
	done := &milestone.Milestone{ID: "m1", ProjectID: "p1", Title: "Beta", Completed: true, CompletedAt: &completedAt}

	items.On("Get", ctx, workitem.KindProject, "p1").Return(project(), nil)
	repo.On("Complete", ctx, "p1", "m1", now).Return(true, nil).Once()
	repo.On("Complete", ctx, "p1", "m1", now).Return(false, nil).Once()
	repo.On("Get", ctx, "p1", "m1").Return(done, nil)
	notifier.On("Dispatch", ctx, mock.MatchedBy(func(in notification.DispatchInput) bool {
		return in.Type == notification.TypeMilestoneComplete && in.Priority == notification.PriorityLow
	})).Return(&notification.Notification{}, nil).Twice()

	svc := milestone.NewService(repo, items, notifier, nil).WithClock(func() time.Time { return now })

	first, err := svc.Complete(ctx, "p1", "m1")
	require.NoError(t, err)
	require.True(t, first.Completed)

	second, err := svc.Complete(ctx, "p1", "m1")
	require.NoError(t, err)
	require.Equal(t, first, second)

	notifier.AssertNumberOfCalls(t, "Dispatch", 2)
}

func TestMilestoneService_CompleteUnknownMilestone(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.MilestoneRepository{}
	items := &mocks.WorkItemRepository{}

	items.On("Get", ctx, workitem.KindProject, "p1").Return(project(), nil)
	repo.On("Complete", ctx, "p1", "m9", mock.Anything).Return(false, repository.ErrNotFound)

	_, err := milestone.NewService(repo, items, &mocks.Notifier{}, nil).Complete(ctx, "p1", "m9")
	require.ErrorIs(t, err, milestone.ErrMilestoneNotFound)
}
