package assignment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/assignment"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/repository"
	"github.com/rpggio/duetrack/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// 2024-06-15 is a Saturday, 2024-06-17 a Monday.
var (
	saturday = time.Date(2024, 6, 15, 17, 0, 0, 0, time.UTC)
	monday   = time.Date(2024, 6, 17, 17, 0, 0, 0, time.UTC)
)

func TestAssignmentService_BulkAssignRejectsUnavailable(t *testing.T) {
	ctx := context.Background()
	items := &mocks.WorkItemRepository{}
	users := &mocks.UserRepository{}
	notifier := &mocks.Notifier{}

	users.On("Get", ctx, "u1").Return(&user.User{ID: "u1"}, nil)
	items.On("Get", ctx, workitem.KindTask, "t1").Return(&workitem.WorkItem{ID: "t1", Kind: workitem.KindTask, Title: "Weekday", Deadline: ptr(monday)}, nil)
	items.On("Get", ctx, workitem.KindTask, "t2").Return(&workitem.WorkItem{ID: "t2", Kind: workitem.KindTask, Title: "Weekend", Deadline: ptr(saturday)}, nil)

	_, err := assignment.NewService(items, users, nil, notifier, nil).BulkAssign(ctx, []string{"t1", "t2"}, "u1")
	require.ErrorIs(t, err, assignment.ErrUnavailable)

	var unavailable *assignment.UnavailableError
	require.True(t, errors.As(err, &unavailable))
	require.Equal(t, []string{"Weekend"}, unavailable.Titles)

	items.AssertNotCalled(t, "SetAssignee", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestAssignmentService_BulkAssignSucceeds(t *testing.T) {
	ctx := context.Background()
	items := &mocks.WorkItemRepository{}
	users := &mocks.UserRepository{}
	notifier := &mocks.Notifier{}

	users.On("Get", ctx, "u1").Return(&user.User{ID: "u1"}, nil)
	items.On("Get", ctx, workitem.KindTask, "t1").Return(&workitem.WorkItem{ID: "t1", Kind: workitem.KindTask, Title: "Weekday", Deadline: ptr(monday)}, nil)
	items.On("Get", ctx, workitem.KindTask, "t2").Return(&workitem.WorkItem{ID: "t2", Kind: workitem.KindTask, Title: "Undated"}, nil)
	items.On("SetAssignee", ctx, "t1", "u1").Return(nil)
	items.On("SetAssignee", ctx, "t2", "u1").Return(nil)
	notifier.On("Dispatch", ctx, mock.MatchedBy(func(in notification.DispatchInput) bool {
		return in.RecipientID == "u1" && in.Type == notification.TypeTaskAssignment
	})).Return(&notification.Notification{}, nil).Twice()

	tasks, err := assignment.NewService(items, users, nil, notifier, nil).BulkAssign(ctx, []string{"t1", "t2"}, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "u1", *tasks[0].AssigneeID)
	items.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestAssignmentService_Validation(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}
	svc := assignment.NewService(&mocks.WorkItemRepository{}, users, nil, &mocks.Notifier{}, nil)

	_, err := svc.BulkAssign(ctx, nil, "u1")
	require.ErrorIs(t, err, assignment.ErrInvalidInput)

	_, err = svc.Assign(ctx, "t1", "")
	require.ErrorIs(t, err, assignment.ErrInvalidInput)

	users.On("Get", ctx, "ghost").Return(nil, repository.ErrNotFound)
	_, err = svc.Assign(ctx, "t1", "ghost")
	require.ErrorIs(t, err, user.ErrUserNotFound)
}
