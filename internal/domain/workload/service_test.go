package workload_test

import (
	"context"
	"testing"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/domain/workload"
	"github.com/rpggio/duetrack/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBucket(t *testing.T) {
	require.Equal(t, workload.StatusHealthy, workload.Bucket(0))
	require.Equal(t, workload.StatusHealthy, workload.Bucket(49))
	require.Equal(t, workload.StatusModerate, workload.Bucket(50))
	require.Equal(t, workload.StatusModerate, workload.Bucket(80))
	require.Equal(t, workload.StatusOverloaded, workload.Bucket(81))
}

func TestUtilization(t *testing.T) {
	require.Equal(t, 38, workload.Utilization(15, 40))
	require.Equal(t, 0, workload.Utilization(10, 0))
}

func taskList(opts workitem.ListOptions, hours ...float64) []workitem.WorkItem {
	out := make([]workitem.WorkItem, 0, len(hours))
	for _, h := range hours {
		out = append(out, workitem.WorkItem{Kind: workitem.KindTask, AssigneeID: &opts.AssigneeID, EstimatedHours: h})
	}
	return out
}

func TestService_TeamWorkload(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}
	items := &mocks.WorkItemRepository{}

	users.On("ListActive", ctx).Return([]user.User{
		{ID: "a", Name: "Ann", MaxHoursPerWeek: 40},
		{ID: "b", Name: "Bob"},
	}, nil)
	aOpts := workitem.ListOptions{Kind: workitem.KindTask, AssigneeID: "a", OpenOnly: true}
	bOpts := workitem.ListOptions{Kind: workitem.KindTask, AssigneeID: "b", OpenOnly: true}
	items.On("List", mock.Anything, aOpts).Return(taskList(aOpts, 20, 16), nil)
	items.On("List", mock.Anything, bOpts).Return(taskList(bOpts, 4), nil)

	out, err := workload.NewService(users, items, 2, nil).TeamWorkload(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.Equal(t, "a", out[0].UserID)
	require.Equal(t, 36.0, out[0].TotalHours)
	require.Equal(t, 90, out[0].Utilization)
	require.Equal(t, workload.StatusOverloaded, out[0].Status)

	require.Equal(t, "b", out[1].UserID)
	require.Equal(t, float64(user.DefaultMaxHoursPerWeek), out[1].MaxHours)
	require.Equal(t, 10, out[1].Utilization)
	require.Equal(t, workload.StatusHealthy, out[1].Status)
}
