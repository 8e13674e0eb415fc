package transport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/testserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, ts *testserver.TestServer, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.URL(path), reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func seedUser(t *testing.T, ts *testserver.TestServer, id string, role user.Role) {
	t.Helper()
	require.NoError(t, ts.Users.Create(context.Background(), &user.User{
		ID:        id,
		Name:      "User " + id,
		Email:     id + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: testserver.Now,
	}))
}

func seedProject(t *testing.T, ts *testserver.TestServer, id string, members ...string) {
	t.Helper()
	require.NoError(t, ts.Items.Create(context.Background(), &workitem.WorkItem{
		ID:        id,
		Kind:      workitem.KindProject,
		Title:     "Project " + id,
		Status:    workitem.ProjectInProgress,
		Members:   members,
		CreatedAt: testserver.Now,
	}))
}

func seedTask(t *testing.T, ts *testserver.TestServer, id string, deadline time.Time, assignee, project string) {
	t.Helper()
	task := &workitem.WorkItem{
		ID:             id,
		Kind:           workitem.KindTask,
		Title:          "Task " + id,
		Deadline:       &deadline,
		Status:         workitem.TaskTodo,
		EstimatedHours: 4,
		CreatedAt:      testserver.Now,
	}
	if assignee != "" {
		task.AssigneeID = &assignee
	}
	if project != "" {
		task.ProjectID = &project
	}
	require.NoError(t, ts.Items.Create(context.Background(), task))
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return envelope["code"].(string)
}

func TestHTTPServer_Health(t *testing.T) {
	ts := testserver.New(t)

	resp, err := http.Get(ts.URL("/health"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeadlines_OverdueAndUpcoming(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)
	seedTask(t, ts, "late", testserver.Now.Add(-48*time.Hour), "u1", "")
	seedTask(t, ts, "soon", testserver.Now.Add(24*time.Hour), "u1", "")
	seedTask(t, ts, "later", testserver.Now.AddDate(0, 0, 30), "u1", "")

	status, body := do(t, ts, http.MethodGet, "/deadlines/overdue?userId=u1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalOverdue"])

	status, body = do(t, ts, http.MethodGet, "/deadlines/upcoming?userId=u1&days=7", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalUpcoming"])

	status, body = do(t, ts, http.MethodGet, "/deadlines/upcoming?days=soon", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))
}

func TestDeadlines_CalendarRequiresRange(t *testing.T) {
	ts := testserver.New(t)

	status, body := do(t, ts, http.MethodGet, "/deadlines/calendar?startDate=2024-06-01", nil)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))

	status, _ = do(t, ts, http.MethodGet, "/deadlines/calendar?startDate=2024-06-01&endDate=2024-06-30", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestExtensions_RequestAndReview(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "mgr", user.RoleManager)
	seedUser(t, ts, "u1", user.RoleMember)
	seedProject(t, ts, "p1", "mgr", "u1")
	seedTask(t, ts, "t1", testserver.Now.Add(24*time.Hour), "u1", "p1")

	status, body := do(t, ts, http.MethodPost, "/deadlines/tasks/t1/extension", map[string]string{
		"newDeadline": "2024-06-20",
		"reason":      "blocked on review",
		"userId":      "u1",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "pending", body["status"])
	requestID := body["id"].(string)

	status, body = do(t, ts, http.MethodGet, "/notifications/users/mgr", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["notifications"], 1)

	status, body = do(t, ts, http.MethodPut, "/deadlines/tasks/t1/extension/"+requestID, map[string]string{
		"status":     "approved",
		"reviewerId": "mgr",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "approved", body["status"])

	task, err := ts.Items.Get(context.Background(), workitem.KindTask, "t1")
	require.NoError(t, err)
	require.NotNil(t, task.Deadline)
	assert.True(t, task.Deadline.Equal(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)))

	status, body = do(t, ts, http.MethodPut, "/deadlines/tasks/t1/extension/"+requestID, map[string]string{
		"status":     "rejected",
		"reviewerId": "mgr",
	})
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(t, body))

	status, body = do(t, ts, http.MethodGet, "/deadlines/tasks/t1/extensions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["extensions"], 1)
}

func TestExtensions_Errors(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)
	seedTask(t, ts, "t1", testserver.Now.Add(24*time.Hour), "u1", "")

	status, body := do(t, ts, http.MethodPost, "/deadlines/tasks/missing/extension", map[string]string{
		"newDeadline": "2024-06-20",
		"userId":      "u1",
	})
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))

	status, body = do(t, ts, http.MethodPost, "/deadlines/tasks/t1/extension", map[string]string{
		"userId": "u1",
	})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, body))

	status, _ = do(t, ts, http.MethodGet, "/deadlines/widgets/t1/extensions", nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestMilestones(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)
	seedProject(t, ts, "p1", "u1")

	status, body := do(t, ts, http.MethodPost, "/deadlines/projects/p1/milestones", map[string]string{
		"title":   "Beta",
		"dueDate": "2024-07-01",
	})
	require.Equal(t, http.StatusCreated, status)
	milestoneID := body["id"].(string)

	status, body = do(t, ts, http.MethodGet, "/deadlines/projects/p1/milestones", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["milestones"], 1)

	status, body = do(t, ts, http.MethodPut, "/deadlines/projects/p1/milestones/"+milestoneID+"/complete", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["completed"])
}

func TestAssign(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)
	// Monday, a default work day.
	seedTask(t, ts, "weekday", time.Date(2024, 6, 17, 15, 0, 0, 0, time.UTC), "", "")
	// Saturday, off by default.
	seedTask(t, ts, "weekend", time.Date(2024, 6, 15, 15, 0, 0, 0, time.UTC), "", "")

	status, body := do(t, ts, http.MethodPost, "/tasks/weekend/assign", map[string]string{"userId": "u1"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "UNAVAILABLE", errorCode(t, body))

	status, body = do(t, ts, http.MethodPost, "/tasks/weekday/assign", map[string]string{"userId": "u1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", body["assigneeId"])

	msgs := ts.Mail.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "u1@example.com", msgs[0].To)

	status, body = do(t, ts, http.MethodPost, "/tasks/bulk-assign", map[string]any{
		"taskIds":    []string{"weekday", "weekend"},
		"assignedTo": "u1",
	})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "UNAVAILABLE", errorCode(t, body))
}

func TestSchedule(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)

	status, body := do(t, ts, http.MethodPut, "/schedule/users/u1/schedule", map[string]any{
		"workDays":  []string{"monday", "tuesday"},
		"startTime": "08:00",
		"endTime":   "16:00",
		"timezone":  "UTC",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "UTC", body["timezone"])

	status, body = do(t, ts, http.MethodGet, "/schedule/users/u1/schedule", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "08:00", body["startTime"])

	status, _ = do(t, ts, http.MethodPost, "/schedule/users/u1/vacation", map[string]string{
		"startDate": "2024-07-01",
		"endDate":   "2024-07-05",
		"reason":    "holiday",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body = do(t, ts, http.MethodGet, "/schedule/team/availability", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["teamAvailability"], 1)

	status, body = do(t, ts, http.MethodGet, "/schedule/users/nobody/schedule", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestNotifications(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)
	seedTask(t, ts, "t1", time.Date(2024, 6, 17, 15, 0, 0, 0, time.UTC), "", "")
	seedTask(t, ts, "t2", time.Date(2024, 6, 18, 15, 0, 0, 0, time.UTC), "", "")

	status, _ := do(t, ts, http.MethodPost, "/tasks/bulk-assign", map[string]any{
		"taskIds":    []string{"t1", "t2"},
		"assignedTo": "u1",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, ts, http.MethodGet, "/notifications/users/u1/stats", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 2, body["unread"])

	status, body = do(t, ts, http.MethodPut, "/notifications/users/u1/read-all", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["updated"])

	status, body = do(t, ts, http.MethodGet, "/notifications/users/u1", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["notifications"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, true, first["read"])

	status, _ = do(t, ts, http.MethodDelete, "/notifications/"+first["id"].(string), nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = do(t, ts, http.MethodDelete, "/notifications/users/u1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["deleted"])

	status, body = do(t, ts, http.MethodPut, "/notifications/missing/read", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestCron_RunJob(t *testing.T) {
	ts := testserver.New(t)
	seedUser(t, ts, "u1", user.RoleMember)
	seedTask(t, ts, "t1", testserver.Now.Add(24*time.Hour), "u1", "")

	status, body := do(t, ts, http.MethodPost, "/cron/jobs/"+testserver.JobDeadlineNotifications+"/run", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "completed", body["status"])
	require.Len(t, ts.Mail.Messages(), 1)

	// The ledger suppresses a second notification for the same threshold.
	status, _ = do(t, ts, http.MethodPost, "/cron/jobs/"+testserver.JobDeadlineNotifications+"/run", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, ts.Mail.Messages(), 1)

	status, body = do(t, ts, http.MethodGet, "/cron/status", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["jobs"], 2)

	status, body = do(t, ts, http.MethodPost, "/cron/jobs/unknown/run", nil)
	require.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}
