package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/duetrack/internal/domain/availability"
	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/domain/workload"
	"github.com/rpggio/duetrack/internal/scheduler"
)

// DeadlineQueries answers read-only deadline questions.
type DeadlineQueries interface {
	Overdue(ctx context.Context, userID string, now time.Time) (*deadline.OverdueItems, error)
	Upcoming(ctx context.Context, userID string, days int, now time.Time) (*deadline.UpcomingItems, error)
	Stats(ctx context.Context, userID string, now time.Time) (*deadline.Stats, error)
	Calendar(ctx context.Context, userID string, start, end, now time.Time) (*deadline.Calendar, error)
}

// ExtensionWorkflow requests and reviews deadline extensions.
type ExtensionWorkflow interface {
	Request(ctx context.Context, in extension.RequestInput) (*extension.Request, error)
	Review(ctx context.Context, in extension.ReviewInput) (*extension.Request, error)
	List(ctx context.Context, kind workitem.Kind, itemID string) ([]extension.Request, error)
}

// MilestoneTracker manages project milestones.
type MilestoneTracker interface {
	Add(ctx context.Context, in milestone.AddInput) (*milestone.Milestone, error)
	Complete(ctx context.Context, projectID, milestoneID string) (*milestone.Milestone, error)
	List(ctx context.Context, projectID string) ([]milestone.Milestone, error)
}

// ScheduleService manages schedules, vacations and team availability.
type ScheduleService interface {
	GetSchedule(ctx context.Context, userID string) (*availability.ScheduleView, error)
	UpdateSchedule(ctx context.Context, userID string, in availability.ScheduleInput) (*availability.ScheduleView, error)
	RequestVacation(ctx context.Context, userID string, in availability.VacationInput) (*user.VacationPeriod, error)
	TeamAvailability(ctx context.Context, q availability.TeamQuery) ([]availability.MemberAvailability, error)
}

// Assigner assigns tasks to available users.
type Assigner interface {
	Assign(ctx context.Context, taskID, userID string) (*workitem.WorkItem, error)
	BulkAssign(ctx context.Context, taskIDs []string, userID string) ([]workitem.WorkItem, error)
}

// WorkloadQueries reports assigned hours against capacity.
type WorkloadQueries interface {
	UserWorkload(ctx context.Context, userID string) (*workload.UserWorkload, error)
	TeamWorkload(ctx context.Context) ([]workload.UserWorkload, error)
}

// Inbox serves a user's notifications.
type Inbox interface {
	ListForUser(ctx context.Context, userID string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, id string) (*notification.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Stats(ctx context.Context, userID string) (notification.Stats, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

// JobRunner exposes the background job scheduler.
type JobRunner interface {
	Status() scheduler.Status
	Trigger(ctx context.Context, name string) error
}

// Services are the handlers' dependencies. Jobs may be nil.
type Services struct {
	Deadlines     DeadlineQueries
	Extensions    ExtensionWorkflow
	Milestones    MilestoneTracker
	Schedules     ScheduleService
	Assignments   Assigner
	Workload      WorkloadQueries
	Notifications Inbox
	Jobs          JobRunner
}

// Server wires HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
	now    func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithClock sets the time source used for deadline queries.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// NewServer creates an HTTP server router with middleware.
func NewServer(svc Services, logger *slog.Logger, opts ...ServerOption) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{svc: svc, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(srv)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Route("/deadlines", func(r chi.Router) {
		r.Get("/overdue", srv.handleOverdue)
		r.Get("/upcoming", srv.handleUpcoming)
		r.Get("/stats", srv.handleDeadlineStats)
		r.Get("/calendar", srv.handleCalendar)

		r.Post("/tasks/{id}/extension", srv.handleRequestExtension(workitem.KindTask))
		r.Post("/projects/{id}/extension", srv.handleRequestExtension(workitem.KindProject))
		r.Get("/{itemType}/{itemId}/extensions", srv.handleListExtensions)
		r.Put("/{itemType}/{itemId}/extension/{extensionId}", srv.handleReviewExtension)

		r.Post("/projects/{id}/milestones", srv.handleAddMilestone)
		r.Get("/projects/{id}/milestones", srv.handleListMilestones)
		r.Put("/projects/{id}/milestones/{milestoneId}/complete", srv.handleCompleteMilestone)
	})

	r.Route("/schedule", func(r chi.Router) {
		r.Get("/users/{id}/schedule", srv.handleGetSchedule)
		r.Put("/users/{id}/schedule", srv.handleUpdateSchedule)
		r.Post("/users/{id}/vacation", srv.handleRequestVacation)
		r.Get("/users/{id}/workload", srv.handleUserWorkload)
		r.Get("/team/availability", srv.handleTeamAvailability)
		r.Get("/team/workload", srv.handleTeamWorkload)
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Post("/{id}/assign", srv.handleAssign)
		r.Post("/bulk-assign", srv.handleBulkAssign)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/users/{userId}", srv.handleListNotifications)
		r.Get("/users/{userId}/stats", srv.handleNotificationStats)
		r.Put("/users/{userId}/read-all", srv.handleMarkAllRead)
		r.Delete("/users/{userId}", srv.handleDeleteAllNotifications)
		r.Put("/{id}/read", srv.handleMarkRead)
		r.Delete("/{id}", srv.handleDeleteNotification)
	})

	if svc.Jobs != nil {
		r.Get("/cron/status", srv.handleCronStatus)
		r.Post("/cron/jobs/{name}/run", srv.handleRunJob)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// fail writes err as an APIError. Unmapped errors are logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := MapError(err)
	if apiErr == nil {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    CodeInternal,
			Message: "internal error",
		}
	}
	writeJSON(w, apiErr.Status, errorEnvelope{Error: apiErr})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps and YYYY-MM-DD dates (UTC midnight).
func parseTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, badRequest("%s must be an RFC 3339 timestamp or YYYY-MM-DD date", field)
}

// optionalTime parses value unless it is empty.
func optionalTime(field, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseTime(field, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
