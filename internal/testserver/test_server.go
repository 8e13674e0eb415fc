// Package testserver starts the full HTTP stack on an in-memory database.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/duetrack/internal/domain/assignment"
	"github.com/rpggio/duetrack/internal/domain/availability"
	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/workload"
	"github.com/rpggio/duetrack/internal/email"
	"github.com/rpggio/duetrack/internal/scheduler"
	"github.com/rpggio/duetrack/internal/sqlite"
	"github.com/rpggio/duetrack/internal/transport"
	"github.com/stretchr/testify/require"
)

// Now is the fixed clock every test server runs on.
var Now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

// Job names registered on the test scheduler.
const (
	JobDeadlineNotifications = "deadline_notifications"
	JobOverdueChecks         = "overdue_checks"
)

type TestServer struct {
	Server        *httptest.Server
	DB            *sqlite.DB
	Users         *sqlite.UserRepository
	Items         *sqlite.WorkItemRepository
	Notifications *sqlite.NotificationRepository
	Scheduler     *scheduler.Scheduler
	Mail          *RecordingSender
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	clock := func() time.Time { return Now }

	userRepo := sqlite.NewUserRepository(db)
	itemRepo := sqlite.NewWorkItemRepository(db)
	ledgerRepo := sqlite.NewLedgerRepository(db)
	extensionRepo := sqlite.NewExtensionRepository(db)
	milestoneRepo := sqlite.NewMilestoneRepository(db)
	notificationRepo := sqlite.NewNotificationRepository(db)

	mail := &RecordingSender{}
	dispatcher := notification.NewDispatcher(notificationRepo, userRepo, mail, nil, notification.WithClock(clock))
	oracle := availability.NewOracle()

	scanner := deadline.NewScanner(itemRepo, ledgerRepo, dispatcher, deadline.ScannerConfig{Concurrency: 2}, nil)
	jobs := scheduler.New(scheduler.Config{}, nil)
	require.NoError(t, jobs.Register(scheduler.Job{
		Name: JobDeadlineNotifications,
		Spec: "0 9 * * *",
		Run: func(ctx context.Context) error {
			_, err := scanner.Scan(ctx, Now)
			return err
		},
	}))
	require.NoError(t, jobs.Register(scheduler.Job{
		Name: JobOverdueChecks,
		Spec: "0 */6 * * *",
		Run: func(ctx context.Context) error {
			_, err := scanner.SweepOverdue(ctx, Now)
			return err
		},
	}))

	svc := transport.Services{
		Deadlines: deadline.NewService(itemRepo, milestoneRepo, nil),
		Extensions: extension.NewService(extensionRepo, itemRepo,
			extension.NewRoleResolver(itemRepo, userRepo), dispatcher, nil).WithClock(clock),
		Milestones:    milestone.NewService(milestoneRepo, itemRepo, dispatcher, nil).WithClock(clock),
		Schedules:     availability.NewService(userRepo, itemRepo, oracle, dispatcher, nil),
		Assignments:   assignment.NewService(itemRepo, userRepo, oracle, dispatcher, nil),
		Workload:      workload.NewService(userRepo, itemRepo, 2, nil),
		Notifications: notification.NewService(notificationRepo, nil),
		Jobs:          jobs,
	}
	server := httptest.NewServer(transport.NewServer(svc, nil, transport.WithClock(clock)))

	t.Cleanup(func() {
		server.Close()
		_ = jobs.Stop(context.Background())
		_ = db.Close()
	})

	return &TestServer{
		Server:        server,
		DB:            db,
		Users:         userRepo,
		Items:         itemRepo,
		Notifications: notificationRepo,
		Scheduler:     jobs,
		Mail:          mail,
	}
}

// URL joins path onto the server address.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// RecordingSender keeps every message it is asked to send.
type RecordingSender struct {
	mu       sync.Mutex
	messages []email.Message
}

func (s *RecordingSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

// Messages returns a copy of the sent messages.
func (s *RecordingSender) Messages() []email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]email.Message(nil), s.messages...)
}
