package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rpggio/duetrack/internal/config"
	"github.com/rpggio/duetrack/internal/domain/assignment"
	"github.com/rpggio/duetrack/internal/domain/availability"
	"github.com/rpggio/duetrack/internal/domain/deadline"
	"github.com/rpggio/duetrack/internal/domain/extension"
	"github.com/rpggio/duetrack/internal/domain/milestone"
	"github.com/rpggio/duetrack/internal/domain/notification"
	"github.com/rpggio/duetrack/internal/domain/user"
	"github.com/rpggio/duetrack/internal/domain/workitem"
	"github.com/rpggio/duetrack/internal/domain/workload"
	"github.com/rpggio/duetrack/internal/email"
	"github.com/rpggio/duetrack/internal/mongo"
	"github.com/rpggio/duetrack/internal/scheduler"
	"github.com/rpggio/duetrack/internal/sqlite"
	"github.com/rpggio/duetrack/internal/transport"
	"gopkg.in/natefinch/lumberjack.v2"
)

// repositories is the storage backend selected by store.driver.
type repositories struct {
	users         user.Repository
	items         workitem.Repository
	ledger        deadline.LedgerRepository
	extensions    extension.Repository
	milestones    milestone.Repository
	notifications notification.Repository
	locks         scheduler.Locker
	close         func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logWriter := io.Writer(os.Stdout)
	if cfg.Log.Path != "" {
		if err := ensureDir(cfg.Log.Path); err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			rotator := &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAgeDays,
			}
			defer rotator.Close()
			logWriter = io.MultiWriter(os.Stdout, rotator)
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))

	if err := cfg.ValidateJobs(); err != nil {
		logger.Warn("invalid job configuration, affected jobs will not be scheduled", "error", err)
	}

	repos, err := openStore(context.Background(), cfg.Store)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := repos.close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}()
	logger.Info("store ready", "driver", cfg.Store.Driver)

	sender, err := newSender(cfg.Email, logger)
	if err != nil {
		logger.Error("failed to configure email", "error", err)
		os.Exit(1)
	}

	dispatcher := notification.NewDispatcher(repos.notifications, repos.users, sender, logger,
		notification.WithSendTimeout(cfg.Email.SendTimeout))
	oracle := availability.NewOracle()
	scanner := deadline.NewScanner(repos.items, repos.ledger, dispatcher, deadline.ScannerConfig{
		Concurrency: cfg.Scanner.Concurrency,
		ItemTimeout: cfg.Scanner.ItemTimeout,
	}, logger)

	var opts []scheduler.Option
	if cfg.Jobs.Distributed {
		opts = append(opts, scheduler.WithLocker(repos.locks))
	}
	jobs := scheduler.New(scheduler.Config{
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		LockTTL:    cfg.Jobs.LockTTL,
	}, logger, opts...)
	registerJobs(jobs, cfg.Jobs, scanner, logger)

	svc := transport.Services{
		Deadlines:     deadline.NewService(repos.items, repos.milestones, logger),
		Extensions:    extension.NewService(repos.extensions, repos.items, extension.NewRoleResolver(repos.items, repos.users), dispatcher, logger),
		Milestones:    milestone.NewService(repos.milestones, repos.items, dispatcher, logger),
		Schedules:     availability.NewService(repos.users, repos.items, oracle, dispatcher, logger),
		Assignments:   assignment.NewService(repos.items, repos.users, oracle, dispatcher, logger),
		Workload:      workload.NewService(repos.users, repos.items, cfg.Scanner.Concurrency, logger),
		Notifications: notification.NewService(repos.notifications, logger),
		Jobs:          jobs,
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           transport.NewServer(svc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()
	jobs.Start()

	waitForShutdown(logger, httpServer, jobs, cfg.Server.ShutdownTimeout)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, err
		}
		return &repositories{
			users:         mongo.NewUserRepository(store),
			items:         mongo.NewWorkItemRepository(store),
			ledger:        mongo.NewLedgerRepository(store),
			extensions:    mongo.NewExtensionRepository(store),
			milestones:    mongo.NewMilestoneRepository(store),
			notifications: mongo.NewNotificationRepository(store),
			locks:         mongo.NewLockRepository(store),
			close: func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return store.Close(ctx)
			},
		}, nil

	default:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return &repositories{
			users:         sqlite.NewUserRepository(db),
			items:         sqlite.NewWorkItemRepository(db),
			ledger:        sqlite.NewLedgerRepository(db),
			extensions:    sqlite.NewExtensionRepository(db),
			milestones:    sqlite.NewMilestoneRepository(db),
			notifications: sqlite.NewNotificationRepository(db),
			locks:         sqlite.NewLockRepository(db),
			close:         db.Close,
		}, nil
	}
}

func newSender(cfg config.EmailConfig, logger *slog.Logger) (email.Sender, error) {
	if !cfg.Enabled {
		logger.Info("email delivery disabled")
		return email.DisabledSender{}, nil
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,

		BreakerTimeout: cfg.BreakerTimeout,
		MaxFailures:    uint32(cfg.MaxFailures),
	}, logger)
}

// registerJobs adds the scanner passes. A job with a bad schedule is
// logged and left out; the server keeps running.
func registerJobs(s *scheduler.Scheduler, cfg config.JobsConfig, scanner *deadline.Scanner, logger *slog.Logger) {
	jobs := []struct {
		name string
		cfg  config.JobConfig
		run  func(context.Context, time.Time) (deadline.ScanResult, error)
	}{
		{"deadline_notifications", cfg.DeadlineNotifications, scanner.Scan},
		{"overdue_checks", cfg.OverdueChecks, scanner.SweepOverdue},
	}
	for _, j := range jobs {
		run := j.run
		name := j.name
		err := s.Register(scheduler.Job{
			Name:     name,
			Spec:     j.cfg.Schedule,
			Timezone: j.cfg.Timezone,
			Enabled:  j.cfg.Enabled,
			Run: func(ctx context.Context) error {
				result, err := run(ctx, time.Now())
				if err != nil {
					return err
				}
				logger.Info("scan finished",
					"job", name,
					"sent", result.Sent,
					"skipped", result.Skipped,
					"errors", len(result.Errors),
					"duration", result.Duration,
				)
				return nil
			},
		})
		if err != nil {
			logger.Warn("job not scheduled", "job", name, "error", err)
		}
	}
}

func ensureDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, jobs *scheduler.Scheduler, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	if err := jobs.Stop(ctx); err != nil {
		logger.Warn("jobs did not stop cleanly", "error", err)
	}
}
