// Package scheduler runs named background jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var (
	// ErrJobNotFound is returned when a job name is not registered
	ErrJobNotFound = errors.New("job not found")

	// ErrJobRunning is returned when a job is triggered while a run is in flight
	ErrJobRunning = errors.New("job is already running")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")
)

// SpecError reports an unusable schedule or timezone for a job.
type SpecError struct {
	Job string
	Err error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("job %s: invalid schedule: %v", e.Job, e.Err)
}

func (e *SpecError) Unwrap() error { return e.Err }

// ParseSpec parses a five-field cron expression evaluated in timezone.
// An empty timezone means UTC.
func ParseSpec(spec, timezone string) (cron.Schedule, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, errors.New("empty cron expression")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", timezone, err)
	}
	return cron.ParseStandard("CRON_TZ=" + timezone + " " + spec)
}

// Locker leases a named lock across instances.
type Locker interface {
	TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, owner string) error
}

// Job is a named unit of background work.
type Job struct {
	Name     string
	Spec     string
	Timezone string
	Enabled  bool
	Run      func(ctx context.Context) error
}

// Config tunes retries and lock leases.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	LockTTL    time.Duration
}

// DefaultLockTTL bounds how long a crashed instance keeps a job locked.
const DefaultLockTTL = 10 * time.Minute

// JobStatus describes a registered job.
type JobStatus struct {
	Name      string     `json:"name"`
	Schedule  string     `json:"schedule"`
	Timezone  string     `json:"timezone"`
	Enabled   bool       `json:"enabled"`
	Running   bool       `json:"running"`
	Runs      int        `json:"runs"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
}

// Status describes the scheduler and its jobs.
type Status struct {
	Started bool        `json:"started"`
	Jobs    []JobStatus `json:"jobs"`
}

type entry struct {
	job     Job
	id      cron.EntryID
	running atomic.Bool

	mu        sync.Mutex
	runs      int
	lastRun   *time.Time
	lastError string
}

// Scheduler wraps a cron runner with retries, overlap protection and an
// optional distributed lock.
type Scheduler struct {
	cron   *cron.Cron
	cfg    Config
	locker Locker
	owner  string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	jobs    map[string]*entry
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocker makes every run hold a lease named after the job.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// WithOwner sets the lease owner name. Defaults to a random id.
func WithOwner(owner string) Option {
	return func(s *Scheduler) { s.owner = owner }
}

// New creates a Scheduler. Jobs are added with Register.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}

	cl := cronLogger{logger: logger.With("component", "cron")}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cfg:    cfg,
		owner:  uuid.NewString(),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Disabled jobs are kept for Status and Trigger but
// never scheduled.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	if job.Timezone == "" {
		job.Timezone = "UTC"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}

	e := &entry{job: job}
	if job.Enabled {
		schedule, err := ParseSpec(job.Spec, job.Timezone)
		if err != nil {
			return &SpecError{Job: job.Name, Err: err}
		}
		e.id = s.cron.Schedule(schedule, cron.FuncJob(func() {
			_ = s.run(s.ctx, e, "schedule")
		}))
	}
	s.jobs[job.Name] = e

	s.logger.Info("job registered",
		"job", job.Name,
		"schedule", job.Spec,
		"timezone", job.Timezone,
		"enabled", job.Enabled,
	)
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.jobs))
}

// Stop stops scheduling and waits for running jobs until ctx expires, then
// cancels whatever is still running.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	defer s.cancel()
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for running jobs: %w", ctx.Err())
	}
}

// Trigger runs a job now, outside its schedule, and returns its result.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, e, "manual")
}

// Status reports every registered job by name.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Status{Started: s.started, Jobs: make([]JobStatus, 0, len(s.jobs))}
	for _, e := range s.jobs {
		st := JobStatus{
			Name:     e.job.Name,
			Schedule: e.job.Spec,
			Timezone: e.job.Timezone,
			Enabled:  e.job.Enabled,
			Running:  e.running.Load(),
		}
		e.mu.Lock()
		st.Runs = e.runs
		st.LastRun = e.lastRun
		st.LastError = e.lastError
		e.mu.Unlock()

		if e.job.Enabled && s.started {
			if next := s.cron.Entry(e.id).Next; !next.IsZero() {
				st.NextRun = &next
			}
		}
		out.Jobs = append(out.Jobs, st)
	}
	sort.Slice(out.Jobs, func(i, j int) bool { return out.Jobs[i].Name < out.Jobs[j].Name })
	return out
}

func (s *Scheduler) run(ctx context.Context, e *entry, trigger string) error {
	if !e.running.CompareAndSwap(false, true) {
		s.logger.Warn("job still running, skipping", "job", e.job.Name, "trigger", trigger)
		return fmt.Errorf("%w: %s", ErrJobRunning, e.job.Name)
	}
	defer e.running.Store(false)

	logger := s.logger.With("job", e.job.Name, "trigger", trigger)

	if s.locker != nil {
		ok, err := s.locker.TryAcquire(ctx, e.job.Name, s.owner, s.cfg.LockTTL)
		if err != nil {
			logger.Error("failed to acquire job lock", "error", err)
			return err
		}
		if !ok {
			logger.Info("job locked by another instance, skipping")
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), e.job.Name, s.owner); err != nil {
				logger.Warn("failed to release job lock", "error", err)
			}
		}()
	}

	start := time.Now()
	err := s.attempt(ctx, e, logger)

	e.mu.Lock()
	e.runs++
	e.lastRun = &start
	e.lastError = ""
	if err != nil {
		e.lastError = err.Error()
	}
	e.mu.Unlock()

	if err != nil {
		logger.Error("job failed", "error", err, "duration", time.Since(start))
		return err
	}
	logger.Info("job completed", "duration", time.Since(start))
	return nil
}

// attempt runs the job, retrying with a linearly growing delay.
func (s *Scheduler) attempt(ctx context.Context, e *entry, logger *slog.Logger) error {
	var err error
	for i := 0; i <= s.cfg.MaxRetries; i++ {
		if err = e.job.Run(ctx); err == nil {
			return nil
		}
		if i == s.cfg.MaxRetries {
			break
		}
		delay := s.cfg.RetryDelay * time.Duration(i+1)
		logger.Warn("job attempt failed, retrying", "attempt", i+1, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
