package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rpggio/duetrack/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Scanner ScannerConfig `yaml:"scanner"`
	Email   EmailConfig   `yaml:"email"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type StoreConfig struct {
	Driver        string `yaml:"driver"`
	Path          string `yaml:"path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path enables a rotating log file instead of stderr.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SlogLevel parses Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type JobConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Timezone string `yaml:"timezone"`
}

type JobsConfig struct {
	DeadlineNotifications JobConfig     `yaml:"deadline_notifications"`
	OverdueChecks         JobConfig     `yaml:"overdue_checks"`
	MaxRetries            int           `yaml:"max_retries"`
	RetryDelay            time.Duration `yaml:"retry_delay"`
	// Distributed guards every run with a lease in the store.
	Distributed bool          `yaml:"distributed"`
	LockTTL     time.Duration `yaml:"lock_ttl"`
}

type ScannerConfig struct {
	Concurrency int           `yaml:"concurrency"`
	ItemTimeout time.Duration `yaml:"item_timeout"`
}

type EmailConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	From        string        `yaml:"from"`
	SendTimeout time.Duration `yaml:"send_timeout"`

	// MaxFailures consecutive send failures open the circuit breaker for
	// BreakerTimeout.
	MaxFailures    int           `yaml:"max_failures"`
	BreakerTimeout time.Duration `yaml:"breaker_timeout"`
}

// ConfigurationError lists every problem found in a configuration.
type ConfigurationError struct {
	Issues []string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Issues, "; ")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			Path:          "duetrack.db",
			MongoDatabase: "duetrack",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Jobs: JobsConfig{
			DeadlineNotifications: JobConfig{
				Enabled:  true,
				Schedule: "0 9 * * *",
				Timezone: "UTC",
			},
			OverdueChecks: JobConfig{
				Enabled:  false,
				Schedule: "0 */6 * * *",
				Timezone: "UTC",
			},
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
			LockTTL:    scheduler.DefaultLockTTL,
		},
		Scanner: ScannerConfig{
			Concurrency: 4,
			ItemTimeout: 30 * time.Second,
		},
		Email: EmailConfig{
			Port:           587,
			SendTimeout:    10 * time.Second,
			MaxFailures:    3,
			BreakerTimeout: 30 * time.Second,
		},
	}
}

// Load reads configuration from defaults, an optional YAML file, a .env
// file and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("DUETRACK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	envFile := os.Getenv("DUETRACK_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type envReader struct {
	issues []string
}

func (r *envReader) setString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (r *envReader) setInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.issues = append(r.issues, fmt.Sprintf("invalid %s: %v", key, err))
		return
	}
	*dst = n
}

func (r *envReader) setBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.issues = append(r.issues, fmt.Sprintf("invalid %s: %v", key, err))
		return
	}
	*dst = b
}

func (r *envReader) setDuration(key string, dst *time.Duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.issues = append(r.issues, fmt.Sprintf("invalid %s: %v", key, err))
		return
	}
	*dst = d
}

func applyEnv(cfg *Config) error {
	r := &envReader{}

	r.setString("DUETRACK_SERVER_HOST", &cfg.Server.Host)
	r.setInt("DUETRACK_SERVER_PORT", &cfg.Server.Port)
	r.setDuration("DUETRACK_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	r.setString("DUETRACK_STORE_DRIVER", &cfg.Store.Driver)
	r.setString("DUETRACK_DB_PATH", &cfg.Store.Path)
	r.setString("DUETRACK_MONGO_URI", &cfg.Store.MongoURI)
	r.setString("DUETRACK_MONGO_DATABASE", &cfg.Store.MongoDatabase)

	r.setString("DUETRACK_LOG_LEVEL", &cfg.Log.Level)
	r.setString("DUETRACK_LOG_PATH", &cfg.Log.Path)

	r.setBool("DUETRACK_DEADLINE_NOTIFICATIONS_ENABLED", &cfg.Jobs.DeadlineNotifications.Enabled)
	r.setString("DUETRACK_DEADLINE_NOTIFICATIONS_SCHEDULE", &cfg.Jobs.DeadlineNotifications.Schedule)
	r.setString("DUETRACK_DEADLINE_NOTIFICATIONS_TIMEZONE", &cfg.Jobs.DeadlineNotifications.Timezone)
	r.setBool("DUETRACK_OVERDUE_CHECKS_ENABLED", &cfg.Jobs.OverdueChecks.Enabled)
	r.setString("DUETRACK_OVERDUE_CHECKS_SCHEDULE", &cfg.Jobs.OverdueChecks.Schedule)
	r.setString("DUETRACK_OVERDUE_CHECKS_TIMEZONE", &cfg.Jobs.OverdueChecks.Timezone)
	r.setInt("DUETRACK_JOBS_MAX_RETRIES", &cfg.Jobs.MaxRetries)
	r.setDuration("DUETRACK_JOBS_RETRY_DELAY", &cfg.Jobs.RetryDelay)
	r.setBool("DUETRACK_JOBS_DISTRIBUTED", &cfg.Jobs.Distributed)

	r.setInt("DUETRACK_SCANNER_CONCURRENCY", &cfg.Scanner.Concurrency)
	r.setDuration("DUETRACK_SCANNER_ITEM_TIMEOUT", &cfg.Scanner.ItemTimeout)

	r.setBool("DUETRACK_EMAIL_ENABLED", &cfg.Email.Enabled)
	r.setString("DUETRACK_SMTP_HOST", &cfg.Email.Host)
	r.setInt("DUETRACK_SMTP_PORT", &cfg.Email.Port)
	r.setString("DUETRACK_SMTP_USERNAME", &cfg.Email.Username)
	r.setString("DUETRACK_SMTP_PASSWORD", &cfg.Email.Password)
	r.setString("DUETRACK_EMAIL_FROM", &cfg.Email.From)
	r.setInt("DUETRACK_SMTP_MAX_FAILURES", &cfg.Email.MaxFailures)
	r.setDuration("DUETRACK_SMTP_BREAKER_TIMEOUT", &cfg.Email.BreakerTimeout)

	if len(r.issues) > 0 {
		return &ConfigurationError{Issues: r.issues}
	}
	return nil
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			issues = append(issues, "store.path is required for sqlite")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			issues = append(issues, "store.mongo_uri is required for mongo")
		}
		if c.Store.MongoDatabase == "" {
			issues = append(issues, "store.mongo_database is required for mongo")
		}
	default:
		issues = append(issues, fmt.Sprintf("store.driver %q must be sqlite or mongo", c.Store.Driver))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		issues = append(issues, fmt.Sprintf("log.level %q is not a level", c.Log.Level))
	}

	if c.Scanner.Concurrency <= 0 {
		issues = append(issues, "scanner.concurrency must be positive")
	}
	if c.Scanner.ItemTimeout <= 0 {
		issues = append(issues, "scanner.item_timeout must be positive")
	}
	if c.Jobs.MaxRetries < 0 {
		issues = append(issues, "jobs.max_retries must not be negative")
	}
	if c.Jobs.RetryDelay < 0 {
		issues = append(issues, "jobs.retry_delay must not be negative")
	}

	if c.Email.Enabled {
		if c.Email.Host == "" {
			issues = append(issues, "email.host is required when email is enabled")
		}
		if c.Email.Port <= 0 || c.Email.Port > 65535 {
			issues = append(issues, fmt.Sprintf("email.port %d out of range", c.Email.Port))
		}
		if c.Email.From == "" {
			issues = append(issues, "email.from is required when email is enabled")
		}
		if c.Email.MaxFailures <= 0 {
			issues = append(issues, "email.max_failures must be positive")
		}
		if c.Email.BreakerTimeout <= 0 {
			issues = append(issues, "email.breaker_timeout must be positive")
		}
	}

	if len(issues) > 0 {
		return &ConfigurationError{Issues: issues}
	}
	return nil
}

// ValidateJobs checks the schedule and timezone of every enabled job. A
// bad job only keeps that job from being scheduled.
func (c Config) ValidateJobs() error {
	var issues []string
	jobs := map[string]JobConfig{
		"deadline_notifications": c.Jobs.DeadlineNotifications,
		"overdue_checks":         c.Jobs.OverdueChecks,
	}
	for _, name := range []string{"deadline_notifications", "overdue_checks"} {
		job := jobs[name]
		if !job.Enabled {
			continue
		}
		if _, err := scheduler.ParseSpec(job.Schedule, job.Timezone); err != nil {
			issues = append(issues, fmt.Sprintf("jobs.%s: %v", name, err))
		}
	}
	if len(issues) > 0 {
		return &ConfigurationError{Issues: issues}
	}
	return nil
}
