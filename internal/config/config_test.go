package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DUETRACK_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("DUETRACK_CONFIG_PATH", "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.ValidateJobs())
	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolateEnv(t)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
store:
  driver: mongo
  mongo_uri: mongodb://localhost:27017
jobs:
  overdue_checks:
    enabled: true
    schedule: "*/30 * * * *"
    timezone: Europe/Berlin
  retry_delay: 2s
scanner:
  concurrency: 8
`), 0o600))
	t.Setenv("DUETRACK_CONFIG_PATH", path)
	t.Setenv("DUETRACK_SERVER_PORT", "7070")
	t.Setenv("DUETRACK_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, DriverMongo, cfg.Store.Driver)
	require.Equal(t, "duetrack", cfg.Store.MongoDatabase)
	require.True(t, cfg.Jobs.OverdueChecks.Enabled)
	require.Equal(t, "Europe/Berlin", cfg.Jobs.OverdueChecks.Timezone)
	require.Equal(t, 2*time.Second, cfg.Jobs.RetryDelay)
	require.Equal(t, 8, cfg.Scanner.Concurrency)
	require.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	require.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolateEnv(t)

	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("DUETRACK_SMTP_HOST=mail.example.com\n"), 0o600))
	t.Setenv("DUETRACK_ENV_FILE", envFile)
	t.Cleanup(func() { os.Unsetenv("DUETRACK_SMTP_HOST") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "mail.example.com", cfg.Email.Host)
}

func TestLoad_EmailBreakerEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DUETRACK_SMTP_MAX_FAILURES", "5")
	t.Setenv("DUETRACK_SMTP_BREAKER_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Email.MaxFailures)
	require.Equal(t, time.Minute, cfg.Email.BreakerTimeout)

	cfg.Email.Enabled = true
	cfg.Email.Host = "mail.example.com"
	cfg.Email.From = "tracker@example.com"
	require.NoError(t, cfg.Validate())

	cfg.Email.MaxFailures = 0
	var cfgErr *ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, []string{"email.max_failures must be positive"}, cfgErr.Issues)
}

func TestLoad_InvalidEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DUETRACK_SERVER_PORT", "eighty")
	t.Setenv("DUETRACK_JOBS_RETRY_DELAY", "soon")

	_, err := Load()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Issues, 2)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Store.Driver = "postgres"
	cfg.Log.Level = "loud"
	cfg.Scanner.Concurrency = 0
	cfg.Email.Enabled = true

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Issues, 6)
	require.Contains(t, err.Error(), "store.driver")
}

func TestValidateJobs(t *testing.T) {
	cfg := Default()
	cfg.Jobs.DeadlineNotifications.Schedule = "every day"
	cfg.Jobs.OverdueChecks.Timezone = "Nowhere/Special"

	// Disabled jobs are not checked
	err := cfg.ValidateJobs()
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Len(t, cfgErr.Issues, 1)

	cfg.Jobs.OverdueChecks.Enabled = true
	require.ErrorAs(t, cfg.ValidateJobs(), &cfgErr)
	require.Len(t, cfgErr.Issues, 2)
}
