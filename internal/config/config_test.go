package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("TRACKED_TEAM_IDS", "12, 7")
}

func TestLoad_AppEnvValidation(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if len(cfg.TrackedTeamIDs) != 2 || cfg.TrackedTeamIDs[0] != "12" || cfg.TrackedTeamIDs[1] != "7" {
		t.Fatalf("unexpected TrackedTeamIDs: %v", cfg.TrackedTeamIDs)
	}
	if cfg.FixturePollInterval != 10*time.Minute {
		t.Fatalf("unexpected FixturePollInterval: %s", cfg.FixturePollInterval)
	}
	if cfg.LivePollInterval != 30*time.Second {
		t.Fatalf("unexpected LivePollInterval: %s", cfg.LivePollInterval)
	}
	if cfg.CEBLTimeout != 10*time.Second || cfg.LiveTimeout != 15*time.Second {
		t.Fatalf("unexpected upstream timeouts: cebl=%s live=%s", cfg.CEBLTimeout, cfg.LiveTimeout)
	}
	if cfg.CompletionGrace != 2*time.Hour {
		t.Fatalf("unexpected CompletionGrace: %s", cfg.CompletionGrace)
	}
	if cfg.DailyRefreshCron != "0 0 * * *" {
		t.Fatalf("unexpected DailyRefreshCron: %q", cfg.DailyRefreshCron)
	}
	if cfg.SchedulerLocation == nil {
		t.Fatalf("expected scheduler location")
	}
	if cfg.RedisEnabled {
		t.Fatalf("expected redis disabled by default")
	}
	if cfg.LogLevel != logging.LevelInfo {
		t.Fatalf("unexpected LogLevel: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != logging.FormatJSON || !cfg.LogSampling {
		t.Fatalf("unexpected log output config: format=%s sampling=%v", cfg.LogFormat, cfg.LogSampling)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected CORSAllowedOrigins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_RequiresTrackedTeams(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("TRACKED_TEAM_IDS", " , ")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without TRACKED_TEAM_IDS")
	}
}

func TestLoad_UpstreamTimeoutBounds(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "cebl lower bound", key: "CEBL_TIMEOUT", value: "1s"},
		{name: "cebl below range", key: "CEBL_TIMEOUT", value: "500ms", wantErr: true},
		{name: "live upper bound", key: "LIVE_TIMEOUT", value: "30s"},
		{name: "live above range", key: "LIVE_TIMEOUT", value: "31s", wantErr: true},
		{name: "not a duration", key: "LIVE_TIMEOUT", value: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %s=%s: %v", tt.key, tt.value, err)
			}
		})
	}
}

func TestLoad_CompletionGraceBounds(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("COMPLETION_GRACE", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.CompletionGrace != 90*time.Minute {
		t.Fatalf("unexpected CompletionGrace: %s", cfg.CompletionGrace)
	}

	t.Setenv("COMPLETION_GRACE", "4h")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for COMPLETION_GRACE above 3h")
	}
}

func TestLoad_LiveIntervalCannotExceedFixtureInterval(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("FIXTURE_POLL_INTERVAL", "1m")
	t.Setenv("LIVE_POLL_INTERVAL", "2m")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when live interval exceeds fixture interval")
	}
}

func TestLoad_LiveURLTemplateNeedsPlaceholder(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LIVE_URL_TEMPLATE", "https://example.com/data.json")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for template without {match_id}")
	}
}

func TestLoad_SchedulerTimezone(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SCHEDULER_TIMEZONE", "America/Edmonton")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SchedulerLocation.String() != "America/Edmonton" {
		t.Fatalf("unexpected SchedulerLocation: %s", cfg.SchedulerLocation)
	}

	t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown timezone")
	}
}

func TestLoad_RedisConfigParsing(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")
	t.Setenv("REDIS_VIEW_TTL", "5m")
	t.Setenv("REDIS_STREAM_KEY", "surge.updates")
	t.Setenv("REDIS_STREAM_MAX_LEN", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.RedisEnabled || cfg.RedisURL != "redis://cache:6379/2" {
		t.Fatalf("unexpected redis config: enabled=%v url=%q", cfg.RedisEnabled, cfg.RedisURL)
	}
	if cfg.RedisViewTTL != 5*time.Minute {
		t.Fatalf("unexpected RedisViewTTL: %s", cfg.RedisViewTTL)
	}
	if cfg.RedisStreamKey != "surge.updates" || cfg.RedisStreamMaxLen != 250 {
		t.Fatalf("unexpected stream config: key=%q maxlen=%d", cfg.RedisStreamKey, cfg.RedisStreamMaxLen)
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "foo=bar, uptrace-dsn=\"https://token@api.uptrace.dev/1\"")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected UptraceDSN: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_SERVICE_NAME", "gameday-edmonton")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://pyroscope:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "gameday-edmonton" {
		t.Fatalf("unexpected PyroscopeAppName: %q", cfg.PyroscopeAppName)
	}
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	setBaseEnv(t)

	path := filepath.Join(t.TempDir(), "gameday.env")
	content := "LIVE_POLL_INTERVAL=45s\nTRACKED_TEAM_IDS=99\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("APP_ENV_FILE", path)

	// Registered with t.Setenv so the value loaded from the file is reverted.
	t.Setenv("LIVE_POLL_INTERVAL", "")
	if err := os.Unsetenv("LIVE_POLL_INTERVAL"); err != nil {
		t.Fatalf("unset env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.LivePollInterval != 45*time.Second {
		t.Fatalf("expected LIVE_POLL_INTERVAL from env file, got %s", cfg.LivePollInterval)
	}
	if len(cfg.TrackedTeamIDs) != 2 {
		t.Fatalf("env file must not override TRACKED_TEAM_IDS, got %v", cfg.TrackedTeamIDs)
	}
}
