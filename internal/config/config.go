package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	minUpstreamTimeout = time.Second
	maxUpstreamTimeout = 30 * time.Second
	minCompletionGrace = time.Hour
	maxCompletionGrace = 3 * time.Hour
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	InternalJobToken   string
	LogLevel           logging.Level
	LogFormat          string
	LogSampling        bool

	TrackedTeamIDs []string

	CEBLFixturesURL           string
	CEBLAPIKey                string
	CEBLReferer               string
	CEBLOrigin                string
	CEBLTimeout               time.Duration
	CEBLMaxRetries            int
	CEBLCircuitEnabled        bool
	CEBLCircuitFailureCount   int
	CEBLCircuitOpenTimeout    time.Duration
	CEBLCircuitHalfOpenMaxReq int
	TeamsCacheTTL             time.Duration

	LiveURLTemplate      string
	LiveTimeout          time.Duration
	LiveRateLimit        float64
	LiveRateBurst        int
	LiveFetchConcurrency int
	LiveSnapshotTTL      time.Duration

	FixturePollInterval time.Duration
	LivePollInterval    time.Duration
	DailyRefreshCron    string
	SchedulerTimezone   string
	SchedulerLocation   *time.Location
	JobTimeout          time.Duration
	CompletionGrace     time.Duration
	NotifyWorkers       int

	RedisEnabled      bool
	RedisURL          string
	RedisKeyPrefix    string
	RedisViewTTL      time.Duration
	RedisStreamKey    string
	RedisStreamMaxLen int64

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string
}

// Load reads configuration from the environment. Values in the optional env
// file (APP_ENV_FILE, default .env) never override variables already set.
func Load() (Config, error) {
	if err := loadEnvFile(getEnv("APP_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	logLevel, err := logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
	}
	logFormat, err := logging.ParseFormat(getEnv("APP_LOG_FORMAT", logging.FormatJSON))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_FORMAT: %w", err)
	}
	logSampling, err := strconv.ParseBool(getEnv("APP_LOG_SAMPLING", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_SAMPLING: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "cebl-gameday"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		LogLevel:           logLevel,
		LogFormat:          logFormat,
		LogSampling:        logSampling,
		TrackedTeamIDs:     splitCSV(getEnv("TRACKED_TEAM_IDS", "")),
		CEBLFixturesURL:    strings.TrimSpace(getEnv("CEBL_FIXTURES_URL", "https://api.data.cebl.ca/games/2025/")),
		CEBLAPIKey:         strings.TrimSpace(getEnv("CEBL_API_KEY", "")),
		CEBLReferer:        strings.TrimSpace(getEnv("CEBL_REFERER", "https://www.cebl.ca/")),
		CEBLOrigin:         strings.TrimSpace(getEnv("CEBL_ORIGIN", "https://www.cebl.ca")),
		LiveURLTemplate:    strings.TrimSpace(getEnv("LIVE_URL_TEMPLATE", "https://fibalivestats.dcd.shared.geniussports.com/data/{match_id}/data.json")),
		DailyRefreshCron:   strings.TrimSpace(getEnv("DAILY_REFRESH_CRON", "0 0 * * *")),
		SchedulerTimezone:  strings.TrimSpace(getEnv("SCHEDULER_TIMEZONE", "Local")),
		RedisURL:           strings.TrimSpace(getEnv("REDIS_URL", "redis://localhost:6379/0")),
		RedisKeyPrefix:     strings.TrimSpace(getEnv("REDIS_KEY_PREFIX", "gameday")),
		RedisStreamKey:     strings.TrimSpace(getEnv("REDIS_STREAM_KEY", "gameday.updates")),
		UptraceDSN:         strings.TrimSpace(getEnv("UPTRACE_DSN", "")),
		PprofAddr:          strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if len(cfg.TrackedTeamIDs) == 0 {
		return Config{}, fmt.Errorf("TRACKED_TEAM_IDS is required")
	}
	if !strings.Contains(cfg.LiveURLTemplate, "{match_id}") {
		return Config{}, fmt.Errorf("LIVE_URL_TEMPLATE must contain {match_id}")
	}

	if err := loadServerConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadFixtureSourceConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadLiveSourceConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadSchedulerConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadRedisConfig(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservabilityConfig(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadServerConfig(cfg *Config) error {
	var err error
	if cfg.ReadTimeout, err = getEnvAsDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return err
	}
	if cfg.WriteTimeout, err = getEnvAsDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return err
	}
	if cfg.ShutdownTimeout, err = getEnvAsDuration("APP_SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return err
	}
	return nil
}

func loadFixtureSourceConfig(cfg *Config) error {
	var err error
	if cfg.CEBLTimeout, err = getEnvAsDuration("CEBL_TIMEOUT", "10s"); err != nil {
		return err
	}
	if err := checkUpstreamTimeout("CEBL_TIMEOUT", cfg.CEBLTimeout); err != nil {
		return err
	}

	if cfg.CEBLMaxRetries, err = getEnvAsInt("CEBL_MAX_RETRIES", 1); err != nil {
		return fmt.Errorf("parse CEBL_MAX_RETRIES: %w", err)
	}
	if cfg.CEBLMaxRetries < 0 {
		return fmt.Errorf("CEBL_MAX_RETRIES must be >= 0")
	}

	if cfg.CEBLCircuitEnabled, err = strconv.ParseBool(getEnv("CEBL_CIRCUIT_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse CEBL_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.CEBLCircuitFailureCount, err = getEnvAsInt("CEBL_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return fmt.Errorf("parse CEBL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.CEBLCircuitFailureCount < 1 {
		return fmt.Errorf("CEBL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if cfg.CEBLCircuitOpenTimeout, err = getEnvAsDuration("CEBL_CIRCUIT_OPEN_TIMEOUT", "30s"); err != nil {
		return err
	}
	if cfg.CEBLCircuitHalfOpenMaxReq, err = getEnvAsInt("CEBL_CIRCUIT_HALF_OPEN_MAX_REQ", 1); err != nil {
		return fmt.Errorf("parse CEBL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if cfg.CEBLCircuitHalfOpenMaxReq < 1 {
		return fmt.Errorf("CEBL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	if cfg.TeamsCacheTTL, err = getEnvAsDuration("TEAMS_CACHE_TTL", "1h"); err != nil {
		return err
	}
	return nil
}

func loadLiveSourceConfig(cfg *Config) error {
	var err error
	if cfg.LiveTimeout, err = getEnvAsDuration("LIVE_TIMEOUT", "15s"); err != nil {
		return err
	}
	if err := checkUpstreamTimeout("LIVE_TIMEOUT", cfg.LiveTimeout); err != nil {
		return err
	}

	if cfg.LiveRateLimit, err = strconv.ParseFloat(getEnv("LIVE_RATE_LIMIT", "2"), 64); err != nil {
		return fmt.Errorf("parse LIVE_RATE_LIMIT: %w", err)
	}
	if cfg.LiveRateLimit < 0 {
		return fmt.Errorf("LIVE_RATE_LIMIT must be >= 0")
	}
	if cfg.LiveRateBurst, err = getEnvAsInt("LIVE_RATE_BURST", 4); err != nil {
		return fmt.Errorf("parse LIVE_RATE_BURST: %w", err)
	}
	if cfg.LiveRateBurst < 1 {
		return fmt.Errorf("LIVE_RATE_BURST must be >= 1")
	}
	if cfg.LiveFetchConcurrency, err = getEnvAsInt("LIVE_FETCH_CONCURRENCY", 4); err != nil {
		return fmt.Errorf("parse LIVE_FETCH_CONCURRENCY: %w", err)
	}
	if cfg.LiveFetchConcurrency < 1 {
		return fmt.Errorf("LIVE_FETCH_CONCURRENCY must be >= 1")
	}
	if cfg.LiveSnapshotTTL, err = getEnvAsDuration("LIVE_SNAPSHOT_TTL", "3m"); err != nil {
		return err
	}
	return nil
}

func loadSchedulerConfig(cfg *Config) error {
	var err error
	if cfg.FixturePollInterval, err = getEnvAsDuration("FIXTURE_POLL_INTERVAL", "10m"); err != nil {
		return err
	}
	if cfg.LivePollInterval, err = getEnvAsDuration("LIVE_POLL_INTERVAL", "30s"); err != nil {
		return err
	}
	if cfg.LivePollInterval > cfg.FixturePollInterval {
		return fmt.Errorf("LIVE_POLL_INTERVAL must not exceed FIXTURE_POLL_INTERVAL")
	}
	if cfg.JobTimeout, err = getEnvAsDuration("JOB_TIMEOUT", "45s"); err != nil {
		return err
	}

	if cfg.CompletionGrace, err = getEnvAsDuration("COMPLETION_GRACE", "2h"); err != nil {
		return err
	}
	if cfg.CompletionGrace < minCompletionGrace || cfg.CompletionGrace > maxCompletionGrace {
		return fmt.Errorf("COMPLETION_GRACE must be between %s and %s", minCompletionGrace, maxCompletionGrace)
	}

	if cfg.NotifyWorkers, err = getEnvAsInt("NOTIFY_WORKERS", 4); err != nil {
		return fmt.Errorf("parse NOTIFY_WORKERS: %w", err)
	}
	if cfg.NotifyWorkers < 1 {
		return fmt.Errorf("NOTIFY_WORKERS must be >= 1")
	}

	if cfg.SchedulerLocation, err = time.LoadLocation(cfg.SchedulerTimezone); err != nil {
		return fmt.Errorf("parse SCHEDULER_TIMEZONE: %w", err)
	}
	return nil
}

func loadRedisConfig(cfg *Config) error {
	var err error
	if cfg.RedisEnabled, err = strconv.ParseBool(getEnv("REDIS_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse REDIS_ENABLED: %w", err)
	}
	if cfg.RedisEnabled && cfg.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when REDIS_ENABLED=true")
	}
	if cfg.RedisViewTTL, err = getEnvAsDuration("REDIS_VIEW_TTL", "15m"); err != nil {
		return err
	}
	maxLen, err := getEnvAsInt("REDIS_STREAM_MAX_LEN", 1000)
	if err != nil {
		return fmt.Errorf("parse REDIS_STREAM_MAX_LEN: %w", err)
	}
	if maxLen < 0 {
		return fmt.Errorf("REDIS_STREAM_MAX_LEN must be >= 0")
	}
	cfg.RedisStreamMaxLen = int64(maxLen)
	return nil
}

func loadObservabilityConfig(cfg *Config) error {
	var err error
	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	if cfg.UptraceLogsEnabled, err = strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}

	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}
	return nil
}

func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func checkUpstreamTimeout(key string, value time.Duration) error {
	if value < minUpstreamTimeout || value > maxUpstreamTimeout {
		return fmt.Errorf("%s must be between %s and %s", key, minUpstreamTimeout, maxUpstreamTimeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

// getEnvAsDuration parses a positive duration.
func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
