package jobqueue

import (
	"context"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

const (
	defaultFixtureInterval = 10 * time.Minute
	defaultLiveInterval    = 30 * time.Second
	defaultDailySpec       = "0 0 * * *"
	defaultJobTimeout      = 45 * time.Second
)

// Runner is the work the scheduler drives.
type Runner interface {
	RefreshFixtures(ctx context.Context) error
	RefreshLive(ctx context.Context) error
}

type CronSchedulerConfig struct {
	FixtureInterval time.Duration
	LiveInterval    time.Duration
	DailySpec       string
	Location        *time.Location
	JobTimeout      time.Duration
}

// CronScheduler runs the slow fixture poll, the daily refresh and, while a
// tracked game is live, the fast live poll. Overlapping runs of the same job
// are skipped.
type CronScheduler struct {
	cron   *cron.Cron
	runner Runner
	cfg    CronSchedulerConfig
	logger *logging.Logger

	mu        sync.Mutex
	liveEntry cron.EntryID
	liveOn    bool
}

func NewCronScheduler(cfg CronSchedulerConfig, runner Runner, logger *logging.Logger) (*CronScheduler, error) {
	if runner == nil {
		return nil, crerr.New("cron scheduler requires a runner")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FixtureInterval <= 0 {
		cfg.FixtureInterval = defaultFixtureInterval
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = defaultLiveInterval
	}
	if strings.TrimSpace(cfg.DailySpec) == "" {
		cfg.DailySpec = defaultDailySpec
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}

	cronLog := cronLogger{logger: logger.Named("cron")}
	s := &CronScheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		runner: runner,
		cfg:    cfg,
		logger: logger,
	}

	if _, err := s.cron.AddFunc(everySpec(cfg.FixtureInterval), s.runFixtures); err != nil {
		return nil, crerr.Wrapf(err, "schedule fixture poll every %s", cfg.FixtureInterval)
	}
	if _, err := s.cron.AddFunc(cfg.DailySpec, s.runFixtures); err != nil {
		return nil, crerr.Wrapf(err, "schedule daily refresh %q", cfg.DailySpec)
	}
	return s, nil
}

func (s *CronScheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		"fixture_interval", s.cfg.FixtureInterval.String(),
		"live_interval", s.cfg.LiveInterval.String(),
		"daily_spec", s.cfg.DailySpec,
		"location", s.cfg.Location.String(),
	)
}

// Stop halts scheduling and waits for running jobs until ctx is done.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return crerr.Wrap(ctx.Err(), "wait for running jobs")
	}
}

// SetLivePolling adds or removes the fast live entry. Repeated calls with
// the same value are no-ops.
func (s *CronScheduler) SetLivePolling(ctx context.Context, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if enabled == s.liveOn {
		return
	}

	if !enabled {
		s.cron.Remove(s.liveEntry)
		s.liveEntry = 0
		s.liveOn = false
		s.logger.InfoContext(ctx, "live polling disabled")
		return
	}

	id, err := s.cron.AddFunc(everySpec(s.cfg.LiveInterval), s.runLive)
	if err != nil {
		s.logger.ErrorContext(ctx, "schedule live polling failed", "error", err)
		return
	}
	s.liveEntry = id
	s.liveOn = true
	s.logger.InfoContext(ctx, "live polling enabled", "interval", s.cfg.LiveInterval.String())
}

func (s *CronScheduler) LivePolling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveOn
}

// NextRuns reports the next activation of each scheduled entry.
func (s *CronScheduler) NextRuns() []time.Time {
	entries := s.cron.Entries()
	out := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Next)
	}
	return out
}

func (s *CronScheduler) runFixtures() {
	s.run("fixtures", s.runner.RefreshFixtures)
}

func (s *CronScheduler) runLive() {
	s.run("live", s.runner.RefreshLive)
}

func (s *CronScheduler) run(job string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logger.WarnContext(ctx, "scheduled job failed", "job", job, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.logger.DebugContext(ctx, "scheduled job finished", "job", job, "duration_ms", time.Since(start).Milliseconds())
}

func everySpec(d time.Duration) string {
	return "@every " + d.String()
}

// cronLogger adapts the service logger to cron's logging interface.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
