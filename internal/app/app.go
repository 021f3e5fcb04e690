package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/riskibarqy/cebl-gameday/external/cebl"
	"github.com/riskibarqy/cebl-gameday/external/fibalive"
	"github.com/riskibarqy/cebl-gameday/internal/config"
	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/domain/gameview"
	"github.com/riskibarqy/cebl-gameday/internal/infrastructure/jobqueue"
	cacherepo "github.com/riskibarqy/cebl-gameday/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/cebl-gameday/internal/infrastructure/repository/memory"
	redisrepo "github.com/riskibarqy/cebl-gameday/internal/infrastructure/repository/redis"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/display"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/httpapi"
	"github.com/riskibarqy/cebl-gameday/internal/interfaces/stream"
	"github.com/riskibarqy/cebl-gameday/internal/platform/cache"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/riskibarqy/cebl-gameday/internal/platform/resilience"
	"github.com/riskibarqy/cebl-gameday/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const redisPingTimeout = 3 * time.Second

// App owns every long-lived component of the service.
type App struct {
	Server    *http.Server
	Tracker   *usecase.TrackerService
	Scheduler *jobqueue.CronScheduler
	Hub       *stream.Hub

	notifier *usecase.Notifier
	redis    goredis.UniversalClient
	logger   *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	fixtureClient := cebl.NewClient(cebl.ClientConfig{
		HTTPClient: &http.Client{
			Timeout:   cfg.CEBLTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		FixturesURL: cfg.CEBLFixturesURL,
		APIKey:      cfg.CEBLAPIKey,
		Referer:     cfg.CEBLReferer,
		Origin:      cfg.CEBLOrigin,
		Timeout:     cfg.CEBLTimeout,
		MaxRetries:  cfg.CEBLMaxRetries,
		Logger:      logger.Named("cebl"),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CEBLCircuitEnabled,
			FailureThreshold: cfg.CEBLCircuitFailureCount,
			OpenTimeout:      cfg.CEBLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CEBLCircuitHalfOpenMaxReq,
		},
	})
	fixtureSource := cacherepo.NewFixtureSource(fixtureClient, cache.NewStore[[]fixture.TeamRef](cfg.TeamsCacheTTL))

	liveClient := fibalive.NewClient(fibalive.ClientConfig{
		URLTemplate: cfg.LiveURLTemplate,
		Timeout:     cfg.LiveTimeout,
		RateLimit:   cfg.LiveRateLimit,
		RateBurst:   cfg.LiveRateBurst,
		Logger:      logger.Named("fibalive"),
	})

	renderer := display.NewRenderer(cfg.SchedulerLocation)
	hub := stream.NewHub(renderer, cfg.CORSAllowedOrigins, logger.Named("stream"))

	publishers := []gameview.Publisher{hub}
	var viewRepo gameview.Repository = memory.NewViewRepository()
	redisClient, err := connectRedis(cfg, logger)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		viewRepo = redisrepo.NewViewRepository(redisClient, cfg.RedisKeyPrefix, cfg.RedisViewTTL)
		publishers = append(publishers, redisrepo.NewStreamPublisher(redisClient, cfg.RedisStreamKey, cfg.RedisStreamMaxLen))
	}

	notifier, err := usecase.NewNotifier(cfg.NotifyWorkers, logger.Named("notifier"), publishers...)
	if err != nil {
		closeRedis(redisClient)
		return nil, err
	}

	tracker := usecase.NewTrackerService(
		usecase.TrackerConfig{
			TeamIDs:         cfg.TrackedTeamIDs,
			CompletionGrace: cfg.CompletionGrace,
			SnapshotTTL:     cfg.LiveSnapshotTTL,
			LiveConcurrency: cfg.LiveFetchConcurrency,
		},
		fixtureSource,
		liveClient,
		memory.NewFixtureRepository(nil),
		viewRepo,
		notifier,
		logger.Named("tracker"),
	)

	scheduler, err := jobqueue.NewCronScheduler(jobqueue.CronSchedulerConfig{
		FixtureInterval: cfg.FixturePollInterval,
		LiveInterval:    cfg.LivePollInterval,
		DailySpec:       cfg.DailyRefreshCron,
		Location:        cfg.SchedulerLocation,
		JobTimeout:      cfg.JobTimeout,
	}, tracker, logger)
	if err != nil {
		notifier.Close()
		closeRedis(redisClient)
		return nil, fmt.Errorf("build scheduler: %w", err)
	}
	tracker.SetLivePoller(scheduler)

	teamSvc := usecase.NewTeamService(fixtureSource, cfg.TrackedTeamIDs)
	handler := httpapi.NewHandler(tracker, teamSvc, hub, renderer, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		Tracker:   tracker,
		Scheduler: scheduler,
		Hub:       hub,
		notifier:  notifier,
		redis:     redisClient,
		logger:    logger,
	}, nil
}

// Start runs the hub, performs the first fixture poll in the background and
// starts the scheduler. ctx bounds the hub's lifetime.
func (a *App) Start(ctx context.Context) {
	go a.Hub.Run(ctx)

	go func() {
		if err := a.Tracker.RefreshFixtures(ctx); err != nil {
			a.logger.WarnContext(ctx, "initial fixture refresh failed", "error", err)
		}
	}()

	a.Scheduler.Start()
}

// Shutdown stops accepting requests, waits for running jobs and drains
// pending notifications.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if err := a.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	a.notifier.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// connectRedis returns nil when Redis is disabled or unreachable; the service
// then keeps views in memory.
func connectRedis(cfg config.Config, logger *logging.Logger) (goredis.UniversalClient, error) {
	if !cfg.RedisEnabled {
		return nil, nil
	}

	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, keeping views in memory", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return nil, nil
	}

	logger.Info("redis connected", "addr", opts.Addr, "db", opts.DB)
	return client, nil
}

func closeRedis(client goredis.UniversalClient) {
	if client != nil {
		_ = client.Close()
	}
}
