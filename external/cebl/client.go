package cebl

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/cebl-gameday/internal/domain/fixture"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/riskibarqy/cebl-gameday/internal/platform/payload"
	"github.com/riskibarqy/cebl-gameday/internal/platform/resilience"
	"github.com/riskibarqy/cebl-gameday/internal/usecase"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFixturesURL = "https://api.data.cebl.ca/games/2025/"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:139.0) Gecko/20100101 Firefox/139.0"
	defaultReferer     = "https://cebl-stats-hub.web.app/"
	defaultOrigin      = "https://cebl-stats-hub.web.app"
	maxBodyBytes       = 8 << 20
)

var (
	// errCEBLTransient marks failures that degrade to an empty result.
	errCEBLTransient = crerr.New("cebl transient failure")
	// errCEBLRetryable marks failures worth another attempt that still surface
	// as hard failures once retries are exhausted.
	errCEBLRetryable = crerr.New("cebl retryable failure")

	errUnexpectedShape = crerr.New("unexpected fixtures payload shape")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	FixturesURL    string
	APIKey         string
	UserAgent      string
	Referer        string
	Origin         string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
	Now            func() time.Time
}

// Client reads the league schedule endpoint.
type Client struct {
	httpClient  *http.Client
	fixturesURL string
	headers     http.Header
	apiKey      string
	maxRetries  int
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker
	flight      singleflight.Group
	validate    *validator.Validate
	now         func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	fixturesURL := strings.TrimSpace(cfg.FixturesURL)
	if fixturesURL == "" {
		fixturesURL = defaultFixturesURL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	breakerCfg := cfg.CircuitBreaker
	breakerCfg.OnTransition = func(from, to resilience.CircuitState) {
		logger.Warn("cebl circuit breaker state changed", "from", from, "to", to)
	}

	headers := http.Header{}
	headers.Set("User-Agent", payload.FirstNonEmpty(cfg.UserAgent, defaultUserAgent))
	headers.Set("Accept", "application/json, text/plain, */*")
	headers.Set("Accept-Language", "en-US,en;q=0.5")
	headers.Set("Referer", payload.FirstNonEmpty(cfg.Referer, defaultReferer))
	headers.Set("Origin", payload.FirstNonEmpty(cfg.Origin, defaultOrigin))
	headers.Set("Cache-Control", "no-cache")
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey != "" {
		headers.Set("X-Api-Key", apiKey)
	}

	return &Client{
		httpClient:  httpClient,
		fixturesURL: fixturesURL,
		headers:     headers,
		apiKey:      apiKey,
		maxRetries:  max(cfg.MaxRetries, 0),
		logger:      logger,
		breaker:     resilience.NewCircuitBreaker(breakerCfg),
		validate:    validator.New(),
		now:         now,
	}
}

// FetchFixtures returns the fixtures involving any of teamIDs. Transient
// upstream failures and unrecognized payloads produce an empty, degraded
// result; anything else is reported as usecase.ErrFetchFailed.
func (c *Client) FetchFixtures(ctx context.Context, teamIDs []string) (fixture.FetchResult, error) {
	records, err := c.loadRecords(ctx)
	if err != nil {
		if isDegradable(err) {
			c.logger.WarnContext(ctx, "fixtures fetch degraded", "url", c.fixturesURL, "error", err)
			return fixture.FetchResult{Degraded: true, DegradedWhy: err.Error()}, nil
		}
		return fixture.FetchResult{}, fmt.Errorf("%w: %v", usecase.ErrFetchFailed, err)
	}

	tracked := make(map[string]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		if id = strings.TrimSpace(id); id != "" {
			tracked[id] = struct{}{}
		}
	}

	all := c.normalize(ctx, records)
	out := make([]fixture.Fixture, 0, len(all))
	for _, item := range all {
		_, home := tracked[strings.TrimSpace(item.HomeTeam.ID)]
		_, away := tracked[strings.TrimSpace(item.AwayTeam.ID)]
		if !home && !away {
			continue
		}
		if item.MatchLookupKey == "" {
			c.logger.DebugContext(ctx, "match lookup key not found", "fixture_id", item.ID, "stats_urls", item.StatsURLs)
		}
		out = append(out, item)
	}

	return fixture.FetchResult{
		Fixtures:   out,
		LookupKeys: buildLookupMap(out, teamIDs, c.now()),
	}, nil
}

// ListTeams returns every team present in the feed, deduplicated by id and
// sorted by name.
func (c *Client) ListTeams(ctx context.Context) ([]fixture.TeamRef, error) {
	records, err := c.loadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list teams: %v", usecase.ErrFetchFailed, err)
	}

	byID := make(map[string]fixture.TeamRef, 16)
	for _, item := range c.normalize(ctx, records) {
		for _, team := range []fixture.TeamRef{item.HomeTeam, item.AwayTeam} {
			if team.ID == "" || team.Name == "" {
				continue
			}
			team.Score = nil
			byID[team.ID] = team
		}
	}

	out := make([]fixture.TeamRef, 0, len(byID))
	for _, team := range byID {
		out = append(out, team)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *Client) normalize(ctx context.Context, records []map[string]any) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(records))
	for idx, record := range records {
		adapter, ok := detectAdapter(record)
		if !ok {
			c.logger.DebugContext(ctx, "skip fixture record: no schema adapter matched", "index", idx)
			continue
		}
		item, canonical := adapter.toFixture(record)
		if err := c.validate.Struct(canonical); err != nil {
			c.logger.DebugContext(ctx, "skip invalid fixture record", "index", idx, "adapter", adapter.name, "error", err)
			continue
		}
		out = append(out, item)
	}
	return out
}

func (c *Client) loadRecords(ctx context.Context) ([]map[string]any, error) {
	raw, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, crerr.Mark(crerr.Wrapf(err, "decode fixtures body=%s", payload.Abbreviate(raw)), errUnexpectedShape)
	}
	records, ok := unwrapRecords(doc)
	if !ok {
		return nil, crerr.Wrapf(errUnexpectedShape, "document type %T", doc)
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	out, err, _ := c.flight.Do(c.fixturesURL, func() (any, error) {
		var raw []byte
		err := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx)
			return reqErr
		}, isCircuitFailure)
		return raw, err
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "cebl circuit breaker rejected request", "state", c.breaker.State())
		return nil, crerr.Mark(fmt.Errorf("%w: fixtures provider is temporarily unavailable", usecase.ErrDependencyUnavailable), errCEBLTransient)
	}
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected response payload type %T", out)
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.fixturesURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header = c.headers.Clone()
		if attempt == 0 {
			c.logger.DebugContext(ctx, "cebl fixtures request", "curl", buildCurlPreview(c.fixturesURL, req.Header))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isTransientTransportError(err) {
				lastErr = crerr.Mark(crerr.Wrap(err, "send request"), errCEBLTransient)
			} else {
				return nil, crerr.Wrap(err, "send request")
			}
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = crerr.Mark(crerr.Wrap(readErr, "read response body"), errCEBLTransient)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isDegradableStatus(resp.StatusCode):
				lastErr = crerr.Mark(crerr.Newf("provider status=%d body=%s", resp.StatusCode, payload.Abbreviate(raw)), errCEBLTransient)
			case isRetryableStatus(resp.StatusCode):
				lastErr = crerr.Mark(crerr.Newf("provider status=%d body=%s", resp.StatusCode, payload.Abbreviate(raw)), errCEBLRetryable)
			default:
				return nil, crerr.Newf("provider status=%d body=%s", resp.StatusCode, payload.Abbreviate(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			waitErr := crerr.Wrap(ctx.Err(), "wait for retry")
			if crerr.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, crerr.Mark(waitErr, errCEBLTransient)
			}
			return nil, waitErr
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = crerr.New("provider request failed")
	}
	c.logger.WarnContext(ctx, "cebl request failed", "url", c.fixturesURL, "attempts", c.maxRetries+1, "error", lastErr)
	return nil, lastErr
}

func isDegradable(err error) bool {
	return crerr.Is(err, errCEBLTransient) || crerr.Is(err, errUnexpectedShape)
}

// CircuitStats reports the fixture feed breaker.
func (c *Client) CircuitStats() resilience.BreakerStats {
	return c.breaker.Stats()
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errCEBLTransient) || crerr.Is(err, errCEBLRetryable)
}

func isDegradableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// isTransientTransportError covers timeouts, resets and temporary DNS
// failures. Refused connections and TLS errors are not transient.
func isTransientTransportError(err error) bool {
	if crerr.Is(err, context.DeadlineExceeded) ||
		crerr.Is(err, syscall.ECONNRESET) ||
		crerr.Is(err, syscall.ECONNABORTED) ||
		crerr.Is(err, syscall.EPIPE) ||
		crerr.Is(err, io.ErrUnexpectedEOF) ||
		crerr.Is(err, io.EOF) {
		return true
	}
	var dnsErr *net.DNSError
	if crerr.As(err, &dnsErr) && (dnsErr.IsTemporary || dnsErr.IsTimeout) {
		return true
	}
	var netErr net.Error
	return crerr.As(err, &netErr) && netErr.Timeout()
}
