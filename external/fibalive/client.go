package fibalive

import (
	"context"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/cebl-gameday/internal/domain/livescore"
	"github.com/riskibarqy/cebl-gameday/internal/platform/logging"
	"github.com/riskibarqy/cebl-gameday/internal/platform/payload"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

const (
	DefaultURLTemplate = "https://fibalivestats.dcd.shared.geniussports.com/data/{match_id}/data.json"
	matchIDPlaceholder = "{match_id}"
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:139.0) Gecko/20100101 Firefox/139.0"
)

type ClientConfig struct {
	HTTPClient  *fasthttp.Client
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	RateLimit   float64
	RateBurst   int
	Logger      *logging.Logger
}

// Client reads the per-match live stats feed.
type Client struct {
	httpClient  *fasthttp.Client
	urlTemplate string
	userAgent   string
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                payload.FirstNonEmpty(cfg.UserAgent, defaultUserAgent),
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: time.Minute,
		}
	}

	template := strings.TrimSpace(cfg.URLTemplate)
	if template == "" {
		template = DefaultURLTemplate
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient:  httpClient,
		urlTemplate: template,
		userAgent:   payload.FirstNonEmpty(cfg.UserAgent, defaultUserAgent),
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger,
	}
}

// MatchURL expands the template for one lookup key.
func (c *Client) MatchURL(lookupKey string) string {
	escaped := url.PathEscape(strings.TrimSpace(lookupKey))
	if strings.Contains(c.urlTemplate, matchIDPlaceholder) {
		return strings.ReplaceAll(c.urlTemplate, matchIDPlaceholder, escaped)
	}
	return strings.TrimRight(c.urlTemplate, "/") + "/" + escaped + ".json"
}

// FetchSnapshot returns the normalized snapshot for lookupKey. The boolean is
// false on any transport failure, non-200 status, or undecodable body; those
// cases never surface as errors.
func (c *Client) FetchSnapshot(ctx context.Context, lookupKey string) (livescore.Snapshot, bool) {
	lookupKey = strings.TrimSpace(lookupKey)
	if lookupKey == "" {
		return livescore.Snapshot{}, false
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.logger.DebugContext(ctx, "live fetch skipped: rate limiter wait aborted", "match_id", lookupKey, "error", err)
		return livescore.Snapshot{}, false
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return livescore.Snapshot{}, false
	}

	target := c.MatchURL(lookupKey)
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.SetUserAgent(c.userAgent)

	if err := c.httpClient.DoTimeout(req, resp, timeout); err != nil {
		c.logger.WarnContext(ctx, "live fetch failed", "match_id", lookupKey, "url", target, "error", err)
		return livescore.Snapshot{}, false
	}
	if status := resp.StatusCode(); status != fasthttp.StatusOK {
		c.logger.DebugContext(ctx, "live fetch returned non-200", "match_id", lookupKey, "status", status)
		return livescore.Snapshot{}, false
	}

	// The feed is sometimes served as text/html; the content type is ignored.
	body := append([]byte(nil), resp.Body()...)
	if len(body) == 0 {
		return livescore.Snapshot{}, false
	}

	var doc any
	if err := sonic.Unmarshal(body, &doc); err != nil {
		c.logger.DebugContext(ctx, "live payload is not json", "match_id", lookupKey, "body", payload.Abbreviate(body), "error", err)
		return livescore.Snapshot{}, false
	}

	snap, ok := Normalize(doc)
	if !ok {
		c.logger.DebugContext(ctx, "live payload is empty", "match_id", lookupKey)
		return livescore.Snapshot{}, false
	}
	if snap.Shape == livescore.ShapeUnknown {
		c.logger.DebugContext(ctx, "live payload shape not recognized", "match_id", lookupKey)
	}
	return snap, true
}
