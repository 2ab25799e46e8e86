package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for the shared fetch layer.
type HTTPClientConfig struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	RateLimit       float64       // global requests per second across all adapters
	MinHostInterval time.Duration // minimum gap between requests to one host
	UserAgent       string
}

// DefaultHTTPClientConfig returns recommended defaults.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:         30 * time.Second,
		MaxRetries:      4,
		RetryWaitMin:    100 * time.Millisecond,
		RetryWaitMax:    10 * time.Second,
		RateLimit:       10.0,
		MinHostInterval: 250 * time.Millisecond,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124 Safari/537.36",
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with a global request
// cap, a per-host minimum interval, and an optional response cache. All
// adapters share one instance so the limits hold across the fan-out.
type RateLimitedHTTPClient struct {
	client    *retryablehttp.Client
	limiter   *rate.Limiter
	cache     *ResponseCache
	userAgent string

	hostInterval time.Duration
	mu           sync.Mutex
	lastHit      map[string]time.Time

	logger *logrus.Logger
}

// NewRateLimitedHTTPClient creates the shared fetch client. cache may be
// nil to disable response caching.
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, cache *ResponseCache, logger *logrus.Logger) *RateLimitedHTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	retryClient.Logger = nil

	return &RateLimitedHTTPClient{
		client:       retryClient,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		cache:        cache,
		userAgent:    cfg.UserAgent,
		hostInterval: cfg.MinHostInterval,
		lastHit:      make(map[string]time.Time),
		logger:       logger,
	}
}

// Do executes an HTTP request honoring the global and per-host limits.
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if err := c.throttleHost(ctx, req.URL); err != nil {
		return nil, err
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	retryReq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	return c.client.Do(retryReq.WithContext(ctx))
}

// FetchText GETs a URL and returns its body, consulting the response
// cache first. A non-2xx status is an error; the body is drained either way.
func (c *RateLimitedHTTPClient) FetchText(ctx context.Context, rawURL string) (string, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(rawURL); ok {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	if c.cache != nil {
		c.cache.Set(rawURL, string(body), resp.Header)
	}
	return string(body), nil
}

// throttleHost enforces the per-host minimum inter-request interval.
func (c *RateLimitedHTTPClient) throttleHost(ctx context.Context, u *url.URL) error {
	if c.hostInterval <= 0 {
		return nil
	}

	host := u.Hostname()
	c.mu.Lock()
	now := time.Now()
	wait := c.hostInterval - now.Sub(c.lastHit[host])
	if wait < 0 {
		wait = 0
	}
	c.lastHit[host] = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases idle connections.
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy retries network errors, 429 and 5xx gateway statuses,
// and gives up on other client errors.
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, err
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}
