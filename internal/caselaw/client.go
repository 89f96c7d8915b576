// Package caselaw is the client for a CourtListener-style case-law API.
// Every request funnels through one shared rate limiter and circuit breaker.
package caselaw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

const maxResponseBytes = 20 << 20

// Client is the case-law API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	maxPages   int

	limiter *worker.Limiter
	breaker *worker.CircuitBreaker

	maxAttempts    int
	initialBackoff time.Duration
	sleep          func(ctx context.Context, d time.Duration) error

	peopleGap  time.Duration
	peopleMu   sync.Mutex
	lastPeople time.Time

	logger *zap.Logger
}

// NewClient creates a client sharing the given limiter and breaker.
// A missing API token is a configuration error.
func NewClient(cfg model.CaseLawConfig, rl model.RateLimitConfig, limiter *worker.Limiter, breaker *worker.CircuitBreaker, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("case-law API token: %w", model.ErrMissingCredentials)
	}
	if limiter == nil || breaker == nil {
		return nil, errors.New("case-law client requires a limiter and a breaker")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	attempts := rl.MaxRetries
	if attempts <= 0 {
		attempts = 3
	}
	backoff := rl.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: proxyFunc(cfg),
			},
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.APIToken,
		userAgent:      cfg.UserAgent,
		maxPages:       maxPages,
		limiter:        limiter,
		breaker:        breaker,
		maxAttempts:    attempts,
		initialBackoff: backoff,
		sleep:          worker.Sleep,
		peopleGap:      cfg.PeopleGap,
		logger:         logger,
	}, nil
}

// BreakerOpen reports whether the shared breaker is rejecting calls
func (c *Client) BreakerOpen() bool {
	return c.breaker.IsOpen()
}

// request describes one API call
type request struct {
	endpoint string // Metric label
	method   string
	path     string // Relative to baseURL, or an absolute cursor URL
	query    url.Values
	form     url.Values
}

// do executes a request with retries. A 404 returns found=false and no error.
func (c *Client) do(ctx context.Context, r request, out any) (found bool, err error) {
	var lastErr error
	var retryAfter time.Duration

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.initialBackoff * time.Duration(1<<uint(attempt-1))
			if retryAfter > backoff {
				backoff = retryAfter
			}
			if err := c.sleep(ctx, backoff); err != nil {
				return false, err
			}
		}

		req, err := c.newRequest(ctx, r)
		if err != nil {
			return false, err
		}

		ticket, ok := c.breaker.Allow()
		if !ok {
			metrics.CaseLawRequests.WithLabelValues(r.endpoint, "circuit_open").Inc()
			return false, ErrCircuitOpen
		}

		status, body, after, err := c.once(ctx, req)
		retryAfter = after
		switch {
		case err != nil && ctx.Err() != nil:
			c.breaker.Release(ticket)
			return false, ctx.Err()
		case err != nil:
			c.breaker.RecordFailure(ticket)
			metrics.CaseLawRequests.WithLabelValues(r.endpoint, "network_error").Inc()
			lastErr = fmt.Errorf("%w: %s: %v", ErrTransient, r.endpoint, err)
			continue
		}

		switch {
		case status == http.StatusNotFound:
			c.breaker.RecordSuccess(ticket)
			metrics.CaseLawRequests.WithLabelValues(r.endpoint, "not_found").Inc()
			return false, nil

		case status == http.StatusTooManyRequests:
			c.breaker.RecordFailure(ticket)
			metrics.CaseLawRequests.WithLabelValues(r.endpoint, "rate_limited").Inc()
			lastErr = fmt.Errorf("%w: %s", ErrRateLimited, r.endpoint)
			continue

		case status >= 500:
			c.breaker.RecordFailure(ticket)
			metrics.CaseLawRequests.WithLabelValues(r.endpoint, "server_error").Inc()
			lastErr = fmt.Errorf("%w: %s: status %d", ErrTransient, r.endpoint, status)
			continue

		case status < 200 || status >= 300:
			// The upstream answered; a bad request is not an outage
			c.breaker.RecordSuccess(ticket)
			metrics.CaseLawRequests.WithLabelValues(r.endpoint, "client_error").Inc()
			return false, fmt.Errorf("%w: %s: status %d", ErrUnexpectedStatus, r.endpoint, status)
		}

		c.breaker.RecordSuccess(ticket)
		metrics.CaseLawRequests.WithLabelValues(r.endpoint, "ok").Inc()

		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return false, fmt.Errorf("decode %s response: %w", r.endpoint, err)
			}
		}
		return true, nil
	}

	c.logger.Warn("case-law request exhausted retries",
		zap.String("endpoint", r.endpoint),
		zap.Int("attempts", c.maxAttempts),
		zap.Error(lastErr))
	return false, lastErr
}

// once performs a single admitted attempt through the limiter
func (c *Client) once(ctx context.Context, req *http.Request) (int, []byte, time.Duration, error) {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, 0, err
	}
	metrics.LimiterWait.Observe(time.Since(start).Seconds())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, body, parseRetryAfter(resp.Header.Get("Retry-After")), nil
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	target := r.path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(r.path, "/")
	}
	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.query.Encode()
	}

	var body io.Reader
	if r.form != nil {
		body = bytes.NewBufferString(r.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
