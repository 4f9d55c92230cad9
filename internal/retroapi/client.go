// Package retroapi is a client for the RetroAchievements web API.
//
// Every call goes through one adapter that applies a timeout, outbound
// pacing, a circuit breaker and retry with backoff, then normalises every
// failure shape into *FetchError.
package retroapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"retroprofile-api/internal/config"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/metrics"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://retroachievements.org/API"
	// DefaultUserAgent identifies this service to the upstream API.
	DefaultUserAgent = "Mozilla/5.0 (compatible; RetroAchievements-Profile/1.0)"

	maxBodySize  = 32 << 20
	maxErrorBody = 64 << 10
)

// Client calls the RetroAchievements API.
type Client struct {
	baseURL       string
	apiKey        string
	userAgent     string
	http          *http.Client
	timeout       time.Duration
	retryAttempts int
	retryDelay    time.Duration
	limiter       *rate.Limiter
	breaker       *gobreaker.CircuitBreaker[[]byte]
	breakerName   string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the deadline for one call including its retries.
// Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRetry sets the attempt count and the initial backoff delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = delay
	}
}

// WithRateLimit paces outbound requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBreakerName sets the circuit breaker name used in logs and metrics.
func WithBreakerName(name string) Option {
	return func(c *Client) { c.breakerName = name }
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		apiKey:        apiKey,
		userAgent:     DefaultUserAgent,
		http:          &http.Client{},
		timeout:       10 * time.Second,
		retryAttempts: 3,
		retryDelay:    500 * time.Millisecond,
		breakerName:   "retroachievements-api",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryAttempts < 1 {
		c.retryAttempts = 1
	}
	c.breaker = newBreaker(c.breakerName)
	return c
}

// NewFromConfig creates a client from application configuration.
func NewFromConfig(cfg *config.RetroAchievementsConfig) *Client {
	return NewClient(cfg.APIKey,
		WithBaseURL(cfg.BaseURL),
		WithUserAgent(cfg.UserAgent),
		WithTimeout(cfg.Timeout),
		WithRetry(cfg.RetryAttempts, cfg.RetryDelay),
		WithRateLimit(cfg.RequestsPerSecond, cfg.RequestBurst),
	)
}

// BreakerState returns the circuit breaker state as a string.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// fetch performs req and decodes the body into T.
func fetch[T any](ctx context.Context, c *Client, req *apiRequest) (T, error) {
	var result T

	start := time.Now()
	body, err := c.getWithRetry(ctx, req)
	metrics.UpstreamDuration.WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(body, &result); err != nil {
		metrics.UpstreamRequests.WithLabelValues(req.endpoint, "decode_error").Inc()
		return result, &FetchError{Endpoint: req.endpoint, StatusCode: http.StatusOK, Reason: "malformed JSON response", Err: err}
	}

	metrics.UpstreamRequests.WithLabelValues(req.endpoint, "success").Inc()
	return result, nil
}

// getWithRetry retries transient failures with exponential backoff. The
// client timeout bounds the whole call, retries and backoff included.
func (c *Client) getWithRetry(ctx context.Context, req *apiRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	delay := c.retryDelay
	var lastErr error

	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		body, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, req)
		})
		if err == nil {
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequests.WithLabelValues(req.endpoint, "circuit_open").Inc()
			return nil, &FetchError{Endpoint: req.endpoint, Reason: "circuit breaker open", Err: err}
		}

		lastErr = err
		if !IsTransient(err) || attempt == c.retryAttempts {
			break
		}

		metrics.UpstreamRetries.WithLabelValues(req.endpoint).Inc()
		logging.Ctx(ctx).Debug().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("[RetroAPI] retrying")

		select {
		case <-ctx.Done():
			reason := "cancelled"
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = "timeout"
			}
			return nil, &FetchError{Endpoint: req.endpoint, Reason: reason, Err: ctx.Err()}
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, lastErr
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, req *apiRequest) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Endpoint: req.endpoint, Reason: "rate limiter wait", Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.buildURL(c.baseURL, c.apiKey), http.NoBody)
	if err != nil {
		return nil, &FetchError{Endpoint: req.endpoint, Reason: "create request failed", Err: err}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(req.endpoint, "transport_error").Inc()
		// url.Error embeds the request URL, which carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, &FetchError{
			Endpoint:  req.endpoint,
			Reason:    "request failed",
			Err:       err,
			transient: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(req.endpoint, "http_error").Inc()
		reason := readBodyForError(resp.Body)
		if msg := apiErrorMessage(reason); msg != "" {
			reason = []byte(msg)
		}
		return nil, &FetchError{
			Endpoint:   req.endpoint,
			StatusCode: resp.StatusCode,
			Reason:     string(reason),
			transient:  transientStatus(resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(req.endpoint, "transport_error").Inc()
		return nil, &FetchError{Endpoint: req.endpoint, Reason: "read body failed", Err: err, transient: ctx.Err() == nil}
	}

	if msg := apiErrorMessage(body); msg != "" {
		metrics.UpstreamRequests.WithLabelValues(req.endpoint, "api_error").Inc()
		return nil, &FetchError{Endpoint: req.endpoint, StatusCode: resp.StatusCode, Reason: msg}
	}

	return body, nil
}

func readBodyForError(body io.Reader) []byte {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return []byte(fmt.Sprintf("(failed to read body: %v)", err))
	}
	return bytes.TrimSpace(data)
}

// apiErrorMessage extracts the Error field from a JSON object body.
func apiErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var envelope struct {
		Error any `json:"Error"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return ""
	}
	switch v := envelope.Error.(type) {
	case string:
		if v != "" {
			return v
		}
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return ""
}
