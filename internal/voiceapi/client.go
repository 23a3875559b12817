package voiceapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/credentials"
	"github.com/voicedesk/callwatch/internal/metrics"
)

// Client talks to the Voice AI backend HTTP API. Every call performs exactly
// one network attempt; retries belong to the caller.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	creds     *credentials.Store
	userAgent string
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

const (
	defaultBaseURL   = "http://localhost:5001"
	defaultUserAgent = "callwatch/0.1"
	requestTimeout   = 10 * time.Second
	maxBodyBytes     = 8 << 20
)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records every request on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = rec }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient builds a Client for baseURL that authenticates with whatever
// creds holds at the moment each request is built.
func NewClient(baseURL string, creds *credentials.Store, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		creds = &credentials.Store{}
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		creds:     creds,
		userAgent: defaultUserAgent,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend address.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Credentials returns the store the client reads on every request.
func (c *Client) Credentials() *credentials.Store {
	return c.creds
}

// Do executes ep and decodes a successful JSON body into dest. A nil dest
// discards the body. Failures of the exchange itself are *Error; a request
// that cannot be built (nil client, unencodable body) fails with a plain
// error before anything is sent, as do the argument checks of the typed
// operations.
func (c *Client) Do(ctx context.Context, ep Endpoint, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	req, err := c.newRequest(ctx, ep)
	if err != nil {
		return err
	}

	start := time.Now()
	err = c.exchange(req, dest)
	c.observe(ep, req, start, err)
	return err
}

// Fetch executes ep and decodes the response as T.
func Fetch[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	var out T
	if err := c.Do(ctx, ep, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, ep Endpoint) (*http.Request, error) {
	var body io.Reader
	if ep.Body != nil {
		payload, err := json.Marshal(ep.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	reqURL := c.baseURL.ResolveReference(ep.relURL())
	req, err := http.NewRequestWithContext(ctx, ep.method(), reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authorization(ctx))
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

type credentialsKey struct{}

// ContextWithCredentials returns a context whose requests authenticate with
// creds instead of the client's store. It lets a candidate pair be checked
// without publishing it to every other request.
func ContextWithCredentials(ctx context.Context, creds credentials.Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

func (c *Client) authorization(ctx context.Context) string {
	if override, ok := ctx.Value(credentialsKey{}).(credentials.Credentials); ok {
		return credentials.Header(override)
	}
	return c.creds.BasicAuth()
}

func (c *Client) exchange(req *http.Request, dest any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return networkError(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return requestError(resp.StatusCode, body)
	}
	if dest == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return parseError(errors.New("empty response body"))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return parseError(err)
	}
	if v, ok := dest.(Validator); ok {
		if err := v.Validate(); err != nil {
			return parseError(err)
		}
	}
	return nil
}

func (c *Client) observe(ep Endpoint, req *http.Request, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = kindOf(err).String()
	}
	c.metrics.ObserveRequest(ep.label(), req.Method, outcome, elapsed)

	fields := []zap.Field{
		zap.String("endpoint", ep.label()),
		zap.String("method", req.Method),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status > 0 {
			fields = append(fields, zap.Int("status", apiErr.Status))
		}
		c.logger.Warn("voiceapi."+outcome, append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("voiceapi.request_ok", fields...)
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
