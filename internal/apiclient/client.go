// Package apiclient is the HTTP client every backend call goes through. It attaches the
// stored bearer token, turns session-level 401/403 responses into a forced logout and
// retries a transient failure exactly once.
package apiclient

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

	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/domain"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/observability"
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/tokenstore"
	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultHealthTimeout = 10 * time.Second
	defaultRetryBackoff  = 2 * time.Second
	defaultLoginPath     = "/login"
	defaultUserAgent     = "hready-client/1.0"

	maxResponseBody = 1 << 20
)

// Navigator is the page host the client reports forced logouts to.
type Navigator interface {
	// CurrentPath is the location the user is on, e.g. "/dashboard".
	CurrentPath() string
	// RedirectToLogin performs a hard navigation to the login page.
	RedirectToLogin(ctx context.Context)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures a Client. A nil Store sends no bearer token.
type Options struct {
	BaseURL       string
	Store         tokenstore.Store
	Navigator     Navigator
	HTTPClient    *http.Client
	Timeout       time.Duration
	HealthTimeout time.Duration
	RetryBackoff  time.Duration
	LoginPath     string
	UserAgent     string
	Policy        *AuthFailurePolicy
	Logger        *zap.Logger
	Metrics       *observability.Metrics
	// Dispatcher receives EventForcedLogout; nil publishes nothing.
	Dispatcher events.Dispatcher
	// Sleep replaces the backoff timer; nil waits on a real timer.
	Sleep SleepFunc
}

// Client talks to the HReady backend API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	store         tokenstore.Store
	navigator     Navigator
	timeout       time.Duration
	healthTimeout time.Duration
	backoff       time.Duration
	loginPath     string
	userAgent     string
	policy        AuthFailurePolicy
	logger        *zap.Logger
	metrics       *observability.Metrics
	dispatcher    events.Dispatcher
	sleep         SleepFunc
}

// New validates opts and builds a Client.
func New(opts Options) (*Client, error) {
	base, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:       base,
		httpClient:    opts.HTTPClient,
		store:         opts.Store,
		navigator:     opts.Navigator,
		timeout:       opts.Timeout,
		healthTimeout: opts.HealthTimeout,
		backoff:       opts.RetryBackoff,
		loginPath:     opts.LoginPath,
		userAgent:     opts.UserAgent,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		dispatcher:    opts.Dispatcher,
		sleep:         opts.Sleep,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = defaultHealthTimeout
	}
	if c.backoff <= 0 {
		c.backoff = defaultRetryBackoff
	}
	if c.loginPath == "" {
		c.loginPath = defaultLoginPath
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if opts.Policy != nil {
		c.policy = *opts.Policy
	} else {
		c.policy = DefaultAuthFailurePolicy()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c, nil
}

// With returns a copy of c bound to another store and navigator. The portal uses it to
// scope one shared client to each browser session.
func (c *Client) With(store tokenstore.Store, nav Navigator) *Client {
	clone := *c
	clone.store = store
	clone.navigator = nav
	return &clone
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the token store the client reads the bearer token from.
func (c *Client) Store() tokenstore.Store {
	return c.store
}

// Request describes one logical API call.
type Request struct {
	Method string
	Path   string
	Body   any
	// Timeout bounds each attempt; zero uses the client default.
	Timeout time.Duration
}

// Do executes req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var payload []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", req.Path, err)
		}
		payload = encoded
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	resp, err := c.withRetry(ctx, req.Path, func(ctx context.Context) (*response, error) {
		return c.attempt(ctx, req.Method, req.Path, payload, timeout)
	})
	if err != nil {
		c.metrics.RecordClientRequest(req.Path, apperrors.CodeOf(err))
		return err
	}

	if resp.status < 200 || resp.status > 299 {
		err := c.handleFailure(ctx, req.Path, resp)
		c.metrics.RecordClientRequest(req.Path, apperrors.CodeOf(err))
		return err
	}
	c.metrics.RecordClientRequest(req.Path, "ok")

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return apperrors.NewBackendError(resp.status, fmt.Sprintf("decode response: %v", err), req.Path)
	}
	return nil
}

type response struct {
	status int
	body   []byte
}

// transportError marks a failure where no response was received.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, timeout time.Duration) (*response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.buildURL(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyBearer(ctx, req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &transportError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &transportError{err: err}
	}
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) applyBearer(ctx context.Context, req *http.Request) {
	if c.store == nil {
		return
	}
	rec, err := c.store.Read(ctx)
	if err != nil {
		c.logger.Warn("read token store", zap.Error(err))
		return
	}
	if rec.Token != "" {
		req.Header.Set("Authorization", "Bearer "+rec.Token)
	}
}

func (c *Client) handleFailure(ctx context.Context, path string, resp *response) error {
	message := extractMessage(resp.body)
	switch c.policy.Classify(resp.status, path, message) {
	case ClassAuth:
		c.metrics.RecordAuthRejection(string(ClassAuth))
		if !c.onLoginPage() {
			c.forceLogout(ctx, path, resp.status)
		}
		return apperrors.NewAuthRejected(resp.status, message, path)
	case ClassIrrelevant:
		c.metrics.RecordAuthRejection(string(ClassIrrelevant))
		return apperrors.NewAuthIrrelevant(resp.status, message, path)
	default:
		return apperrors.NewBackendError(resp.status, message, path)
	}
}

func (c *Client) onLoginPage() bool {
	if c.navigator == nil {
		return false
	}
	current := strings.TrimSuffix(c.navigator.CurrentPath(), "/")
	return current == strings.TrimSuffix(c.loginPath, "/")
}

func (c *Client) forceLogout(ctx context.Context, path string, status int) {
	c.logger.Info("session rejected by backend, forcing logout",
		zap.String("path", path),
		zap.Int("status", status),
	)
	var rec domain.Record
	if c.store != nil {
		cleanup := context.WithoutCancel(ctx)
		rec, _ = c.store.Read(cleanup)
		if err := c.store.Clear(cleanup); err != nil {
			c.logger.Error("clear token store", zap.Error(err))
		}
	}
	if c.dispatcher != nil {
		reason := fmt.Sprintf("%d from %s", status, path)
		event := events.NewEvent(events.EventForcedLogout, rec.UserID, domain.Role(rec.Role), reason)
		if err := c.dispatcher.Publish(ctx, event); err != nil {
			c.logger.Warn("publish forced logout", zap.Error(err))
		}
	}
	if c.navigator != nil {
		c.navigator.RedirectToLogin(ctx)
	}
}

func (c *Client) buildURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

func normalizeBaseURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("apiclient: base URL required")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("apiclient: invalid base URL: %w", err)
	}
	if u.Scheme == "" {
		return "", errors.New("apiclient: base URL missing scheme (http/https)")
	}
	if u.Host == "" {
		return "", errors.New("apiclient: base URL missing host")
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return strings.TrimSuffix(u.String(), "/"), nil
}

// extractMessage reads {"message": ...}, {"error": "..."} or {"error": {"message": ...}}.
func extractMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		if len(trimmed) > 512 {
			trimmed = trimmed[:512]
		}
		return string(trimmed)
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) > 0 {
		var flat string
		if err := json.Unmarshal(payload.Error, &flat); err == nil {
			return flat
		}
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(payload.Error, &nested); err == nil {
			return nested.Message
		}
	}
	return ""
}
