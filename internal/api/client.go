// Package api implements service.Service against the Task Tracker REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

const (
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 8 << 20
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api/v1.
	BaseURL string

	// HTTPClient is cloned; its Jar is replaced with the client's own.
	HTTPClient *http.Client

	// Store persists the refresh credential and user between processes.
	// Nil keeps everything in memory.
	Store session.Store

	Logger *slog.Logger
}

// Client implements service.Service over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     http.CookieJar
	store   session.Store
	session *session.Coordinator
	logger  *slog.Logger
}

var (
	_ service.Service        = (*Client)(nil)
	_ service.SessionWatcher = (*Client)(nil)
)

// New creates a client and seeds its cookie jar from the store.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url: %s", opts.BaseURL)
	}
	if base.Path == "" {
		base.Path = "/"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	hc := &http.Client{Timeout: DefaultTimeout}
	if opts.HTTPClient != nil {
		clone := *opts.HTTPClient
		hc = &clone
	}
	hc.Jar = jar

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		base:   base,
		http:   hc,
		jar:    jar,
		store:  opts.Store,
		logger: logger.With("component", "api"),
	}
	c.session = session.NewCoordinator(session.RefresherFunc(c.refresh), logger)
	c.session.Subscribe(c.persist)

	if err := c.loadCredential(); err != nil {
		c.logger.Warn("ignoring stored session", "error", err)
	}
	return c, nil
}

// Coordinator exposes the session coordinator, e.g. to subscribe to events.
func (c *Client) Coordinator() *session.Coordinator {
	return c.session
}

// Error is a non-2xx response from the API.
type Error struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s /%s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets callers test API errors against the service sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case service.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case service.ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case service.ErrRejected:
		switch e.StatusCode {
		case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
			return true
		}
	}
	return false
}

// envelope is the wrapper around every API response.
type envelope struct {
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
}

// call describes one logical request. attempt counts re-issues so a request
// is retried after a refresh at most once. anonymous requests never carry
// the access token.
type call struct {
	method    string
	path      string
	query     url.Values
	body      any
	token     string
	attempt   int
	anonymous bool
}

// Paths that never trigger a refresh on 401.
var noRefreshPaths = []string{"auth/login", "auth/register", "auth/refresh"}

func (cl call) refreshable() bool {
	if cl.attempt > 0 {
		return false
	}
	for _, p := range noRefreshPaths {
		if strings.HasPrefix(cl.path, p) {
			return false
		}
	}
	return true
}

// do sends cl and, on a 401 from a refreshable path, refreshes the session
// through the coordinator and re-issues the request once with the new token.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	err := c.send(ctx, cl, out)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || !cl.refreshable() {
		return err
	}

	token, rerr := c.session.Refresh(ctx)
	if rerr != nil {
		if !errors.Is(rerr, session.ErrSessionExpired) {
			return rerr
		}
		return fmt.Errorf("%w (%w)", rerr, err)
	}

	retry := cl
	retry.attempt++
	retry.token = token
	return c.send(ctx, retry, out)
}

// send performs a single HTTP exchange and decodes the envelope into out.
func (c *Client) send(ctx context.Context, cl call, out any) error {
	u := c.base.JoinPath(cl.path)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	switch {
	case cl.anonymous:
	case cl.token != "":
		req.Header.Set("Authorization", "Bearer "+cl.token)
	default:
		c.session.AttachAuth(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s /%s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"attempt", cl.attempt,
		"request_id", reqID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s /%s: read response: %w", cl.method, cl.path, err)
	}

	var (
		env       envelope
		decodeErr error
	)
	if len(bytes.TrimSpace(data)) > 0 {
		decodeErr = json.Unmarshal(data, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Method:     cl.method,
			Path:       cl.path,
		}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s /%s: decode response: %w", cl.method, cl.path, decodeErr)
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s /%s: decode data: %w", cl.method, cl.path, err)
	}
	return nil
}
