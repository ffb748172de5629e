// Package session owns the in-memory access token and coordinates token refresh.
//
// The access token is held only in process memory and is never persisted.
// When any request is rejected with 401, callers go through Refresh: at most
// one refresh call is in flight at a time, and every caller that arrives
// while it is pending waits for that single outcome.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"tasktracker/internal/service"
)

// ErrSessionExpired is returned to every caller of a refresh that failed.
var ErrSessionExpired = errors.New("session expired")

// ErrRefreshUnavailable marks a refresh failure that says nothing about the
// credential, such as an unreachable server. The session is kept.
var ErrRefreshUnavailable = errors.New("refresh unavailable")

// errRefreshAborted is reported to waiters if the refresher never returned.
var errRefreshAborted = errors.New("refresh aborted")

// Grant is what a successful login or refresh yields.
type Grant struct {
	Token string
	User  service.User
}

// Refresher mints a new access token from the out-of-band refresh credential.
type Refresher interface {
	Refresh(ctx context.Context) (Grant, error)
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context) (Grant, error)

func (f RefresherFunc) Refresh(ctx context.Context) (Grant, error) { return f(ctx) }

// EventKind identifies a session change.
type EventKind int

const (
	EventLoggedIn EventKind = iota + 1
	EventRefreshed
	EventExpired
	EventLoggedOut
)

func (k EventKind) String() string {
	switch k {
	case EventLoggedIn:
		return "logged_in"
	case EventRefreshed:
		return "refreshed"
	case EventExpired:
		return "expired"
	case EventLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// Event is delivered to listeners after the session changed.
// Token and User are set for EventLoggedIn and EventRefreshed; Err is set
// for EventExpired.
type Event struct {
	Kind  EventKind
	Token string
	User  *service.User
	Err   error
}

// Listener receives session events. It is called outside the
// Coordinator's lock and must not block for long.
type Listener func(Event)

// State is a snapshot of the session.
//
// LastUser is the most recent user known to this device, whether or not the
// session is still valid. It is for display only.
type State struct {
	AccessToken     string
	User            *service.User
	LastUser        *service.User
	IsAuthenticated bool
	Loading         bool
	RestoreErr      error
}

type outcome struct {
	token string
	err   error
}

type subscription struct {
	id int
	fn Listener
}

// Coordinator is the single owner of the access token.
type Coordinator struct {
	refresher Refresher
	logger    *slog.Logger

	mu         sync.Mutex
	token      *oauth2.Token
	user       *service.User
	lastUser   *service.User
	restoring  bool
	restoreErr error
	refreshing bool
	pending    []chan outcome
	listeners  []subscription
	nextID     int

	loadOnce sync.Once
	loaded   chan struct{}
}

// NewCoordinator creates an empty, loading session.
func NewCoordinator(refresher Refresher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{
		refresher: refresher,
		logger:    logger.With("component", "session"),
		loaded:    make(chan struct{}),
	}
}

// State returns a snapshot of the session.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{Loading: !c.isLoaded()}
	if c.token != nil {
		st.AccessToken = c.token.AccessToken
		st.IsAuthenticated = true
	}
	if c.user != nil {
		u := *c.user
		st.User = &u
	}
	if c.lastUser != nil {
		u := *c.lastUser
		st.LastUser = &u
	}
	st.RestoreErr = c.restoreErr
	return st
}

// Remember records the user of a stored session for display before the
// session has been restored. It grants nothing.
func (c *Coordinator) Remember(u *service.User) {
	if u == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	user := *u
	c.lastUser = &user
}

// Token returns the current access token, or "" when anonymous.
func (c *Coordinator) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil {
		return ""
	}
	return c.token.AccessToken
}

// ExpiresAt returns the access token's expiry, if it carries one.
// The value is informational; the server remains the authority.
func (c *Coordinator) ExpiresAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == nil || c.token.Expiry.IsZero() {
		return nil
	}
	exp := c.token.Expiry
	return &exp
}

// AttachAuth sets the bearer Authorization header when a token is held.
// Without a token the request is sent unauthenticated.
func (c *Coordinator) AttachAuth(req *http.Request) {
	c.mu.Lock()
	tok := c.token
	c.mu.Unlock()
	if tok != nil {
		tok.SetAuthHeader(req)
	}
}

// Subscribe registers l for session events and returns a function that
// removes it.
func (c *Coordinator) Subscribe(l Listener) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscription{id: id, fn: l})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.listeners {
			if s.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Establish installs the grant from an interactive login.
func (c *Coordinator) Establish(g Grant) {
	c.mu.Lock()
	c.setLocked(g)
	ls := c.snapshotListeners()
	c.mu.Unlock()

	c.releaseLoading()
	c.logger.Debug("session established", "user_id", g.User.ID)
	user := g.User
	c.emit(ls, Event{Kind: EventLoggedIn, Token: g.Token, User: &user})
}

// Refresh obtains a new access token. If a refresh is already in flight the
// caller waits for its outcome instead of starting another one.
//
// When the refresher fails with ErrRefreshUnavailable or a context error the
// session is left as it was and every waiter receives that error. Any other
// failure clears the session and every waiter receives an error wrapping
// ErrSessionExpired.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		ch := make(chan outcome, 1)
		c.pending = append(c.pending, ch)
		c.mu.Unlock()
		c.logger.Debug("waiting for in-flight refresh")

		select {
		case o := <-ch:
			return o.token, o.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	var (
		g   Grant
		err = errRefreshAborted
	)
	// complete runs on every path, clearing the in-flight flag and
	// answering the queue in the same critical section.
	defer func() {
		c.complete(g, err)
	}()

	c.logger.Debug("refreshing access token")
	g, err = c.refresher.Refresh(ctx)
	if err != nil {
		if !transient(err) {
			err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		return "", err
	}
	return g.Token, nil
}

// transient reports whether a refresh failure leaves the credential's
// validity unknown.
func transient(err error) bool {
	return errors.Is(err, ErrRefreshUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (c *Coordinator) complete(g Grant, err error) {
	keep := err != nil && transient(err)

	c.mu.Lock()
	waiters := c.pending
	c.pending = nil
	c.refreshing = false
	switch {
	case err == nil:
		c.setLocked(g)
	case !keep:
		c.token = nil
		c.user = nil
	}
	ls := c.snapshotListeners()
	c.mu.Unlock()

	var o outcome
	var ev *Event
	switch {
	case err == nil:
		o = outcome{token: g.Token}
		user := g.User
		ev = &Event{Kind: EventRefreshed, Token: g.Token, User: &user}
		c.logger.Debug("refresh succeeded", "queued", len(waiters))
	case keep:
		o = outcome{err: err}
		c.logger.Debug("refresh did not complete; session kept", "queued", len(waiters), "error", err)
	default:
		o = outcome{err: err}
		ev = &Event{Kind: EventExpired, Err: err}
		c.logger.Debug("refresh failed", "queued", len(waiters), "error", err)
	}

	for _, ch := range waiters {
		ch <- o
	}
	if ev != nil {
		c.emit(ls, *ev)
	}
}

// SilentRefresh tries once to restore the session at startup. A rejected
// credential leaves the session anonymous. A failure that does not decide
// the question is kept as State.RestoreErr. The loading gate is released
// either way.
func (c *Coordinator) SilentRefresh(ctx context.Context) {
	c.mu.Lock()
	c.restoring = true
	c.mu.Unlock()
	defer c.releaseLoading()

	_, err := c.Refresh(ctx)
	if err == nil {
		return
	}
	c.logger.Debug("silent refresh did not restore a session", "error", err)
	if transient(err) {
		c.mu.Lock()
		c.restoreErr = err
		c.mu.Unlock()
	}
}

// Loaded is closed once the startup session check has finished.
func (c *Coordinator) Loaded() <-chan struct{} {
	return c.loaded
}

// Wait blocks until the loading gate is released or ctx is done. If no
// startup check was ever started there is nothing to wait for.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	restoring := c.restoring
	c.mu.Unlock()
	if !restoring {
		return nil
	}
	select {
	case <-c.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Logout asks the server to revoke the refresh credential and then clears
// the local session unconditionally. A failed revoke is only logged.
func (c *Coordinator) Logout(ctx context.Context, revoke func(context.Context) error) {
	if revoke != nil {
		if err := revoke(ctx); err != nil {
			c.logger.Warn("server-side logout failed; clearing local session anyway", "error", err)
		}
	}

	c.mu.Lock()
	c.token = nil
	c.user = nil
	c.lastUser = nil
	c.restoreErr = nil
	ls := c.snapshotListeners()
	c.mu.Unlock()

	c.releaseLoading()
	c.emit(ls, Event{Kind: EventLoggedOut})
}

// Pending reports how many callers are queued behind an in-flight refresh.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Coordinator) setLocked(g Grant) {
	c.token = &oauth2.Token{
		AccessToken: g.Token,
		TokenType:   "Bearer",
		Expiry:      tokenExpiry(g.Token),
	}
	user := g.User
	c.user = &user
	last := g.User
	c.lastUser = &last
	c.restoreErr = nil
}

func (c *Coordinator) snapshotListeners() []Listener {
	ls := make([]Listener, len(c.listeners))
	for i, s := range c.listeners {
		ls[i] = s.fn
	}
	return ls
}

func (c *Coordinator) emit(ls []Listener, ev Event) {
	for _, l := range ls {
		l(ev)
	}
}

func (c *Coordinator) releaseLoading() {
	c.loadOnce.Do(func() { close(c.loaded) })
}

func (c *Coordinator) isLoaded() bool {
	select {
	case <-c.loaded:
		return true
	default:
		return false
	}
}

// tokenExpiry reads the exp claim without verifying the signature.
// Opaque tokens have no expiry.
func tokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
