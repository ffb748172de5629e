package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/service"
)

// blockingRefresher counts calls and holds each call until released.
type blockingRefresher struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
	grant   Grant
	err     error
}

func newBlockingRefresher(g Grant, err error) *blockingRefresher {
	return &blockingRefresher{
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
		grant:   g,
		err:     err,
	}
}

func (r *blockingRefresher) Refresh(ctx context.Context) (Grant, error) {
	r.calls.Add(1)
	r.entered <- struct{}{}
	<-r.release
	return r.grant, r.err
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) listen(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func TestAttachAuth(t *testing.T) {
	c := NewCoordinator(nil, nil)

	req, _ := http.NewRequest(http.MethodGet, "http://example.test/tasks/1", nil)
	c.AttachAuth(req)
	assert.Empty(t, req.Header.Get("Authorization"), "anonymous requests go out without a header")

	c.Establish(Grant{Token: "abc", User: service.User{ID: 1, Email: "a@b.c"}})
	c.AttachAuth(req)
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
}

func TestRefresh_ConcurrentCallersShareOneRefresh(t *testing.T) {
	const callers = 8

	r := newBlockingRefresher(Grant{Token: "fresh", User: service.User{ID: 9, Email: "x@y.z"}}, nil)
	c := NewCoordinator(r, nil)
	var log eventLog
	c.Subscribe(log.listen)

	type result struct {
		token string
		err   error
	}
	results := make(chan result, callers)
	call := func() {
		tok, err := c.Refresh(context.Background())
		results <- result{tok, err}
	}

	go call()
	<-r.entered

	for i := 1; i < callers; i++ {
		go call()
	}
	require.Eventually(t, func() bool { return c.Pending() == callers-1 },
		2*time.Second, time.Millisecond)

	close(r.release)

	for i := 0; i < callers; i++ {
		res := <-results
		require.NoError(t, res.err)
		assert.Equal(t, "fresh", res.token)
	}
	assert.Equal(t, int32(1), r.calls.Load(), "exactly one refresh call")
	assert.Equal(t, "fresh", c.Token())
	assert.Equal(t, []EventKind{EventRefreshed}, log.kinds())

	st := c.State()
	assert.True(t, st.IsAuthenticated)
	require.NotNil(t, st.User)
	assert.Equal(t, int64(9), st.User.ID)
}

func TestRefresh_FailureRejectsEveryWaiterAndClearsToken(t *testing.T) {
	const callers = 5
	refreshErr := errors.New("refresh rejected: 401")

	r := newBlockingRefresher(Grant{}, refreshErr)
	c := NewCoordinator(r, nil)
	c.Establish(Grant{Token: "stale", User: service.User{ID: 1}})
	var log eventLog
	c.Subscribe(log.listen)

	errs := make(chan error, callers)
	call := func() {
		_, err := c.Refresh(context.Background())
		errs <- err
	}

	go call()
	<-r.entered
	for i := 1; i < callers; i++ {
		go call()
	}
	require.Eventually(t, func() bool { return c.Pending() == callers-1 },
		2*time.Second, time.Millisecond)
	close(r.release)

	for i := 0; i < callers; i++ {
		err := <-errs
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.ErrorIs(t, err, refreshErr)
	}
	assert.Equal(t, int32(1), r.calls.Load())
	assert.Empty(t, c.Token())
	assert.Nil(t, c.State().User)
	assert.Equal(t, []EventKind{EventExpired}, log.kinds())
}

func TestRefresh_InFlightFlagClearedAfterFailure(t *testing.T) {
	var calls atomic.Int32
	c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
		if calls.Add(1) == 1 {
			return Grant{}, errors.New("boom")
		}
		return Grant{Token: "second"}, nil
	}), nil)

	_, err := c.Refresh(context.Background())
	require.Error(t, err)

	tok, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", tok)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRefresh_WaiterHonoursContext(t *testing.T) {
	r := newBlockingRefresher(Grant{Token: "t"}, nil)
	c := NewCoordinator(r, nil)

	go c.Refresh(context.Background())
	<-r.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(r.release)
	require.Eventually(t, func() bool { return c.Token() == "t" }, time.Second, time.Millisecond)
}

func TestRefresh_CancelledLeaderKeepsSession(t *testing.T) {
	entered := make(chan struct{}, 1)
	c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
		entered <- struct{}{}
		<-ctx.Done()
		return Grant{}, ctx.Err()
	}), nil)
	c.Establish(Grant{Token: "stale", User: service.User{ID: 1, Email: "a@b.c"}})
	var log eventLog
	c.Subscribe(log.listen)

	ctx, cancel := context.WithCancel(context.Background())
	leader := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctx)
		leader <- err
	}()
	<-entered

	waiter := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background())
		waiter <- err
	}()
	require.Eventually(t, func() bool { return c.Pending() == 1 }, 2*time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-leader, context.Canceled)
	werr := <-waiter
	assert.ErrorIs(t, werr, context.Canceled, "the waiter is answered")
	assert.NotErrorIs(t, werr, ErrSessionExpired)

	assert.Equal(t, "stale", c.Token())
	assert.True(t, c.State().IsAuthenticated)
	assert.Equal(t, []EventKind{EventLoggedIn}, log.kinds(), "no expiry event")
}

func TestRefresh_UnavailableKeepsSession(t *testing.T) {
	down := fmt.Errorf("%w: connection refused", ErrRefreshUnavailable)
	c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
		return Grant{}, down
	}), nil)
	c.Establish(Grant{Token: "tok", User: service.User{ID: 1}})
	var log eventLog
	c.Subscribe(log.listen)

	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrRefreshUnavailable)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "tok", c.Token())
	assert.Empty(t, log.kinds())
}

func TestSilentRefresh_UnavailableIsRecorded(t *testing.T) {
	c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
		return Grant{}, fmt.Errorf("%w: connection refused", ErrRefreshUnavailable)
	}), nil)
	c.Remember(&service.User{ID: 7, Email: "ada@example.com"})
	var log eventLog
	c.Subscribe(log.listen)

	c.SilentRefresh(context.Background())

	st := c.State()
	assert.False(t, st.Loading)
	assert.False(t, st.IsAuthenticated)
	assert.ErrorIs(t, st.RestoreErr, ErrRefreshUnavailable)
	require.NotNil(t, st.LastUser)
	assert.Equal(t, "ada@example.com", st.LastUser.Email)
	assert.Empty(t, log.kinds())
}

func TestRemember(t *testing.T) {
	c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
		return Grant{}, errors.New("401")
	}), nil)
	c.Remember(&service.User{ID: 7, Email: "ada@example.com"})

	st := c.State()
	assert.True(t, st.Loading)
	assert.Nil(t, st.User, "a remembered user is not signed in")
	require.NotNil(t, st.LastUser)
	assert.Equal(t, "ada@example.com", st.LastUser.Email)

	c.SilentRefresh(context.Background())
	st = c.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.RestoreErr)
	require.NotNil(t, st.LastUser, "kept for display after expiry")

	c.Logout(context.Background(), nil)
	assert.Nil(t, c.State().LastUser)
}

func TestWait_WithoutRestoreReturns(t *testing.T) {
	c := NewCoordinator(nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, c.Wait(ctx))
}

func TestWait_BlocksWhileRestoring(t *testing.T) {
	r := newBlockingRefresher(Grant{Token: "tok"}, nil)
	c := NewCoordinator(r, nil)

	go c.SilentRefresh(context.Background())
	<-r.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	close(r.release)
	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, "tok", c.Token())
}

func TestSilentRefresh_ReleasesLoadingGate(t *testing.T) {
	t.Run("failure leaves session anonymous", func(t *testing.T) {
		c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
			return Grant{}, errors.New("no refresh credential")
		}), nil)
		assert.True(t, c.State().Loading)

		c.SilentRefresh(context.Background())

		select {
		case <-c.Loaded():
		default:
			t.Fatal("loading gate not released")
		}
		st := c.State()
		assert.False(t, st.Loading)
		assert.False(t, st.IsAuthenticated)
	})

	t.Run("success populates session", func(t *testing.T) {
		c := NewCoordinator(RefresherFunc(func(ctx context.Context) (Grant, error) {
			return Grant{Token: "tok", User: service.User{ID: 3, Email: "u@x.io"}}, nil
		}), nil)

		c.SilentRefresh(context.Background())
		require.NoError(t, c.Wait(context.Background()))

		st := c.State()
		assert.True(t, st.IsAuthenticated)
		assert.Equal(t, "u@x.io", st.User.Email)
	})
}

func TestLogout_ClearsEvenWhenRevokeFails(t *testing.T) {
	c := NewCoordinator(nil, nil)
	c.Establish(Grant{Token: "tok", User: service.User{ID: 1}})
	var log eventLog
	c.Subscribe(log.listen)

	revoked := false
	c.Logout(context.Background(), func(ctx context.Context) error {
		revoked = true
		return errors.New("network down")
	})

	assert.True(t, revoked)
	assert.Empty(t, c.Token())
	assert.False(t, c.State().IsAuthenticated)
	assert.Equal(t, []EventKind{EventLoggedOut}, log.kinds())
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := NewCoordinator(nil, nil)
	var first, second eventLog
	unsub := c.Subscribe(first.listen)
	c.Subscribe(second.listen)

	c.Establish(Grant{Token: "a"})
	unsub()
	c.Logout(context.Background(), nil)

	assert.Equal(t, []EventKind{EventLoggedIn}, first.kinds())
	assert.Equal(t, []EventKind{EventLoggedIn, EventLoggedOut}, second.kinds())
}

func TestExpiresAt_FromJWT(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u@x.io",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	c := NewCoordinator(nil, nil)
	c.Establish(Grant{Token: raw})

	got := c.ExpiresAt()
	require.NotNil(t, got)
	assert.True(t, got.Equal(exp))

	c.Establish(Grant{Token: "opaque"})
	assert.Nil(t, c.ExpiresAt())
}
