package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tasktracker/internal/service"
	"tasktracker/internal/session"
)

// RefreshCookie is the name of the refresh credential cookie set by the server.
const RefreshCookie = "refreshToken"

// ErrNoCredential means no refresh credential is held, so refresh is not attempted.
var ErrNoCredential = errors.New("no refresh credential")

type authResponse struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	UserID int64  `json:"userId"`
}

func (r authResponse) grant() session.Grant {
	return session.Grant{
		Token: r.Token,
		User:  service.User{ID: r.UserID, Email: r.Email},
	}
}

// Restore implements service.Service.
func (c *Client) Restore(ctx context.Context) {
	c.session.SilentRefresh(ctx)
}

// Session implements service.Service. Without a prior Restore it reports
// the current state at once.
func (c *Client) Session(ctx context.Context) (service.SessionInfo, error) {
	if err := c.session.Wait(ctx); err != nil {
		return service.SessionInfo{}, err
	}
	st := c.session.State()
	info := service.SessionInfo{
		User:          st.User,
		LastUser:      st.LastUser,
		Authenticated: st.IsAuthenticated,
		ExpiresAt:     c.session.ExpiresAt(),
	}
	if !st.IsAuthenticated && st.RestoreErr != nil {
		return info, st.RestoreErr
	}
	return info, nil
}

// OnSessionEnd implements service.SessionWatcher.
func (c *Client) OnSessionEnd(fn func(expired bool)) func() {
	return c.session.Subscribe(func(ev session.Event) {
		switch ev.Kind {
		case session.EventExpired:
			fn(true)
		case session.EventLoggedOut:
			fn(false)
		}
	})
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, creds service.Credentials) (service.User, error) {
	if err := creds.Validate(); err != nil {
		return service.User{}, err
	}
	var resp authResponse
	err := c.do(ctx, call{method: http.MethodPost, path: "auth/login", body: creds}, &resp)
	if err != nil {
		return service.User{}, err
	}
	g := resp.grant()
	c.session.Establish(g)
	return g.User, nil
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, creds service.Credentials) (service.User, error) {
	if err := creds.Validate(); err != nil {
		return service.User{}, err
	}
	var user service.User
	err := c.do(ctx, call{method: http.MethodPost, path: "auth/register", body: creds}, &user)
	return user, err
}

// Logout implements service.Service. The local session is always cleared.
func (c *Client) Logout(ctx context.Context) error {
	c.session.Logout(ctx, func(ctx context.Context) error {
		return c.send(ctx, call{method: http.MethodPost, path: "auth/logout"}, nil)
	})
	return nil
}

// refresh calls the refresh endpoint directly, bypassing the 401 handling.
// The credential travels as a cookie from the jar, not as a bearer token.
// Only a 401 or 403 proves the credential dead; other failures are reported
// as session.ErrRefreshUnavailable.
func (c *Client) refresh(ctx context.Context) (session.Grant, error) {
	if c.refreshCredential() == "" {
		return session.Grant{}, ErrNoCredential
	}
	var resp authResponse
	err := c.send(ctx, call{method: http.MethodPost, path: "auth/refresh", body: struct{}{}, anonymous: true}, &resp)
	if err != nil {
		if rejected(err) || ctx.Err() != nil {
			return session.Grant{}, err
		}
		return session.Grant{}, fmt.Errorf("%w: %w", session.ErrRefreshUnavailable, err)
	}
	return resp.grant(), nil
}

func rejected(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}
