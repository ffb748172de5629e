package api

import (
	"net/http"
	"net/url"

	"tasktracker/internal/session"
)

func (c *Client) authURL() *url.URL {
	return c.base.JoinPath("auth")
}

// refreshCredential returns the refresh cookie currently in the jar.
func (c *Client) refreshCredential() string {
	for _, ck := range c.jar.Cookies(c.base.JoinPath("auth", "refresh")) {
		if ck.Name == RefreshCookie {
			return ck.Value
		}
	}
	return ""
}

// loadCredential seeds the jar with the stored refresh cookie and remembers
// the stored user for display.
func (c *Client) loadCredential() error {
	if c.store == nil {
		return nil
	}
	rec, err := c.store.Load()
	if err != nil {
		return err
	}
	c.session.Remember(rec.User)
	if rec.RefreshToken == "" {
		return nil
	}
	u := c.authURL()
	c.jar.SetCookies(u, []*http.Cookie{{
		Name:     RefreshCookie,
		Value:    rec.RefreshToken,
		Path:     u.Path,
		HttpOnly: true,
	}})
	return nil
}

// dropCredential removes the refresh cookie from the jar.
func (c *Client) dropCredential() {
	u := c.authURL()
	c.jar.SetCookies(u, []*http.Cookie{{
		Name:   RefreshCookie,
		Path:   u.Path,
		MaxAge: -1,
	}})
}

// persist keeps the store in step with the session. The jar is the source of
// truth for the refresh credential: the server rotates it on refresh and
// clears it on logout.
func (c *Client) persist(ev session.Event) {
	if ev.Kind == session.EventLoggedOut {
		c.dropCredential()
	}
	if c.store == nil {
		return
	}

	rec := session.Record{RefreshToken: c.refreshCredential()}
	switch ev.Kind {
	case session.EventLoggedIn, session.EventRefreshed:
		rec.User = ev.User
	}

	var err error
	if rec.RefreshToken == "" && rec.User == nil {
		err = c.store.Clear()
	} else {
		err = c.store.Save(rec)
	}
	if err != nil {
		c.logger.Warn("could not persist session", "event", ev.Kind.String(), "error", err)
	}
}
