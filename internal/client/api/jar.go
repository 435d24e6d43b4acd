package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/dmitrijs2005/gophfeed/internal/client/repositories/cookies"
	"github.com/dmitrijs2005/gophfeed/internal/logging"
	"golang.org/x/net/publicsuffix"
)

// PersistentJar is an http.CookieJar that mirrors the cookies of a single
// origin into the local database, so they outlive the process the way
// browser cookies outlive a page reload.
//
// Loopback hosts (127.0.0.0/8, ::1, localhost) count as secure contexts, as
// they do in browsers: Secure cookies set by a local http server are sent
// back to it. The rule applies the same way to cookies received in this
// process and to cookies reloaded from the database.
type PersistentJar struct {
	mu     sync.Mutex
	jar    *cookiejar.Jar
	origin *url.URL
	repo   cookies.Repository
	log    logging.Logger
	now    func() time.Time
}

var _ http.CookieJar = (*PersistentJar)(nil)

// NewPersistentJar builds the jar for origin and loads any unexpired cookies
// saved by a previous run.
func NewPersistentJar(ctx context.Context, origin string, repo cookies.Repository, log logging.Logger) (*PersistentJar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}

	j := &PersistentJar{jar: jar, origin: u, repo: repo, log: log, now: time.Now}
	if err := j.load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *PersistentJar) load(ctx context.Context) error {
	stored, err := j.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}

	now := j.now()
	var live []*http.Cookie
	for _, c := range stored {
		if c.Expired(now) {
			if err := j.repo.Delete(ctx, c.Name); err != nil {
				j.log.Warn(ctx, "failed to drop expired cookie", "name", c.Name, "err", err)
			}
			continue
		}
		live = append(live, &http.Cookie{
			Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.ExpiresAt,
			Secure: c.Secure, HttpOnly: c.HttpOnly, SameSite: c.SameSite,
		})
	}
	if len(live) > 0 {
		j.jar.SetCookies(secureContext(j.origin), live)
	}
	return nil
}

// secureContext returns u with an https scheme when u is plain http to a
// loopback host, so the inner jar treats it as a secure origin.
func secureContext(u *url.URL) *url.URL {
	if u.Scheme != "http" || !isLoopback(u.Hostname()) {
		return u
	}
	c := *u
	c.Scheme = "https"
	return &c
}

func isLoopback(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(secureContext(u))
}

// SetCookies stores cookies in memory and, for the jar's origin, in the
// database. A cookie with MaxAge < 0 or an expiry in the past is removed.
func (j *PersistentJar) SetCookies(u *url.URL, cs []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(secureContext(u), cs)
	if u.Host != j.origin.Host {
		return
	}

	ctx := context.Background()
	now := j.now()
	for _, c := range cs {
		m := models.Cookie{
			Name: c.Name, Value: c.Value, Path: c.Path,
			Secure: c.Secure, HttpOnly: c.HttpOnly, SameSite: c.SameSite,
		}
		switch {
		case c.MaxAge > 0:
			m.ExpiresAt = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			m.ExpiresAt = c.Expires
		}

		if c.MaxAge < 0 || m.Expired(now) {
			if err := j.repo.Delete(ctx, c.Name); err != nil {
				j.log.Warn(ctx, "failed to delete cookie", "name", c.Name, "err", err)
			}
			continue
		}
		if err := j.repo.Upsert(ctx, m); err != nil {
			j.log.Warn(ctx, "failed to persist cookie", "name", c.Name, "err", err)
		}
	}
}
