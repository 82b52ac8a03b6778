package dashsdk

import (
	"net/http"
	"net/url"
	"time"
)

const (
	// AccessTokenCookie holds the bearer token. It is readable by the
	// dashboard and by the edge gate.
	AccessTokenCookie = "accessToken"

	// RefreshTokenCookie is issued and rotated by the backend. The SDK never
	// sends it as a credential; the cookie jar presents it to GET /token.
	RefreshTokenCookie = "refreshToken"

	DefaultAccessTokenMaxAge = 15 * time.Minute
)

// CookieOptions controls how the access token cookie is written.
type CookieOptions struct {
	// MaxAge is the cookie lifetime. Zero or negative writes a session cookie.
	MaxAge   time.Duration
	SameSite http.SameSite
	Secure   bool
}

// DefaultCookieOptions returns a 15 minute, SameSite=Strict cookie.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		MaxAge:   DefaultAccessTokenMaxAge,
		SameSite: http.SameSiteStrictMode,
	}
}

// TokenStore reads and writes the current access token. Absence is a value,
// not an error, and Clear on an empty store is a no-op.
type TokenStore interface {
	Get() (string, bool)
	Set(token string, opts CookieOptions)
	Clear()
}

// CookieTokenStore keeps the access token in a cookie jar under the site
// root, so every request the jar serves for that origin carries it.
type CookieTokenStore struct {
	jar  http.CookieJar
	site *url.URL
}

// NewCookieTokenStore returns a store writing into jar for the origin of site.
func NewCookieTokenStore(jar http.CookieJar, site *url.URL) *CookieTokenStore {
	return &CookieTokenStore{jar: jar, site: siteRoot(site)}
}

// Get returns the access token if the jar still holds an unexpired one.
func (s *CookieTokenStore) Get() (string, bool) {
	return cookieValue(s.jar, s.site, AccessTokenCookie)
}

// Set writes token with path "/".
func (s *CookieTokenStore) Set(token string, opts CookieOptions) {
	c := &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		SameSite: opts.SameSite,
		Secure:   opts.Secure,
	}
	if opts.MaxAge > 0 {
		c.MaxAge = int(opts.MaxAge / time.Second)
	}
	s.jar.SetCookies(s.site, []*http.Cookie{c})
}

// Clear expires the cookie.
func (s *CookieTokenStore) Clear() {
	s.jar.SetCookies(s.site, []*http.Cookie{{
		Name:   AccessTokenCookie,
		Path:   "/",
		MaxAge: -1,
	}})
}

func cookieValue(jar http.CookieJar, site *url.URL, name string) (string, bool) {
	for _, c := range jar.Cookies(site) {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// siteRoot strips u down to scheme and host so cookies land on path "/".
func siteRoot(u *url.URL) *url.URL {
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
}
