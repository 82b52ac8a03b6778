package dashsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dewataksu/dashboard/pkg/cryptox"
	"github.com/dewataksu/dashboard/pkg/idx"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://dewataksu-backend.vercel.app/api"

// SDKClient talks to the Dewataksu backend. It owns two HTTP clients sharing
// one cookie jar: a public one that never carries or refreshes credentials,
// and an authenticated one whose transport does both.
type SDKClient struct {
	BaseURL string

	site      *url.URL
	tokenURL  *url.URL
	transport http.RoundTripper
	timeout   time.Duration

	jar     http.CookieJar
	tokens  TokenStore
	gateway *Gateway
	cookie  CookieOptions

	// anonKey keys refreshes while no refresh cookie is visible, so such a
	// client never shares a flight with another session.
	anonKey string

	logger    *slog.Logger
	onExpired func()

	public *http.Client
	authed *http.Client
}

// Option configures an SDKClient.
type Option func(*SDKClient)

// WithTransport sets the underlying round tripper. Defaults to
// http.DefaultTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *SDKClient) { c.transport = rt }
}

// WithTimeout bounds each call, including a refresh and retry.
func WithTimeout(d time.Duration) Option {
	return func(c *SDKClient) { c.timeout = d }
}

// WithJar sets the cookie jar. A fresh in-memory jar is used otherwise.
func WithJar(jar http.CookieJar) Option {
	return func(c *SDKClient) { c.jar = jar }
}

// WithTokenStore replaces the cookie-backed token store.
func WithTokenStore(s TokenStore) Option {
	return func(c *SDKClient) { c.tokens = s }
}

// WithGateway shares a refresh coordinator between clients.
func WithGateway(g *Gateway) Option {
	return func(c *SDKClient) { c.gateway = g }
}

// WithCookieOptions sets how the access token cookie is written.
func WithCookieOptions(o CookieOptions) Option {
	return func(c *SDKClient) { c.cookie = o }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *SDKClient) { c.logger = l }
}

// WithSessionExpiredHandler registers fn to run once per failed refresh,
// after the token store has been cleared. Applications navigate to their
// login page here.
func WithSessionExpiredHandler(fn func()) Option {
	return func(c *SDKClient) { c.onExpired = fn }
}

// NewSDKClient creates a client for the backend at baseURL.
func NewSDKClient(baseURL string, opts ...Option) (*SDKClient, error) {
	baseURL = strings.TrimSuffix(baseURL, "/")

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	tokenURL, err := url.Parse(baseURL + "/token")
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &SDKClient{
		BaseURL:   baseURL,
		site:      siteRoot(u),
		tokenURL:  tokenURL,
		transport: http.DefaultTransport,
		timeout:   30 * time.Second,
		cookie:    DefaultCookieOptions(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

// Clone returns a client for the same backend that shares the Gateway and
// transport but has its own jar and token store unless opts provide them.
// The dashboard server clones one client per browser request.
func (c *SDKClient) Clone(opts ...Option) (*SDKClient, error) {
	clone := &SDKClient{
		BaseURL:   c.BaseURL,
		site:      c.site,
		tokenURL:  c.tokenURL,
		transport: c.transport,
		timeout:   c.timeout,
		gateway:   c.gateway,
		cookie:    c.cookie,
		logger:    c.logger,
		onExpired: c.onExpired,
	}
	for _, opt := range opts {
		opt(clone)
	}

	if err := clone.init(); err != nil {
		return nil, err
	}
	return clone, nil
}

func (c *SDKClient) init() error {
	if c.jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.jar = jar
	}
	if c.tokens == nil {
		c.tokens = NewCookieTokenStore(c.jar, c.site)
	}
	if c.gateway == nil {
		c.gateway = NewGateway(DefaultRefreshTimeout)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.anonKey = "anon:" + idx.New().String()

	c.public = &http.Client{
		Transport: c.transport,
		Jar:       c.jar,
		Timeout:   c.timeout,
	}
	c.authed = &http.Client{
		Transport: &authTransport{base: c.transport, client: c},
		Jar:       c.jar,
		Timeout:   c.timeout,
	}
	return nil
}

// Tokens returns the access token store.
func (c *SDKClient) Tokens() TokenStore { return c.tokens }

// Gateway returns the refresh coordinator.
func (c *SDKClient) Gateway() *Gateway { return c.gateway }

// Jar returns the cookie jar shared by both HTTP clients.
func (c *SDKClient) Jar() http.CookieJar { return c.jar }

// SiteURL returns the backend origin the cookies are scoped to.
func (c *SDKClient) SiteURL() *url.URL {
	u := *c.site
	return &u
}

// RefreshToken returns the refresh cookie the jar would send to GET /token.
// The backend may scope it below the site root.
func (c *SDKClient) RefreshToken() (string, bool) {
	return cookieValue(c.jar, c.tokenURL, RefreshTokenCookie)
}

// TokenURL returns the refresh endpoint, the URL refresh cookies are read at.
func (c *SDKClient) TokenURL() *url.URL {
	u := *c.tokenURL
	return &u
}

// flightKey identifies this client's session to the Gateway.
func (c *SDKClient) flightKey() string {
	if token, ok := c.RefreshToken(); ok {
		return cryptox.Fingerprint(token)
	}
	return c.anonKey
}

// SetAccessToken stores token with the client's cookie options.
func (c *SDKClient) SetAccessToken(token string) {
	c.tokens.Set(token, c.cookie)
}

// refresh obtains a new access token through the Gateway. The flight leader
// updates its own store and fires the expiry handler; every caller then
// applies the outcome to its own store, which matters when clients with
// separate stores share the Gateway.
func (c *SDKClient) refresh(ctx context.Context) (string, error) {
	token, err := c.gateway.Refresh(ctx, c.flightKey(), func(ctx context.Context) (string, error) {
		token, err := c.refreshAccessToken(ctx)
		if err != nil {
			c.expire(err)
			return "", fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		c.tokens.Set(token, c.cookie)
		return token, nil
	})
	if err != nil {
		if errors.Is(err, ErrSessionExpired) {
			c.tokens.Clear()
		}
		return "", err
	}

	c.tokens.Set(token, c.cookie)
	return token, nil
}

func (c *SDKClient) expire(cause error) {
	c.logger.Warn("session expired", "reason", cause.Error())
	c.tokens.Clear()
	if c.onExpired != nil {
		c.onExpired()
	}
}
