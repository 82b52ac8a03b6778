package http

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

type bridgeKey struct{}

// Bridge runs one SDK client per browser request. The client's cookie jar is
// seeded with the browser's credential cookies; whatever the backend or a
// refresh changed in the jar is written back as Set-Cookie before the
// response header goes out.
type Bridge struct {
	Client *dashsdk.SDKClient

	// AccessTTL is the Max-Age of access cookies written to the browser.
	AccessTTL time.Duration
	Secure    bool
}

// bridgeSession is the per-request state the handlers reach through the
// request context.
type bridgeSession struct {
	client *dashsdk.SDKClient
	seed   map[string]string
	lookup *url.URL

	forgotten atomic.Bool
}

// Forget expires both credential cookies in the browser. It runs when a
// refresh fails, on logout, and when a non-admin logs in.
func (s *bridgeSession) Forget() { s.forgotten.Store(true) }

func (b *Bridge) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())

		sess, err := b.open(r)
		if err != nil {
			log.Error("failed to open backend session", "error", err)
			writeInternalError(w)
			return
		}

		bw := &bridgeWriter{ResponseWriter: w, bridge: b, session: sess}
		next.ServeHTTP(bw, r.WithContext(context.WithValue(r.Context(), bridgeKey{}, sess)))
		bw.sync()
	})
}

func (b *Bridge) open(r *http.Request) (*bridgeSession, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	site := b.Client.SiteURL()
	sess := &bridgeSession{seed: make(map[string]string), lookup: b.Client.TokenURL()}

	var seeded []*http.Cookie
	for _, name := range credentialCookies {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			sess.seed[name] = c.Value
			seeded = append(seeded, &http.Cookie{Name: name, Value: c.Value, Path: "/"})
		}
	}
	jar.SetCookies(site, seeded)

	client, err := b.Client.Clone(
		dashsdk.WithJar(jar),
		dashsdk.WithLogger(slogx.FromContext(r.Context())),
		dashsdk.WithSessionExpiredHandler(sess.Forget),
	)
	if err != nil {
		return nil, err
	}
	sess.client = client
	return sess, nil
}

var credentialCookies = []string{dashsdk.AccessTokenCookie, dashsdk.RefreshTokenCookie}

// current returns the credential cookies the jar holds now.
func (s *bridgeSession) current() map[string]string {
	out := make(map[string]string)
	for _, c := range s.client.Jar().Cookies(s.lookup) {
		for _, name := range credentialCookies {
			if c.Name == name && c.Value != "" {
				out[name] = c.Value
			}
		}
	}
	return out
}

// cookies computes the Set-Cookie headers that bring the browser in line
// with the jar.
func (b *Bridge) cookies(s *bridgeSession) []*http.Cookie {
	var out []*http.Cookie

	now := s.current()
	for _, name := range credentialCookies {
		value, ok := now[name]
		switch {
		case s.forgotten.Load():
			out = append(out, b.cookie(name, "", -1))
		case ok && value != s.seed[name]:
			maxAge := 0
			if name == dashsdk.AccessTokenCookie {
				maxAge = int(b.AccessTTL.Seconds())
			}
			out = append(out, b.cookie(name, value, maxAge))
		case !ok && s.seed[name] != "":
			out = append(out, b.cookie(name, "", -1))
		}
	}
	return out
}

func (b *Bridge) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   b.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// sessionFrom returns the bridged session. Routes are only registered behind
// the Bridge, so a missing session is a wiring bug.
func sessionFrom(r *http.Request) *bridgeSession {
	sess, ok := r.Context().Value(bridgeKey{}).(*bridgeSession)
	if !ok {
		panic("dashboard: request did not pass through the bridge")
	}
	return sess
}

// clientFrom returns the request's SDK client.
func clientFrom(r *http.Request) *dashsdk.SDKClient {
	return sessionFrom(r).client
}

type bridgeWriter struct {
	http.ResponseWriter

	bridge  *Bridge
	session *bridgeSession
	synced  bool
}

func (w *bridgeWriter) sync() {
	if w.synced {
		return
	}
	w.synced = true
	for _, c := range w.bridge.cookies(w.session) {
		http.SetCookie(w.ResponseWriter, c)
	}
}

func (w *bridgeWriter) WriteHeader(code int) {
	w.sync()
	w.ResponseWriter.WriteHeader(code)
}

func (w *bridgeWriter) Write(b []byte) (int, error) {
	w.sync()
	return w.ResponseWriter.Write(b)
}

func (w *bridgeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
