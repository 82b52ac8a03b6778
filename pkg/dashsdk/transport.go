package dashsdk

import (
	"fmt"
	"io"
	"net/http"
)

// authTransport attaches the stored access token and handles 401 by
// refreshing through the client's Gateway and retrying once. The retry is
// issued from inside the same RoundTrip, so a second 401 is returned as is
// and can never start another refresh for this request.
type authTransport struct {
	base   http.RoundTripper
	client *SDKClient
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, _ := t.client.tokens.Get()

	resp, err := t.base.RoundTrip(withBearer(req, token))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// A body we cannot replay cannot be retried.
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return resp, nil
	}
	drainAndClose(resp.Body)

	fresh, err := t.nextToken(req, token)
	if err != nil {
		return nil, err
	}

	retry := withBearer(req, fresh)
	withJarCookies(retry, t.client.jar)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		retry.Body = body
	}

	return t.base.RoundTrip(retry)
}

// nextToken returns the token to retry with. If another request already
// replaced the token this one was sent with, that token is used directly.
func (t *authTransport) nextToken(req *http.Request, sent string) (string, error) {
	if current, ok := t.client.tokens.Get(); ok && current != sent {
		return current, nil
	}
	return t.client.refresh(req.Context())
}

// withBearer clones req with the Authorization header set from token, or
// removed when there is no token.
func withBearer(req *http.Request, token string) *http.Request {
	r := req.Clone(req.Context())
	if token == "" {
		r.Header.Del("Authorization")
	} else {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// withJarCookies replaces the Cookie header the client built for the first
// attempt with what the jar holds now, after the refresh.
func withJarCookies(r *http.Request, jar http.CookieJar) {
	if jar == nil {
		return
	}
	r.Header.Del("Cookie")
	for _, c := range jar.Cookies(r.URL) {
		r.AddCookie(c)
	}
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
