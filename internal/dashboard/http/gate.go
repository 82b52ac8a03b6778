package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/jwtx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

// LoginPath is where unauthenticated dashboard requests are sent.
const LoginPath = "/login"

// Gate guards the dashboard routes with the credential cookies. A valid
// access cookie passes. Otherwise a valid refresh cookie mints a new access
// cookie and the request passes with it. Anything else is redirected to
// LoginPath.
type Gate struct {
	AccessSigner    jwtx.Signer
	AccessVerifier  jwtx.Verifier
	RefreshVerifier jwtx.Verifier

	AccessTTL time.Duration
	Secure    bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := slogx.FromContext(r.Context())

		if c, err := r.Cookie(dashsdk.AccessTokenCookie); err == nil && c.Value != "" {
			claims, err := g.AccessVerifier.Verify(c.Value)
			if err == nil {
				next.ServeHTTP(w, withClaims(r, claims))
				return
			}
			log.Debug("access cookie rejected", "error", err)
		}

		if c, err := r.Cookie(dashsdk.RefreshTokenCookie); err == nil && c.Value != "" {
			claims, err := g.RefreshVerifier.Verify(c.Value)
			if err == nil {
				minted, token, err := g.mint(claims.Identity())
				if err != nil {
					log.Error("failed to mint access token", "error", err)
					writeInternalError(w)
					return
				}

				http.SetCookie(w, &http.Cookie{
					Name:     dashsdk.AccessTokenCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(g.AccessTTL.Seconds()),
					HttpOnly: true,
					Secure:   g.Secure,
					SameSite: http.SameSiteStrictMode,
				})

				r = withCookie(r, dashsdk.AccessTokenCookie, token)
				next.ServeHTTP(w, withClaims(r, minted))
				return
			}
			log.Debug("refresh cookie rejected", "error", err)
		}

		redirectToLogin(w)
	})
}

func (g *Gate) mint(userID string) (jwtx.Claims, string, error) {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	claims := jwtx.NewAccessClaims(userID, g.AccessTTL, now())
	token, err := g.AccessSigner.Sign(claims)
	if err != nil {
		return jwtx.Claims{}, "", err
	}
	return claims, token, nil
}

// Authenticated reports whether r carries an access cookie the gate would
// accept as is.
func (g *Gate) Authenticated(r *http.Request) bool {
	c, err := r.Cookie(dashsdk.AccessTokenCookie)
	if err != nil || c.Value == "" {
		return false
	}
	_, err = g.AccessVerifier.Verify(c.Value)
	return err == nil
}

func withClaims(r *http.Request, claims jwtx.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), httpx.CtxKeyUserID, claims.Identity())
	ctx = context.WithValue(ctx, httpx.CtxKeyClaims, claims)
	return r.WithContext(ctx)
}

// withCookie returns a copy of r whose Cookie header carries value for name.
func withCookie(r *http.Request, name, value string) *http.Request {
	r = r.Clone(r.Context())

	var parts []string
	for _, c := range r.Cookies() {
		if c.Name != name {
			parts = append(parts, c.Name+"="+c.Value)
		}
	}
	parts = append(parts, name+"="+value)

	r.Header.Set("Cookie", strings.Join(parts, "; "))
	return r
}

// redirectToLogin answers with 303 and a JSON body naming the login page, so
// both browsers and fetch callers can follow it.
func redirectToLogin(w http.ResponseWriter) {
	w.Header().Set("Location", LoginPath)
	httpx.WriteJSON(w, http.StatusSeeOther, httpx.ErrorBody{
		Errors:   "unauthorized",
		Redirect: LoginPath,
	})
}
