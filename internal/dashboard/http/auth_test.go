package http_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	httpapi "github.com/dewataksu/dashboard/internal/dashboard/http"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func loginRequest(username, password string) *http.Request {
	body := `{"username":"` + username + `","password":"` + password + `"}`
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func requireForgotten(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	for _, name := range []string{dashsdk.AccessTokenCookie, dashsdk.RefreshTokenCookie} {
		c := responseCookie(rec, name)
		require.NotNil(t, c, "expected %s to be expired", name)
		require.Negative(t, c.MaxAge, name)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("admin gets both cookies", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		rec := h.do(loginRequest("admin", testPassword))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[httpapi.SessionResponse](t, rec)
		require.Equal(t, "authenticated", resp.State)
		require.NotNil(t, resp.User)
		require.Equal(t, dashsdk.RoleAdmin, resp.User.Role)

		access := responseCookie(rec, dashsdk.AccessTokenCookie)
		require.NotNil(t, access)
		require.Equal(t, h.backend.issued(), access.Value)
		require.Equal(t, 900, access.MaxAge)
		require.True(t, access.HttpOnly)

		refresh := responseCookie(rec, dashsdk.RefreshTokenCookie)
		require.NotNil(t, refresh)
		require.NotEmpty(t, refresh.Value)
		require.True(t, refresh.HttpOnly)
	})

	t.Run("form encoded body", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		form := url.Values{"username": {"admin"}, "password": {testPassword}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		// The backend only speaks JSON; the dashboard converts.
		rec := h.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("non-admin is told the credentials are wrong", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.backend.setRole(dashsdk.RoleUser)

		rec := h.do(loginRequest("tourist", testPassword))
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		body := decode[httpx.ErrorBody](t, rec)
		require.Equal(t, "wrong username or password", body.Errors)
		requireForgotten(t, rec)
	})

	t.Run("backend rejection is passed through", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		rec := h.do(loginRequest("admin", "nope"))
		require.Equal(t, http.StatusBadRequest, rec.Code)

		body := decode[httpx.ErrorBody](t, rec)
		require.Equal(t, "wrong username or password", body.Errors)
		require.Nil(t, responseCookie(rec, dashsdk.AccessTokenCookie))
	})

	t.Run("invalid body", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := h.do(req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	for i := range httpx.LoginLimit.Burst {
		rec := h.do(loginRequest("admin", "nope"))
		require.Equal(t, http.StatusBadRequest, rec.Code, "attempt %d", i+1)
	}

	rec := h.do(loginRequest("admin", "nope"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Another username from the same address has its own bucket.
	rec = h.do(loginRequest("editor", "nope"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginPage(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"username", "password"}, decode[httpapi.LoginPageResponse](t, rec).Fields)

	rec = h.do(httptest.NewRequest(http.MethodGet, "/login", nil), h.signedIn(t)...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestMe(t *testing.T) {
	t.Parallel()

	t.Run("signed in", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		rec := h.do(httptest.NewRequest(http.MethodGet, "/dashboard/me", nil), h.signedIn(t)...)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		resp := decode[httpapi.SessionResponse](t, rec)
		require.Equal(t, testUserID, resp.User.ID)
		require.Zero(t, h.backend.tokenCalls.Load())
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("rejected token is refreshed and written back", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		cookies := h.signedIn(t)
		h.backend.reject(cookies[0].Value)

		rec := h.do(httptest.NewRequest(http.MethodGet, "/dashboard/me", nil), cookies...)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.EqualValues(t, 1, h.backend.tokenCalls.Load())

		access := responseCookie(rec, dashsdk.AccessTokenCookie)
		require.NotNil(t, access)
		require.Equal(t, h.backend.issued(), access.Value)
		require.NotEqual(t, cookies[0].Value, access.Value)

		// The refresh cookie did not change, so it is not rewritten.
		require.Nil(t, responseCookie(rec, dashsdk.RefreshTokenCookie))
	})

	t.Run("failed refresh ends the session", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.backend.setRefreshOK(false)

		cookies := h.signedIn(t)
		h.backend.reject(cookies[0].Value)

		rec := h.do(httptest.NewRequest(http.MethodGet, "/dashboard/me", nil), cookies...)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "/login", decode[httpx.ErrorBody](t, rec).Redirect)
		require.EqualValues(t, 1, h.backend.tokenCalls.Load())
		requireForgotten(t, rec)
	})

	t.Run("non-admin session is refused", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.backend.setRole(dashsdk.RoleUser)

		rec := h.do(httptest.NewRequest(http.MethodGet, "/dashboard/me", nil), h.signedIn(t)...)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		requireForgotten(t, rec)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/logout", nil), h.signedIn(t)...)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
	requireForgotten(t, rec)
}

func TestLogoutWithoutSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodPost, "/logout", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}
