package dashsdk

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCookieTokenStore(t *testing.T) {
	t.Parallel()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	site, err := url.Parse("https://api.example.com/api")
	require.NoError(t, err)

	s := NewCookieTokenStore(jar, site)

	_, ok := s.Get()
	require.False(t, ok)

	// Clearing an empty store is a no-op.
	s.Clear()

	s.Set("abc", DefaultCookieOptions())
	token, ok := s.Get()
	require.True(t, ok)
	require.Equal(t, "abc", token)

	// Path "/" makes the cookie visible to every route of the site.
	other, err := url.Parse("https://api.example.com/somewhere/else")
	require.NoError(t, err)
	require.Len(t, jar.Cookies(other), 1)

	s.Set("def", CookieOptions{})
	token, _ = s.Get()
	require.Equal(t, "def", token)

	s.Clear()
	_, ok = s.Get()
	require.False(t, ok)
	s.Clear()
}

func TestCookieTokenStoreSecure(t *testing.T) {
	t.Parallel()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	site, err := url.Parse("https://api.example.com")
	require.NoError(t, err)

	s := NewCookieTokenStore(jar, site)
	s.Set("abc", CookieOptions{MaxAge: time.Minute, SameSite: http.SameSiteStrictMode, Secure: true})

	_, ok := s.Get()
	require.True(t, ok)

	plain, err := url.Parse("http://api.example.com")
	require.NoError(t, err)
	require.Empty(t, jar.Cookies(plain))
}

func TestCookieTokenStoreExpiry(t *testing.T) {
	t.Parallel()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	site, err := url.Parse("https://api.example.com")
	require.NoError(t, err)

	s := NewCookieTokenStore(jar, site)
	s.Set("abc", CookieOptions{MaxAge: -time.Second})

	// Non-positive MaxAge writes a session cookie rather than deleting it.
	_, ok := s.Get()
	require.True(t, ok)
}
