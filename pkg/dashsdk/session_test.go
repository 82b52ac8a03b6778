package dashsdk

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionInit(t *testing.T) {
	t.Parallel()

	t.Run("no token makes no request", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t, "valid")
		b.handleMe(adminUser())
		c := newTestClient(t, b.URL)

		s := NewSession(c, nil)
		require.True(t, s.IsLoading())

		require.Equal(t, StateAnonymous, s.Init(context.Background()))
		require.Nil(t, s.User())
		require.Zero(t, b.hitCount("GET /me"))
	})

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t, "valid")
		b.handleMe(adminUser())
		c := newTestClient(t, b.URL)
		c.SetAccessToken("valid")

		s := NewSession(c, nil)
		require.Equal(t, StateAuthenticated, s.Init(context.Background()))
		require.True(t, s.IsAuthenticated())
		require.Equal(t, "admin", s.User().Username)
	})

	t.Run("identity failure clears token", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t, "valid")
		b.mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
			writeErrors(w, http.StatusInternalServerError, "db down")
		})
		c := newTestClient(t, b.URL)
		c.SetAccessToken("valid")

		s := NewSession(c, nil)
		require.Equal(t, StateAnonymous, s.Init(context.Background()))
		require.Nil(t, s.User())

		_, ok := c.Tokens().Get()
		require.False(t, ok)
	})
}

func TestSessionLogin(t *testing.T) {
	t.Parallel()

	t.Run("admin", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t, "tok")
		b.handleMe(adminUser())
		c := newTestClient(t, b.URL)
		s := NewSession(c, nil)

		require.NoError(t, s.Login(context.Background(), "tok"))
		require.True(t, s.IsAuthenticated())
		require.Equal(t, "u1", s.User().ID)

		token, ok := c.Tokens().Get()
		require.True(t, ok)
		require.Equal(t, "tok", token)
	})

	t.Run("non-admin is rejected", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t, "tok")
		b.handleMe(User{ID: "u2", Username: "visitor", Role: RoleUser})
		c := newTestClient(t, b.URL)
		s := NewSession(c, nil)

		err := s.Login(context.Background(), "tok")
		require.ErrorIs(t, err, ErrNotAdmin)
		require.Equal(t, "wrong username or password", err.Error())
		require.Nil(t, s.User())
		require.Equal(t, StateAnonymous, s.State())

		_, ok := c.Tokens().Get()
		require.False(t, ok)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, "http://127.0.0.1:1")
		require.ErrorIs(t, NewSession(c, nil).Login(context.Background(), ""), ErrNoToken)
	})
}

func TestSessionLogout(t *testing.T) {
	t.Parallel()

	t.Run("backend failure is not fatal", func(t *testing.T) {
		t.Parallel()

		b := newFakeBackend(t, "tok")
		b.handleMe(adminUser())
		b.mux.HandleFunc("DELETE /logout", func(w http.ResponseWriter, r *http.Request) {
			writeErrors(w, http.StatusInternalServerError, "boom")
		})
		c := newTestClient(t, b.URL)

		var navigated atomic.Int32
		s := NewSession(c, func() { navigated.Add(1) })
		require.NoError(t, s.Login(context.Background(), "tok"))

		s.Logout(context.Background())

		require.Equal(t, StateAnonymous, s.State())
		require.Nil(t, s.User())
		require.EqualValues(t, 1, navigated.Load())
		require.Equal(t, 1, b.hitCount("DELETE /logout"))
		require.Equal(t, []string{"Bearer tok"}, b.bearers("DELETE /logout"))

		_, ok := c.Tokens().Get()
		require.False(t, ok)
	})
}

func TestStateString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "loading", StateLoading.String())
	require.Equal(t, "authenticated", StateAuthenticated.String())
	require.Equal(t, "anonymous", StateAnonymous.String())
}
