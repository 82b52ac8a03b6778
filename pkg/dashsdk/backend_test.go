package dashsdk

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeBackend records every request and accepts exactly one bearer token.
type fakeBackend struct {
	*httptest.Server
	mux *http.ServeMux

	mu     sync.Mutex
	valid  string
	hits   map[string]int
	bearer map[string][]string

	tokenCalls atomic.Int32
}

func newFakeBackend(t *testing.T, valid string) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		mux:    http.NewServeMux(),
		valid:  valid,
		hits:   make(map[string]int),
		bearer: make(map[string][]string),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.hits[key]++
		b.bearer[key] = append(b.bearer[key], r.Header.Get("Authorization"))
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *fakeBackend) authorized(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+b.valid
}

func (b *fakeBackend) setValid(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.valid = token
}

func (b *fakeBackend) hitCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *fakeBackend) bearers(key string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bearer[key]...)
}

// handleToken serves GET /token, counting calls. respond decides the answer.
func (b *fakeBackend) handleToken(respond func(w http.ResponseWriter, r *http.Request)) {
	b.mux.HandleFunc("GET /token", func(w http.ResponseWriter, r *http.Request) {
		b.tokenCalls.Add(1)
		respond(w, r)
	})
}

func (b *fakeBackend) handleMe(user User) {
	b.mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			writeErrors(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": user})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrors(w http.ResponseWriter, status int, errs any) {
	writeJSON(w, status, map[string]any{"errors": errs})
}

func tokenResponse(w http.ResponseWriter, token string) {
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"accessToken": token}})
}

// waitFor polls cond from a handler goroutine, where require cannot be used.
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *SDKClient {
	t.Helper()

	opts = append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	c, err := NewSDKClient(baseURL, opts...)
	require.NoError(t, err)
	return c
}

func adminUser() User {
	return User{ID: "u1", Username: "admin", Email: "admin@example.com", Role: RoleAdmin}
}
