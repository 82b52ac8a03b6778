package http_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	httpapi "github.com/dewataksu/dashboard/internal/dashboard/http"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/internal/dashboard/store/drivers/sqlite"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testUserID   = "u1"
	testPassword = "secret"
)

// backend fakes the Dewataksu API. It accepts any access token signed with
// the shared secret unless the token was rejected, the way a backend does
// after rotating a session.
type backend struct {
	*httptest.Server

	access  *jwtx.HS256
	refresh *jwtx.HS256

	mu         sync.Mutex
	role       dashsdk.Role
	rejected   map[string]bool
	refreshOK  bool
	lastIssued string
	gotQuery   string
	deleted    []string

	tokenCalls atomic.Int32
}

func newBackend(t *testing.T, access, refresh *jwtx.HS256) *backend {
	t.Helper()

	b := &backend{
		access:    access,
		refresh:   refresh,
		role:      dashsdk.RoleAdmin,
		rejected:  make(map[string]bool),
		refreshOK: true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", b.handleLogin)
	mux.HandleFunc("GET /me", b.handleMe)
	mux.HandleFunc("GET /token", b.handleToken)
	mux.HandleFunc("DELETE /logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": "ok"})
	})
	mux.HandleFunc("GET /categories", b.handleListCategories)
	mux.HandleFunc("GET /categories/{id}", b.handleGetCategory)
	mux.HandleFunc("POST /categories", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"result": map[string]string{"id": "cnewcategory1"}})
	}))
	mux.HandleFunc("DELETE /categories/{id}", b.authorized(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.deleted = append(b.deleted, r.PathValue("id"))
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"result": category(r.PathValue("id"))})
	}))
	mux.HandleFunc("GET /destinations", b.handleListDestinations)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

func (b *backend) issue(t *testing.T) string {
	t.Helper()
	token, err := b.mintAccess()
	require.NoError(t, err)
	return token
}

func (b *backend) mintAccess() (string, error) {
	token, err := b.access.Sign(jwtx.NewAccessClaims(testUserID, 15*time.Minute, time.Now()))
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	b.lastIssued = token
	b.mu.Unlock()
	return token, nil
}

func (b *backend) refreshToken(t *testing.T) string {
	t.Helper()
	token, err := b.refresh.Sign(jwtx.NewAccessClaims(testUserID, 24*time.Hour, time.Now()))
	require.NoError(t, err)
	return token
}

func (b *backend) reject(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected[token] = true
}

func (b *backend) setRole(role dashsdk.Role) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.role = role
}

func (b *backend) setRefreshOK(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshOK = ok
}

func (b *backend) issued() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastIssued
}

func (b *backend) valid(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	if _, err := b.access.Verify(token); err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.rejected[token]
}

func (b *backend) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !b.valid(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (b *backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dashsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password != testPassword {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": "wrong username or password"})
		return
	}

	refresh, err := b.refresh.Sign(jwtx.NewAccessClaims(testUserID, 24*time.Hour, time.Now()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errors": err.Error()})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: dashsdk.RefreshTokenCookie, Value: refresh, Path: "/", HttpOnly: true})

	access, err := b.mintAccess()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errors": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"accessToken": access}})
}

func (b *backend) handleMe(w http.ResponseWriter, r *http.Request) {
	if !b.valid(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": "unauthorized"})
		return
	}
	b.mu.Lock()
	role := b.role
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": dashsdk.User{
		ID:       testUserID,
		Username: "admin",
		Email:    "admin@example.com",
		Role:     role,
	}})
}

func (b *backend) handleToken(w http.ResponseWriter, r *http.Request) {
	b.tokenCalls.Add(1)

	b.mu.Lock()
	ok := b.refreshOK
	b.mu.Unlock()

	c, err := r.Cookie(dashsdk.RefreshTokenCookie)
	if !ok || err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": "refresh token invalid"})
		return
	}
	if _, err := b.refresh.Verify(c.Value); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"errors": "refresh token invalid"})
		return
	}

	access, err := b.mintAccess()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"errors": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"accessToken": access}})
}

func (b *backend) handleListCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.gotQuery = r.URL.RawQuery
	b.mu.Unlock()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 10
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{
		"data": []dashsdk.Category{category("cbeaches0001"), category("ctemples0001")},
		"pagination": dashsdk.Pagination{
			CurrentPage: page,
			PageSize:    size,
			TotalItems:  40,
			TotalPages:  (40 + size - 1) / size,
		},
	}})
}

func (b *backend) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "missing" {
		writeJSON(w, http.StatusNotFound, map[string]any{"errors": "category not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": category(id)})
}

func (b *backend) handleListDestinations(w http.ResponseWriter, r *http.Request) {
	free, paid := 0.0, 25000.0
	writeJSON(w, http.StatusOK, map[string]any{"result": map[string]any{
		"data": []dashsdk.Destination{
			{ID: "d1", Title: "Tegallalang", Slug: "tegallalang", Price: &free, Count: dashsdk.Count{Likes: 3, Bookmarks: 1}},
			{ID: "d2", Title: "Uluwatu", Slug: "uluwatu", Price: &paid, Category: &dashsdk.Category{Name: "Temples"}},
		},
		"pagination": dashsdk.Pagination{CurrentPage: 1, PageSize: 7, TotalItems: 2, TotalPages: 1},
	}})
}

func (b *backend) deletedIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

func (b *backend) query() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gotQuery
}

func category(id string) dashsdk.Category {
	return dashsdk.Category{ID: id, Name: "Beaches", Slug: "beaches"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// harness is a dashboard router in front of a fake backend.
type harness struct {
	backend *backend
	router  http.Handler
	access  *jwtx.HS256
	refresh *jwtx.HS256
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	access, err := jwtx.NewHS256([]byte("access-secret"), 0)
	require.NoError(t, err)
	refresh, err := jwtx.NewHS256([]byte("refresh-secret"), 0)
	require.NoError(t, err)

	b := newBackend(t, access, refresh)
	logger := slog.New(slog.DiscardHandler)

	client, err := dashsdk.NewSDKClient(b.URL, dashsdk.WithLogger(logger))
	require.NoError(t, err)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	gate := &httpapi.Gate{
		AccessSigner:    access,
		AccessVerifier:  access,
		RefreshVerifier: refresh,
		AccessTTL:       15 * time.Minute,
	}
	bridge := &httpapi.Bridge{Client: client, AccessTTL: 15 * time.Minute}

	router := httpapi.NewRouter(gate, bridge, "test", st, logger)
	router.NotificationService = &service.NotificationService{Store: st}
	router.ApplyRoutes()

	return &harness{backend: b, router: router, access: access, refresh: refresh}
}

// do serves req and returns the recorded response.
func (h *harness) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// signedIn returns browser cookies for a session the backend accepts.
func (h *harness) signedIn(t *testing.T) []*http.Cookie {
	t.Helper()
	return []*http.Cookie{
		{Name: dashsdk.AccessTokenCookie, Value: h.backend.issue(t)},
		{Name: dashsdk.RefreshTokenCookie, Value: h.backend.refreshToken(t)},
	}
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
