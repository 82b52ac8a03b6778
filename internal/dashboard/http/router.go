package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/internal/dashboard/store"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/slogx"

	_ "github.com/dewataksu/dashboard/api/dashboard" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	gate         *Gate
	bridge       *Bridge
	gateway      *dashsdk.Gateway
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	NotificationService *service.NotificationService
}

func NewRouter(
	gate *Gate,
	bridge *Bridge,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		gate:         gate,
		bridge:       bridge,
		gateway:      bridge.Client.Gateway(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerCategories()
	r.registerDestinations()
	r.registerUploads()
	r.registerNotifications()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Dewataksu Dashboard API
//	@version		0.1.0
//	@description	Backend for the Dewataksu admin dashboard. Sessions live in the accessToken and refreshToken cookies;
//	@description	every /dashboard route is reached through the cookie gate and forwards to the Dewataksu backend.
//
//	@contact.name	Dewataksu Team
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						accessToken
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// dashboard wraps h with the cookie gate, the backend session bridge and a
// per-user rate limit.
func (r *Router) dashboard(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		r.gate.Middleware,
		httpx.RateLimitByUser(limit),
		r.bridge.Middleware,
	)
}

func (r *Router) registerSession() {
	h := &AuthHandler{Gate: r.gate}

	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.LoginPage),
			httpx.RateLimitByIP(httpx.ReadLimit),
		),
	)

	// POST /login - limited by IP + username against credential stuffing
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(h.Login),
			httpx.RateLimitByIPAndField(httpx.LoginLimit, "username"),
			r.bridge.Middleware,
		),
	)

	// POST /logout - no gate: an expired session must still be able to leave
	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(h.Logout),
			httpx.RateLimitByIP(httpx.WriteLimit),
			r.bridge.Middleware,
		),
	)

	overview := &OverviewHandler{NotificationService: r.NotificationService}
	r.Mux.Handle("GET /dashboard", r.dashboard(overview.ServeHTTP, httpx.ReadLimit))
	r.Mux.Handle("GET /dashboard/me", r.dashboard(h.Me, httpx.ReadLimit))
}

func (r *Router) registerCategories() {
	h := &CategoriesHandler{NotificationService: r.NotificationService}

	r.Mux.Handle("GET /dashboard/categories", r.dashboard(h.List, httpx.ReadLimit))
	r.Mux.Handle("GET /dashboard/categories/{id}", r.dashboard(h.Get, httpx.ReadLimit))
	r.Mux.Handle("POST /dashboard/categories", r.dashboard(h.Create, httpx.WriteLimit))
	r.Mux.Handle("PATCH /dashboard/categories/{id}", r.dashboard(h.Update, httpx.WriteLimit))
	r.Mux.Handle("DELETE /dashboard/categories/{id}", r.dashboard(h.Delete, httpx.WriteLimit))
}

func (r *Router) registerDestinations() {
	h := &DestinationsHandler{NotificationService: r.NotificationService}

	r.Mux.Handle("GET /dashboard/destinations", r.dashboard(h.List, httpx.ReadLimit))
	r.Mux.Handle("GET /dashboard/destinations/{slug}", r.dashboard(h.Get, httpx.ReadLimit))
	r.Mux.Handle("POST /dashboard/destinations", r.dashboard(h.Create, httpx.WriteLimit))
	r.Mux.Handle("PATCH /dashboard/destinations/{slug}", r.dashboard(h.Update, httpx.WriteLimit))
	r.Mux.Handle("DELETE /dashboard/destinations/{slug}", r.dashboard(h.Delete, httpx.WriteLimit))
}

func (r *Router) registerUploads() {
	h := &UploadsHandler{NotificationService: r.NotificationService}

	r.Mux.Handle("POST /dashboard/uploads", r.dashboard(h.Upload, httpx.WriteLimit))
	r.Mux.Handle("POST /dashboard/uploads/bulk", r.dashboard(h.BulkUpload, httpx.WriteLimit))
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{NotificationService: r.NotificationService}

	r.Mux.Handle("GET /dashboard/notifications", r.dashboard(h.List, httpx.ReadLimit))
	r.Mux.Handle("GET /dashboard/notifications/{id}", r.dashboard(h.Get, httpx.ReadLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.SystemLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.gateway),
			httpx.RateLimitByIP(httpx.SystemLimit),
		),
	)
}
