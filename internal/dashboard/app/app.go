package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/dewataksu/dashboard/internal/dashboard/http"
	"github.com/dewataksu/dashboard/internal/dashboard/service"
	"github.com/dewataksu/dashboard/internal/dashboard/store"
	"github.com/dewataksu/dashboard/internal/dashboard/store/drivers/sqlite"
	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/jwtx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the dashboard server and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	client *dashsdk.SDKClient

	notificationService *service.NotificationService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// Option adjusts an Application before it is wired.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(app *Application) { app.logger = l }
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "dashboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initClient(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	if err := app.initHTTP(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("dashboard starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"backend", app.client.BaseURL,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down dashboard...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("dashboard stopped")
	return nil
}

// initDatabase opens the notification store and applies migrations
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initClient builds the backend client every request session is cloned from.
// Its Gateway is shared by all clones, so concurrent requests of one browser
// session refresh once.
func (app *Application) initClient() error {
	client, err := dashsdk.NewSDKClient(app.cfg.APIBaseURL,
		dashsdk.WithGateway(dashsdk.NewGateway(app.cfg.RefreshTimeout)),
		dashsdk.WithTimeout(app.cfg.RequestTimeout),
		dashsdk.WithCookieOptions(dashsdk.CookieOptions{
			MaxAge:   app.cfg.AccessTokenTTL,
			SameSite: http.SameSiteStrictMode,
			Secure:   app.cfg.Production(),
		}),
		dashsdk.WithLogger(app.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	app.client = client
	return nil
}

func (app *Application) initServices() {
	app.notificationService = &service.NotificationService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.NotificationRetention,
	)
}

// initHTTP initializes the cookie gate, the router and the server
func (app *Application) initHTTP() error {
	access, err := jwtx.NewHS256([]byte(app.cfg.AccessSecret), app.cfg.TokenLeeway)
	if err != nil {
		return fmt.Errorf("access secret: %w", err)
	}
	refresh, err := jwtx.NewHS256([]byte(app.cfg.RefreshSecret), app.cfg.TokenLeeway)
	if err != nil {
		return fmt.Errorf("refresh secret: %w", err)
	}

	gate := &httpapi.Gate{
		AccessSigner:    access,
		AccessVerifier:  access,
		RefreshVerifier: refresh,
		AccessTTL:       app.cfg.AccessTokenTTL,
		Secure:          app.cfg.Production(),
	}
	bridge := &httpapi.Bridge{
		Client:    app.client,
		AccessTTL: app.cfg.AccessTokenTTL,
		Secure:    app.cfg.Production(),
	}

	router := httpapi.NewRouter(gate, bridge, BuildVersion, app.db, app.logger)
	router.NotificationService = app.notificationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
