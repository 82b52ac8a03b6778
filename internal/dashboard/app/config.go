package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Backend and cookie gate. Both secrets are shared with the backend.
	APIBaseURL     string        `env:"DASHBOARD_API_BASE_URL" envDefault:"https://dewataksu-backend.vercel.app/api"`
	AccessSecret   string        `env:"DASHBOARD_ACCESS_SECRET"`
	RefreshSecret  string        `env:"DASHBOARD_REFRESH_SECRET"`
	AccessTokenTTL time.Duration `env:"DASHBOARD_ACCESS_TOKEN_TTL" envDefault:"15m"`
	TokenLeeway    time.Duration `env:"DASHBOARD_TOKEN_LEEWAY" envDefault:"30s"`

	// RefreshTimeout bounds one refresh flight; RequestTimeout one backend call
	// including its refresh and retry.
	RefreshTimeout time.Duration `env:"DASHBOARD_REFRESH_TIMEOUT" envDefault:"10s"`
	RequestTimeout time.Duration `env:"DASHBOARD_REQUEST_TIMEOUT" envDefault:"30s"`

	// Notification store
	DatabaseFile          string        `env:"DASHBOARD_DATABASE_FILE" envDefault:"dashboard.db"`
	HousekeepingInterval  time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
	NotificationRetention time.Duration `env:"NOTIFICATION_RETENTION" envDefault:"168h"`

	// Env is dev, staging or prod. Cookies are Secure in prod.
	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads the environment, after loading .env when one exists.
func LoadConfig() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the dashboard cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.AccessSecret == "" {
		errs = append(errs, errors.New("DASHBOARD_ACCESS_SECRET is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("DASHBOARD_REFRESH_SECRET is required"))
	}
	if c.RefreshTimeout <= 0 {
		errs = append(errs, errors.New("DASHBOARD_REFRESH_TIMEOUT must be positive"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("DASHBOARD_ACCESS_TOKEN_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// Production reports whether cookies must be marked Secure.
func (c Config) Production() bool {
	return c.Env == "prod" || c.Env == "production"
}
