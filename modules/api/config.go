package api

// Config holds the HTTP-layer settings.
type Config struct {
	ServiceName   string   `env:"APP_NAME" envDefault:"saas-backend"`
	Version       string   `env:"APP_VERSION" envDefault:"1.0.0"`
	Environment   string   `env:"APP_ENV" envDefault:"development"`
	CORSOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000"`
	ReconcileTier bool     `env:"ACCESS_RECONCILE_TIER" envDefault:"true"`
	// QuotaLimit is the plan limit key enforced per quota window.
	QuotaLimit string `env:"RATE_LIMIT_PLAN_LIMIT" envDefault:"requests_per_day"`
}
