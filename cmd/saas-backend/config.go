package main

import (
	"github.com/backend-bits/saas-backend/modules/api"
	"github.com/backend-bits/saas-backend/pkg/config"
	"github.com/backend-bits/saas-backend/pkg/httpserver"
	"github.com/backend-bits/saas-backend/pkg/identity"
	"github.com/backend-bits/saas-backend/pkg/ratelimiter"
	"github.com/backend-bits/saas-backend/svc/billing"
)

type appConfig struct {
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`
	TierOrder string `env:"ACCESS_TIER_ORDER" envDefault:"free,starter,pro"`
	Metrics   bool   `env:"METRICS_ENABLED" envDefault:"true"`

	API       api.Config
	HTTP      httpserver.Config
	Identity  identity.Config
	Billing   billing.Config
	RateLimit ratelimiter.Config
}

func (c appConfig) needsPostgres() bool {
	return c.Billing.Store == billing.StorePostgres
}

func (c appConfig) needsRedis() bool {
	return c.Billing.Locker == billing.LockerRedis ||
		(c.RateLimit.Enabled && c.RateLimit.Store == ratelimiter.StoreRedis)
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	err := config.LoadFiles(&cfg, envFiles...)
	return cfg, err
}
