package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/backend-bits/saas-backend/pkg/config"
	"github.com/backend-bits/saas-backend/pkg/httpserver"
	"github.com/backend-bits/saas-backend/pkg/identity"
	"github.com/backend-bits/saas-backend/pkg/logger"
	"github.com/backend-bits/saas-backend/pkg/pg"
	"github.com/backend-bits/saas-backend/pkg/ratelimiter"
	"github.com/backend-bits/saas-backend/pkg/redis"
	"github.com/backend-bits/saas-backend/pkg/requestid"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

var errUnknownBackend = errors.New("unknown backend")

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.API.Environment, cfg.API.ServiceName),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			identity.LoggerExtractor(),
		),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	if cfg.LogFormat != "" {
		opts = append(opts, logger.WithFormatName(cfg.LogFormat))
	}
	return logger.New(opts...)
}

// infra holds connections shared by the components; close releases them.
type infra struct {
	pgCfg  pg.Config
	pool   *pgxpool.Pool
	redis  *goredis.Client
	checks map[string]httpserver.Check
}

func connect(ctx context.Context, cfg appConfig, log *slog.Logger) (*infra, error) {
	in := &infra{checks: make(map[string]httpserver.Check)}

	if cfg.needsPostgres() {
		if err := config.Load(&in.pgCfg); err != nil {
			return nil, fmt.Errorf("postgres config: %w", err)
		}
		pool, err := pg.Connect(ctx, in.pgCfg)
		if err != nil {
			return nil, err
		}
		in.pool = pool
		in.checks["postgres"] = pg.Healthcheck(pool)
		log.InfoContext(ctx, "connected to postgres", logger.Component("pg"))
	}

	if cfg.needsRedis() {
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			in.close()
			return nil, fmt.Errorf("redis config: %w", err)
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			in.close()
			return nil, err
		}
		in.redis = client
		in.checks["redis"] = redis.Healthcheck(client)
		log.InfoContext(ctx, "connected to redis", logger.Component("redis"))
	}

	return in, nil
}

func (in *infra) close() {
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.pool != nil {
		in.pool.Close()
	}
}

func buildOrdering(cfg appConfig) (*access.Ordering, error) {
	if cfg.TierOrder == "" {
		return access.DefaultOrdering(), nil
	}
	return access.ParseOrdering(cfg.TierOrder)
}

func buildCatalog(ctx context.Context, cfg billing.Config, order *access.Ordering) (*billing.Catalog, error) {
	var src billing.PlansSource = billing.NewMemorySource(billing.DefaultPlans()...)
	if cfg.PlansFile != "" {
		src = billing.NewFileSource(cfg.PlansFile)
	}
	return billing.NewCatalog(ctx, src, order)
}

func buildStore(cfg billing.Config, in *infra) (billing.Store, error) {
	switch cfg.Store {
	case billing.StoreMemory, "":
		return billing.NewMemoryStore(), nil
	case billing.StorePostgres:
		return billing.NewPostgresStore(in.pool), nil
	default:
		return nil, fmt.Errorf("%w: order store %q", errUnknownBackend, cfg.Store)
	}
}

func buildLocker(cfg billing.Config, in *infra) (billing.Locker, error) {
	switch cfg.Locker {
	case billing.LockerMemory, "":
		return billing.NewMemoryLocker(), nil
	case billing.LockerRedis:
		return billing.NewRedisLocker(in.redis, cfg.LockPrefix), nil
	default:
		return nil, fmt.Errorf("%w: locker %q", errUnknownBackend, cfg.Locker)
	}
}

func buildGateway(cfg billing.Config, log *slog.Logger) (billing.Gateway, error) {
	var (
		gw  billing.Gateway
		err error
	)
	switch cfg.Gateway {
	case billing.GatewayLocal, "":
		gw, err = billing.NewLocalGateway(cfg.LocalSecret)
	case billing.GatewayPaddle:
		gw, err = billing.NewPaddleGateway(cfg.Paddle)
	default:
		return nil, fmt.Errorf("%w: gateway %q", errUnknownBackend, cfg.Gateway)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Breaker.Enabled {
		gw = billing.NewBreakerGateway(gw, cfg.Breaker, log.With(logger.Component("gateway")))
	}
	return gw, nil
}

func buildLimiter(cfg ratelimiter.Config, in *infra) (*ratelimiter.Limiter, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var store ratelimiter.Store
	switch cfg.Store {
	case ratelimiter.StoreMemory, "":
		store = ratelimiter.NewMemoryStore()
	case ratelimiter.StoreRedis:
		store = ratelimiter.NewRedisStore(in.redis, cfg.Prefix)
	default:
		return nil, fmt.Errorf("%w: %q", ratelimiter.ErrUnknownBackend, cfg.Store)
	}
	return ratelimiter.New(store, cfg.Window)
}
