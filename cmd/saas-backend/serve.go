package main

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/backend-bits/saas-backend/modules/api"
	"github.com/backend-bits/saas-backend/pkg/httpserver"
	"github.com/backend-bits/saas-backend/pkg/identity"
	"github.com/backend-bits/saas-backend/pkg/logger"
	"github.com/backend-bits/saas-backend/pkg/metrics"
	"github.com/backend-bits/saas-backend/pkg/pg"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply database migrations before serving")
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	logger.SetAsDefault(log)

	startCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	in, err := connect(startCtx, cfg, log)
	if err != nil {
		return err
	}
	defer in.close()

	if migrateOnStart && in.pool != nil {
		if err := pg.Migrate(startCtx, in.pool, in.pgCfg, billing.Migrations(), log); err != nil {
			return err
		}
	}

	order, err := buildOrdering(cfg)
	if err != nil {
		return err
	}
	catalog, err := buildCatalog(startCtx, cfg.Billing, order)
	if err != nil {
		return err
	}
	store, err := buildStore(cfg.Billing, in)
	if err != nil {
		return err
	}
	locker, err := buildLocker(cfg.Billing, in)
	if err != nil {
		return err
	}
	gateway, err := buildGateway(cfg.Billing, log)
	if err != nil {
		return err
	}
	limiter, err := buildLimiter(cfg.RateLimit, in)
	if err != nil {
		return err
	}
	verifier, err := identity.NewVerifier(startCtx, cfg.Identity)
	if err != nil {
		return err
	}

	var recorder *metrics.Recorder
	ledgerOpts := []billing.Option{
		billing.WithConfig(cfg.Billing),
		billing.WithLogger(log.With(logger.Component("ledger"))),
	}
	if cfg.Metrics {
		recorder = metrics.New("saas")
		ledgerOpts = append(ledgerOpts, billing.WithMetrics(recorder))
	}
	ledger := billing.NewLedger(store, locker, gateway, catalog, ledgerOpts...)

	router := api.NewRouter(api.Options{
		Config:          cfg.API,
		Ledger:          ledger,
		Gate:            access.NewGate(order),
		Verifier:        verifier,
		Limiter:         limiter,
		Metrics:         recorder,
		Logger:          log,
		Checks:          in.checks,
		SignatureHeader: cfg.Billing.SignatureHeader(),
	})

	srv := httpserver.New(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.OnStart(func(ctx context.Context, addr net.Addr) {
			log.InfoContext(ctx, "saas backend ready",
				slog.String("addr", addr.String()),
				slog.String("gateway", cfg.Billing.Gateway),
				slog.String("store", cfg.Billing.Store),
				slog.String("locker", cfg.Billing.Locker),
				slog.String("identity", cfg.Identity.Provider),
				slog.Int("plans", len(catalog.Plans())),
			)
		}),
		httpserver.OnStop(func(ctx context.Context, _ net.Addr) {
			log.InfoContext(ctx, "saas backend stopped")
		}),
	)
	return srv.Run(ctx, router)
}
