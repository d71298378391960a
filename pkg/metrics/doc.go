// Package metrics exposes Prometheus instrumentation for the billing ledger,
// the access gate and the HTTP layer.
//
// A Recorder owns its registry, so several recorders can coexist in tests:
//
//	rec := metrics.New("saas")
//	ledger := billing.NewLedger(store, locker, gw, catalog, billing.WithMetrics(rec))
//	r.Use(rec.Middleware(chiRoutePattern))
//	r.Handle("/metrics", rec.Handler())
package metrics
