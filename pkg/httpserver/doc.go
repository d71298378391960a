// Package httpserver runs an http.Handler with configured timeouts and a
// graceful shutdown on context cancellation or SIGINT/SIGTERM.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// ReadinessHandler reports the state of named dependency checks as JSON and is
// meant to be mounted as a readiness probe.
package httpserver
