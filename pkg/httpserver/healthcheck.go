package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/backend-bits/saas-backend/pkg/logger"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// ReadinessHandler runs every named check and responds 200 with
// {"status":"ready"} when all succeed, 503 with the failing names otherwise.
// Failure causes are logged, never returned to the caller.
func ReadinessHandler(log *slog.Logger, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		report := make(map[string]string, len(names))

		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed",
					logger.Component(name),
					logger.Error(err),
				)
				report[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "up"
		}

		body := map[string]any{"status": "ready", "checks": report}
		if status != http.StatusOK {
			body["status"] = "not_ready"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
