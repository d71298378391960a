package api

import (
	"sort"

	"github.com/backend-bits/saas-backend/pkg/handler"
	"github.com/backend-bits/saas-backend/pkg/logger"
)

type bannerResponse struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Status      string `json:"status"`
}

func (s *server) banner(ctx handler.Context, _ struct{}) handler.Response {
	return handler.JSON(bannerResponse{
		Service:     s.cfg.ServiceName,
		Version:     s.cfg.Version,
		Environment: s.cfg.Environment,
		Status:      "running",
	})
}

type healthResponse struct {
	Status     string            `json:"status"`
	Service    string            `json:"service"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components"`
}

// health is a liveness probe: it always answers 200 and reports each
// dependency as "up" or "down". Readiness gating lives on /ready.
func (s *server) health(ctx handler.Context, _ struct{}) handler.Response {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	components := make(map[string]string, len(names)+1)
	components["gateway"] = "configured"
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			s.log.WarnContext(ctx, "health component down", logger.Component(name), logger.Error(err))
			components[name] = "down"
			status = "degraded"
			continue
		}
		components[name] = "up"
	}

	return handler.JSON(healthResponse{
		Status:     status,
		Service:    s.cfg.ServiceName,
		Version:    s.cfg.Version,
		Components: components,
	})
}
