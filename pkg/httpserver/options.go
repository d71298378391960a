package httpserver

import (
	"context"
	"log/slog"
	"net"
)

// Hook runs on a lifecycle transition. addr is the bound listener address.
type Hook func(ctx context.Context, addr net.Addr)

// Option configures a Server.
type Option func(*Server)

// WithLogger supplies the logger used for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// OnStart registers h to run once the listener is bound.
func OnStart(h Hook) Option {
	return func(s *Server) {
		if h != nil {
			s.onStart = append(s.onStart, h)
		}
	}
}

// OnStop registers h to run after in-flight requests have drained.
func OnStop(h Hook) Option {
	return func(s *Server) {
		if h != nil {
			s.onStop = append(s.onStop, h)
		}
	}
}
