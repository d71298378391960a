package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/backend-bits/saas-backend/pkg/logger"
)

// Server runs one http.Server and drains it on shutdown.
type Server struct {
	cfg     Config
	log     *slog.Logger
	onStart []Hook
	onStop  []Hook

	mu       sync.Mutex
	srv      *http.Server
	addr     net.Addr
	stopOnce sync.Once
	stopErr  error
}

func New(cfg Config, opts ...Option) *Server {
	s := &Server{cfg: cfg.normalized(), log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run binds cfg.Addr and serves until ctx is cancelled, SIGINT or SIGTERM
// arrives, or the listener fails.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Join(ErrStart, err)
	}
	return s.Serve(ctx, ln, handler)
}

// Serve is Run on an existing listener. A Server serves at most once.
func (s *Server) Serve(ctx context.Context, ln net.Listener, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.srv != nil {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("%w: already serving on %s", ErrStart, s.addr)
	}
	s.addr = ln.Addr()
	s.srv = &http.Server{
		Handler:      handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
		ErrorLog:     slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	srv := s.srv
	s.mu.Unlock()

	s.log.InfoContext(ctx, "http server listening", slog.String("addr", s.addr.String()))
	for _, h := range s.onStart {
		h(ctx, s.addr)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(ErrStart, err)
		}
		return nil
	case <-sigCtx.Done():
	}

	s.log.InfoContext(ctx, "http server shutting down")
	shutdownErr := s.Shutdown(context.WithoutCancel(ctx))
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(ErrStart, err)
	}
	return shutdownErr
}

// Shutdown drains in-flight requests within cfg.ShutdownTimeout. Repeated
// calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, addr := s.srv, s.addr
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	s.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.stopErr = errors.Join(ErrShutdown, err)
		}
		for _, h := range s.onStop {
			h(ctx, addr)
		}
	})
	return s.stopErr
}
