package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment names understood by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// ContextExtractor pulls one request-scoped attribute out of ctx.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

type Option func(*settings)

type settings struct {
	level      slog.Level
	text       bool
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// WithLevelName sets the level from debug, info, warn or error. Unknown names
// keep the current level.
func WithLevelName(name string) Option {
	return func(s *settings) {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err == nil {
			s.level = l
		}
	}
}

// WithFormatName selects "text" or "json" output. Other values keep the
// current format.
func WithFormatName(name string) Option {
	return func(s *settings) {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text":
			s.text = true
		case "json":
			s.text = false
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) {
		for _, ex := range extractors {
			if ex != nil {
				s.extractors = append(s.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies the preset for env and tags every record with the
// service and environment names. Development logs debug-level text; staging
// and production log info-level JSON.
func WithEnvironment(env, service string) Option {
	return func(s *settings) {
		switch strings.ToLower(env) {
		case EnvProduction, "prod":
			s.level, s.text, env = slog.LevelInfo, false, EnvProduction
		case EnvStaging, "stage":
			s.level, s.text, env = slog.LevelInfo, false, EnvStaging
		default:
			s.level, s.text, env = slog.LevelDebug, true, EnvDevelopment
		}
		if service != "" {
			s.attrs = append(s.attrs, slog.String("service", service))
		}
		s.attrs = append(s.attrs, slog.String("env", env))
	}
}

// New builds a logger. Defaults are info-level JSON on stdout.
func New(opts ...Option) *slog.Logger {
	s := &settings{level: slog.LevelInfo, output: os.Stdout}
	for _, opt := range opts {
		opt(s)
	}

	ho := &slog.HandlerOptions{Level: s.level}
	var h slog.Handler
	if s.text {
		h = slog.NewTextHandler(s.output, ho)
	} else {
		h = slog.NewJSONHandler(s.output, ho)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	if len(s.extractors) > 0 {
		h = &contextHandler{Handler: h, extractors: s.extractors}
	}
	return slog.New(h)
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
