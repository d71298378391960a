package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backend-bits/saas-backend/pkg/logger"
)

type ctxKey struct{}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text formatter", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormatName("text"))
		log.Info("hello")
		assert.Contains(t, buf.String(), "level=INFO")
	})

	t.Run("level name filters records", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevelName("warn"))
		log.Info("dropped")
		assert.Empty(t, buf.String())
		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("unknown format keeps json", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormatName("xml"))
		log.Info("hello")
		assert.Equal(t, "hello", decode(t, buf)["msg"])
	})

	t.Run("production preset", func(t *testing.T) {
		t.Parallel()
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("prod", "api"), logger.WithOutput(buf))
		log.Debug("dropped")
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "api", entry["service"])
		assert.Equal(t, logger.EnvProduction, entry["env"])
	})
}

func TestContextExtraction(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(
			func(ctx context.Context) (slog.Attr, bool) {
				v, ok := ctx.Value(ctxKey{}).(string)
				return slog.String("tenant", v), ok
			},
			func(context.Context) (slog.Attr, bool) {
				return slog.String("static", "yes"), true
			},
		),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "t-1")
	log.InfoContext(ctx, "with context", logger.OrderID("gw-1"), logger.Error(errors.New("boom")))

	entry := decode(t, buf)
	assert.Equal(t, "t-1", entry["tenant"])
	assert.Equal(t, "yes", entry["static"])
	assert.Equal(t, "gw-1", entry["order_id"])
	assert.Equal(t, "boom", entry["error"])
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.Equal(t, "user_id", logger.UserID("auth0|1").Key)
	assert.Equal(t, "tier", logger.Tier("pro").Key)
	assert.Equal(t, "plan", logger.PlanCode("pro").Key)
}
