package billing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the gateway circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `env:"GATEWAY_BREAKER_ENABLED" envDefault:"true"`
	MaxRequests      uint32        `env:"GATEWAY_BREAKER_MAX_REQUESTS" envDefault:"1"`
	Interval         time.Duration `env:"GATEWAY_BREAKER_INTERVAL" envDefault:"60s"`
	Timeout          time.Duration `env:"GATEWAY_BREAKER_TIMEOUT" envDefault:"30s"`
	FailureThreshold uint32        `env:"GATEWAY_BREAKER_FAILURES" envDefault:"5"`
}

// BreakerGateway fails fast with ErrGatewayUnavailable after repeated
// provider errors. Definitive verification mismatches do not count as
// failures; webhook parsing is local and bypasses the breaker.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerGateway(next Gateway, cfg BreakerConfig, log *slog.Logger) *BreakerGateway {
	if log == nil {
		log = slog.Default()
	}
	threshold := max(cfg.FailureThreshold, 1)

	settings := gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("gateway circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &BreakerGateway{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State reports the breaker state name.
func (g *BreakerGateway) State() string {
	return g.cb.State().String()
}

func (g *BreakerGateway) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	res, err := g.execute(func() (any, error) {
		return g.next.CreateOrder(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*GatewayOrder), nil
}

func (g *BreakerGateway) VerifyPayment(ctx context.Context, c PaymentConfirmation) (bool, error) {
	res, err := g.execute(func() (any, error) {
		return g.next.VerifyPayment(ctx, c)
	})
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (g *BreakerGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	return g.next.ParseWebhook(ctx, payload, signature)
}

func (g *BreakerGateway) execute(fn func() (any, error)) (any, error) {
	res, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, errors.Join(ErrGatewayUnavailable, err)
	}
	return res, err
}
