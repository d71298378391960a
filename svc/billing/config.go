package billing

import "time"

const (
	GatewayLocal  = "local"
	GatewayPaddle = "paddle"

	StoreMemory   = "memory"
	StorePostgres = "postgres"

	LockerMemory = "memory"
	LockerRedis  = "redis"
)

type Config struct {
	Gateway           string        `env:"BILLING_GATEWAY" envDefault:"local"`
	LocalSecret       string        `env:"BILLING_LOCAL_SECRET" envDefault:"local-dev-secret"`
	Store             string        `env:"BILLING_STORE" envDefault:"memory"`
	Locker            string        `env:"BILLING_LOCKER" envDefault:"memory"`
	LockPrefix        string        `env:"BILLING_LOCK_PREFIX" envDefault:"saas:order-claim:"`
	PlansFile         string        `env:"BILLING_PLANS_FILE"`
	GatewayTimeout    time.Duration `env:"BILLING_GATEWAY_TIMEOUT" envDefault:"10s"`
	ClaimTTL          time.Duration `env:"BILLING_CLAIM_TTL" envDefault:"30s"`
	ClaimPollInterval time.Duration `env:"BILLING_CLAIM_POLL_INTERVAL" envDefault:"100ms"`

	Paddle  PaddleConfig
	Breaker BreakerConfig
}

// Webhook signature headers per gateway.
const (
	LocalSignatureHeader  = "X-Webhook-Signature"
	PaddleSignatureHeader = "Paddle-Signature"
)

// SignatureHeader names the request header carrying the configured
// gateway's webhook signature.
func (c Config) SignatureHeader() string {
	if c.Gateway == GatewayPaddle {
		return PaddleSignatureHeader
	}
	return LocalSignatureHeader
}
