package billing

import "time"

// Metrics receives ledger measurements.
type Metrics interface {
	OrderCreated(plan string)
	OrderSettled(result string)
	GatewayCall(operation, outcome string, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) OrderCreated(string)                       {}
func (noopMetrics) OrderSettled(string)                       {}
func (noopMetrics) GatewayCall(string, string, time.Duration) {}
