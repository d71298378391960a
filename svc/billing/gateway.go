package billing

import "context"

// Gateway is the payment provider.
type Gateway interface {
	// CreateOrder registers an order with the provider.
	CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error)
	// VerifyPayment confirms that a payment for the order succeeded. A false
	// result with nil error is a definitive mismatch; an error means the
	// outcome is unknown and the order must stay pending.
	VerifyPayment(ctx context.Context, c PaymentConfirmation) (bool, error)
	// ParseWebhook validates the signature and decodes a provider event.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// OrderRequest is what the provider needs to create an order.
type OrderRequest struct {
	Amount   Money
	PriceID  string
	UserID   string
	PlanCode string
	Receipt  string
}

// GatewayOrder is the provider's view of a created order.
type GatewayOrder struct {
	ID          string
	Amount      Money
	CheckoutURL string
}

// PaymentConfirmation is the client-supplied proof of payment.
type PaymentConfirmation struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// EventType is a normalized webhook event kind.
type EventType string

const (
	// EventPaymentSucceeded settles the order as verified.
	EventPaymentSucceeded EventType = "payment_succeeded"
	// EventPaymentAttemptFailed reports one declined attempt. The customer
	// may still pay, so the order stays pending.
	EventPaymentAttemptFailed EventType = "payment_attempt_failed"
	// EventOrderCanceled closes the order; it settles as failed.
	EventOrderCanceled EventType = "order_canceled"
)

// WebhookEvent is a signature-validated provider notification.
type WebhookEvent struct {
	ID            string
	Type          EventType
	ProviderEvent string
	OrderID       string
	PaymentID     string
}
