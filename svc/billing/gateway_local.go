package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/backend-bits/saas-backend/pkg/webhook"
)

// LocalGateway is a self-contained gateway for development and tests. Orders
// get random ids; a payment is valid when its signature is
// hex(HMAC-SHA256(secret, order_id + "|" + payment_id)). Webhooks carry a
// timestamped signature header in the format of package webhook.
type LocalGateway struct {
	secret []byte
	signer *webhook.Signer
}

func NewLocalGateway(secret string, opts ...webhook.Option) (*LocalGateway, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	signer, err := webhook.NewSigner(secret, opts...)
	if err != nil {
		return nil, err
	}
	return &LocalGateway{secret: []byte(secret), signer: signer}, nil
}

func (g *LocalGateway) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	return &GatewayOrder{ID: id, Amount: req.Amount}, nil
}

func (g *LocalGateway) VerifyPayment(ctx context.Context, c PaymentConfirmation) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if c.OrderID == "" || c.PaymentID == "" || c.Signature == "" {
		return false, nil
	}
	return hmac.Equal([]byte(c.Signature), []byte(g.Sign(c.OrderID+"|"+c.PaymentID))), nil
}

// Sign returns the hex HMAC of msg.
func (g *LocalGateway) Sign(msg string) string {
	h := hmac.New(sha256.New, g.secret)
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

// SignPayment returns the signature a client would present for a payment.
func (g *LocalGateway) SignPayment(orderID, paymentID string) string {
	return g.Sign(orderID + "|" + paymentID)
}

// SignWebhook returns the signature header for a webhook payload.
func (g *LocalGateway) SignWebhook(payload []byte) string {
	return g.signer.Sign(payload)
}

func (g *LocalGateway) ParseWebhook(_ context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	if err := g.signer.Verify(payload, signature); err != nil {
		return nil, errors.Join(ErrWebhookVerification, err)
	}

	var body struct {
		ID        string `json:"id"`
		Event     string `json:"event"`
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("billing: decode webhook: %w", err)
	}

	return &WebhookEvent{
		ID:            body.ID,
		Type:          localEventType(body.Event),
		ProviderEvent: body.Event,
		OrderID:       body.OrderID,
		PaymentID:     body.PaymentID,
	}, nil
}

func localEventType(event string) EventType {
	switch event {
	case "payment.captured", "order.paid":
		return EventPaymentSucceeded
	case "payment.failed":
		return EventPaymentAttemptFailed
	case "order.canceled", "order.cancelled":
		return EventOrderCanceled
	default:
		return EventType(event)
	}
}
