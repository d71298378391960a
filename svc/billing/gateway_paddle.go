package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds Paddle Billing credentials.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
	CheckoutURL   string `env:"PADDLE_CHECKOUT_URL"`
}

// PaddleTransactions is the part of the Paddle transactions API the gateway
// calls. *paddle.TransactionsClient satisfies it.
type PaddleTransactions interface {
	CreateTransaction(ctx context.Context, req *paddle.CreateTransactionRequest) (*paddle.Transaction, error)
	GetTransaction(ctx context.Context, req *paddle.GetTransactionRequest) (*paddle.Transaction, error)
}

// PaddleOption configures a PaddleGateway.
type PaddleOption func(*PaddleGateway)

// WithPaddleTransactions replaces the SDK transactions client.
func WithPaddleTransactions(tx PaddleTransactions) PaddleOption {
	return func(g *PaddleGateway) {
		if tx != nil {
			g.transactions = tx
		}
	}
}

// PaddleGateway maps orders onto Paddle transactions. The transaction id is
// the order id. Verification re-reads the transaction server-side, so the
// client signature is not needed. A supplied payment id that the transaction
// does not list is inconclusive, never a mismatch: the order stays pending
// until a matching id or a webhook settles it.
type PaddleGateway struct {
	transactions PaddleTransactions
	verifier     *paddle.WebhookVerifier
	checkoutURL  string
}

func NewPaddleGateway(cfg PaddleConfig, opts ...PaddleOption) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("billing: create paddle client: %w", err)
	}

	g := &PaddleGateway{
		transactions: client.TransactionsClient,
		verifier:     paddle.NewWebhookVerifier(cfg.WebhookSecret),
		checkoutURL:  cfg.CheckoutURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *PaddleGateway) CreateOrder(ctx context.Context, req OrderRequest) (*GatewayOrder, error) {
	if req.PriceID == "" {
		return nil, ErrMissingPriceID
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	txnReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"user_id":  req.UserID,
			"plan":     req.PlanCode,
			"receipt":  req.Receipt,
			"amount":   req.Amount.Amount,
			"currency": req.Amount.Currency,
		},
	}
	if g.checkoutURL != "" {
		txnReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(g.checkoutURL)}
	}

	txn, err := g.transactions.CreateTransaction(ctx, txnReq)
	if err != nil {
		return nil, fmt.Errorf("paddle create transaction: %w", err)
	}

	out := &GatewayOrder{ID: txn.ID, Amount: req.Amount}
	if txn.Checkout != nil && txn.Checkout.URL != nil {
		out.CheckoutURL = *txn.Checkout.URL
	}
	return out, nil
}

func (g *PaddleGateway) VerifyPayment(ctx context.Context, c PaymentConfirmation) (bool, error) {
	txn, err := g.transactions.GetTransaction(ctx, &paddle.GetTransactionRequest{
		TransactionID: c.OrderID,
	})
	if err != nil {
		return false, fmt.Errorf("paddle get transaction: %w", err)
	}

	switch txn.Status {
	case paddle.TransactionStatusCompleted, paddle.TransactionStatusPaid:
	case paddle.TransactionStatusCanceled:
		return false, nil
	default:
		return false, fmt.Errorf("%w: transaction status %s", ErrPaymentIncomplete, txn.Status)
	}

	if c.PaymentID == "" {
		return true, nil
	}
	for _, p := range txn.Payments {
		if p.PaymentAttemptID == c.PaymentID {
			return true, nil
		}
	}
	return false, fmt.Errorf("%w: %q on transaction %s", ErrUnknownPaymentAttempt, c.PaymentID, txn.ID)
}

func (g *PaddleGateway) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("billing: build webhook request: %w", err)
	}
	req.Header.Set(PaddleSignatureHeader, signature)

	ok, err := g.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerification, err)
	}
	if !ok {
		return nil, ErrWebhookVerification
	}

	var body struct {
		EventID   string `json:"event_id"`
		EventType string `json:"event_type"`
		Data      struct {
			ID       string `json:"id"`
			Payments []struct {
				PaymentAttemptID string `json:"payment_attempt_id"`
				Status           string `json:"status"`
			} `json:"payments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("billing: decode paddle webhook: %w", err)
	}

	evt := &WebhookEvent{
		ID:            body.EventID,
		Type:          paddleEventType(body.EventType),
		ProviderEvent: body.EventType,
		OrderID:       body.Data.ID,
	}
	for _, p := range body.Data.Payments {
		if p.PaymentAttemptID != "" {
			evt.PaymentID = p.PaymentAttemptID
			if p.Status == "captured" {
				break
			}
		}
	}
	return evt, nil
}

func paddleEventType(event string) EventType {
	switch event {
	case "transaction.completed", "transaction.paid":
		return EventPaymentSucceeded
	case "transaction.payment_failed", "transaction.past_due":
		return EventPaymentAttemptFailed
	case "transaction.canceled":
		return EventOrderCanceled
	default:
		return EventType(event)
	}
}
