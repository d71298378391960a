package billing

import "time"

// Status is an order's position in its lifecycle.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
)

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFailed
}

func (s Status) valid() bool {
	return s == StatusPending || s.Terminal()
}

// checkTransition allows only pending -> verified|failed.
func checkTransition(from, to Status) error {
	if from != StatusPending || !to.Terminal() {
		return ErrTerminalStatus
	}
	return nil
}

// Order is a payment order keyed by the gateway's order id.
type Order struct {
	ID          string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	PlanCode    string    `json:"plan"`
	Amount      Money     `json:"amount"`
	Status      Status    `json:"status"`
	PaymentID   string    `json:"payment_id,omitempty"`
	CheckoutURL string    `json:"checkout_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
