package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/backend-bits/saas-backend/pkg/handler"
	"github.com/backend-bits/saas-backend/svc/access"
	"github.com/backend-bits/saas-backend/svc/billing"
)

const maxWebhookBody = 1 << 20

func (s *server) plans(ctx handler.Context, _ struct{}) handler.Response {
	return handler.JSON(map[string]any{"plans": s.ledger.Catalog().Plans()})
}

// CreateOrderRequest starts a checkout. UserID defaults to the token
// subject and may only repeat it.
type CreateOrderRequest struct {
	PlanType string `json:"plan_type"`
	UserID   string `json:"user_id,omitempty"`
}

func (s *server) createOrder(ctx handler.Context, req CreateOrderRequest) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}

	if req.PlanType == "" {
		verr := handler.NewValidationError()
		verr.Add("plan_type", "required")
		return handler.Error(verr)
	}
	if req.UserID != "" && req.UserID != claims.Subject {
		return handler.Error(ErrUserMismatch)
	}

	order, err := s.ledger.CreateOrder(ctx, req.PlanType, claims.Subject)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]any{"order": order}, handler.WithJSONStatus(http.StatusCreated))
}

// VerifyPaymentRequest carries the client-side payment confirmation.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type verifyResponse struct {
	OrderID string      `json:"order_id"`
	Status  string      `json:"status"`
	Tier    access.Tier `json:"tier"`
}

func (s *server) verifyPayment(ctx handler.Context, req VerifyPaymentRequest) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}

	if req.OrderID == "" {
		verr := handler.NewValidationError()
		verr.Add("order_id", "required")
		return handler.Error(verr)
	}
	if _, err := s.ownedOrder(ctx, req.OrderID, claims.Subject); err != nil {
		return handler.Error(err)
	}

	tier, err := s.ledger.VerifyOrder(ctx, req.OrderID, billing.PaymentConfirmation{
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		return handler.Error(err)
	}

	return handler.JSON(verifyResponse{
		OrderID: req.OrderID,
		Status:  string(billing.StatusVerified),
		Tier:    tier,
	})
}

// OrderRequest addresses one order by path.
type OrderRequest struct {
	OrderID string `path:"orderID"`
}

func (s *server) getOrder(ctx handler.Context, req OrderRequest) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}

	order, err := s.ownedOrder(ctx, req.OrderID, claims.Subject)
	if err != nil {
		return handler.Error(err)
	}

	resp := map[string]any{"order": order}
	if order.Status == billing.StatusVerified {
		if tier, err := s.ledger.GetGrantedTier(ctx, order.ID); err == nil {
			resp["tier"] = tier
		}
	}
	return handler.JSON(resp)
}

func (s *server) listOrders(ctx handler.Context, _ struct{}) handler.Response {
	claims, err := claimsFrom(ctx)
	if err != nil {
		return handler.Error(err)
	}

	orders, err := s.ledger.Orders(ctx, claims.Subject)
	if err != nil {
		return handler.Error(err)
	}
	if orders == nil {
		orders = []*billing.Order{}
	}
	return handler.JSON(map[string]any{"orders": orders})
}

// ownedOrder hides other users' orders behind ErrOrderNotFound.
func (s *server) ownedOrder(ctx handler.Context, orderID, userID string) (*billing.Order, error) {
	order, err := s.ledger.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, billing.ErrOrderNotFound
	}
	return order, nil
}

func (s *server) webhook(ctx handler.Context, _ struct{}) handler.Response {
	r := ctx.Request()
	payload, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return handler.Error(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "payload_too_large"))
		}
		return handler.Error(handler.ErrBadRequest)
	}

	if err := s.ledger.HandleWebhook(ctx, payload, r.Header.Get(s.signatureHeader)); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(map[string]any{"received": true})
}
