package billing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/backend-bits/saas-backend/pkg/logger"
)

// HandleWebhook applies a gateway notification to the ledger. Success and
// cancellation events settle a pending order through the same commit path as
// VerifyOrder without calling the gateway again. A failed payment attempt is
// only logged: the order stays payable. Unknown orders and event types are
// acknowledged so the provider stops redelivering them.
func (l *Ledger) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := l.gateway.ParseWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrWebhookVerification) {
			return err
		}
		return errors.Join(ErrWebhookVerification, err)
	}

	var to Status
	switch evt.Type {
	case EventPaymentSucceeded:
		to = StatusVerified
	case EventOrderCanceled:
		to = StatusFailed
	case EventPaymentAttemptFailed:
		l.log.InfoContext(ctx, "payment attempt failed, order stays pending",
			logger.OrderID(evt.OrderID),
			logger.EventType(evt.ProviderEvent),
		)
		return nil
	default:
		l.log.DebugContext(ctx, "ignoring webhook event", logger.EventType(evt.ProviderEvent))
		return nil
	}

	order, err := l.store.Get(ctx, evt.OrderID)
	if errors.Is(err, ErrOrderNotFound) {
		l.log.WarnContext(ctx, "webhook for unknown order",
			logger.OrderID(evt.OrderID),
			logger.EventType(evt.ProviderEvent),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if order.Status.Terminal() {
		if order.Status != to {
			l.log.WarnContext(ctx, "webhook disagrees with settled order",
				logger.OrderID(order.ID),
				logger.EventType(evt.ProviderEvent),
				slog.String("stored", string(order.Status)),
			)
		}
		return nil
	}

	// A held claim means a verification is in flight; the conditional
	// update below still admits a single writer.
	release, err := l.locker.Acquire(ctx, claimKey(order.ID), l.claimTTL)
	switch {
	case err == nil:
		defer release()
	case !errors.Is(err, ErrLockHeld):
		return err
	}

	_, err = l.commit(ctx, order, to, evt.PaymentID)
	return err
}
