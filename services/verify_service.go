package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	awspkg "github.com/byjojo/store-backend/pkg/aws"

	"github.com/byjojo/store-backend/models"
	apperrors "github.com/byjojo/store-backend/pkg/errors"
	"github.com/byjojo/store-backend/repository"
)

// Notifier dispatches the order confirmation once a payment is confirmed.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email, orderID, sessionID string) error
}

// VerifyResult mirrors the gateway's authoritative view of a session.
// Degraded means the payment is confirmed but the order update or the
// confirmation email did not go through.
type VerifyResult struct {
	Status        string
	CustomerEmail string
	Amount        float64
	OrderID       string
	Degraded      bool
}

// PaymentVerifier reconciles local orders against the gateway's session state.
type PaymentVerifier struct {
	gateway  CheckoutGateway
	orders   repository.OrderRepository
	notifier Notifier
	events   awspkg.SNSPublisher
	topicArn string
	logger   *zap.Logger
}

func NewPaymentVerifier(gateway CheckoutGateway, orders repository.OrderRepository, notifier Notifier, events awspkg.SNSPublisher, topicArn string, logger *zap.Logger) *PaymentVerifier {
	return &PaymentVerifier{
		gateway:  gateway,
		orders:   orders,
		notifier: notifier,
		events:   events,
		topicArn: topicArn,
		logger:   logger,
	}
}

// VerifyPayment queries the gateway for the session's state and, when it is
// paid, flips the matching order pending -> completed. The status-guarded
// update makes re-verification idempotent: only the call that performs the
// transition dispatches the confirmation email and the fan-out event. The
// gateway's reported status is returned regardless of reconciliation outcome.
func (v *PaymentVerifier) VerifyPayment(ctx context.Context, sessionID string) (*VerifyResult, *apperrors.Error) {
	if sessionID == "" {
		return nil, apperrors.New(400, "Session ID is required", nil)
	}

	sess, err := v.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		v.logger.Error("Gateway session lookup failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return nil, apperrors.New(500, "Payment verification failed", err)
	}

	result := &VerifyResult{
		Status: string(sess.PaymentStatus),
		Amount: float64(sess.AmountTotal) / 100,
	}
	if sess.CustomerDetails != nil {
		result.CustomerEmail = sess.CustomerDetails.Email
	}

	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return result, nil
	}

	var paymentIntentID string
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}

	order, err := v.orders.CompletePending(ctx, sessionID, paymentIntentID, result.CustomerEmail)
	if err != nil {
		// Order-update failures never block the verification response.
		v.logger.Error("Failed to update order for paid session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		result.Degraded = true
		return result, nil
	}
	if order == nil {
		// No pending row: either an unknown session or a duplicate
		// verification. Either way there is nothing left to do.
		return result, nil
	}

	result.OrderID = order.ID.String()

	email := result.CustomerEmail
	if email == "" {
		email = order.CustomerEmail
	}
	if err := v.notifier.SendOrderConfirmation(ctx, email, order.ID.String(), sessionID); err != nil {
		v.logger.Error("Failed to send confirmation email",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		result.Degraded = true
	}

	v.publishOrderEvent(ctx, models.OrderEvent{
		Type:        models.EventOrderCompleted,
		OrderID:     order.ID.String(),
		UserID:      order.UserID.String(),
		SessionID:   sessionID,
		AmountCents: order.TotalAmountCents,
		Currency:    "usd",
		Timestamp:   time.Now().UTC(),
	})

	return result, nil
}

// publishOrderEvent publishes a lifecycle event to SNS, best effort.
func (v *PaymentVerifier) publishOrderEvent(ctx context.Context, event models.OrderEvent) {
	if v.events == nil || v.topicArn == "" {
		return
	}
	payload, _ := json.Marshal(event)
	if err := v.events.Publish(ctx, v.topicArn, payload); err != nil {
		v.logger.Error("Failed to publish order event",
			zap.String("event_type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return
	}
	v.logger.Info("Order event published",
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID),
	)
}
