package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/byjojo/store-backend/models"
	awspkg "github.com/byjojo/store-backend/pkg/aws"
	"github.com/byjojo/store-backend/repository"
)

const reconcileBatchSize = 50

// Reconciler periodically re-checks stale pending orders through the verifier.
// A user abandoning the hosted payment page fires no callback, so pending
// orders would otherwise live forever. Orders whose sessions turn out paid are
// completed through the normal verification path; orders still unpaid past
// the expiry window transition pending -> failed.
type Reconciler struct {
	orders      repository.OrderRepository
	verifier    *PaymentVerifier
	events      awspkg.SNSPublisher
	topicArn    string
	interval    time.Duration
	pendingTTL  time.Duration
	expireAfter time.Duration
	logger      *zap.Logger
}

func NewReconciler(orders repository.OrderRepository, verifier *PaymentVerifier, events awspkg.SNSPublisher, topicArn string, interval, pendingTTL, expireAfter time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		orders:      orders,
		verifier:    verifier,
		events:      events,
		topicArn:    topicArn,
		interval:    interval,
		pendingTTL:  pendingTTL,
		expireAfter: expireAfter,
		logger:      logger,
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep re-verifies one batch of stale pending orders.
func (r *Reconciler) Sweep(ctx context.Context) {
	stale, err := r.orders.FindStalePending(ctx, time.Now().Add(-r.pendingTTL), reconcileBatchSize)
	if err != nil {
		r.logger.Error("Failed to fetch stale pending orders", zap.Error(err))
		return
	}

	for _, order := range stale {
		r.reconcile(ctx, order)
	}
}

func (r *Reconciler) reconcile(ctx context.Context, order models.Order) {
	expired := time.Since(order.CreatedAt) > r.expireAfter

	// Orders that never received a session id cannot be verified; they can
	// only age out.
	if order.StripeSessionID == nil || *order.StripeSessionID == "" {
		if expired {
			r.expire(ctx, order)
		}
		return
	}

	result, verr := r.verifier.VerifyPayment(ctx, *order.StripeSessionID)
	if verr != nil {
		r.logger.Warn("Reconciliation verify failed",
			zap.String("order_id", order.ID.String()),
			zap.Error(verr),
		)
		return
	}

	if result.Status == string(stripe.CheckoutSessionPaymentStatusPaid) {
		r.logger.Info("Reconciled paid order",
			zap.String("order_id", order.ID.String()),
		)
		return
	}

	if expired {
		r.expire(ctx, order)
	}
}

func (r *Reconciler) expire(ctx context.Context, order models.Order) {
	failed, err := r.orders.FailPending(ctx, order.ID)
	if err != nil {
		r.logger.Error("Failed to expire pending order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}
	if !failed {
		return
	}

	r.logger.Info("Expired abandoned pending order",
		zap.String("order_id", order.ID.String()),
		zap.Duration("age", time.Since(order.CreatedAt)),
	)

	if r.events == nil || r.topicArn == "" {
		return
	}
	var sessionID string
	if order.StripeSessionID != nil {
		sessionID = *order.StripeSessionID
	}
	payload, _ := json.Marshal(models.OrderEvent{
		Type:        models.EventOrderExpired,
		OrderID:     order.ID.String(),
		UserID:      order.UserID.String(),
		SessionID:   sessionID,
		AmountCents: order.TotalAmountCents,
		Currency:    "usd",
		Timestamp:   time.Now().UTC(),
	})
	if err := r.events.Publish(ctx, r.topicArn, payload); err != nil {
		r.logger.Error("Failed to publish order expired event",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}
