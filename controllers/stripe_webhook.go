package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
)

// StripeWebhook receives signed gateway events. Completed checkout sessions
// are fed through the same verification path as the client redirect; the
// status-guarded order update makes the race between the two harmless.
func (cc *CheckoutController) StripeWebhook(c *gin.Context) {
	event, err := cc.Gateway.ParseWebhook(c.Request)
	if err != nil {
		cc.Logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	cc.Logger.Info("Processing Stripe webhook",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
	)

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			cc.Logger.Error("Failed to unmarshal checkout session", zap.Error(err))
			break
		}
		if _, appErr := cc.Verifier.VerifyPayment(c.Request.Context(), sess.ID); appErr != nil {
			cc.Logger.Error("Webhook-triggered verification failed",
				zap.String("session_id", sess.ID),
				zap.Error(appErr),
			)
		}
	default:
		cc.Logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
