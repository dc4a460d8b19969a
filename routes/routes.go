package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/byjojo/store-backend/controllers"
	"github.com/byjojo/store-backend/middleware"
)

// Register wires all HTTP routes. The webhook route is only registered when a
// signing secret is configured; verification and confirmation dispatch stay
// unauthenticated because the success page may load without a session token.
func Register(
	r *gin.Engine,
	cc *controllers.CheckoutController,
	oc *controllers.OrderController,
	nc *controllers.NotificationController,
	jwtSecret []byte,
	webhookEnabled bool,
) {
	checkout := r.Group("/checkout")
	checkout.POST("/session", middleware.AuthMiddleware(jwtSecret), cc.CreateSession)
	checkout.POST("/verify", cc.VerifyPayment)

	orders := r.Group("/orders")
	orders.Use(middleware.AuthMiddleware(jwtSecret))
	orders.GET("", oc.ListOrders)

	r.POST("/notifications/confirmation", nc.SendConfirmation)

	if webhookEnabled {
		r.POST("/stripe/webhook", cc.StripeWebhook)
	}
}
