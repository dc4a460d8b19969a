package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/byjojo/store-backend/middleware"
	"github.com/byjojo/store-backend/models"
	"github.com/byjojo/store-backend/services"
)

// CheckoutController exposes the checkout session and verification endpoints.
type CheckoutController struct {
	Checkout *services.CheckoutService
	Verifier *services.PaymentVerifier
	Gateway  services.CheckoutGateway
	Logger   *zap.Logger
}

type createSessionRequest struct {
	Items      []models.GatewayLineItem `json:"items"`
	SuccessURL string                   `json:"success_url"`
	CancelURL  string                   `json:"cancel_url"`
}

// CreateSession validates the submitted cart, creates a hosted checkout
// session and returns the gateway URL the browser should be handed to.
func (cc *CheckoutController) CreateSession(c *gin.Context) {
	user, ok := middleware.GetAuthUser(c)
	if !ok {
		cc.respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		cc.respondError(c, http.StatusBadRequest, "Invalid JSON in request body", err)
		return
	}

	if len(req.Items) == 0 {
		cc.respondError(c, http.StatusBadRequest, "No valid items provided", nil)
		return
	}
	for _, item := range req.Items {
		if item.PriceData.UnitAmount <= 0 || item.Quantity <= 0 {
			cc.respondError(c, http.StatusBadRequest, "Invalid item format", nil)
			return
		}
	}

	cart, err := models.CartFromGatewayItems(req.Items)
	if err != nil {
		cc.respondError(c, http.StatusBadRequest, "Invalid item format", err)
		return
	}

	result, appErr := cc.Checkout.InitiateCheckout(c.Request.Context(), user, cart, services.CheckoutOptions{
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if appErr != nil {
		cc.respondError(c, appErr.Code, appErr.Message, appErr.Err)
		return
	}

	resp := gin.H{
		"sessionId": result.SessionID,
		"url":       result.URL,
		"success":   true,
	}
	if result.Degraded {
		resp["degraded"] = true
	}
	c.JSON(http.StatusOK, resp)
}

type verifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

// VerifyPayment queries the gateway for a session's authoritative payment
// state and reconciles the matching order. This is the only path to a
// confirmed order; the redirect alone proves nothing.
func (cc *CheckoutController) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in request body"})
		return
	}
	if req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return
	}

	result, appErr := cc.Verifier.VerifyPayment(c.Request.Context(), req.SessionID)
	if appErr != nil {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	resp := gin.H{
		"status":        result.Status,
		"customerEmail": result.CustomerEmail,
		"amount":        result.Amount,
	}
	if result.Degraded {
		resp["degraded"] = true
	}
	c.JSON(http.StatusOK, resp)
}
