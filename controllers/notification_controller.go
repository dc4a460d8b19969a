package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/byjojo/store-backend/services"
)

type NotificationController struct {
	Notifier services.Notifier
	Logger   *zap.Logger
}

type confirmationRequest struct {
	Email     string `json:"email"`
	OrderID   string `json:"orderId"`
	SessionID string `json:"sessionId"`
}

// SendConfirmation dispatches an order confirmation email on demand.
func (nc *NotificationController) SendConfirmation(c *gin.Context) {
	var req confirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON in request body", "success": false})
		return
	}
	if req.Email == "" || req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing email or sessionId", "success": false})
		return
	}

	if err := nc.Notifier.SendOrderConfirmation(c.Request.Context(), req.Email, req.OrderID, req.SessionID); err != nil {
		nc.Logger.Error("Confirmation dispatch failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Confirmation email sent successfully",
		"email":   req.Email,
		"orderId": req.OrderID,
	})
}
