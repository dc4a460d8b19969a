package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError logs a warning and writes the JSON error shape the frontend
// expects. The status argument should be an http.Status* constant.
func (cc *CheckoutController) respondError(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		cc.Logger.Warn(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg, "success": false})
}
