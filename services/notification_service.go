package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"

	"github.com/byjojo/store-backend/sender"
)

//go:embed templates/order_confirmation.html
var orderConfirmationTmpl string

const (
	confirmationSubject = "Order Confirmation - By jojo store"
	storeName           = "By jojo store"
	supportEmail        = "support@byjojostore.com"
)

// NotificationService renders and dispatches order confirmation emails.
// Transport errors are reported to the caller but never escalate into a
// checkout failure; the verifier logs and degrades instead.
type NotificationService struct {
	sender      sender.EmailSender
	frontendURL string
	tmpl        *template.Template
	retryDelay  time.Duration
	logger      *zap.Logger
}

func NewNotificationService(emailSender sender.EmailSender, frontendURL string, logger *zap.Logger) (*NotificationService, error) {
	tmpl, err := template.New("order_confirmation").Parse(orderConfirmationTmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse confirmation template: %w", err)
	}
	return &NotificationService{
		sender:      emailSender,
		frontendURL: frontendURL,
		tmpl:        tmpl,
		retryDelay:  time.Second,
		logger:      logger,
	}, nil
}

// SendOrderConfirmation renders the fixed confirmation template and relays it
// over the mail transport, retrying transient failures.
func (s *NotificationService) SendOrderConfirmation(ctx context.Context, email, orderID, sessionID string) error {
	if email == "" || sessionID == "" {
		return fmt.Errorf("missing email or sessionId")
	}
	if orderID == "" {
		orderID = "Processing"
	}

	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, map[string]string{
		"StoreName":    storeName,
		"SupportEmail": supportEmail,
		"FrontendURL":  s.frontendURL,
		"OrderID":      orderID,
		"SessionID":    sessionID,
		"Email":        email,
	})
	if err != nil {
		return fmt.Errorf("template render failed: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * s.retryDelay)
		}

		var result sender.SendResult
		result, lastErr = s.sender.SendEmail(ctx, email, confirmationSubject, buf.String())
		if lastErr == nil {
			s.logger.Info("Confirmation email sent",
				zap.String("order_id", orderID),
				zap.String("message_id", result.MessageID),
			)
			return nil
		}

		s.logger.Warn("Confirmation email attempt failed",
			zap.String("order_id", orderID),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr),
		)
	}

	return fmt.Errorf("confirmation email failed: %w", lastErr)
}
