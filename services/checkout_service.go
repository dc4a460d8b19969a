package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/byjojo/store-backend/models"
	apperrors "github.com/byjojo/store-backend/pkg/errors"
	"github.com/byjojo/store-backend/repository"
)

// CheckoutOptions carries per-request overrides for the redirect targets.
type CheckoutOptions struct {
	SuccessURL string
	CancelURL  string
}

// CheckoutResult is what the initiator hands back to the redirect layer.
// Degraded means checkout succeeded but the order row could not be written or
// updated; reconciliation against this session is weakened.
type CheckoutResult struct {
	SessionID string
	URL       string
	OrderID   *uuid.UUID
	Degraded  bool
}

// CheckoutService is the canonical checkout session initiator.
type CheckoutService struct {
	gateway     CheckoutGateway
	orders      repository.OrderRepository
	frontendURL string
	gatewayHost string
	logger      *zap.Logger
}

func NewCheckoutService(gateway CheckoutGateway, orders repository.OrderRepository, frontendURL, gatewayHost string, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:     gateway,
		orders:      orders,
		frontendURL: frontendURL,
		gatewayHost: gatewayHost,
		logger:      logger,
	}
}

// InitiateCheckout validates the cart and identity, records a pending order,
// requests a hosted checkout session and returns the gateway URL.
//
// The order row is written before the gateway call so a session can always be
// reconciled later, even if the client loses network after the redirect.
// Order persistence failures are logged and do not abort checkout; the result
// is marked degraded instead.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, user models.AuthenticatedUser, cart *models.Cart, opts CheckoutOptions) (*CheckoutResult, *apperrors.Error) {
	if user.ID == uuid.Nil || user.Email == "" {
		return nil, apperrors.ErrAuthFailed
	}
	if cart == nil || cart.IsEmpty() {
		return nil, apperrors.ErrEmptyCart
	}

	lineItems := cart.GatewayLineItems()
	for _, li := range lineItems {
		if li.PriceData.UnitAmount <= 0 || li.Quantity < 1 {
			return nil, apperrors.ErrInvalidLineItem
		}
	}

	degraded := false
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           user.ID,
		CustomerEmail:    user.Email,
		TotalAmountCents: cart.SubtotalCents(),
		Status:           models.OrderStatusPending,
	}
	orderPersisted := true
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Warn("Failed to store pending order, proceeding with checkout",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		orderPersisted = false
		degraded = true
	}

	successURL := opts.SuccessURL
	if successURL == "" {
		successURL = s.frontendURL + "/success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := opts.CancelURL
	if cancelURL == "" {
		cancelURL = s.frontendURL + "/"
	}

	metadata := map[string]string{
		"user_id":    user.ID.String(),
		"user_email": user.Email,
	}
	if orderPersisted {
		metadata["order_id"] = order.ID.String()
	}

	sess, err := s.gateway.CreateSession(ctx, CreateSessionInput{
		LineItems:     lineItems,
		CustomerEmail: user.Email,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Metadata:      metadata,
	})
	if err != nil {
		s.logger.Error("Gateway session creation failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, apperrors.New(http.StatusInternalServerError, "Failed to create checkout session", err)
	}

	if err := s.checkGatewayURL(sess.URL); err != nil {
		s.logger.Error("Gateway returned unexpected redirect URL",
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
		return nil, apperrors.New(http.StatusInternalServerError, "Failed to create checkout session", err)
	}

	if orderPersisted {
		if err := s.orders.AttachSessionID(ctx, order.ID, sess.ID); err != nil {
			s.logger.Warn("Failed to attach session id to order",
				zap.String("order_id", order.ID.String()),
				zap.String("session_id", sess.ID),
				zap.Error(err),
			)
			degraded = true
		}
	}

	result := &CheckoutResult{SessionID: sess.ID, URL: sess.URL, Degraded: degraded}
	if orderPersisted {
		id := order.ID
		result.OrderID = &id
	}
	return result, nil
}

// checkGatewayURL rejects redirect URLs that do not belong to the expected
// gateway host before the browser is handed over to them.
func (s *CheckoutService) checkGatewayURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("unparseable checkout url: %w", err)
	}
	if u.Scheme != "https" || u.Host != s.gatewayHost {
		return fmt.Errorf("checkout url host %q does not match gateway host %q", u.Host, s.gatewayHost)
	}
	return nil
}
