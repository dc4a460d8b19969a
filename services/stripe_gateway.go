package services

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/customer"
	"github.com/stripe/stripe-go/v80/webhook"

	"github.com/byjojo/store-backend/models"
)

// CreateSessionInput describes one hosted-checkout session request.
type CreateSessionInput struct {
	LineItems     []models.GatewayLineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutGateway abstracts the payment gateway for the checkout services.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*stripe.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	ParseWebhook(r *http.Request) (stripe.Event, error)
}

// StripeGateway implements CheckoutGateway against the Stripe API.
type StripeGateway struct {
	SecretKey     string
	WebhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{SecretKey: secretKey, WebhookSecret: webhookSecret}
}

// CreateSession creates a hosted checkout session in payment mode. If a Stripe
// customer already exists for the email it is reused, otherwise the email is
// attached directly so the receipt still reaches the buyer.
func (g *StripeGateway) CreateSession(ctx context.Context, in CreateSessionInput) (*stripe.CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.LineItems))
	for _, li := range in.LineItems {
		pd := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.PriceData.ProductData.Name),
		}
		if li.PriceData.ProductData.Description != "" {
			pd.Description = stripe.String(li.PriceData.ProductData.Description)
		}
		if len(li.PriceData.ProductData.Images) > 0 {
			pd.Images = stripe.StringSlice(li.PriceData.ProductData.Images)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(li.PriceData.Currency),
				ProductData: pd,
				UnitAmount:  stripe.Int64(li.PriceData.UnitAmount),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:                lineItems,
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(in.SuccessURL),
		CancelURL:                stripe.String(in.CancelURL),
		AllowPromotionCodes:      stripe.Bool(true),
		BillingAddressCollection: stripe.String("required"),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "CA", "GB", "AU", "DE", "FR", "IN"}),
		},
	}
	params.Context = ctx

	if id := g.lookupCustomerID(in.CustomerEmail); id != "" {
		params.Customer = stripe.String(id)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}
	if userID := in.Metadata["user_id"]; userID != "" {
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{"user_id": userID},
		}
	}

	return session.New(params)
}

// lookupCustomerID finds an existing customer for the email. Best effort:
// lookup failures fall back to customer_email on the session.
func (g *StripeGateway) lookupCustomerID(email string) string {
	if email == "" {
		return ""
	}
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	iter := customer.List(listParams)
	for iter.Next() {
		return iter.Customer().ID
	}
	return ""
}

// RetrieveSession fetches the authoritative session state with the payment
// intent expanded.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")
	return session.Get(sessionID, params)
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (g *StripeGateway) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, g.WebhookSecret)
}
