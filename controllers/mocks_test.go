package controllers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	"github.com/byjojo/store-backend/controllers"
	"github.com/byjojo/store-backend/middleware"
	"github.com/byjojo/store-backend/models"
	"github.com/byjojo/store-backend/routes"
	"github.com/byjojo/store-backend/services"
)

var testJWTSecret = []byte("test-secret")

type mockGateway struct {
	createFn   func(in services.CreateSessionInput) (*stripe.CheckoutSession, error)
	retrieveFn func(sessionID string) (*stripe.CheckoutSession, error)
	parseFn    func(r *http.Request) (stripe.Event, error)
}

func (m *mockGateway) CreateSession(ctx context.Context, in services.CreateSessionInput) (*stripe.CheckoutSession, error) {
	if m.createFn == nil {
		return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
	}
	return m.createFn(in)
}

func (m *mockGateway) RetrieveSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	if m.retrieveFn == nil {
		return nil, errors.New("retrieve not scripted")
	}
	return m.retrieveFn(sessionID)
}

func (m *mockGateway) ParseWebhook(r *http.Request) (stripe.Event, error) {
	if m.parseFn == nil {
		return stripe.Event{}, errors.New("invalid signature")
	}
	return m.parseFn(r)
}

type mockOrderRepo struct {
	orders []models.Order

	createErr error
	findErr   error

	completedSessions []string
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.orders = append(m.orders, *order)
	return nil
}

func (m *mockOrderRepo) AttachSessionID(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	for i := range m.orders {
		if m.orders[i].ID == orderID {
			m.orders[i].StripeSessionID = &sessionID
		}
	}
	return nil
}

func (m *mockOrderRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	for i := range m.orders {
		if m.orders[i].StripeSessionID != nil && *m.orders[i].StripeSessionID == sessionID {
			cp := m.orders[i]
			return &cp, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *mockOrderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	if m.findErr != nil {
		return nil, 0, m.findErr
	}
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	total := int64(len(out))
	start := (page - 1) * limit
	if start >= len(out) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (m *mockOrderRepo) CompletePending(ctx context.Context, sessionID, paymentIntentID, customerEmail string) (*models.Order, error) {
	for i := range m.orders {
		o := &m.orders[i]
		if o.StripeSessionID != nil && *o.StripeSessionID == sessionID && o.Status == models.OrderStatusPending {
			now := time.Now()
			o.Status = models.OrderStatusCompleted
			o.CompletedAt = &now
			m.completedSessions = append(m.completedSessions, sessionID)
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) FailPending(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

func (m *mockOrderRepo) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error) {
	return nil, nil
}

type mockNotifier struct {
	err   error
	calls int
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, email, orderID, sessionID string) error {
	m.calls++
	return m.err
}

type testEnv struct {
	router   *gin.Engine
	repo     *mockOrderRepo
	gateway  *mockGateway
	notifier *mockNotifier
}

// newTestEnv wires the full router the way main does, minus the external
// dependencies.
func newTestEnv(t *testing.T, webhookEnabled bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop()
	repo := &mockOrderRepo{}
	gateway := &mockGateway{}
	notifier := &mockNotifier{}

	checkout := services.NewCheckoutService(gateway, repo, "https://shop.example", "checkout.stripe.com", log)
	verifier := services.NewPaymentVerifier(gateway, repo, notifier, nil, "", log)

	cc := &controllers.CheckoutController{Checkout: checkout, Verifier: verifier, Gateway: gateway, Logger: log}
	oc := &controllers.OrderController{Orders: repo, Logger: log}
	nc := &controllers.NotificationController{Notifier: notifier, Logger: log}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.CORS())
	routes.Register(r, cc, oc, nc, testJWTSecret, webhookEnabled)

	return &testEnv{router: r, repo: repo, gateway: gateway, notifier: notifier}
}

func signToken(t *testing.T, userID uuid.UUID, email string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testJWTSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func pendingOrder(sessionID string) models.Order {
	sid := sessionID
	return models.Order{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		CustomerEmail:    "buyer@example.com",
		TotalAmountCents: 5998,
		Status:           models.OrderStatusPending,
		StripeSessionID:  &sid,
		CreatedAt:        time.Now(),
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
