package services_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v80"

	"github.com/byjojo/store-backend/models"
	"github.com/byjojo/store-backend/services"
)

// mockGateway is a scriptable CheckoutGateway.
type mockGateway struct {
	createFn   func(in services.CreateSessionInput) (*stripe.CheckoutSession, error)
	retrieveFn func(sessionID string) (*stripe.CheckoutSession, error)

	createCalls   int
	retrieveCalls int
	lastInput     services.CreateSessionInput
}

func (m *mockGateway) CreateSession(ctx context.Context, in services.CreateSessionInput) (*stripe.CheckoutSession, error) {
	m.createCalls++
	m.lastInput = in
	if m.createFn == nil {
		return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
	}
	return m.createFn(in)
}

func (m *mockGateway) RetrieveSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	m.retrieveCalls++
	if m.retrieveFn == nil {
		return nil, errors.New("retrieve not scripted")
	}
	return m.retrieveFn(sessionID)
}

func (m *mockGateway) ParseWebhook(r *http.Request) (stripe.Event, error) {
	return stripe.Event{}, errors.New("not implemented")
}

// mockOrderRepo keeps orders in memory, keyed by id and session id.
type mockOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order

	createErr error
	attachErr error

	createCalls   int
	completeCalls int
	failCalls     int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) AttachSessionID(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attachErr != nil {
		return m.attachErr
	}
	if o, ok := m.orders[orderID]; ok {
		o.StripeSessionID = &sessionID
	}
	return nil
}

func (m *mockOrderRepo) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripeSessionID != nil && *o.StripeSessionID == sessionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, errors.New("record not found")
}

func (m *mockOrderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) CompletePending(ctx context.Context, sessionID, paymentIntentID, customerEmail string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls++
	for _, o := range m.orders {
		if o.StripeSessionID != nil && *o.StripeSessionID == sessionID && o.Status == models.OrderStatusPending {
			now := time.Now()
			o.Status = models.OrderStatusCompleted
			o.CompletedAt = &now
			if paymentIntentID != "" {
				o.StripePaymentIntentID = &paymentIntentID
			}
			if customerEmail != "" {
				o.CustomerEmail = customerEmail
			}
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) FailPending(ctx context.Context, orderID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCalls++
	o, ok := m.orders[orderID]
	if !ok || o.Status != models.OrderStatusPending {
		return false, nil
	}
	now := time.Now()
	o.Status = models.OrderStatusFailed
	o.FailedAt = &now
	return true, nil
}

func (m *mockOrderRepo) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == models.OrderStatusPending && o.CreatedAt.Before(olderThan) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) get(id uuid.UUID) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp
	}
	return nil
}

// mockNotifier records confirmation sends.
type mockNotifier struct {
	err   error
	calls int
	last  struct {
		email, orderID, sessionID string
	}
}

func (m *mockNotifier) SendOrderConfirmation(ctx context.Context, email, orderID, sessionID string) error {
	m.calls++
	m.last.email = email
	m.last.orderID = orderID
	m.last.sessionID = sessionID
	return m.err
}

// mockPublisher records SNS publishes.
type mockPublisher struct {
	err      error
	messages [][]byte
	topics   []string
}

func (m *mockPublisher) Publish(ctx context.Context, topicArn string, message []byte) error {
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topicArn)
	m.messages = append(m.messages, message)
	return nil
}

func testCart(t interface{ Fatalf(string, ...interface{}) }) *models.Cart {
	cart := models.NewCart()
	items := []models.LineItem{
		{ID: "p1", Title: "Headphones", UnitPrice: 29.99, Quantity: 2},
		{ID: "p2", Title: "Cable", UnitPrice: 10.00, Quantity: 1},
	}
	for _, it := range items {
		if err := cart.AddItem(it); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}
	return cart
}
