package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/byjojo/store-backend/sender"
)

// mockSender fails the first failures sends, then succeeds.
type mockSender struct {
	failures int
	calls    int
	lastTo   string
	lastSub  string
	lastBody string
}

func (m *mockSender) SendEmail(ctx context.Context, to, subject, body string) (sender.SendResult, error) {
	m.calls++
	m.lastTo = to
	m.lastSub = subject
	m.lastBody = body
	if m.calls <= m.failures {
		return sender.SendResult{}, errors.New("smtp timeout")
	}
	return sender.SendResult{MessageID: "msg-1"}, nil
}

func newTestNotificationService(t *testing.T, ms *mockSender) *NotificationService {
	t.Helper()
	svc, err := NewNotificationService(ms, "https://shop.example", zap.NewNop())
	assert.NoError(t, err)
	svc.retryDelay = 0
	return svc
}

func TestSendOrderConfirmation(t *testing.T) {
	ms := &mockSender{}
	svc := newTestNotificationService(t, ms)

	err := svc.SendOrderConfirmation(context.Background(), "buyer@example.com", "ord-123", "cs_test_1")
	assert.NoError(t, err)
	assert.Equal(t, 1, ms.calls)
	assert.Equal(t, "buyer@example.com", ms.lastTo)
	assert.Equal(t, confirmationSubject, ms.lastSub)

	// the rendered body carries the order reference and store identity
	assert.True(t, strings.Contains(ms.lastBody, "ord-123"))
	assert.True(t, strings.Contains(ms.lastBody, "cs_test_1"))
	assert.True(t, strings.Contains(ms.lastBody, storeName))
	assert.True(t, strings.Contains(ms.lastBody, "https://shop.example"))
}

func TestSendOrderConfirmationRetriesTransientFailure(t *testing.T) {
	ms := &mockSender{failures: 2}
	svc := newTestNotificationService(t, ms)

	err := svc.SendOrderConfirmation(context.Background(), "buyer@example.com", "ord-123", "cs_test_1")
	assert.NoError(t, err)
	assert.Equal(t, 3, ms.calls)
}

func TestSendOrderConfirmationExhaustsRetries(t *testing.T) {
	ms := &mockSender{failures: 10}
	svc := newTestNotificationService(t, ms)

	err := svc.SendOrderConfirmation(context.Background(), "buyer@example.com", "ord-123", "cs_test_1")
	assert.Error(t, err)
	assert.Equal(t, 3, ms.calls)
}

func TestSendOrderConfirmationMissingFields(t *testing.T) {
	ms := &mockSender{}
	svc := newTestNotificationService(t, ms)

	err := svc.SendOrderConfirmation(context.Background(), "", "ord-123", "cs_test_1")
	assert.EqualError(t, err, "missing email or sessionId")

	err = svc.SendOrderConfirmation(context.Background(), "buyer@example.com", "ord-123", "")
	assert.EqualError(t, err, "missing email or sessionId")

	assert.Equal(t, 0, ms.calls)
}

func TestSendOrderConfirmationDefaultsOrderID(t *testing.T) {
	ms := &mockSender{}
	svc := newTestNotificationService(t, ms)

	err := svc.SendOrderConfirmation(context.Background(), "buyer@example.com", "", "cs_test_1")
	assert.NoError(t, err)
	assert.True(t, strings.Contains(ms.lastBody, "Processing"))
}
