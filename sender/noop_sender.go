package sender

import (
	"context"
	"fmt"
	"time"
)

// NoopSender is used when no SMTP transport is configured. It accepts every
// message and drops it, so local environments can exercise the checkout flow
// without a mail relay.
type NoopSender struct{}

func (NoopSender) SendEmail(ctx context.Context, to, subject, body string) (SendResult, error) {
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
