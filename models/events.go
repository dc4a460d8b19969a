package models

import "time"

// Order lifecycle event types published to SNS.
const (
	EventOrderCompleted = "order.completed"
	EventOrderExpired   = "order.expired"
)

// OrderEvent is the fan-out payload published after a status transition.
// Publication is best-effort; consumers must not be on the checkout path.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}
