package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses. An order is created pending, completed by the verifier once
// the gateway reports payment, and failed only by reconciler expiry.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Order is the only durable entity of the checkout flow. StripeSessionID
// identifies at most one order; the status column is the idempotency guard
// for the pending -> completed transition.
type Order struct {
	ID                    uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	CustomerEmail         string     `gorm:"type:varchar(255)" json:"customer_email"`
	TotalAmountCents      int64      `gorm:"not null" json:"total_amount_cents"`
	Status                string     `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	StripeSessionID       *string    `gorm:"type:varchar(255);uniqueIndex" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID *string    `gorm:"type:varchar(255)" json:"stripe_payment_intent_id,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	FailedAt              *time.Time `json:"failed_at,omitempty"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TotalAmount returns the order total in major units.
func (o Order) TotalAmount() float64 {
	return float64(o.TotalAmountCents) / 100
}
