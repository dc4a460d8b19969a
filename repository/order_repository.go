package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/byjojo/store-backend/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	AttachSessionID(ctx context.Context, orderID uuid.UUID, sessionID string) error
	FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	// CompletePending flips a pending order to completed for the given session
	// and returns the updated row. Returns (nil, nil) when no pending row
	// matched, which is how duplicate verifications are detected.
	CompletePending(ctx context.Context, sessionID, paymentIntentID, customerEmail string) (*models.Order, error)
	// FailPending flips a pending order to failed. Returns false when the
	// order was no longer pending.
	FailPending(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) AttachSessionID(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("stripe_session_id", sessionID).Error
}

func (r *GormOrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserID retrieves orders for a specific user with pagination, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) CompletePending(ctx context.Context, sessionID, paymentIntentID, customerEmail string) (*models.Order, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.OrderStatusCompleted,
		"completed_at": &now,
	}
	if paymentIntentID != "" {
		updates["stripe_payment_intent_id"] = paymentIntentID
	}
	if customerEmail != "" {
		updates["customer_email"] = customerEmail
	}

	// The status predicate is the idempotency guard: concurrent verifications
	// for the same session serialize here and only one sees RowsAffected == 1.
	tx := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("stripe_session_id = ? AND status = ?", sessionID, models.OrderStatusPending).
		Updates(updates)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, nil
	}

	return r.FindBySessionID(ctx, sessionID)
}

func (r *GormOrderRepository) FailPending(ctx context.Context, orderID uuid.UUID) (bool, error) {
	now := time.Now()
	tx := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":    models.OrderStatusFailed,
			"failed_at": &now,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *GormOrderRepository) FindStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.OrderStatusPending, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
