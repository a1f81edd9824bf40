package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pending checkout repository backed by the provided DB.
func NewRepository(db *gorm.DB) Repository {
	if db == nil {
		return nil
	}
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pending *models.PendingCheckout) (*models.PendingCheckout, error) {
	if err := r.db.WithContext(ctx).Create(pending).Error; err != nil {
		return nil, err
	}
	return pending, nil
}

func (r *repository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PendingCheckout, error) {
	var pending models.PendingCheckout
	err := r.db.WithContext(ctx).
		Where("razorpay_order_id = ?", gatewayOrderID).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *repository) FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.PendingCheckout, error) {
	var pending models.PendingCheckout
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("razorpay_order_id = ?", gatewayOrderID).
		First(&pending).Error
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PendingCheckout{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       enums.PendingCheckoutStatusCompleted,
			"completed_at": completedAt,
		}).Error
}

func (r *repository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PendingCheckout{}).
		Where("id = ?", id).
		Update("status", enums.PendingCheckoutStatusFailed).Error
}
