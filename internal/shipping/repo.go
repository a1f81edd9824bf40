package shipping

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
)

// Repository persists saved delivery addresses.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a shipping address repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, address *models.ShippingAddress) (*models.ShippingAddress, error) {
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.ShippingAddress, error) {
	var addresses []models.ShippingAddress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}
