package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
)

// Repository defines persistence operations for cart lines.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindInCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindInCartLinesByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error)
	FindInCartLinesForProduct(ctx context.Context, userID, productID uuid.UUID) ([]models.CartItem, error)
	FindLineByID(ctx context.Context, id uuid.UUID) (*models.CartItem, error)
	CreateLine(ctx context.Context, line *models.CartItem) (*models.CartItem, error)
	UpdateLine(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteLine(ctx context.Context, id uuid.UUID) error
	MarkCheckout(ctx context.Context, ids []uuid.UUID) error
}
