package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
)

// Repository persists pending checkout snapshots and serializes verification
// over them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pending *models.PendingCheckout) (*models.PendingCheckout, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PendingCheckout, error)
	// FindByGatewayOrderIDForUpdate locks the row so concurrent verifications
	// of the same gateway order serialize.
	FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.PendingCheckout, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
