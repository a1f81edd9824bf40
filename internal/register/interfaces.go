package register

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
)

// Repository persists register sessions. ApplySale is the only write the POS
// checkout path needs; it must run inside the checkout transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, session *models.RegisterSession) (*models.RegisterSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RegisterSession, error)
	FindOpenByVendor(ctx context.Context, vendorID uuid.UUID) (*models.RegisterSession, error)
	// FindOpenByVendorForUpdate locks the open session row so concurrent POS
	// checkouts serialize their aggregate updates.
	FindOpenByVendorForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.RegisterSession, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	// ApplySale bumps the session aggregates for one completed POS sale with
	// SQL-side increments.
	ApplySale(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error
}
