package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingTier is a quantity break: the tier price applies once the ordered
// quantity reaches MOQ.
type PricingTier struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	MOQ       int             `gorm:"column:moq;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
}

// TableName overrides the default pluralization.
func (PricingTier) TableName() string {
	return "product_pricing_tiers"
}
