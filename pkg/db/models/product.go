package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a vendor listing. Price is the base price; quantity
// breaks live in PricingTiers.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID     uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Description  string          `gorm:"column:description;type:text;not null"`
	Category     string          `gorm:"column:category;not null;index"`
	SKU          *string         `gorm:"column:sku;uniqueIndex"`
	Barcode      *string         `gorm:"column:barcode;uniqueIndex"`
	Stock        int             `gorm:"column:stock;not null;default:0"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	PricingTiers []PricingTier   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
