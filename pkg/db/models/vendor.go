package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor is a seller account. Products, orders and register sessions all hang
// off a vendor.
type Vendor struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessName string    `gorm:"column:business_name;not null"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Phone        *string   `gorm:"column:phone"`
	Subdomain    *string   `gorm:"column:subdomain;uniqueIndex"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
