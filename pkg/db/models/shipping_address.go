package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingAddress is a customer's saved delivery address. Checkout snapshots
// the chosen address into the pending checkout rather than referencing it.
type ShippingAddress struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	FullName    string    `gorm:"column:full_name;not null"`
	Phone       string    `gorm:"column:phone;not null"`
	Email       *string   `gorm:"column:email"`
	Address     string    `gorm:"column:address;not null"`
	City        string    `gorm:"column:city;not null"`
	State       string    `gorm:"column:state;not null"`
	Country     string    `gorm:"column:country;not null;default:'India'"`
	Pincode     string    `gorm:"column:pincode;not null"`
	AddressType *string   `gorm:"column:address_type"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}
