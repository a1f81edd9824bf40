package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

// Order is one vendor's slice of a sale. Multi-vendor web checkouts fan out
// into N orders sharing the same razorpay references; POS orders carry an
// order number and a register session instead.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID           uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	UserID             *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	CustomerName       string              `gorm:"column:customer_name;not null"`
	CustomerEmail      *string             `gorm:"column:customer_email"`
	CustomerPhone      *string             `gorm:"column:customer_phone"`
	ShippingInfo       *types.ShippingInfo `gorm:"column:shipping_info;type:jsonb;serializer:json"`
	TotalAmount        decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status             enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	RazorpayOrderID    *string             `gorm:"column:razorpay_order_id;index"`
	RazorpayPaymentID  *string             `gorm:"column:razorpay_payment_id"`
	PaymentConfirmedAt *time.Time          `gorm:"column:payment_confirmed_at"`
	OrderNumber        *string             `gorm:"column:order_number;uniqueIndex"`
	OrderType          enums.OrderType     `gorm:"column:order_type;not null;default:'online'"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;not null;default:'cash'"`
	PaymentStatus      enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	TaxAmount          decimal.Decimal     `gorm:"column:tax_amount;type:numeric(10,2);not null;default:0"`
	DiscountAmount     decimal.Decimal     `gorm:"column:discount_amount;type:numeric(10,2);not null;default:0"`
	Notes              *string             `gorm:"column:notes;type:text"`
	RegisterSessionID  *uuid.UUID          `gorm:"column:register_session_id;type:uuid;index"`
	Items              []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
