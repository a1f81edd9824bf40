package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/bazaarhq/bazaar-backend/pkg/db/types"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

// PendingCheckout stages a multi-vendor checkout between gateway order
// creation and payment verification. The prepared_orders snapshot, not the
// live cart, is authoritative once payment confirms: order rows do not exist
// until then. RazorpayOrderID is unique so one gateway order can never stage
// two checkouts.
type PendingCheckout struct {
	ID              uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID                   `gorm:"column:user_id;type:uuid;not null;index"`
	RazorpayOrderID string                      `gorm:"column:razorpay_order_id;not null;uniqueIndex"`
	TotalAmount     decimal.Decimal             `gorm:"column:total_amount;type:numeric(12,2);not null"`
	ShippingInfo    types.ShippingInfo          `gorm:"column:shipping_info;type:jsonb;serializer:json"`
	PreparedOrders  types.PreparedOrders        `gorm:"column:prepared_orders;type:jsonb;serializer:json"`
	CartItemIDs     dbtypes.UUIDArray           `gorm:"column:cart_item_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	Status          enums.PendingCheckoutStatus `gorm:"column:status;not null;default:'pending'"`
	CreatedAt       time.Time                   `gorm:"column:created_at;autoCreateTime"`
	CompletedAt     *time.Time                  `gorm:"column:completed_at"`
}
