package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

// CartItem is one line of a customer's cart. Lines flip to the checkout
// status when an order is materialized, they are never deleted by checkout,
// which keeps the order history linkage intact.
//
// At most one in_cart line may exist per (user, product, size, color)
// identity; a partial unique index enforces this under concurrent adds.
type CartItem struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int                  `gorm:"column:quantity;not null"`
	Status    enums.CartItemStatus `gorm:"column:status;not null;default:'in_cart'"`
	Metadata  types.JSONMap        `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
