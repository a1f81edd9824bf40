package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreparedOrderLine is one priced cart line inside a vendor bucket.
type PreparedOrderLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	CartItemID  uuid.UUID       `json:"cart_item_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Metadata    JSONMap         `json:"metadata,omitempty"`
}

// PreparedOrder is the per-vendor breakdown staged at checkout time. One
// Order row is materialized from each bucket once payment is verified.
type PreparedOrder struct {
	VendorID  uuid.UUID           `json:"vendor_id"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	ItemCount int                 `json:"item_count"`
	Lines     []PreparedOrderLine `json:"lines"`
}

// PreparedOrders is the ordered sequence of vendor buckets, stored as jsonb.
// Bucket order is the first-appearance order of vendors in the cart selection
// and is preserved through storage so failure reports can name an index.
type PreparedOrders []PreparedOrder

// Value marshals the buckets into jsonb.
func (p PreparedOrders) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan decodes jsonb back into the buckets.
func (p *PreparedOrders) Scan(value interface{}) error {
	if value == nil {
		*p = PreparedOrders{}
		return nil
	}

	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("prepared orders: unsupported scan type %T", value)
	}

	out := PreparedOrders{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("prepared orders: decode %w", err)
	}
	*p = out
	return nil
}

// Total sums the bucket subtotals.
func (p PreparedOrders) Total() decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range p {
		total = total.Add(bucket.Subtotal)
	}
	return total
}
