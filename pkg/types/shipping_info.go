package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShippingInfo is the address snapshot frozen into a pending checkout. It is
// copied verbatim onto the orders created once payment is confirmed, so later
// edits to the customer's saved addresses never change an in-flight checkout.
type ShippingInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Country string `json:"country,omitempty"`
}

// Value marshals ShippingInfo into jsonb.
func (s ShippingInfo) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan decodes jsonb back into ShippingInfo.
func (s *ShippingInfo) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingInfo{}
		return nil
	}

	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("shipping info: unsupported scan type %T", value)
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("shipping info: decode %w", err)
	}
	return nil
}
