package models

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

// The goose migrations are the source of truth for the schema; this keeps the
// gorm models pointed at the same tables and columns.
func parseSchema(t *testing.T, model any) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

func TestModelTableNames(t *testing.T) {
	tests := []struct {
		model any
		table string
	}{
		{&User{}, "users"},
		{&Vendor{}, "vendors"},
		{&Product{}, "products"},
		{&PricingTier{}, "pricing_tiers"},
		{&CartItem{}, "cart_items"},
		{&ShippingAddress{}, "shipping_addresses"},
		{&PendingCheckout{}, "pending_checkouts"},
		{&Order{}, "orders"},
		{&OrderItem{}, "order_items"},
		{&RegisterSession{}, "register_sessions"},
	}

	for _, tt := range tests {
		s := parseSchema(t, tt.model)
		if s.Table != tt.table {
			t.Fatalf("%T: expected table %q got %q", tt.model, tt.table, s.Table)
		}
	}
}

func TestModelColumns(t *testing.T) {
	tests := []struct {
		model   any
		columns []string
	}{
		{&User{}, []string{"email", "password_hash", "full_name", "is_active"}},
		{&Vendor{}, []string{"business_name", "email", "subdomain", "is_active"}},
		{&Product{}, []string{"vendor_id", "sku", "barcode", "stock", "price", "is_active"}},
		{&CartItem{}, []string{"user_id", "product_id", "quantity", "status", "metadata"}},
		{&PendingCheckout{}, []string{"razorpay_order_id", "cart_item_ids", "prepared_orders", "shipping_info", "total_amount", "status"}},
		{&Order{}, []string{"order_number", "order_type", "payment_method", "payment_status", "razorpay_payment_id", "register_session_id"}},
		{&RegisterSession{}, []string{"opening_float", "total_cash_sales", "total_card_sales", "total_digital_sales", "transaction_count", "variance"}},
	}

	for _, tt := range tests {
		s := parseSchema(t, tt.model)
		for _, column := range tt.columns {
			if _, ok := s.FieldsByDBName[column]; !ok {
				t.Fatalf("%T: missing column %q", tt.model, column)
			}
		}
	}
}
