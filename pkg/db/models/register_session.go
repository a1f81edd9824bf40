package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/pkg/enums"
)

// RegisterSession is one cash drawer shift. The sales totals are running
// aggregates updated inside the same transaction as each POS checkout, never
// recomputed from order history. At most one open session per vendor; a
// partial unique index enforces this.
type RegisterSession struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID          uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null;index"`
	RegisterName      string               `gorm:"column:register_name;not null;default:'Main Register'"`
	CashierName       string               `gorm:"column:cashier_name;not null"`
	OpeningFloat      decimal.Decimal      `gorm:"column:opening_float;type:numeric(10,2);not null;default:0"`
	ClosingAmount     *decimal.Decimal     `gorm:"column:closing_amount;type:numeric(10,2)"`
	ExpectedAmount    *decimal.Decimal     `gorm:"column:expected_amount;type:numeric(10,2)"`
	Variance          *decimal.Decimal     `gorm:"column:variance;type:numeric(10,2)"`
	TotalSales        decimal.Decimal      `gorm:"column:total_sales;type:numeric(10,2);not null;default:0"`
	TotalCashSales    decimal.Decimal      `gorm:"column:total_cash_sales;type:numeric(10,2);not null;default:0"`
	TotalCardSales    decimal.Decimal      `gorm:"column:total_card_sales;type:numeric(10,2);not null;default:0"`
	TotalDigitalSales decimal.Decimal      `gorm:"column:total_digital_sales;type:numeric(10,2);not null;default:0"`
	TransactionCount  int                  `gorm:"column:transaction_count;not null;default:0"`
	Status            enums.RegisterStatus `gorm:"column:status;not null;default:'open'"`
	OpenedAt          time.Time            `gorm:"column:opened_at;not null;autoCreateTime"`
	ClosedAt          *time.Time           `gorm:"column:closed_at"`
	OpeningNotes      *string              `gorm:"column:opening_notes;type:text"`
	ClosingNotes      *string              `gorm:"column:closing_notes;type:text"`
}
