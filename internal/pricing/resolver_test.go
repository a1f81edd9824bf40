package pricing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
)

func tieredProduct() *models.Product {
	return &models.Product{
		ID:    uuid.New(),
		Name:  "Basmati Rice 1kg",
		Price: decimal.NewFromInt(100),
		PricingTiers: []models.PricingTier{
			{MOQ: 10, Price: decimal.NewFromInt(90)},
			{MOQ: 50, Price: decimal.NewFromInt(80)},
			{MOQ: 100, Price: decimal.NewFromInt(70)},
		},
	}
}

func TestUnitPriceFor_TierScan(t *testing.T) {
	product := tieredProduct()

	cases := []struct {
		qty  int
		want int64
	}{
		{qty: 150, want: 70}, // reaches the largest MOQ
		{qty: 100, want: 70},
		{qty: 99, want: 80},
		{qty: 50, want: 80},
		{qty: 10, want: 90},
		{qty: 5, want: 90}, // below every MOQ falls to the smallest tier
		{qty: 1, want: 90},
	}
	for _, tc := range cases {
		got := UnitPriceFor(product, tc.qty)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("qty %d: expected %d, got %s", tc.qty, tc.want, got)
		}
	}
}

func TestUnitPriceFor_NoTiersUsesBasePrice(t *testing.T) {
	product := &models.Product{Price: decimal.RequireFromString("49.99")}
	if got := UnitPriceFor(product, 3); !got.Equal(decimal.RequireFromString("49.99")) {
		t.Fatalf("expected base price, got %s", got)
	}
}

func TestUnitPriceFor_NilProduct(t *testing.T) {
	if got := UnitPriceFor(nil, 3); !got.IsZero() {
		t.Fatalf("expected zero for nil product, got %s", got)
	}
}

func TestUnitPriceFor_DoesNotMutateTierOrder(t *testing.T) {
	product := tieredProduct()
	UnitPriceFor(product, 60)
	if product.PricingTiers[0].MOQ != 10 {
		t.Fatal("resolver must not reorder the product's tiers")
	}
}

func TestLineTotal(t *testing.T) {
	product := tieredProduct()
	got := LineTotal(product, 50)
	if !got.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("expected 4000, got %s", got)
	}
}

type stubProductLoader struct {
	product *models.Product
	err     error
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.product, nil
}

func TestQuoteFor(t *testing.T) {
	product := tieredProduct()
	svc, err := NewService(&stubProductLoader{product: product})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	quote, err := svc.QuoteFor(context.Background(), product.ID, 50)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !quote.UnitPrice.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected unit price 80, got %s", quote.UnitPrice)
	}
	if !quote.LineTotal.Equal(decimal.NewFromInt(4000)) {
		t.Fatalf("expected line total 4000, got %s", quote.LineTotal)
	}
	if quote.TierMOQ == nil || *quote.TierMOQ != 50 {
		t.Fatalf("expected tier moq 50, got %v", quote.TierMOQ)
	}
}

func TestQuoteFor_NotFound(t *testing.T) {
	svc, _ := NewService(&stubProductLoader{err: gorm.ErrRecordNotFound})

	_, err := svc.QuoteFor(context.Background(), uuid.New(), 1)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuoteFor_Validation(t *testing.T) {
	svc, _ := NewService(&stubProductLoader{product: tieredProduct()})

	if _, err := svc.QuoteFor(context.Background(), uuid.Nil, 1); pkgerrors.As(err) == nil {
		t.Fatal("expected validation error for nil product id")
	}
	if _, err := svc.QuoteFor(context.Background(), uuid.New(), 0); pkgerrors.As(err) == nil {
		t.Fatal("expected validation error for zero quantity")
	}
}
