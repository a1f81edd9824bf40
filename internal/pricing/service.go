package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Quote is the resolved price for one product at one quantity.
type Quote struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	TierMOQ     *int            `json:"tier_moq,omitempty"`
	BasePrice   decimal.Decimal `json:"base_price"`
	// AvailableStock lets the register UI warn before the sale is rung up.
	AvailableStock int `json:"available_stock"`
}

// Service resolves live prices against the catalog.
type Service interface {
	QuoteFor(ctx context.Context, productID uuid.UUID, quantity int) (*Quote, error)
}

type service struct {
	products productLoader
}

// NewService builds a pricing service over the product catalog.
func NewService(products productLoader) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{products: products}, nil
}

func (s *service) QuoteFor(ctx context.Context, productID uuid.UUID, quantity int) (*Quote, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	quote := &Quote{
		ProductID:      product.ID,
		ProductName:    product.Name,
		Quantity:       quantity,
		UnitPrice:      UnitPriceFor(product, quantity),
		LineTotal:      LineTotal(product, quantity),
		BasePrice:      product.Price,
		AvailableStock: product.Stock,
	}
	if tier := TierFor(product, quantity); tier != nil {
		moq := tier.MOQ
		quote.TierMOQ = &moq
	}
	return quote, nil
}
