package cashier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/internal/orders"
	"github.com/bazaarhq/bazaar-backend/internal/pricing"
	"github.com/bazaarhq/bazaar-backend/internal/products"
	"github.com/bazaarhq/bazaar-backend/internal/register"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
	"github.com/bazaarhq/bazaar-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CheckoutItem is one counter sale line. Unit price comes from the register
// client; the pricing quote endpoint exists for the cashier to look it up
// first.
type CheckoutItem struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Customer is the optional walk-in customer record.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// CheckoutInput is a full POS sale.
type CheckoutInput struct {
	Items          []CheckoutItem      `json:"items" validate:"required,min=1,dive"`
	Customer       *Customer           `json:"customer,omitempty"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	Notes          *string             `json:"notes,omitempty"`
}

// CheckoutResult is the receipt handle for a completed POS sale.
type CheckoutResult struct {
	OrderID           uuid.UUID           `json:"order_id"`
	OrderNumber       string              `json:"order_number"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	PaymentMethod     enums.PaymentMethod `json:"payment_method"`
	ItemsCount        int                 `json:"items_count"`
	RegisterSessionID uuid.UUID           `json:"register_session_id"`
	CreatedAt         time.Time           `json:"created_at"`
}

// Service processes counter sales against the open register.
type Service interface {
	Checkout(ctx context.Context, vendorID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
	PricingQuote(ctx context.Context, productID uuid.UUID, quantity int) (*pricing.Quote, error)
	RecentTransactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]orders.Summary, error)
}

type service struct {
	tx       txRunner
	products products.Repository
	orders   orders.Repository
	register register.Repository
	pricing  pricing.Service
	logger   *logger.Logger
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

// NewService builds the cashier service.
func NewService(
	tx txRunner,
	productsRepo products.Repository,
	ordersRepo orders.Repository,
	registerRepo register.Repository,
	pricingSvc pricing.Service,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if registerRepo == nil {
		return nil, fmt.Errorf("register repository required")
	}
	if pricingSvc == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		products: productsRepo,
		orders:   ordersRepo,
		register: registerRepo,
		pricing:  pricingSvc,
		logger:   logg,
		metrics:  checkoutMetrics,
		now:      time.Now,
	}, nil
}

// Checkout rings up a counter sale in one transaction: the open register row
// is locked, stock is verified before any write, the order materializes as
// completed/paid, stock decrements with a conditional guard, and the session
// aggregates bump. No open register, no sale.
func (s *service) Checkout(ctx context.Context, vendorID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method))
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "each item needs a product id and a positive quantity")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
	}

	var result *CheckoutResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		registerRepo := s.register.WithTx(tx)
		productsRepo := s.products.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		session, err := registerRepo.FindOpenByVendorForUpdate(ctx, vendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict,
					"no register is open, open the register before processing sales")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open register")
		}

		loaded, err := s.verifyStock(ctx, productsRepo, vendorID, input.Items)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range input.Items {
			total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		total = total.Add(input.TaxAmount).Sub(input.DiscountAmount)
		if total.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds the sale total")
		}

		orderNumber := orders.NewPOSOrderNumber(s.now())
		order := &models.Order{
			VendorID:          vendorID,
			CustomerName:      customerName(input.Customer),
			CustomerEmail:     customerField(input.Customer, func(c *Customer) string { return c.Email }),
			CustomerPhone:     customerField(input.Customer, func(c *Customer) string { return c.Phone }),
			TotalAmount:       total,
			Status:            enums.OrderStatusCompleted,
			OrderNumber:       &orderNumber,
			OrderType:         enums.OrderTypePOS,
			PaymentMethod:     method,
			PaymentStatus:     enums.PaymentStatusPaid,
			TaxAmount:         input.TaxAmount,
			DiscountAmount:    input.DiscountAmount,
			Notes:             input.Notes,
			RegisterSessionID: &session.ID,
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pos order")
		}

		items := make([]models.OrderItem, 0, len(input.Items))
		for _, item := range input.Items {
			product := loaded[item.ProductID]
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				VendorID:    vendorID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				Price:       item.UnitPrice,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create pos order items")
		}

		for _, item := range input.Items {
			decremented, err := productsRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
			}
			if !decremented {
				// Stock moved between the verify read and the decrement.
				product := loaded[item.ProductID]
				return pkgerrors.New(pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", product.Name))
			}
		}

		if err := registerRepo.ApplySale(ctx, session.ID, total, method); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update register totals")
		}

		result = &CheckoutResult{
			OrderID:           order.ID,
			OrderNumber:       orderNumber,
			TotalAmount:       total,
			PaymentMethod:     method,
			ItemsCount:        len(input.Items),
			RegisterSessionID: session.ID,
			CreatedAt:         order.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"order_number":   result.OrderNumber,
		"payment_method": method.String(),
		"total_amount":   result.TotalAmount.String(),
	})
	s.logger.Info(logCtx, "pos sale completed")
	s.metrics.IncPOSSale(method.String())
	return result, nil
}

// verifyStock loads every product and rejects the sale before any write when
// stock is short. The conditional decrement later re-guards against races.
func (s *service) verifyStock(
	ctx context.Context,
	productsRepo products.Repository,
	vendorID uuid.UUID,
	items []CheckoutItem,
) (map[uuid.UUID]*models.Product, error) {
	loaded := make(map[uuid.UUID]*models.Product, len(items))
	requested := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		requested[item.ProductID] += item.Quantity
	}

	for productID, qty := range requested {
		product, err := productsRepo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("product %s not found", productID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.VendorID != vendorID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("product %s not found", productID))
		}
		if product.Stock < qty {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
				fmt.Sprintf("insufficient stock for %s", product.Name)).
				WithDetails(map[string]any{
					"product_id": product.ID,
					"available":  product.Stock,
					"requested":  qty,
				})
		}
		loaded[productID] = product
	}
	return loaded, nil
}

func (s *service) PricingQuote(ctx context.Context, productID uuid.UUID, quantity int) (*pricing.Quote, error) {
	return s.pricing.QuoteFor(ctx, productID, quantity)
}

func (s *service) RecentTransactions(ctx context.Context, vendorID uuid.UUID, limit int) ([]orders.Summary, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	rows, err := s.orders.ListRecentPOSOrders(ctx, vendorID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent pos orders")
	}
	return orders.NewSummaries(rows), nil
}

func customerName(c *Customer) string {
	if c == nil || c.Name == "" {
		return "Walk-in Customer"
	}
	return c.Name
}

func customerField(c *Customer, get func(*Customer) string) *string {
	if c == nil {
		return nil
	}
	if v := get(c); v != "" {
		return &v
	}
	return nil
}
