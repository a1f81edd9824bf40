package checkout

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/internal/pricing"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	dbtypes "github.com/bazaarhq/bazaar-backend/pkg/db/types"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
	"github.com/bazaarhq/bazaar-backend/pkg/metrics"
	"github.com/bazaarhq/bazaar-backend/pkg/razorpay"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

type cartLineLoader interface {
	FindInCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindInCartLinesByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// PrepareInput carries a checkout-prepare request. Empty CartItemIDs means
// the whole cart.
type PrepareInput struct {
	CartItemIDs  []uuid.UUID
	ShippingInfo types.ShippingInfo
}

// PrepareResult is what the payment widget needs plus the staged breakdown.
type PrepareResult struct {
	RazorpayOrderID string               `json:"razorpay_order_id"`
	Amount          int64                `json:"amount"`
	Currency        string               `json:"currency"`
	Receipt         string               `json:"receipt"`
	KeyID           string               `json:"key_id"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	OrderData       types.PreparedOrders `json:"order_data"`
}

// Service stages a cart selection into a gateway order and a pending
// checkout snapshot.
type Service interface {
	Prepare(ctx context.Context, userID uuid.UUID, input PrepareInput) (*PrepareResult, error)
}

type service struct {
	repo     Repository
	cart     cartLineLoader
	products productLoader
	gateway  razorpay.Gateway
	logger   *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

// NewService builds the checkout preparer.
func NewService(
	repo Repository,
	cart cartLineLoader,
	products productLoader,
	gateway razorpay.Gateway,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pending checkout repository required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart loader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		cart:     cart,
		products: products,
		gateway:  gateway,
		logger:   logg,
		metrics:  checkoutMetrics,
	}, nil
}

// Prepare prices the selection, buckets it per vendor in first-appearance
// order, creates the gateway order for the grand total, and persists the
// pending checkout snapshot. The snapshot is written only after the gateway
// call succeeds; a gateway order without a snapshot is abandoned, never
// charged against.
func (s *service) Prepare(ctx context.Context, userID uuid.UUID, input PrepareInput) (*PrepareResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	lines, err := s.loadSelection(ctx, userID, input.CartItemIDs)
	if err != nil {
		return nil, err
	}

	buckets, total, err := s.buildBuckets(ctx, lines)
	if err != nil {
		return nil, err
	}

	receipt := newReceipt(userID)
	notes := map[string]any{
		"user_id":       userID.String(),
		"total_vendors": len(buckets),
		"total_items":   len(lines),
	}
	gatewayOrder, err := s.gateway.CreateOrder(ctx, total, receipt, notes)
	if err != nil {
		return nil, err
	}

	cartItemIDs := make(dbtypes.UUIDArray, 0, len(lines))
	for _, line := range lines {
		cartItemIDs = append(cartItemIDs, line.ID)
	}

	pending := &models.PendingCheckout{
		UserID:          userID,
		RazorpayOrderID: gatewayOrder.ID,
		TotalAmount:     total,
		ShippingInfo:    input.ShippingInfo,
		PreparedOrders:  buckets,
		CartItemIDs:     cartItemIDs,
		Status:          enums.PendingCheckoutStatusPending,
	}
	if _, err := s.repo.Create(ctx, pending); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist pending checkout")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"razorpay_order_id": gatewayOrder.ID,
		"vendors":           len(buckets),
		"total":             total.String(),
	})
	s.logger.Info(logCtx, "checkout prepared")
	s.metrics.IncCheckoutPrepared()

	return &PrepareResult{
		RazorpayOrderID: gatewayOrder.ID,
		Amount:          gatewayOrder.Amount,
		Currency:        gatewayOrder.Currency,
		Receipt:         receipt,
		KeyID:           s.gateway.KeyID(),
		TotalAmount:     total,
		OrderData:       buckets,
	}, nil
}

// loadSelection resolves the requested cart lines, whole cart when no ids are
// given. A selection naming lines that are not the caller's in_cart lines is
// rejected outright rather than silently narrowed.
func (s *service) loadSelection(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error) {
	var (
		lines []models.CartItem
		err   error
	)
	if len(ids) == 0 {
		lines, err = s.cart.FindInCartLines(ctx, userID)
	} else {
		lines, err = s.cart.FindInCartLinesByIDs(ctx, userID, ids)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart selection")
	}
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items selected for checkout")
	}
	if len(ids) > 0 && len(lines) != len(uniqueIDs(ids)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "selection contains unknown cart items")
	}
	return lines, nil
}

// buildBuckets prices each line and groups lines per vendor, vendors ordered
// by first appearance in the selection.
func (s *service) buildBuckets(ctx context.Context, lines []models.CartItem) (types.PreparedOrders, decimal.Decimal, error) {
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selection products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	buckets := types.PreparedOrders{}
	bucketIdx := make(map[uuid.UUID]int)
	total := decimal.Zero

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "selection references a product no longer available").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not available", product.Name))
		}

		unit := pricing.UnitPriceFor(product, line.Quantity)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))

		idx, ok := bucketIdx[product.VendorID]
		if !ok {
			idx = len(buckets)
			bucketIdx[product.VendorID] = idx
			buckets = append(buckets, types.PreparedOrder{VendorID: product.VendorID})
		}
		buckets[idx].Lines = append(buckets[idx].Lines, types.PreparedOrderLine{
			ProductID:   product.ID,
			CartItemID:  line.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
			Metadata:    line.Metadata,
		})
		buckets[idx].Subtotal = buckets[idx].Subtotal.Add(lineTotal)
		buckets[idx].ItemCount += line.Quantity
		total = total.Add(lineTotal)
	}

	if !total.IsPositive() {
		return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "checkout total must be positive")
	}
	return buckets, total, nil
}

func newReceipt(userID uuid.UUID) string {
	raw := uuid.New()
	return fmt.Sprintf("checkout_%s_%s", hex.EncodeToString(userID[:4]), hex.EncodeToString(raw[:4]))
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
