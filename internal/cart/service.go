package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/internal/pricing"
	"github.com/bazaarhq/bazaar-backend/pkg/db"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

// Variant metadata keys. Once set on a line they are part of its identity and
// never change.
const (
	MetaSelectedSize  = "selected_size"
	MetaSelectedColor = "selected_color"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// AddInput carries an add-to-cart request.
type AddInput struct {
	ProductID uuid.UUID
	Quantity  int
	Metadata  types.JSONMap
}

// LineView is a cart line joined with its live price.
type LineView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Metadata    types.JSONMap   `json:"metadata,omitempty"`
}

// View is the whole cart with totals.
type View struct {
	Items     []LineView      `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Service owns cart line lifecycle up to checkout.
type Service interface {
	AddToCart(ctx context.Context, userID uuid.UUID, input AddInput) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartItem, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error
	ListCart(ctx context.Context, userID uuid.UUID) (*View, error)
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService builds the cart service.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// AddToCart merges onto an existing in_cart line when the identity matches,
// otherwise creates a new line. With variant metadata present the identity is
// (product, size, color); without it any in_cart line for the product is
// reused. A concurrent insert for the same identity trips the storage unique
// index, in which case the merge is retried once against the winning line.
func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, input AddInput) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	line, err := s.mergeOrCreate(ctx, userID, input)
	if err == nil {
		return line, nil
	}
	if !db.IsUniqueViolation(err, "ux_cart_items_identity") {
		return nil, err
	}
	// Lost an insert race: the other line now exists, merge onto it.
	return s.mergeOrCreate(ctx, userID, input)
}

func (s *service) mergeOrCreate(ctx context.Context, userID uuid.UUID, input AddInput) (*models.CartItem, error) {
	existing, err := s.repo.FindInCartLinesForProduct(ctx, userID, input.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}

	match := matchLine(existing, input.Metadata)
	if match != nil {
		merged := mergeMetadata(match.Metadata, input.Metadata)
		updates := map[string]any{
			"quantity": match.Quantity + input.Quantity,
			"metadata": merged,
		}
		if err := s.repo.UpdateLine(ctx, match.ID, updates); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
		}
		match.Quantity += input.Quantity
		match.Metadata = merged
		return match, nil
	}

	line := &models.CartItem{
		UserID:    userID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Metadata:  input.Metadata.Clone(),
	}
	created, err := s.repo.CreateLine(ctx, line)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_cart_items_identity") {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}
	return created, nil
}

// matchLine finds the line the input should merge onto, or nil.
func matchLine(lines []models.CartItem, metadata types.JSONMap) *models.CartItem {
	if len(lines) == 0 {
		return nil
	}
	if !hasVariantKeys(metadata) {
		// No variant identity: a single line per product.
		return &lines[0]
	}
	for i := range lines {
		if lines[i].Metadata[MetaSelectedSize] == metadata[MetaSelectedSize] &&
			lines[i].Metadata[MetaSelectedColor] == metadata[MetaSelectedColor] {
			return &lines[i]
		}
	}
	return nil
}

func hasVariantKeys(metadata types.JSONMap) bool {
	if metadata == nil {
		return false
	}
	_, hasSize := metadata[MetaSelectedSize]
	_, hasColor := metadata[MetaSelectedColor]
	return hasSize || hasColor
}

// mergeMetadata overlays non-variant keys onto the existing metadata. Variant
// keys are immutable once set.
func mergeMetadata(existing, incoming types.JSONMap) types.JSONMap {
	merged := existing.Clone()
	for k, v := range incoming {
		if k == MetaSelectedSize || k == MetaSelectedColor {
			continue
		}
		merged[k] = v
	}
	return merged
}

func (s *service) UpdateQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	line, err := s.ownedInCartLine(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLine(ctx, line.ID, map[string]any{"quantity": quantity}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	line.Quantity = quantity
	return line, nil
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) error {
	line, err := s.ownedInCartLine(ctx, userID, lineID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteLine(ctx, line.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

// ownedInCartLine enforces the caller owns the line and it is still in_cart.
// A foreign line reads as not found so line ids cannot be probed.
func (s *service) ownedInCartLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if lineID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart line id required")
	}

	line, err := s.repo.FindLineByID(ctx, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if line.Status != "" && line.Status != enums.CartItemStatusInCart {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart line already checked out")
	}
	return line, nil
}

func (s *service) ListCart(ctx context.Context, userID uuid.UUID) (*View, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	lines, err := s.repo.FindInCartLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart lines")
	}

	view := &View{Items: []LineView{}, Total: decimal.Zero}
	if len(lines) == 0 {
		return view, nil
	}

	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			// Product removed from the catalog after it was added.
			continue
		}
		unit := pricing.UnitPriceFor(product, line.Quantity)
		lineTotal := unit.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, LineView{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: product.Name,
			VendorID:    product.VendorID,
			Quantity:    line.Quantity,
			UnitPrice:   unit,
			LineTotal:   lineTotal,
			Metadata:    line.Metadata,
		})
		view.ItemCount += line.Quantity
		view.Total = view.Total.Add(lineTotal)
	}
	return view, nil
}
