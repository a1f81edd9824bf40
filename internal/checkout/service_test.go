package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
	"github.com/bazaarhq/bazaar-backend/pkg/razorpay"
	"github.com/bazaarhq/bazaar-backend/pkg/types"
)

type stubPendingRepo struct {
	created   []*models.PendingCheckout
	createErr error
}

func (s *stubPendingRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPendingRepo) Create(ctx context.Context, pending *models.PendingCheckout) (*models.PendingCheckout, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	pending.ID = uuid.New()
	s.created = append(s.created, pending)
	return pending, nil
}

func (s *stubPendingRepo) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.PendingCheckout, error) {
	for _, pending := range s.created {
		if pending.RazorpayOrderID == gatewayOrderID {
			return pending, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPendingRepo) FindByGatewayOrderIDForUpdate(ctx context.Context, gatewayOrderID string) (*models.PendingCheckout, error) {
	return s.FindByGatewayOrderID(ctx, gatewayOrderID)
}

func (s *stubPendingRepo) MarkCompleted(ctx context.Context, id uuid.UUID, completedAt time.Time) error {
	return nil
}

func (s *stubPendingRepo) MarkFailed(ctx context.Context, id uuid.UUID) error { return nil }

type stubCartLoader struct {
	lines []models.CartItem
}

func (s *stubCartLoader) FindInCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.lines, nil
}

func (s *stubCartLoader) FindInCartLinesByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, id := range ids {
		for _, line := range s.lines {
			if line.ID == id {
				out = append(out, line)
			}
		}
	}
	return out, nil
}

type stubProductLoader struct {
	byID map[uuid.UUID]*models.Product
}

func (s *stubProductLoader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if product, ok := s.byID[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

type stubGateway struct {
	createErr error
	orders    []*razorpay.Order
	lastAmt   decimal.Decimal
	lastNotes map[string]any
}

func (s *stubGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string, notes map[string]any) (*razorpay.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.lastAmt = amount
	s.lastNotes = notes
	order := &razorpay.Order{
		ID:       "order_" + uuid.NewString()[:8],
		Amount:   amount.Shift(2).IntPart(),
		Currency: "INR",
		Receipt:  receipt,
		Status:   "created",
	}
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *stubGateway) VerifySignature(orderID, paymentID, signature string) bool { return true }

func (s *stubGateway) KeyID() string { return "rzp_test_key" }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "checkout-test", Level: zerolog.Disabled})
}

type fixture struct {
	svc     Service
	repo    *stubPendingRepo
	cart    *stubCartLoader
	gateway *stubGateway
}

func newFixture(t *testing.T, lines []models.CartItem, products map[uuid.UUID]*models.Product) *fixture {
	t.Helper()
	repo := &stubPendingRepo{}
	cart := &stubCartLoader{lines: lines}
	gateway := &stubGateway{}
	svc, err := NewService(repo, cart, &stubProductLoader{byID: products}, gateway, testLogger(), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, cart: cart, gateway: gateway}
}

func cartLine(productID uuid.UUID, qty int) models.CartItem {
	return models.CartItem{ID: uuid.New(), UserID: uuid.New(), ProductID: productID, Quantity: qty}
}

func activeProduct(vendorID uuid.UUID, name string, price int64) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		VendorID: vendorID,
		Name:     name,
		Price:    decimal.NewFromInt(price),
		IsActive: true,
	}
}

func TestPrepare_BucketsPerVendorInFirstAppearanceOrder(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	teaA := activeProduct(vendorA, "Assam Tea 500g", 300)
	riceB := activeProduct(vendorB, "Basmati Rice 5kg", 700)
	jaggeryA := activeProduct(vendorA, "Jaggery Block", 80)
	products := map[uuid.UUID]*models.Product{teaA.ID: teaA, riceB.ID: riceB, jaggeryA.ID: jaggeryA}

	lines := []models.CartItem{
		cartLine(teaA.ID, 2),     // vendor A first
		cartLine(riceB.ID, 1),    // vendor B second
		cartLine(jaggeryA.ID, 5), // back to vendor A, same bucket
	}
	fix := newFixture(t, lines, products)
	userID := uuid.New()

	result, err := fix.svc.Prepare(context.Background(), userID, PrepareInput{})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if len(result.OrderData) != 2 {
		t.Fatalf("expected 2 vendor buckets, got %d", len(result.OrderData))
	}
	if result.OrderData[0].VendorID != vendorA || result.OrderData[1].VendorID != vendorB {
		t.Fatal("buckets must follow first-appearance order of vendors")
	}
	if len(result.OrderData[0].Lines) != 2 {
		t.Fatalf("expected vendor A bucket to hold 2 lines, got %d", len(result.OrderData[0].Lines))
	}

	// 2*300 + 5*80 = 1000 for A, 700 for B, 1700 grand total.
	if !result.OrderData[0].Subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("vendor A subtotal = %s, want 1000", result.OrderData[0].Subtotal)
	}
	if !result.OrderData[1].Subtotal.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("vendor B subtotal = %s, want 700", result.OrderData[1].Subtotal)
	}
	if !result.TotalAmount.Equal(decimal.NewFromInt(1700)) {
		t.Fatalf("total = %s, want 1700", result.TotalAmount)
	}
	if result.Amount != 170000 {
		t.Fatalf("gateway amount = %d paise, want 170000", result.Amount)
	}
	if result.KeyID != "rzp_test_key" {
		t.Fatalf("key id = %q", result.KeyID)
	}

	// Gateway order carries the reconciliation notes.
	if fix.gateway.lastNotes["user_id"] != userID.String() {
		t.Fatalf("notes user_id = %v, want %s", fix.gateway.lastNotes["user_id"], userID)
	}
	if fix.gateway.lastNotes["total_vendors"] != 2 {
		t.Fatalf("notes total_vendors = %v, want 2", fix.gateway.lastNotes["total_vendors"])
	}
	if fix.gateway.lastNotes["total_items"] != 3 {
		t.Fatalf("notes total_items = %v, want 3", fix.gateway.lastNotes["total_items"])
	}
}

func TestPrepare_TierPricingFlowsIntoBuckets(t *testing.T) {
	vendorID := uuid.New()
	product := activeProduct(vendorID, "Turmeric Powder 100g", 50)
	product.PricingTiers = []models.PricingTier{
		{MOQ: 10, Price: decimal.NewFromInt(40)},
	}
	lines := []models.CartItem{cartLine(product.ID, 10)}
	fix := newFixture(t, lines, map[uuid.UUID]*models.Product{product.ID: product})

	result, err := fix.svc.Prepare(context.Background(), uuid.New(), PrepareInput{})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	line := result.OrderData[0].Lines[0]
	if !line.UnitPrice.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unit price = %s, want tier price 40", line.UnitPrice)
	}
	if !result.TotalAmount.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("total = %s, want 400", result.TotalAmount)
	}
}

func TestPrepare_PersistsPendingSnapshot(t *testing.T) {
	vendorID := uuid.New()
	product := activeProduct(vendorID, "Ghee 1L", 600)
	lines := []models.CartItem{cartLine(product.ID, 1)}
	fix := newFixture(t, lines, map[uuid.UUID]*models.Product{product.ID: product})

	shipping := types.ShippingInfo{Name: "Asha Verma", Phone: "9876543210", City: "Pune"}
	result, err := fix.svc.Prepare(context.Background(), uuid.New(), PrepareInput{ShippingInfo: shipping})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if len(fix.repo.created) != 1 {
		t.Fatalf("expected one pending checkout, got %d", len(fix.repo.created))
	}
	pending := fix.repo.created[0]
	if pending.RazorpayOrderID != result.RazorpayOrderID {
		t.Fatal("snapshot must reference the gateway order")
	}
	if pending.Status.String() != "pending" {
		t.Fatalf("status = %s, want pending", pending.Status)
	}
	if len(pending.CartItemIDs) != 1 || pending.CartItemIDs[0] != lines[0].ID {
		t.Fatal("snapshot must record the staged cart line ids")
	}
	if pending.ShippingInfo.Name != "Asha Verma" {
		t.Fatal("snapshot must carry the shipping info")
	}
	if !pending.TotalAmount.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("snapshot total = %s, want 600", pending.TotalAmount)
	}
}

func TestPrepare_EmptySelectionRejected(t *testing.T) {
	fix := newFixture(t, nil, map[uuid.UUID]*models.Product{})

	_, err := fix.svc.Prepare(context.Background(), uuid.New(), PrepareInput{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}
	if len(fix.gateway.orders) != 0 {
		t.Fatal("no gateway order may be created for an empty selection")
	}
}

func TestPrepare_UnknownSelectionRejected(t *testing.T) {
	vendorID := uuid.New()
	product := activeProduct(vendorID, "Honey 250g", 200)
	lines := []models.CartItem{cartLine(product.ID, 1)}
	fix := newFixture(t, lines, map[uuid.UUID]*models.Product{product.ID: product})

	_, err := fix.svc.Prepare(context.Background(), uuid.New(), PrepareInput{
		CartItemIDs: []uuid.UUID{lines[0].ID, uuid.New()},
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown line, got %v", err)
	}
}

func TestPrepare_GatewayFailureLeavesNoSnapshot(t *testing.T) {
	vendorID := uuid.New()
	product := activeProduct(vendorID, "Honey 250g", 200)
	lines := []models.CartItem{cartLine(product.ID, 1)}
	fix := newFixture(t, lines, map[uuid.UUID]*models.Product{product.ID: product})
	fix.gateway.createErr = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("gateway timeout"), "create razorpay order")

	_, err := fix.svc.Prepare(context.Background(), uuid.New(), PrepareInput{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(fix.repo.created) != 0 {
		t.Fatal("no pending checkout may be persisted when the gateway call fails")
	}
}

func TestPrepare_InactiveProductRejected(t *testing.T) {
	vendorID := uuid.New()
	product := activeProduct(vendorID, "Discontinued Soap", 40)
	product.IsActive = false
	lines := []models.CartItem{cartLine(product.ID, 1)}
	fix := newFixture(t, lines, map[uuid.UUID]*models.Product{product.ID: product})

	_, err := fix.svc.Prepare(context.Background(), uuid.New(), PrepareInput{})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inactive product, got %v", err)
	}
}
