package register

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
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
)

type stubTxRunner struct {
	// beforeFn runs after the transaction begins but before fn, standing in
	// for a concurrent writer that committed just ahead of this transaction.
	beforeFn func()
}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.beforeFn != nil {
		s.beforeFn()
	}
	return fn(nil)
}

type stubRepo struct {
	sessions    map[uuid.UUID]*models.RegisterSession
	createErr   error
	updates     map[uuid.UUID]map[string]any
	lockedReads int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		sessions: map[uuid.UUID]*models.RegisterSession{},
		updates:  map[uuid.UUID]map[string]any{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, session *models.RegisterSession) (*models.RegisterSession, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	session.ID = uuid.New()
	if session.OpenedAt.IsZero() {
		session.OpenedAt = time.Now().UTC()
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.RegisterSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (s *stubRepo) FindOpenByVendor(ctx context.Context, vendorID uuid.UUID) (*models.RegisterSession, error) {
	for _, session := range s.sessions {
		if session.VendorID == vendorID && session.Status == enums.RegisterStatusOpen {
			return session, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindOpenByVendorForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.RegisterSession, error) {
	s.lockedReads++
	return s.FindOpenByVendor(ctx, vendorID)
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	session, ok := s.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.updates[id] = updates
	if status, ok := updates["status"].(enums.RegisterStatus); ok {
		session.Status = status
	}
	return nil
}

func (s *stubRepo) ApplySale(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error {
	session, ok := s.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	session.TotalSales = session.TotalSales.Add(amount)
	session.TransactionCount++
	switch method {
	case enums.PaymentMethodCash:
		session.TotalCashSales = session.TotalCashSales.Add(amount)
	case enums.PaymentMethodCard:
		session.TotalCardSales = session.TotalCardSales.Add(amount)
	case enums.PaymentMethodDigital:
		session.TotalDigitalSales = session.TotalDigitalSales.Add(amount)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "register-test", Level: zerolog.Disabled})
}

func newService(t *testing.T, repo Repository) Service {
	t.Helper()
	return newServiceTx(t, stubTxRunner{}, repo)
}

func newServiceTx(t *testing.T, tx stubTxRunner, repo Repository) Service {
	t.Helper()
	svc, err := NewService(tx, repo, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestOpen_CreatesSession(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)
	vendorID := uuid.New()

	session, err := svc.Open(context.Background(), vendorID, OpenInput{
		CashierName:  "Ravi",
		OpeningFloat: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if session.Status != enums.RegisterStatusOpen {
		t.Fatalf("status = %s, want open", session.Status)
	}
	if session.RegisterName != "Main Register" {
		t.Fatalf("register name default = %q", session.RegisterName)
	}
	if !session.OpeningFloat.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("opening float = %s", session.OpeningFloat)
	}
}

func TestOpen_SecondOpenConflicts(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)
	vendorID := uuid.New()

	if _, err := svc.Open(context.Background(), vendorID, OpenInput{CashierName: "Ravi"}); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := svc.Open(context.Background(), vendorID, OpenInput{CashierName: "Meena"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on second open, got %v", err)
	}
}

func TestOpen_LostRaceMapsUniqueViolationToConflict(t *testing.T) {
	repo := newStubRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "ux_register_sessions_open"`)
	svc := newService(t, repo)

	_, err := svc.Open(context.Background(), uuid.New(), OpenInput{CashierName: "Ravi"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict from index race, got %v", err)
	}
}

func TestClose_ExpectedCashCountsOnlyCashSales(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)
	vendorID := uuid.New()

	session, err := svc.Open(context.Background(), vendorID, OpenInput{
		CashierName:  "Ravi",
		OpeningFloat: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	// 250 cash + 400 card: only cash lands in the drawer.
	if err := repo.ApplySale(context.Background(), session.ID, decimal.NewFromInt(250), enums.PaymentMethodCash); err != nil {
		t.Fatalf("apply cash sale: %v", err)
	}
	if err := repo.ApplySale(context.Background(), session.ID, decimal.NewFromInt(400), enums.PaymentMethodCard); err != nil {
		t.Fatalf("apply card sale: %v", err)
	}

	summary, err := svc.Close(context.Background(), vendorID, CloseInput{
		ClosingAmount: decimal.NewFromInt(340),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if !summary.ExpectedCash.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected cash = %s, want 350", summary.ExpectedCash)
	}
	if !summary.Variance.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("variance = %s, want -10", summary.Variance)
	}
	if summary.VarianceStatus != VarianceShort {
		t.Fatalf("variance status = %s, want short", summary.VarianceStatus)
	}
	if !summary.TotalSales.Equal(decimal.NewFromInt(650)) {
		t.Fatalf("total sales = %s, want 650", summary.TotalSales)
	}
	if summary.TransactionCount != 2 {
		t.Fatalf("transaction count = %d, want 2", summary.TransactionCount)
	}
}

func TestClose_SaleCommittedDuringCloseIsCounted(t *testing.T) {
	repo := newStubRepo()
	vendorID := uuid.New()

	// A cash sale commits right as the close transaction begins; the locked
	// read must observe it so the stored expected_amount stays consistent
	// with opening_float + total_cash_sales.
	var sessionID uuid.UUID
	tx := stubTxRunner{beforeFn: func() {
		if err := repo.ApplySale(context.Background(), sessionID, decimal.NewFromInt(250), enums.PaymentMethodCash); err != nil {
			t.Fatalf("apply concurrent sale: %v", err)
		}
	}}
	svc := newServiceTx(t, tx, repo)

	session, err := svc.Open(context.Background(), vendorID, OpenInput{
		CashierName:  "Ravi",
		OpeningFloat: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sessionID = session.ID

	summary, err := svc.Close(context.Background(), vendorID, CloseInput{
		ClosingAmount: decimal.NewFromInt(350),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	if repo.lockedReads == 0 {
		t.Fatal("close did not read the session under lock")
	}
	if !summary.ExpectedCash.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("expected cash = %s, want 350", summary.ExpectedCash)
	}
	if summary.VarianceStatus != VarianceExact {
		t.Fatalf("variance status = %s, want exact", summary.VarianceStatus)
	}

	stored, ok := repo.updates[session.ID]["expected_amount"].(decimal.Decimal)
	if !ok {
		t.Fatal("expected_amount not persisted")
	}
	if !stored.Equal(session.OpeningFloat.Add(session.TotalCashSales)) {
		t.Fatalf("stored expected_amount = %s, want opening_float + total_cash_sales = %s",
			stored, session.OpeningFloat.Add(session.TotalCashSales))
	}
}

func TestClose_ExactVariance(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)
	vendorID := uuid.New()

	if _, err := svc.Open(context.Background(), vendorID, OpenInput{
		CashierName:  "Ravi",
		OpeningFloat: decimal.NewFromInt(500),
	}); err != nil {
		t.Fatalf("open: %v", err)
	}

	summary, err := svc.Close(context.Background(), vendorID, CloseInput{
		ClosingAmount: decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if summary.VarianceStatus != VarianceExact || !summary.Variance.IsZero() {
		t.Fatalf("variance = %s (%s), want 0 exact", summary.Variance, summary.VarianceStatus)
	}
}

func TestClose_WithoutOpenSession(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)

	_, err := svc.Close(context.Background(), uuid.New(), CloseInput{ClosingAmount: decimal.NewFromInt(100)})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	repo := newStubRepo()
	svc := newService(t, repo)
	vendorID := uuid.New()

	view, err := svc.Status(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if view.RegisterOpen || view.Session != nil {
		t.Fatal("expected no open register")
	}

	if _, err := svc.Open(context.Background(), vendorID, OpenInput{CashierName: "Ravi"}); err != nil {
		t.Fatalf("open: %v", err)
	}
	view, err = svc.Status(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !view.RegisterOpen || view.Session == nil {
		t.Fatal("expected open register in status")
	}
}
