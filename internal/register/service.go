package register

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/pkg/db"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
)

// Variance classifications for register close.
const (
	VarianceOver  = "over"
	VarianceShort = "short"
	VarianceExact = "exact"
)

// OpenInput opens a cash drawer shift.
type OpenInput struct {
	RegisterName string          `json:"register_name"`
	CashierName  string          `json:"cashier_name" validate:"required"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	OpeningNotes *string         `json:"opening_notes,omitempty"`
}

// CloseInput reconciles the drawer against the counted cash.
type CloseInput struct {
	ClosingAmount decimal.Decimal `json:"closing_amount"`
	ClosingNotes  *string         `json:"closing_notes,omitempty"`
}

// CloseSummary is the reconciliation report returned on close.
type CloseSummary struct {
	SessionID              uuid.UUID       `json:"session_id"`
	SessionDurationMinutes int             `json:"session_duration_minutes"`
	OpeningFloat           decimal.Decimal `json:"opening_float"`
	TotalSales             decimal.Decimal `json:"total_sales"`
	CashSales              decimal.Decimal `json:"cash_sales"`
	ExpectedCash           decimal.Decimal `json:"expected_cash"`
	ActualCash             decimal.Decimal `json:"actual_cash"`
	Variance               decimal.Decimal `json:"variance"`
	VarianceStatus         string          `json:"variance_status"`
	TransactionCount       int             `json:"transaction_count"`
}

// StatusView reports whether a drawer is open and its running totals.
type StatusView struct {
	RegisterOpen bool                    `json:"register_open"`
	Session      *models.RegisterSession `json:"session,omitempty"`
}

// Service owns the register session lifecycle.
type Service interface {
	Open(ctx context.Context, vendorID uuid.UUID, input OpenInput) (*models.RegisterSession, error)
	Close(ctx context.Context, vendorID uuid.UUID, input CloseInput) (*CloseSummary, error)
	Status(ctx context.Context, vendorID uuid.UUID) (*StatusView, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx     txRunner
	repo   Repository
	logger *logger.Logger
	now    func() time.Time
}

// NewService builds the register session service.
func NewService(tx txRunner, repo Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("register repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, logger: logg, now: time.Now}, nil
}

// Open starts a drawer shift. One open session per vendor; the check here is
// backed by a partial unique index so a lost race still cannot open two.
func (s *service) Open(ctx context.Context, vendorID uuid.UUID, input OpenInput) (*models.RegisterSession, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	if input.CashierName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashier_name is required")
	}
	if input.OpeningFloat.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening_float cannot be negative")
	}

	existing, err := s.repo.FindOpenByVendor(ctx, vendorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open register")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("register is already open since %s", existing.OpenedAt.Format("3:04 PM")))
	}

	session := &models.RegisterSession{
		VendorID:     vendorID,
		RegisterName: input.RegisterName,
		CashierName:  input.CashierName,
		OpeningFloat: input.OpeningFloat,
		OpeningNotes: input.OpeningNotes,
		Status:       enums.RegisterStatusOpen,
	}
	if session.RegisterName == "" {
		session.RegisterName = "Main Register"
	}

	created, err := s.repo.Create(ctx, session)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_register_sessions_open") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "register is already open")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open register")
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"session_id":    created.ID,
		"cashier_name":  created.CashierName,
		"opening_float": created.OpeningFloat.String(),
	})
	s.logger.Info(logCtx, "register opened")
	return created, nil
}

// Close reconciles and closes the open drawer. Expected cash is the opening
// float plus cash sales only; card and digital sales never sit in the drawer.
// The session row is read under FOR UPDATE in the closing transaction so a
// POS sale cannot land between the totals snapshot and the close.
func (s *service) Close(ctx context.Context, vendorID uuid.UUID, input CloseInput) (*CloseSummary, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	if input.ClosingAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "closing_amount cannot be negative")
	}

	var summary *CloseSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		session, err := repo.FindOpenByVendorForUpdate(ctx, vendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no register is currently open")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open register")
		}

		expected := session.OpeningFloat.Add(session.TotalCashSales)
		variance := input.ClosingAmount.Sub(expected)
		closedAt := s.now().UTC()

		updates := map[string]any{
			"closing_amount":  input.ClosingAmount,
			"expected_amount": expected,
			"variance":        variance,
			"closing_notes":   input.ClosingNotes,
			"status":          enums.RegisterStatusClosed,
			"closed_at":       closedAt,
		}
		if err := repo.Update(ctx, session.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close register")
		}

		summary = &CloseSummary{
			SessionID:              session.ID,
			SessionDurationMinutes: int(closedAt.Sub(session.OpenedAt).Minutes()),
			OpeningFloat:           session.OpeningFloat,
			TotalSales:             session.TotalSales,
			CashSales:              session.TotalCashSales,
			ExpectedCash:           expected,
			ActualCash:             input.ClosingAmount,
			Variance:               variance,
			VarianceStatus:         varianceStatus(variance),
			TransactionCount:       session.TransactionCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"session_id":      summary.SessionID,
		"expected_cash":   summary.ExpectedCash.String(),
		"variance":        summary.Variance.String(),
		"variance_status": summary.VarianceStatus,
	})
	s.logger.Info(logCtx, "register closed")
	return summary, nil
}

func (s *service) Status(ctx context.Context, vendorID uuid.UUID) (*StatusView, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "vendor identity missing")
	}
	session, err := s.repo.FindOpenByVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &StatusView{RegisterOpen: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open register")
	}
	return &StatusView{RegisterOpen: true, Session: session}, nil
}

func varianceStatus(variance decimal.Decimal) string {
	switch {
	case variance.IsPositive():
		return VarianceOver
	case variance.IsNegative():
		return VarianceShort
	default:
		return VarianceExact
	}
}
