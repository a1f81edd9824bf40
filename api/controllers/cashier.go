package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhq/bazaar-backend/api/responses"
	"github.com/bazaarhq/bazaar-backend/api/validators"
	cashiersvc "github.com/bazaarhq/bazaar-backend/internal/cashier"
	registersvc "github.com/bazaarhq/bazaar-backend/internal/register"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
)

// RegisterOpen starts a register session with the counted opening float.
func RegisterOpen(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		vendorID, err := callerVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload registersvc.OpenInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Open(r.Context(), vendorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newRegisterSessionResponse(session))
	}
}

// RegisterClose reconciles the drawer and closes the open session.
func RegisterClose(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		vendorID, err := callerVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload registersvc.CloseInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Close(r.Context(), vendorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// RegisterStatus reports whether a drawer is open and its running totals.
func RegisterStatus(svc registersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "register service unavailable"))
			return
		}

		vendorID, err := callerVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.Status(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := registerStatusResponse{RegisterOpen: status.RegisterOpen}
		if status.Session != nil {
			session := newRegisterSessionResponse(status.Session)
			out.Session = &session
		}
		responses.WriteSuccess(w, out)
	}
}

// CashierCheckout rings up a counter sale against the open register.
func CashierCheckout(svc cashiersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashier service unavailable"))
			return
		}

		vendorID, err := callerVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cashiersvc.CheckoutInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), vendorID, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ProductPricing quotes the tier price for a product at a quantity.
func ProductPricing(svc cashiersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashier service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.PricingQuote(r.Context(), productID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// RecentTransactions lists the vendor's latest POS sales.
func RecentTransactions(svc cashiersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cashier service unavailable"))
			return
		}

		vendorID, err := callerVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transactions, err := svc.RecentTransactions(r.Context(), vendorID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transactions)
	}
}

type registerStatusResponse struct {
	RegisterOpen bool                     `json:"register_open"`
	Session      *registerSessionResponse `json:"session,omitempty"`
}

type registerSessionResponse struct {
	ID                uuid.UUID        `json:"id"`
	RegisterName      string           `json:"register_name"`
	CashierName       string           `json:"cashier_name"`
	Status            string           `json:"status"`
	OpeningFloat      decimal.Decimal  `json:"opening_float"`
	TotalSales        decimal.Decimal  `json:"total_sales"`
	TotalCashSales    decimal.Decimal  `json:"total_cash_sales"`
	TotalCardSales    decimal.Decimal  `json:"total_card_sales"`
	TotalDigitalSales decimal.Decimal  `json:"total_digital_sales"`
	TransactionCount  int              `json:"transaction_count"`
	ClosingAmount     *decimal.Decimal `json:"closing_amount,omitempty"`
	ExpectedAmount    *decimal.Decimal `json:"expected_amount,omitempty"`
	Variance          *decimal.Decimal `json:"variance,omitempty"`
	OpenedAt          time.Time        `json:"opened_at"`
	ClosedAt          *time.Time       `json:"closed_at,omitempty"`
	OpeningNotes      *string          `json:"opening_notes,omitempty"`
	ClosingNotes      *string          `json:"closing_notes,omitempty"`
}

func newRegisterSessionResponse(session *models.RegisterSession) registerSessionResponse {
	return registerSessionResponse{
		ID:                session.ID,
		RegisterName:      session.RegisterName,
		CashierName:       session.CashierName,
		Status:            string(session.Status),
		OpeningFloat:      session.OpeningFloat,
		TotalSales:        session.TotalSales,
		TotalCashSales:    session.TotalCashSales,
		TotalCardSales:    session.TotalCardSales,
		TotalDigitalSales: session.TotalDigitalSales,
		TransactionCount:  session.TransactionCount,
		ClosingAmount:     session.ClosingAmount,
		ExpectedAmount:    session.ExpectedAmount,
		Variance:          session.Variance,
		OpenedAt:          session.OpenedAt,
		ClosedAt:          session.ClosedAt,
		OpeningNotes:      session.OpeningNotes,
		ClosingNotes:      session.ClosingNotes,
	}
}
