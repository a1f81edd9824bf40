package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazaarhq/bazaar-backend/internal/cart"
	"github.com/bazaarhq/bazaar-backend/internal/checkout"
	"github.com/bazaarhq/bazaar-backend/internal/orders"
	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	pkgerrors "github.com/bazaarhq/bazaar-backend/pkg/errors"
	"github.com/bazaarhq/bazaar-backend/pkg/logger"
	"github.com/bazaarhq/bazaar-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type signatureVerifier interface {
	VerifySignature(orderID, paymentID, signature string) bool
}

// VerifyInput is the gateway callback payload.
type VerifyInput struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
}

// VerifyResult reports the orders materialized from the staged checkout.
type VerifyResult struct {
	Success       bool             `json:"success"`
	OrdersCreated int              `json:"orders_created"`
	Orders        []orders.Summary `json:"orders"`
}

// Service verifies payment signatures and materializes orders from the
// pending checkout snapshot.
type Service interface {
	Verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*VerifyResult, error)
}

type service struct {
	tx       txRunner
	pending  checkout.Repository
	orders   orders.Repository
	cart     cart.Repository
	verifier signatureVerifier
	logger   *logger.Logger
	metrics  *metrics.CheckoutMetrics
	now      func() time.Time
}

// NewService builds the payment verifier.
func NewService(
	tx txRunner,
	pending checkout.Repository,
	ordersRepo orders.Repository,
	cartRepo cart.Repository,
	verifier signatureVerifier,
	logg *logger.Logger,
	checkoutMetrics *metrics.CheckoutMetrics,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pending == nil {
		return nil, fmt.Errorf("pending checkout repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		pending:  pending,
		orders:   ordersRepo,
		cart:     cartRepo,
		verifier: verifier,
		logger:   logg,
		metrics:  checkoutMetrics,
		now:      time.Now,
	}, nil
}

// Verify checks the gateway signature, then in one transaction locks the
// pending checkout, creates one order per vendor bucket, flips the staged
// cart lines to checkout, and marks the snapshot completed. A replayed
// callback finds the snapshot already completed and is rejected without
// creating anything.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, input VerifyInput) (*VerifyResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.RazorpayOrderID == "" || input.RazorpayPaymentID == "" || input.RazorpaySignature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}

	if !s.verifier.VerifySignature(input.RazorpayOrderID, input.RazorpayPaymentID, input.RazorpaySignature) {
		logCtx := s.logger.WithFields(ctx, map[string]any{
			"razorpay_order_id": input.RazorpayOrderID,
			"security_event":    "payment_signature_mismatch",
		})
		s.logger.Warn(logCtx, "payment signature mismatch")
		s.metrics.IncPaymentVerification(metrics.VerifyResultSignatureMismatch)
		return nil, pkgerrors.New(pkgerrors.CodeSignatureMismatch, "invalid payment signature")
	}

	var created []models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		pendingRepo := s.pending.WithTx(tx)
		ordersRepo := s.orders.WithTx(tx)

		pending, err := pendingRepo.FindByGatewayOrderIDForUpdate(ctx, input.RazorpayOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pending checkout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending checkout")
		}
		if pending.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pending checkout not found")
		}
		if pending.Status != enums.PendingCheckoutStatusPending {
			return pkgerrors.New(pkgerrors.CodeConflict, "checkout already processed").
				WithDetails(map[string]any{"status": pending.Status.String()})
		}

		confirmedAt := s.now().UTC()
		created, err = s.materialize(ctx, ordersRepo, pending, input, confirmedAt)
		if err != nil {
			return err
		}

		if len(pending.CartItemIDs) > 0 {
			if err := s.cart.WithTx(tx).MarkCheckout(ctx, pending.CartItemIDs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark cart lines checked out")
			}
		}

		if err := pendingRepo.MarkCompleted(ctx, pending.ID, confirmedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete pending checkout")
		}
		return nil
	})
	if err != nil {
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeConflict {
			s.metrics.IncPaymentVerification(metrics.VerifyResultReplay)
		} else {
			s.metrics.IncPaymentVerification(metrics.VerifyResultFailed)
		}
		return nil, err
	}

	logCtx := s.logger.WithFields(ctx, map[string]any{
		"razorpay_order_id":   input.RazorpayOrderID,
		"razorpay_payment_id": input.RazorpayPaymentID,
		"orders_created":      len(created),
	})
	s.logger.Info(logCtx, "payment verified, orders created")
	s.metrics.IncPaymentVerification(metrics.VerifyResultCompleted)
	s.metrics.AddOrdersMaterialized(len(created))

	summaries := make([]orders.Summary, 0, len(created))
	for i := range created {
		summaries = append(summaries, orders.NewSummary(&created[i]))
	}
	return &VerifyResult{
		Success:       true,
		OrdersCreated: len(created),
		Orders:        summaries,
	}, nil
}

// materialize creates one order per vendor bucket, in the staged order. Any
// failure aborts the whole batch; the error names the failing bucket index.
func (s *service) materialize(
	ctx context.Context,
	ordersRepo orders.Repository,
	pending *models.PendingCheckout,
	input VerifyInput,
	confirmedAt time.Time,
) ([]models.Order, error) {
	created := make([]models.Order, 0, len(pending.PreparedOrders))

	for idx, bucket := range pending.PreparedOrders {
		order := &models.Order{
			VendorID:           bucket.VendorID,
			UserID:             &pending.UserID,
			CustomerName:       pending.ShippingInfo.Name,
			CustomerEmail:      optional(pending.ShippingInfo.Email),
			CustomerPhone:      optional(pending.ShippingInfo.Phone),
			ShippingInfo:       &pending.ShippingInfo,
			TotalAmount:        bucket.Subtotal,
			Status:             enums.OrderStatusPending,
			RazorpayOrderID:    &input.RazorpayOrderID,
			RazorpayPaymentID:  &input.RazorpayPaymentID,
			PaymentConfirmedAt: &confirmedAt,
			OrderType:          enums.OrderTypeOnline,
			PaymentMethod:      enums.PaymentMethodDigital,
			PaymentStatus:      enums.PaymentStatusPaid,
		}
		if _, err := ordersRepo.CreateOrder(ctx, order); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vendor order").
				WithDetails(map[string]any{"order_index": idx})
		}

		items := make([]models.OrderItem, 0, len(bucket.Lines))
		for _, line := range bucket.Lines {
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				VendorID:    bucket.VendorID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				Price:       line.UnitPrice,
				Metadata:    line.Metadata,
			})
		}
		if err := ordersRepo.CreateOrderItems(ctx, items); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items").
				WithDetails(map[string]any{"order_index": idx})
		}
		order.Items = items
		created = append(created, *order)
	}
	return created, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
