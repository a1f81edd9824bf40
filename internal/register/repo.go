package register

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bazaarhq/bazaar-backend/pkg/db/models"
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a register session repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, session *models.RegisterSession) (*models.RegisterSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindOpenByVendor(ctx context.Context, vendorID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, enums.RegisterStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindOpenByVendorForUpdate(ctx context.Context, vendorID uuid.UUID) (*models.RegisterSession, error) {
	var session models.RegisterSession
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_id = ? AND status = ?", vendorID, enums.RegisterStatusOpen).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RegisterSession{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ApplySale(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method enums.PaymentMethod) error {
	updates := map[string]any{
		"total_sales":       gorm.Expr("total_sales + ?", amount),
		"transaction_count": gorm.Expr("transaction_count + 1"),
	}
	switch method {
	case enums.PaymentMethodCash:
		updates["total_cash_sales"] = gorm.Expr("total_cash_sales + ?", amount)
	case enums.PaymentMethodCard:
		updates["total_card_sales"] = gorm.Expr("total_card_sales + ?", amount)
	case enums.PaymentMethodDigital:
		updates["total_digital_sales"] = gorm.Expr("total_digital_sales + ?", amount)
	}
	return r.db.WithContext(ctx).
		Model(&models.RegisterSession{}).
		Where("id = ? AND status = ?", id, enums.RegisterStatusOpen).
		Updates(updates).Error
}
