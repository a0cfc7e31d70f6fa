package persistence

import (
	"context"
	"errors"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentApplicationRepository implements PaymentApplicationRepository using GORM
type GormPaymentApplicationRepository struct {
	db *gorm.DB
}

// NewGormPaymentApplicationRepository creates a new GormPaymentApplicationRepository
func NewGormPaymentApplicationRepository(db *gorm.DB) *GormPaymentApplicationRepository {
	return &GormPaymentApplicationRepository{db: db}
}

// FindByIDForTenant finds an application by ID for a specific tenant
func (r *GormPaymentApplicationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentApplication, error) {
	var model models.PaymentApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds an application by ID and locks the row until the
// current transaction commits
func (r *GormPaymentApplicationRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentApplication, error) {
	var model models.PaymentApplicationModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPayment finds all applications of a payment, active and unapplied
func (r *GormPaymentApplicationRepository) FindByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]billing.PaymentApplication, error) {
	var appModels []models.PaymentApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_id = ?", tenantID, paymentID).
		Order("applied_at DESC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentApplications(appModels), nil
}

// FindActiveByPayment finds the active applications of a payment
func (r *GormPaymentApplicationRepository) FindActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]billing.PaymentApplication, error) {
	var appModels []models.PaymentApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND payment_id = ? AND status = ?", tenantID, paymentID, billing.ApplicationStatusActive).
		Order("applied_at ASC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentApplications(appModels), nil
}

// FindByInvoice finds all payment applications targeting an invoice
func (r *GormPaymentApplicationRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.PaymentApplication, error) {
	var appModels []models.PaymentApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND target_type = ? AND target_id = ?", tenantID, billing.TargetTypeInvoice, invoiceID).
		Order("applied_at DESC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainPaymentApplications(appModels), nil
}

// SumActiveByPayment sums the active application amounts of a payment
func (r *GormPaymentApplicationRepository) SumActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentApplicationModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND payment_id = ? AND status = ?", tenantID, paymentID, billing.ApplicationStatusActive).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumActiveByInvoice sums the active payment application amounts against an invoice
func (r *GormPaymentApplicationRepository) SumActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentApplicationModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND target_type = ? AND target_id = ? AND status = ?",
			tenantID, billing.TargetTypeInvoice, invoiceID, billing.ApplicationStatusActive).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates an application
func (r *GormPaymentApplicationRepository) Save(ctx context.Context, application *billing.PaymentApplication) error {
	model := models.PaymentApplicationModelFromDomain(application)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormPaymentApplicationRepository) SaveWithLock(ctx context.Context, application *billing.PaymentApplication) error {
	model := models.PaymentApplicationModelFromDomain(application)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", application.ID, application.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

func toDomainPaymentApplications(appModels []models.PaymentApplicationModel) []billing.PaymentApplication {
	apps := make([]billing.PaymentApplication, len(appModels))
	for i, model := range appModels {
		apps[i] = *model.ToDomain()
	}
	return apps
}

// Ensure GormPaymentApplicationRepository implements PaymentApplicationRepository
var _ billing.PaymentApplicationRepository = (*GormPaymentApplicationRepository)(nil)
