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

// GormClientCreditApplicationRepository implements ClientCreditApplicationRepository using GORM
type GormClientCreditApplicationRepository struct {
	db *gorm.DB
}

// NewGormClientCreditApplicationRepository creates a new GormClientCreditApplicationRepository
func NewGormClientCreditApplicationRepository(db *gorm.DB) *GormClientCreditApplicationRepository {
	return &GormClientCreditApplicationRepository{db: db}
}

// FindByIDForTenant finds an application by ID for a specific tenant
func (r *GormClientCreditApplicationRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCreditApplication, error) {
	var model models.ClientCreditApplicationModel
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
func (r *GormClientCreditApplicationRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCreditApplication, error) {
	var model models.ClientCreditApplicationModel
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

// FindByCredit finds all applications of a credit, active and unapplied
func (r *GormClientCreditApplicationRepository) FindByCredit(ctx context.Context, tenantID, creditID uuid.UUID) ([]billing.ClientCreditApplication, error) {
	var appModels []models.ClientCreditApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND credit_id = ?", tenantID, creditID).
		Order("applied_at DESC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainCreditApplications(appModels), nil
}

// FindActiveByCredit finds the active applications of a credit
func (r *GormClientCreditApplicationRepository) FindActiveByCredit(ctx context.Context, tenantID, creditID uuid.UUID) ([]billing.ClientCreditApplication, error) {
	var appModels []models.ClientCreditApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND credit_id = ? AND status = ?", tenantID, creditID, billing.ApplicationStatusActive).
		Order("applied_at ASC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainCreditApplications(appModels), nil
}

// FindByInvoice finds all credit applications targeting an invoice
func (r *GormClientCreditApplicationRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]billing.ClientCreditApplication, error) {
	var appModels []models.ClientCreditApplicationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND target_type = ? AND target_id = ?", tenantID, billing.TargetTypeInvoice, invoiceID).
		Order("applied_at DESC").
		Find(&appModels).Error; err != nil {
		return nil, err
	}
	return toDomainCreditApplications(appModels), nil
}

// SumActiveByCredit sums the active application amounts of a credit
func (r *GormClientCreditApplicationRepository) SumActiveByCredit(ctx context.Context, tenantID, creditID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ClientCreditApplicationModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND credit_id = ? AND status = ?", tenantID, creditID, billing.ApplicationStatusActive).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumActiveByInvoice sums the active credit application amounts against an invoice
func (r *GormClientCreditApplicationRepository) SumActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ClientCreditApplicationModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND target_type = ? AND target_id = ? AND status = ?",
			tenantID, billing.TargetTypeInvoice, invoiceID, billing.ApplicationStatusActive).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates an application
func (r *GormClientCreditApplicationRepository) Save(ctx context.Context, application *billing.ClientCreditApplication) error {
	model := models.ClientCreditApplicationModelFromDomain(application)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormClientCreditApplicationRepository) SaveWithLock(ctx context.Context, application *billing.ClientCreditApplication) error {
	model := models.ClientCreditApplicationModelFromDomain(application)
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

func toDomainCreditApplications(appModels []models.ClientCreditApplicationModel) []billing.ClientCreditApplication {
	apps := make([]billing.ClientCreditApplication, len(appModels))
	for i, model := range appModels {
		apps[i] = *model.ToDomain()
	}
	return apps
}

// Ensure GormClientCreditApplicationRepository implements ClientCreditApplicationRepository
var _ billing.ClientCreditApplicationRepository = (*GormClientCreditApplicationRepository)(nil)
