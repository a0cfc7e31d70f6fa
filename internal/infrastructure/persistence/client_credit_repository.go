package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClientCreditRepository implements ClientCreditRepository using GORM
type GormClientCreditRepository struct {
	db *gorm.DB
}

// NewGormClientCreditRepository creates a new GormClientCreditRepository
func NewGormClientCreditRepository(db *gorm.DB) *GormClientCreditRepository {
	return &GormClientCreditRepository{db: db}
}

// FindByIDForTenant finds a credit by ID for a specific tenant
func (r *GormClientCreditRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCredit, error) {
	var model models.ClientCreditModel
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

// FindByIDForUpdate finds a credit by ID and locks the row until the
// current transaction commits
func (r *GormClientCreditRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCredit, error) {
	var model models.ClientCreditModel
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

// FindAllForTenant finds all credits for a tenant with filtering
func (r *GormClientCreditRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.CreditFilter) ([]billing.ClientCredit, error) {
	var creditModels []models.ClientCreditModel
	query := r.db.WithContext(ctx).Model(&models.ClientCreditModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyCreditFilter(query, filter)

	if err := query.Find(&creditModels).Error; err != nil {
		return nil, err
	}
	credits := make([]billing.ClientCredit, len(creditModels))
	for i, model := range creditModels {
		credits[i] = *model.ToDomain()
	}
	return credits, nil
}

// CountForTenant counts credits for a tenant
func (r *GormClientCreditRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.CreditFilter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ClientCreditModel{}).
		Where("tenant_id = ?", tenantID)
	query = r.applyCreditFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindAvailableByClient finds the client's consumable credits, oldest first
func (r *GormClientCreditRepository) FindAvailableByClient(ctx context.Context, tenantID, clientID uuid.UUID, asOf time.Time) ([]billing.ClientCredit, error) {
	var creditModels []models.ClientCreditModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ? AND status = ? AND available_amount > 0", tenantID, clientID, billing.CreditStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", asOf).
		Order("credit_date ASC").
		Find(&creditModels).Error; err != nil {
		return nil, err
	}
	credits := make([]billing.ClientCredit, len(creditModels))
	for i, model := range creditModels {
		credits[i] = *model.ToDomain()
	}
	return credits, nil
}

// FindExpiredActive finds active credits whose expiry date has passed
func (r *GormClientCreditRepository) FindExpiredActive(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.ClientCredit, error) {
	var creditModels []models.ClientCreditModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", tenantID, billing.CreditStatusActive, asOf).
		Order("expiry_date ASC").
		Find(&creditModels).Error; err != nil {
		return nil, err
	}
	credits := make([]billing.ClientCredit, len(creditModels))
	for i, model := range creditModels {
		credits[i] = *model.ToDomain()
	}
	return credits, nil
}

// ListTenantsWithExpirableCredits lists tenants holding active credits
// whose expiry date has passed
func (r *GormClientCreditRepository) ListTenantsWithExpirableCredits(ctx context.Context, asOf time.Time) ([]uuid.UUID, error) {
	var tenantIDs []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.ClientCreditModel{}).
		Distinct("tenant_id").
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date < ?", billing.CreditStatusActive, asOf).
		Pluck("tenant_id", &tenantIDs).Error; err != nil {
		return nil, err
	}
	return tenantIDs, nil
}

// SumAvailableByClient sums the client's consumable credit
func (r *GormClientCreditRepository) SumAvailableByClient(ctx context.Context, tenantID, clientID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ClientCreditModel{}).
		Select("COALESCE(SUM(available_amount), 0) as total").
		Where("tenant_id = ? AND client_id = ? AND status = ?", tenantID, clientID, billing.CreditStatusActive).
		Where("expiry_date IS NULL OR expiry_date > ?", asOf).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Save creates or updates a credit
func (r *GormClientCreditRepository) Save(ctx context.Context, credit *billing.ClientCredit) error {
	model := models.ClientCreditModelFromDomain(credit)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves with optimistic locking
func (r *GormClientCreditRepository) SaveWithLock(ctx context.Context, credit *billing.ClientCredit) error {
	model := models.ClientCreditModelFromDomain(credit)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", credit.ID, credit.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")
	}
	return nil
}

// GenerateCreditNumber generates a unique credit number
func (r *GormClientCreditRepository) GenerateCreditNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	// Format: CR-YYYYMMDD-XXXXX
	date := time.Now().Format("20060102")
	prefix := fmt.Sprintf("CR-%s-", date)

	var maxNumber string
	if err := r.db.WithContext(ctx).
		Model(&models.ClientCreditModel{}).
		Select("credit_number").
		Where("tenant_id = ? AND credit_number LIKE ?", tenantID, prefix+"%").
		Order("credit_number DESC").
		Limit(1).
		Pluck("credit_number", &maxNumber).Error; err != nil {
		return "", err
	}

	var nextNum int
	if maxNumber != "" {
		parts := strings.Split(maxNumber, "-")
		if len(parts) == 3 {
			fmt.Sscanf(parts[2], "%d", &nextNum)
		}
	}
	nextNum++

	return fmt.Sprintf("%s%05d", prefix, nextNum), nil
}

// applyCreditFilter applies filter options to the query
func (r *GormClientCreditRepository) applyCreditFilter(query *gorm.DB, filter billing.CreditFilter) *gorm.DB {
	query = r.applyCreditFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.SortBy, CreditSortFields, "credit_date")
	sortOrder := ValidateSortOrder(filter.SortOrder)
	return query.Order(sortField + " " + sortOrder)
}

// applyCreditFilterWithoutPagination applies filter options without pagination
func (r *GormClientCreditRepository) applyCreditFilterWithoutPagination(query *gorm.DB, filter billing.CreditFilter) *gorm.DB {
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	return query
}

// Ensure GormClientCreditRepository implements ClientCreditRepository
var _ billing.ClientCreditRepository = (*GormClientCreditRepository)(nil)
