package persistence

import (
	"context"

	appbilling "github.com/billops/backend/internal/application/billing"
	"github.com/billops/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// CreditRepo returns the client credit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CreditRepo() billing.ClientCreditRepository {
	return NewGormClientCreditRepository(r.tx)
}

// PaymentApplicationRepo returns the payment application repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentApplicationRepo() billing.PaymentApplicationRepository {
	return NewGormPaymentApplicationRepository(r.tx)
}

// CreditApplicationRepo returns the credit application repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CreditApplicationRepo() billing.ClientCreditApplicationRepository {
	return NewGormClientCreditApplicationRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
