package billing

import (
	"context"

	"github.com/billops/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to the ledger repositories.
// Every mutating ledger operation runs inside Execute: all reads that inform
// a decision and all writes that follow happen in one database transaction,
// with the involved rows locked via the ForUpdate repository methods.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying
// database transaction.
type TransactionalRepositories interface {
	// PaymentRepo returns the payment repository scoped to the current transaction
	PaymentRepo() billing.PaymentRepository
	// CreditRepo returns the client credit repository scoped to the current transaction
	CreditRepo() billing.ClientCreditRepository
	// PaymentApplicationRepo returns the payment application repository scoped to the current transaction
	PaymentApplicationRepo() billing.PaymentApplicationRepository
	// CreditApplicationRepo returns the credit application repository scoped to the current transaction
	CreditApplicationRepo() billing.ClientCreditApplicationRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() billing.InvoiceRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Useful for tests where the repositories are in-memory fakes.
type NoOpTransactionScope struct {
	paymentRepo     billing.PaymentRepository
	creditRepo      billing.ClientCreditRepository
	paymentAppRepo  billing.PaymentApplicationRepository
	creditAppRepo   billing.ClientCreditApplicationRepository
	invoiceRepo     billing.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	paymentRepo billing.PaymentRepository,
	creditRepo billing.ClientCreditRepository,
	paymentAppRepo billing.PaymentApplicationRepository,
	creditAppRepo billing.ClientCreditApplicationRepository,
	invoiceRepo billing.InvoiceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		paymentRepo:    paymentRepo,
		creditRepo:     creditRepo,
		paymentAppRepo: paymentAppRepo,
		creditAppRepo:  creditAppRepo,
		invoiceRepo:    invoiceRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// PaymentRepo returns the payment repository.
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository {
	return s.paymentRepo
}

// CreditRepo returns the client credit repository.
func (s *NoOpTransactionScope) CreditRepo() billing.ClientCreditRepository {
	return s.creditRepo
}

// PaymentApplicationRepo returns the payment application repository.
func (s *NoOpTransactionScope) PaymentApplicationRepo() billing.PaymentApplicationRepository {
	return s.paymentAppRepo
}

// CreditApplicationRepo returns the credit application repository.
func (s *NoOpTransactionScope) CreditApplicationRepo() billing.ClientCreditApplicationRepository {
	return s.creditAppRepo
}

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository {
	return s.invoiceRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
