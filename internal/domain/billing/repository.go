package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentFilter narrows payment list queries
type PaymentFilter struct {
	ClientID  *uuid.UUID
	Status    *PaymentStatus
	Source    *PaymentSource
	DateFrom  *time.Time
	DateTo    *time.Time
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// CreditFilter narrows credit list queries
type CreditFilter struct {
	ClientID  *uuid.UUID
	Status    *CreditStatus
	Type      *CreditType
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// PaymentRepository persists Payment aggregates. FindByIDForUpdate must be
// called inside a transaction; it locks the row until commit.
type PaymentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) ([]Payment, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter PaymentFilter) (int64, error)
	Save(ctx context.Context, payment *Payment) error
	SaveWithLock(ctx context.Context, payment *Payment) error
	GeneratePaymentNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
	SumUnappliedByClient(ctx context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error)
}

// ClientCreditRepository persists ClientCredit aggregates
type ClientCreditRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ClientCredit, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ClientCredit, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter CreditFilter) ([]ClientCredit, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter CreditFilter) (int64, error)
	// FindAvailableByClient returns active credits with a positive available
	// amount whose expiry date is null or after asOf, ordered by credit date
	// ascending.
	FindAvailableByClient(ctx context.Context, tenantID, clientID uuid.UUID, asOf time.Time) ([]ClientCredit, error)
	// FindExpiredActive returns active credits whose expiry date has passed,
	// candidates for the expiry sweep.
	FindExpiredActive(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]ClientCredit, error)
	// ListTenantsWithExpirableCredits returns the tenants holding active
	// credits whose expiry date has passed, so the sweep can visit each one.
	ListTenantsWithExpirableCredits(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
	SumAvailableByClient(ctx context.Context, tenantID, clientID uuid.UUID, asOf time.Time) (decimal.Decimal, error)
	Save(ctx context.Context, credit *ClientCredit) error
	SaveWithLock(ctx context.Context, credit *ClientCredit) error
	GenerateCreditNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}

// PaymentApplicationRepository persists payment allocation records
type PaymentApplicationRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*PaymentApplication, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*PaymentApplication, error)
	FindByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]PaymentApplication, error)
	FindActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]PaymentApplication, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentApplication, error)
	SumActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (decimal.Decimal, error)
	SumActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, application *PaymentApplication) error
	SaveWithLock(ctx context.Context, application *PaymentApplication) error
}

// ClientCreditApplicationRepository persists credit allocation records
type ClientCreditApplicationRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ClientCreditApplication, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ClientCreditApplication, error)
	FindByCredit(ctx context.Context, tenantID, creditID uuid.UUID) ([]ClientCreditApplication, error)
	FindActiveByCredit(ctx context.Context, tenantID, creditID uuid.UUID) ([]ClientCreditApplication, error)
	FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ClientCreditApplication, error)
	SumActiveByCredit(ctx context.Context, tenantID, creditID uuid.UUID) (decimal.Decimal, error)
	SumActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, application *ClientCreditApplication) error
	SaveWithLock(ctx context.Context, application *ClientCreditApplication) error
}

// InvoiceRepository reads and updates the ledger-relevant slice of invoices.
// Invoice creation and line-item management live outside this context.
type InvoiceRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// FindOpenByClient returns open invoices with a positive balance for the
	// client, ordered by creation time ascending.
	FindOpenByClient(ctx context.Context, tenantID, clientID uuid.UUID) ([]Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}
