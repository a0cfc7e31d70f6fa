package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// In-memory repositories backing the service tests. The NoOpTransactionScope
// hands the services these same instances, so in-transaction reads observe
// earlier in-transaction writes just like row-locked SQL would.
// =============================================================================

type fakePaymentRepo struct {
	items map[uuid.UUID]*billing.Payment
	seq   int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{items: make(map[uuid.UUID]*billing.Payment)}
}

func (r *fakePaymentRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	p, ok := r.items[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakePaymentRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Payment, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakePaymentRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter billing.PaymentFilter) ([]billing.Payment, error) {
	matched := r.match(tenantID, filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start >= len(matched) {
			return []billing.Payment{}, nil
		}
		end := start + filter.PageSize
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, nil
}

func (r *fakePaymentRepo) CountForTenant(_ context.Context, tenantID uuid.UUID, filter billing.PaymentFilter) (int64, error) {
	return int64(len(r.match(tenantID, filter))), nil
}

func (r *fakePaymentRepo) match(tenantID uuid.UUID, filter billing.PaymentFilter) []billing.Payment {
	matched := make([]billing.Payment, 0, len(r.items))
	for _, p := range r.items {
		if p.TenantID != tenantID {
			continue
		}
		if filter.ClientID != nil && p.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.Source != nil && p.Source != *filter.Source {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].PaymentNumber < matched[j].PaymentNumber
	})
	return matched
}

func (r *fakePaymentRepo) Save(_ context.Context, payment *billing.Payment) error {
	r.items[payment.ID] = payment
	return nil
}

func (r *fakePaymentRepo) SaveWithLock(ctx context.Context, payment *billing.Payment) error {
	return r.Save(ctx, payment)
}

func (r *fakePaymentRepo) GeneratePaymentNumber(_ context.Context, _ uuid.UUID) (string, error) {
	r.seq++
	return fmt.Sprintf("PAY-%05d", r.seq), nil
}

func (r *fakePaymentRepo) SumUnappliedByClient(_ context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.items {
		if p.TenantID == tenantID && p.ClientID == clientID && p.Status == billing.PaymentStatusCompleted {
			sum = sum.Add(p.AvailableAmount())
		}
	}
	return sum, nil
}

type fakeCreditRepo struct {
	items map[uuid.UUID]*billing.ClientCredit
	seq   int
}

func newFakeCreditRepo() *fakeCreditRepo {
	return &fakeCreditRepo{items: make(map[uuid.UUID]*billing.ClientCredit)}
}

func (r *fakeCreditRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.ClientCredit, error) {
	c, ok := r.items[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (r *fakeCreditRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCredit, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakeCreditRepo) FindAllForTenant(_ context.Context, tenantID uuid.UUID, filter billing.CreditFilter) ([]billing.ClientCredit, error) {
	matched := make([]billing.ClientCredit, 0, len(r.items))
	for _, c := range r.items {
		if c.TenantID != tenantID {
			continue
		}
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && c.Type != *filter.Type {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreditNumber < matched[j].CreditNumber
	})
	return matched, nil
}

func (r *fakeCreditRepo) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.CreditFilter) (int64, error) {
	matched, _ := r.FindAllForTenant(ctx, tenantID, filter)
	return int64(len(matched)), nil
}

func (r *fakeCreditRepo) FindAvailableByClient(_ context.Context, tenantID, clientID uuid.UUID, asOf time.Time) ([]billing.ClientCredit, error) {
	matched := make([]billing.ClientCredit, 0)
	for _, c := range r.items {
		if c.TenantID != tenantID || c.ClientID != clientID {
			continue
		}
		if c.Status != billing.CreditStatusActive || !c.AvailableAmount.IsPositive() {
			continue
		}
		if c.ExpiryDate != nil && !c.ExpiryDate.After(asOf) {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreditDate.Before(matched[j].CreditDate)
	})
	return matched, nil
}

func (r *fakeCreditRepo) FindExpiredActive(_ context.Context, tenantID uuid.UUID, asOf time.Time) ([]billing.ClientCredit, error) {
	matched := make([]billing.ClientCredit, 0)
	for _, c := range r.items {
		if c.TenantID != tenantID || c.Status != billing.CreditStatusActive {
			continue
		}
		if c.ExpiryDate != nil && c.ExpiryDate.Before(asOf) {
			matched = append(matched, *c)
		}
	}
	return matched, nil
}

func (r *fakeCreditRepo) ListTenantsWithExpirableCredits(_ context.Context, asOf time.Time) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	tenants := make([]uuid.UUID, 0)
	for _, c := range r.items {
		if c.Status != billing.CreditStatusActive || c.ExpiryDate == nil || !c.ExpiryDate.Before(asOf) {
			continue
		}
		if !seen[c.TenantID] {
			seen[c.TenantID] = true
			tenants = append(tenants, c.TenantID)
		}
	}
	return tenants, nil
}

func (r *fakeCreditRepo) SumAvailableByClient(ctx context.Context, tenantID, clientID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	credits, _ := r.FindAvailableByClient(ctx, tenantID, clientID, asOf)
	sum := decimal.Zero
	for i := range credits {
		sum = sum.Add(credits[i].AvailableAmount)
	}
	return sum, nil
}

func (r *fakeCreditRepo) Save(_ context.Context, credit *billing.ClientCredit) error {
	r.items[credit.ID] = credit
	return nil
}

func (r *fakeCreditRepo) SaveWithLock(ctx context.Context, credit *billing.ClientCredit) error {
	return r.Save(ctx, credit)
}

func (r *fakeCreditRepo) GenerateCreditNumber(_ context.Context, _ uuid.UUID) (string, error) {
	r.seq++
	return fmt.Sprintf("CR-%05d", r.seq), nil
}

type fakePaymentApplicationRepo struct {
	items map[uuid.UUID]*billing.PaymentApplication
}

func newFakePaymentApplicationRepo() *fakePaymentApplicationRepo {
	return &fakePaymentApplicationRepo{items: make(map[uuid.UUID]*billing.PaymentApplication)}
}

func (r *fakePaymentApplicationRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.PaymentApplication, error) {
	a, ok := r.items[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *fakePaymentApplicationRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.PaymentApplication, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakePaymentApplicationRepo) FindByPayment(_ context.Context, tenantID, paymentID uuid.UUID) ([]billing.PaymentApplication, error) {
	matched := make([]billing.PaymentApplication, 0)
	for _, a := range r.items {
		if a.TenantID == tenantID && a.PaymentID == paymentID {
			matched = append(matched, *a)
		}
	}
	return matched, nil
}

func (r *fakePaymentApplicationRepo) FindActiveByPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]billing.PaymentApplication, error) {
	all, _ := r.FindByPayment(ctx, tenantID, paymentID)
	matched := make([]billing.PaymentApplication, 0, len(all))
	for i := range all {
		if all[i].IsActive() {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

func (r *fakePaymentApplicationRepo) FindByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]billing.PaymentApplication, error) {
	matched := make([]billing.PaymentApplication, 0)
	for _, a := range r.items {
		if a.TenantID == tenantID && a.TargetID == invoiceID {
			matched = append(matched, *a)
		}
	}
	return matched, nil
}

func (r *fakePaymentApplicationRepo) SumActiveByPayment(_ context.Context, tenantID, paymentID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.items {
		if a.TenantID == tenantID && a.PaymentID == paymentID && a.IsActive() {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

func (r *fakePaymentApplicationRepo) SumActiveByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.items {
		if a.TenantID == tenantID && a.TargetID == invoiceID && a.IsActive() {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

func (r *fakePaymentApplicationRepo) Save(_ context.Context, application *billing.PaymentApplication) error {
	r.items[application.ID] = application
	return nil
}

func (r *fakePaymentApplicationRepo) SaveWithLock(ctx context.Context, application *billing.PaymentApplication) error {
	return r.Save(ctx, application)
}

type fakeCreditApplicationRepo struct {
	items map[uuid.UUID]*billing.ClientCreditApplication
}

func newFakeCreditApplicationRepo() *fakeCreditApplicationRepo {
	return &fakeCreditApplicationRepo{items: make(map[uuid.UUID]*billing.ClientCreditApplication)}
}

func (r *fakeCreditApplicationRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.ClientCreditApplication, error) {
	a, ok := r.items[id]
	if !ok || a.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (r *fakeCreditApplicationRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.ClientCreditApplication, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakeCreditApplicationRepo) FindByCredit(_ context.Context, tenantID, creditID uuid.UUID) ([]billing.ClientCreditApplication, error) {
	matched := make([]billing.ClientCreditApplication, 0)
	for _, a := range r.items {
		if a.TenantID == tenantID && a.CreditID == creditID {
			matched = append(matched, *a)
		}
	}
	return matched, nil
}

func (r *fakeCreditApplicationRepo) FindActiveByCredit(ctx context.Context, tenantID, creditID uuid.UUID) ([]billing.ClientCreditApplication, error) {
	all, _ := r.FindByCredit(ctx, tenantID, creditID)
	matched := make([]billing.ClientCreditApplication, 0, len(all))
	for i := range all {
		if all[i].IsActive() {
			matched = append(matched, all[i])
		}
	}
	return matched, nil
}

func (r *fakeCreditApplicationRepo) FindByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]billing.ClientCreditApplication, error) {
	matched := make([]billing.ClientCreditApplication, 0)
	for _, a := range r.items {
		if a.TenantID == tenantID && a.TargetID == invoiceID {
			matched = append(matched, *a)
		}
	}
	return matched, nil
}

func (r *fakeCreditApplicationRepo) SumActiveByCredit(_ context.Context, tenantID, creditID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.items {
		if a.TenantID == tenantID && a.CreditID == creditID && a.IsActive() {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

func (r *fakeCreditApplicationRepo) SumActiveByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, a := range r.items {
		if a.TenantID == tenantID && a.TargetID == invoiceID && a.IsActive() {
			sum = sum.Add(a.Amount)
		}
	}
	return sum, nil
}

func (r *fakeCreditApplicationRepo) Save(_ context.Context, application *billing.ClientCreditApplication) error {
	r.items[application.ID] = application
	return nil
}

func (r *fakeCreditApplicationRepo) SaveWithLock(ctx context.Context, application *billing.ClientCreditApplication) error {
	return r.Save(ctx, application)
}

type fakeInvoiceRepo struct {
	items map[uuid.UUID]*billing.Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{items: make(map[uuid.UUID]*billing.Invoice)}
}

func (r *fakeInvoiceRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	inv, ok := r.items[id]
	if !ok || inv.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (r *fakeInvoiceRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	return r.FindByIDForTenant(ctx, tenantID, id)
}

func (r *fakeInvoiceRepo) FindOpenByClient(_ context.Context, tenantID, clientID uuid.UUID) ([]billing.Invoice, error) {
	matched := make([]billing.Invoice, 0)
	for _, inv := range r.items {
		if inv.TenantID == tenantID && inv.ClientID == clientID && inv.IsOpenForAllocation() {
			matched = append(matched, *inv)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched, nil
}

func (r *fakeInvoiceRepo) Save(_ context.Context, invoice *billing.Invoice) error {
	r.items[invoice.ID] = invoice
	return nil
}

func (r *fakeInvoiceRepo) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	return r.Save(ctx, invoice)
}

// =============================================================================
// Fixture wiring both services against the shared fakes
// =============================================================================

type ledgerFixture struct {
	tenantID uuid.UUID
	actorID  uuid.UUID
	clientID uuid.UUID

	payments    *fakePaymentRepo
	credits     *fakeCreditRepo
	paymentApps *fakePaymentApplicationRepo
	creditApps  *fakeCreditApplicationRepo
	invoices    *fakeInvoiceRepo

	creditService  *ClientCreditService
	paymentService *PaymentApplicationService
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		tenantID:    uuid.New(),
		actorID:     uuid.New(),
		clientID:    uuid.New(),
		payments:    newFakePaymentRepo(),
		credits:     newFakeCreditRepo(),
		paymentApps: newFakePaymentApplicationRepo(),
		creditApps:  newFakeCreditApplicationRepo(),
		invoices:    newFakeInvoiceRepo(),
	}
	txScope := NewNoOpTransactionScope(f.payments, f.credits, f.paymentApps, f.creditApps, f.invoices)
	f.creditService = NewClientCreditService(txScope, f.credits, f.creditApps, zap.NewNop())
	f.paymentService = NewPaymentApplicationService(
		txScope, f.payments, f.paymentApps, f.creditApps, f.invoices, f.creditService, zap.NewNop(),
	)
	return f
}

// completedPayment seeds a completed payment ready for allocation
func (f *ledgerFixture) completedPayment(amount string) *billing.Payment {
	payment, err := billing.NewPayment(
		f.tenantID,
		fmt.Sprintf("PAY-SEED-%d", len(f.payments.items)+1),
		f.clientID,
		decimal.RequireFromString(amount),
		valueobject.DefaultCurrency,
		billing.PaymentSourceManual,
		"",
		time.Now(),
	)
	if err != nil {
		panic(err)
	}
	if err := payment.Complete(); err != nil {
		panic(err)
	}
	payment.ClearDomainEvents()
	f.payments.items[payment.ID] = payment
	return payment
}

// pendingPayment seeds a payment that has not been captured yet
func (f *ledgerFixture) pendingPayment(amount string) *billing.Payment {
	payment, err := billing.NewPayment(
		f.tenantID,
		fmt.Sprintf("PAY-SEED-%d", len(f.payments.items)+1),
		f.clientID,
		decimal.RequireFromString(amount),
		valueobject.DefaultCurrency,
		billing.PaymentSourceManual,
		"",
		time.Now(),
	)
	if err != nil {
		panic(err)
	}
	payment.ClearDomainEvents()
	f.payments.items[payment.ID] = payment
	return payment
}

// openInvoice seeds an open invoice with the given total and optional due date
func (f *ledgerFixture) openInvoice(total string, dueDate *time.Time) *billing.Invoice {
	invoice := &billing.Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(f.tenantID),
		InvoiceNumber:       fmt.Sprintf("INV-SEED-%d", len(f.invoices.items)+1),
		ClientID:            f.clientID,
		TotalAmount:         decimal.RequireFromString(total),
		PaidAmount:          decimal.Zero,
		Currency:            valueobject.DefaultCurrency,
		Status:              billing.InvoiceStatusOpen,
		PaymentStatus:       billing.InvoiceUnpaid,
		IssueDate:           time.Now(),
		DueDate:             dueDate,
	}
	f.invoices.items[invoice.ID] = invoice
	return invoice
}

// activeCredit seeds an active credit with the given amount and optional expiry
func (f *ledgerFixture) activeCredit(amount string, expiryDate *time.Time) *billing.ClientCredit {
	credit, err := billing.NewClientCredit(
		f.tenantID,
		fmt.Sprintf("CR-SEED-%d", len(f.credits.items)+1),
		f.clientID,
		billing.CreditTypeManual,
		decimal.RequireFromString(amount),
		valueobject.DefaultCurrency,
		billing.CreditSourceNone,
		nil,
		nil,
		"seed credit",
	)
	if err != nil {
		panic(err)
	}
	credit.ExpiryDate = expiryDate
	credit.ClearDomainEvents()
	f.credits.items[credit.ID] = credit
	return credit
}
