package billing

import (
	"context"
	"testing"
	"time"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =============================================================================
// RecordPayment
// =============================================================================

func TestRecordPayment_Pending(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	resp, err := f.paymentService.RecordPayment(ctx, f.tenantID, f.actorID, RecordPaymentRequest{
		ClientID: f.clientID,
		Amount:   d("150.00"),
		Source:   billing.PaymentSourceManual,
		Notes:    "check 4411",
	})
	require.NoError(t, err)

	assert.Equal(t, billing.PaymentStatusPending, resp.Status)
	assert.True(t, resp.Amount.Equal(d("150.00")))
	assert.True(t, resp.AppliedAmount.IsZero())
	assert.True(t, resp.AvailableAmount.Equal(d("150.00")))
	assert.Equal(t, "USD", resp.Currency)
	assert.NotEmpty(t, resp.PaymentNumber)
	assert.Equal(t, "check 4411", resp.Notes)

	stored, err := f.payments.FindByIDForTenant(ctx, f.tenantID, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusPending, stored.Status)
}

func TestRecordPayment_Completed(t *testing.T) {
	f := newLedgerFixture()

	resp, err := f.paymentService.RecordPayment(context.Background(), f.tenantID, f.actorID, RecordPaymentRequest{
		ClientID:  f.clientID,
		Amount:    d("99.99"),
		Source:    billing.PaymentSourceGateway,
		Completed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentStatusCompleted, resp.Status)
}

func TestRecordPayment_InvalidAmount(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.paymentService.RecordPayment(context.Background(), f.tenantID, f.actorID, RecordPaymentRequest{
		ClientID: f.clientID,
		Amount:   d("-5"),
		Source:   billing.PaymentSourceManual,
	})
	assert.Equal(t, "INVALID_AMOUNT", domainCode(t, err))
}

// =============================================================================
// ApplyToInvoice
// =============================================================================

func TestApplyToInvoice_PartialPayment(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("300.00", nil)

	resp, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("60.00"), "partial")
	require.NoError(t, err)

	assert.Equal(t, billing.ApplicationStatusActive, resp.Status)
	assert.True(t, resp.Amount.Equal(d("60.00")))
	assert.Equal(t, payment.ID, resp.PaymentID)
	assert.Equal(t, invoice.ID, resp.TargetID)
	assert.Equal(t, billing.TargetTypeInvoice, resp.TargetType)
	assert.Equal(t, f.actorID, resp.AppliedBy)

	assert.True(t, payment.AppliedAmount.Equal(d("60.00")))
	assert.True(t, payment.AvailableAmount().Equal(d("40.00")))
	assert.True(t, invoice.PaidAmount.Equal(d("60.00")))
	assert.Equal(t, billing.InvoicePartiallyPaid, invoice.PaymentStatus)
}

func TestApplyToInvoice_SettlesInvoice(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("500.00")
	invoice := f.openInvoice("200.00", nil)

	_, err := f.paymentService.ApplyToInvoice(context.Background(), f.tenantID, f.actorID, payment.ID, invoice.ID, d("200.00"), "")
	require.NoError(t, err)

	assert.Equal(t, billing.InvoicePaid, invoice.PaymentStatus)
	assert.True(t, invoice.Balance().IsZero())
	assert.True(t, payment.AvailableAmount().Equal(d("300.00")))
}

func TestApplyToInvoice_Errors(t *testing.T) {
	tests := []struct {
		name     string
		seed     func(f *ledgerFixture) (paymentID, invoiceID uuid.UUID)
		amount   string
		wantCode string
	}{
		{
			name: "pending payment cannot be applied",
			seed: func(f *ledgerFixture) (uuid.UUID, uuid.UUID) {
				return f.pendingPayment("100").ID, f.openInvoice("100", nil).ID
			},
			amount:   "50",
			wantCode: "INVALID_STATE",
		},
		{
			name: "amount exceeds payment available amount",
			seed: func(f *ledgerFixture) (uuid.UUID, uuid.UUID) {
				return f.completedPayment("40").ID, f.openInvoice("100", nil).ID
			},
			amount:   "50",
			wantCode: "INSUFFICIENT_AVAILABLE_AMOUNT",
		},
		{
			name: "amount exceeds invoice balance",
			seed: func(f *ledgerFixture) (uuid.UUID, uuid.UUID) {
				return f.completedPayment("100").ID, f.openInvoice("30", nil).ID
			},
			amount:   "50",
			wantCode: "AMOUNT_EXCEEDS_BALANCE",
		},
		{
			name: "draft invoice cannot receive allocations",
			seed: func(f *ledgerFixture) (uuid.UUID, uuid.UUID) {
				inv := f.openInvoice("100", nil)
				inv.Status = billing.InvoiceStatusDraft
				return f.completedPayment("100").ID, inv.ID
			},
			amount:   "50",
			wantCode: "INVALID_STATE",
		},
		{
			name: "unknown payment",
			seed: func(f *ledgerFixture) (uuid.UUID, uuid.UUID) {
				return uuid.New(), f.openInvoice("100", nil).ID
			},
			amount:   "50",
			wantCode: "NOT_FOUND",
		},
		{
			name: "unknown invoice",
			seed: func(f *ledgerFixture) (uuid.UUID, uuid.UUID) {
				return f.completedPayment("100").ID, uuid.New()
			},
			amount:   "50",
			wantCode: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()
			paymentID, invoiceID := tt.seed(f)

			_, err := f.paymentService.ApplyToInvoice(context.Background(), f.tenantID, f.actorID, paymentID, invoiceID, d(tt.amount), "")
			assert.Equal(t, tt.wantCode, domainCode(t, err))
		})
	}
}

func TestApplyToInvoice_WrongTenant(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("100")
	invoice := f.openInvoice("100", nil)

	_, err := f.paymentService.ApplyToInvoice(context.Background(), uuid.New(), f.actorID, payment.ID, invoice.ID, d("50"), "")
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestApplyToInvoice_CurrencyMismatch(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	invoice := f.openInvoice("100.00", nil)

	resp, err := f.paymentService.RecordPayment(ctx, f.tenantID, f.actorID, RecordPaymentRequest{
		ClientID:  f.clientID,
		Amount:    d("100.00"),
		Currency:  "EUR",
		Source:    billing.PaymentSourceManual,
		Completed: true,
	})
	require.NoError(t, err)

	_, err = f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, resp.ID, invoice.ID, d("50.00"), "")
	assert.Equal(t, "CURRENCY_MISMATCH", domainCode(t, err))
	assert.True(t, invoice.PaidAmount.IsZero())
}

// =============================================================================
// ApplyToMultipleInvoices
// =============================================================================

func TestApplyToMultipleInvoices(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("100.00")
	inv1 := f.openInvoice("70.00", nil)
	inv2 := f.openInvoice("80.00", nil)

	resps, err := f.paymentService.ApplyToMultipleInvoices(context.Background(), f.tenantID, f.actorID, payment.ID, []AllocationRequest{
		{InvoiceID: inv1.ID, Amount: d("70.00")},
		{InvoiceID: inv2.ID, Amount: d("30.00")},
	})
	require.NoError(t, err)
	require.Len(t, resps, 2)

	assert.True(t, payment.AppliedAmount.Equal(d("100.00")))
	assert.True(t, payment.IsFullyApplied())
	assert.Equal(t, billing.InvoicePaid, inv1.PaymentStatus)
	assert.Equal(t, billing.InvoicePartiallyPaid, inv2.PaymentStatus)
	assert.True(t, inv2.PaidAmount.Equal(d("30.00")))
}

func TestApplyToMultipleInvoices_TotalExceedsAvailable(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("100.00")
	inv1 := f.openInvoice("70.00", nil)
	inv2 := f.openInvoice("80.00", nil)

	_, err := f.paymentService.ApplyToMultipleInvoices(context.Background(), f.tenantID, f.actorID, payment.ID, []AllocationRequest{
		{InvoiceID: inv1.ID, Amount: d("70.00")},
		{InvoiceID: inv2.ID, Amount: d("40.00")},
	})
	assert.Equal(t, "INSUFFICIENT_AVAILABLE_AMOUNT", domainCode(t, err))

	// The total is validated before any record is created
	assert.Empty(t, f.paymentApps.items)
	assert.True(t, payment.AppliedAmount.IsZero())
}

func TestApplyToMultipleInvoices_Empty(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("100.00")

	_, err := f.paymentService.ApplyToMultipleInvoices(context.Background(), f.tenantID, f.actorID, payment.ID, nil)
	assert.Equal(t, "EMPTY_ALLOCATIONS", domainCode(t, err))
}

// =============================================================================
// Unapply
// =============================================================================

func TestUnapply(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("100.00", nil)

	resp, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("100.00"), "")
	require.NoError(t, err)
	require.Equal(t, billing.InvoicePaid, invoice.PaymentStatus)

	reversed, err := f.paymentService.Unapply(ctx, f.tenantID, f.actorID, resp.ID, "entered against wrong invoice")
	require.NoError(t, err)
	assert.True(t, reversed)

	app := f.paymentApps.items[resp.ID]
	assert.Equal(t, billing.ApplicationStatusUnapplied, app.Status)
	assert.Equal(t, "entered against wrong invoice", app.UnappliedReason)
	require.NotNil(t, app.UnappliedBy)
	assert.Equal(t, f.actorID, *app.UnappliedBy)
	assert.NotNil(t, app.UnappliedAt)

	assert.True(t, payment.AppliedAmount.IsZero())
	assert.True(t, payment.AvailableAmount().Equal(d("100.00")))
	assert.Equal(t, billing.InvoiceUnpaid, invoice.PaymentStatus)
	assert.True(t, invoice.PaidAmount.IsZero())
}

func TestUnapply_AlreadyUnapplied(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("100.00", nil)

	resp, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("50.00"), "")
	require.NoError(t, err)

	reversed, err := f.paymentService.Unapply(ctx, f.tenantID, f.actorID, resp.ID, "first")
	require.NoError(t, err)
	require.True(t, reversed)

	reversed, err = f.paymentService.Unapply(ctx, f.tenantID, f.actorID, resp.ID, "second")
	require.NoError(t, err)
	assert.False(t, reversed)

	// The original audit stamp is preserved
	assert.Equal(t, "first", f.paymentApps.items[resp.ID].UnappliedReason)
}

func TestUnapply_ReasonRequired(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("100.00", nil)

	resp, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("50.00"), "")
	require.NoError(t, err)

	reversed, err := f.paymentService.Unapply(ctx, f.tenantID, f.actorID, resp.ID, "")
	assert.False(t, reversed)
	assert.Equal(t, "UNAPPLY_REASON_REQUIRED", domainCode(t, err))
}

func TestUnapply_NotFound(t *testing.T) {
	f := newLedgerFixture()

	reversed, err := f.paymentService.Unapply(context.Background(), f.tenantID, f.actorID, uuid.New(), "reason")
	assert.False(t, reversed)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

// =============================================================================
// Reallocate
// =============================================================================

func TestReallocate(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	inv1 := f.openInvoice("100.00", nil)
	inv2 := f.openInvoice("100.00", nil)

	first, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, inv1.ID, d("60.00"), "")
	require.NoError(t, err)

	ok, err := f.paymentService.Reallocate(ctx, f.tenantID, f.actorID, payment.ID, []AllocationRequest{
		{InvoiceID: inv2.ID, Amount: d("80.00")},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, billing.ApplicationStatusUnapplied, f.paymentApps.items[first.ID].Status)
	assert.True(t, payment.AppliedAmount.Equal(d("80.00")))
	assert.Equal(t, billing.InvoiceUnpaid, inv1.PaymentStatus)
	assert.True(t, inv1.PaidAmount.IsZero())
	assert.Equal(t, billing.InvoicePartiallyPaid, inv2.PaymentStatus)
	assert.True(t, inv2.PaidAmount.Equal(d("80.00")))
}

func TestReallocate_ReusesReleasedCapacity(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("100.00", nil)

	_, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("100.00"), "")
	require.NoError(t, err)

	// The full amount moves to a new allocation on the same invoice; the
	// released capacity from the reversed application must be usable.
	ok, err := f.paymentService.Reallocate(ctx, f.tenantID, f.actorID, payment.ID, []AllocationRequest{
		{InvoiceID: invoice.ID, Amount: d("100.00")},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, payment.AppliedAmount.Equal(d("100.00")))
	assert.Equal(t, billing.InvoicePaid, invoice.PaymentStatus)

	active, err := f.paymentApps.FindActiveByPayment(ctx, f.tenantID, payment.ID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestReallocate_Empty(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("100.00")

	ok, err := f.paymentService.Reallocate(context.Background(), f.tenantID, f.actorID, payment.ID, nil)
	assert.False(t, ok)
	assert.Equal(t, "EMPTY_ALLOCATIONS", domainCode(t, err))
}

// =============================================================================
// AutoApply
// =============================================================================

func TestAutoApply_OldestFirstDefault(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("150.00")

	dueSoon := time.Now().AddDate(0, 0, 7)
	dueLater := time.Now().AddDate(0, 0, 30)
	older := f.openInvoice("100.00", &dueSoon)
	newer := f.openInvoice("100.00", &dueLater)

	result, err := f.paymentService.AutoApply(ctx, f.tenantID, f.actorID, payment.ID, AutoApplyOptions{})
	require.NoError(t, err)

	require.Len(t, result.Applications, 2)
	assert.Equal(t, older.ID, result.Applications[0].TargetID)
	assert.True(t, result.Applications[0].Amount.Equal(d("100.00")))
	assert.Equal(t, newer.ID, result.Applications[1].TargetID)
	assert.True(t, result.Applications[1].Amount.Equal(d("50.00")))

	assert.True(t, result.TotalApplied.Equal(d("150.00")))
	assert.True(t, result.RemainingAmount.IsZero())
	assert.Nil(t, result.OverpaymentCredit)

	assert.Equal(t, billing.InvoicePaid, older.PaymentStatus)
	assert.Equal(t, billing.InvoicePartiallyPaid, newer.PaymentStatus)
	assert.True(t, payment.IsFullyApplied())
}

func TestAutoApply_RemainderBecomesOverpaymentCredit(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("250.00")
	invoice := f.openInvoice("200.00", nil)

	result, err := f.paymentService.AutoApply(ctx, f.tenantID, f.actorID, payment.ID, AutoApplyOptions{})
	require.NoError(t, err)

	assert.True(t, result.TotalApplied.Equal(d("200.00")))
	assert.True(t, result.RemainingAmount.Equal(d("50.00")))
	require.NotNil(t, result.OverpaymentCredit)

	credit := result.OverpaymentCredit
	assert.Equal(t, billing.CreditTypeOverpayment, credit.Type)
	assert.Equal(t, billing.CreditStatusActive, credit.Status)
	assert.True(t, credit.Amount.Equal(d("50.00")))
	assert.True(t, credit.AvailableAmount.Equal(d("50.00")))
	assert.Equal(t, billing.CreditSourcePayment, credit.SourceType)
	require.NotNil(t, credit.SourceID)
	assert.Equal(t, payment.ID, *credit.SourceID)

	assert.True(t, payment.CreditedAmount.Equal(d("50.00")))
	assert.True(t, payment.IsFullyApplied())
	assert.Equal(t, billing.InvoicePaid, invoice.PaymentStatus)
}

func TestAutoApply_NoAvailableAmount(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("100.00", nil)

	_, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("100.00"), "")
	require.NoError(t, err)

	result, err := f.paymentService.AutoApply(ctx, f.tenantID, f.actorID, payment.ID, AutoApplyOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Applications)
	assert.True(t, result.TotalApplied.IsZero())
	assert.True(t, result.RemainingAmount.IsZero())
	assert.Nil(t, result.OverpaymentCredit)
}

func TestAutoApply_UnknownStrategy(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("100.00")

	_, err := f.paymentService.AutoApply(context.Background(), f.tenantID, f.actorID, payment.ID, AutoApplyOptions{
		Strategy: billing.AllocationStrategyType("round_robin"),
	})
	assert.Equal(t, "UNKNOWN_STRATEGY", domainCode(t, err))
}

func TestAutoApply_PendingPayment(t *testing.T) {
	f := newLedgerFixture()
	payment := f.pendingPayment("100.00")
	f.openInvoice("100.00", nil)

	_, err := f.paymentService.AutoApply(context.Background(), f.tenantID, f.actorID, payment.ID, AutoApplyOptions{})
	assert.Equal(t, "INVALID_STATE", domainCode(t, err))
}

func TestAutoApply_LowestFirst(t *testing.T) {
	f := newLedgerFixture()
	payment := f.completedPayment("30.00")
	f.openInvoice("100.00", nil)
	small := f.openInvoice("20.00", nil)

	result, err := f.paymentService.AutoApply(context.Background(), f.tenantID, f.actorID, payment.ID, AutoApplyOptions{
		Strategy: billing.StrategyLowestFirst,
	})
	require.NoError(t, err)

	require.Len(t, result.Applications, 2)
	assert.Equal(t, small.ID, result.Applications[0].TargetID)
	assert.True(t, result.Applications[0].Amount.Equal(d("20.00")))
	assert.True(t, result.Applications[1].Amount.Equal(d("10.00")))
}

// =============================================================================
// Read operations
// =============================================================================

func TestGetAvailableApplicationTargets(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	open := f.openInvoice("80.00", nil)
	settled := f.openInvoice("50.00", nil)

	_, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, settled.ID, d("50.00"), "")
	require.NoError(t, err)

	targets, err := f.paymentService.GetAvailableApplicationTargets(ctx, f.tenantID, payment.ID)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, open.ID, targets[0].InvoiceID)
	assert.True(t, targets[0].Balance.Equal(d("80.00")))
}

func TestGetTotalAppliedToInvoice_CombinesPaymentsAndCredits(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	credit := f.activeCredit("40.00", nil)
	invoice := f.openInvoice("200.00", nil)

	_, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("60.00"), "")
	require.NoError(t, err)
	_, err = f.creditService.ApplyToInvoice(ctx, f.tenantID, f.actorID, credit.ID, invoice.ID, d("40.00"), "")
	require.NoError(t, err)

	total, err := f.paymentService.GetTotalAppliedToInvoice(ctx, f.tenantID, invoice.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(d("100.00")))
	assert.True(t, invoice.PaidAmount.Equal(d("100.00")))
}

func TestListApplicationsForPayment_IncludesUnapplied(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	payment := f.completedPayment("100.00")
	invoice := f.openInvoice("100.00", nil)

	first, err := f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("30.00"), "")
	require.NoError(t, err)
	_, err = f.paymentService.ApplyToInvoice(ctx, f.tenantID, f.actorID, payment.ID, invoice.ID, d("20.00"), "")
	require.NoError(t, err)
	_, err = f.paymentService.Unapply(ctx, f.tenantID, f.actorID, first.ID, "correction")
	require.NoError(t, err)

	apps, err := f.paymentService.ListApplicationsForPayment(ctx, f.tenantID, payment.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	active := 0
	for _, app := range apps {
		if app.Status == billing.ApplicationStatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestListPayments_FiltersAndPaginates(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	f.completedPayment("10.00")
	f.completedPayment("20.00")
	f.pendingPayment("30.00")

	completed := billing.PaymentStatusCompleted
	page, err := f.paymentService.ListPayments(ctx, f.tenantID, billing.PaymentFilter{
		Status:   &completed,
		Page:     1,
		PageSize: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)
}

func TestGetPayment_NotFound(t *testing.T) {
	f := newLedgerFixture()

	_, err := f.paymentService.GetPayment(context.Background(), f.tenantID, uuid.New())
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}
