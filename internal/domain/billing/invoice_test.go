package billing

import (
	"testing"
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenInvoice(total string) *Invoice {
	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(uuid.New()),
		InvoiceNumber:       "INV-001",
		ClientID:            uuid.New(),
		TotalAmount:         decimal.RequireFromString(total),
		PaidAmount:          decimal.Zero,
		Currency:            valueobject.USD,
		Status:              InvoiceStatusOpen,
		PaymentStatus:       InvoiceUnpaid,
		IssueDate:           time.Now(),
	}
}

// ============================================
// InvoiceStatus
// ============================================

func TestInvoiceStatus_CanReceiveAllocations(t *testing.T) {
	assert.False(t, InvoiceStatusDraft.CanReceiveAllocations())
	assert.True(t, InvoiceStatusOpen.CanReceiveAllocations())
	assert.False(t, InvoiceStatusCancelled.CanReceiveAllocations())
}

// ============================================
// Balance / ValidateAllocation
// ============================================

func TestInvoice_Balance(t *testing.T) {
	inv := newOpenInvoice("100")
	inv.PaidAmount = decimal.NewFromInt(30)
	assert.True(t, inv.Balance().Equal(decimal.NewFromInt(70)))
	assert.True(t, inv.IsOpenForAllocation())

	inv.PaidAmount = decimal.NewFromInt(100)
	assert.True(t, inv.Balance().IsZero())
	assert.False(t, inv.IsOpenForAllocation())
}

func TestInvoice_ValidateAllocation(t *testing.T) {
	inv := newOpenInvoice("100")
	inv.PaidAmount = decimal.NewFromInt(40)

	assert.NoError(t, inv.ValidateAllocation(decimal.NewFromInt(60)))
	assertDomainCode(t, inv.ValidateAllocation(decimal.NewFromInt(61)), "AMOUNT_EXCEEDS_BALANCE")
	assertDomainCode(t, inv.ValidateAllocation(decimal.Zero), "INVALID_AMOUNT")
}

func TestInvoice_ValidateAllocation_NotOpen(t *testing.T) {
	for _, status := range []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			inv := newOpenInvoice("100")
			inv.Status = status
			assertDomainCode(t, inv.ValidateAllocation(decimal.NewFromInt(10)), "INVALID_STATE")
		})
	}
}

func TestInvoice_ValidateAllocationOf(t *testing.T) {
	inv := newOpenInvoice("100")

	usd, err := valueobject.NewMoney(decimal.NewFromInt(60), valueobject.USD)
	require.NoError(t, err)
	assert.NoError(t, inv.ValidateAllocationOf(usd))

	eur, err := valueobject.NewMoney(decimal.NewFromInt(60), valueobject.EUR)
	require.NoError(t, err)
	assertDomainCode(t, inv.ValidateAllocationOf(eur), "CURRENCY_MISMATCH")

	tooLarge, err := valueobject.NewMoney(decimal.NewFromInt(101), valueobject.USD)
	require.NoError(t, err)
	assertDomainCode(t, inv.ValidateAllocationOf(tooLarge), "AMOUNT_EXCEEDS_BALANCE")
}

func TestInvoice_ValidateAllocationOf_UnsetCurrencyDefaultsToUSD(t *testing.T) {
	inv := newOpenInvoice("100")
	inv.Currency = ""

	usd, err := valueobject.NewMoney(decimal.NewFromInt(10), valueobject.USD)
	require.NoError(t, err)
	assert.NoError(t, inv.ValidateAllocationOf(usd))

	gbp, err := valueobject.NewMoney(decimal.NewFromInt(10), valueobject.GBP)
	require.NoError(t, err)
	assertDomainCode(t, inv.ValidateAllocationOf(gbp), "CURRENCY_MISMATCH")
}

// ============================================
// RefreshPaymentStatus
// ============================================

func TestInvoice_RefreshPaymentStatus(t *testing.T) {
	tests := []struct {
		name       string
		sumActive  int64
		wantStatus InvoicePaymentStatus
	}{
		{"zero means unpaid", 0, InvoiceUnpaid},
		{"partial", 40, InvoicePartiallyPaid},
		{"full", 100, InvoicePaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newOpenInvoice("100")
			require.NoError(t, inv.RefreshPaymentStatus(decimal.NewFromInt(tt.sumActive)))
			assert.Equal(t, tt.wantStatus, inv.PaymentStatus)
			assert.True(t, inv.PaidAmount.Equal(decimal.NewFromInt(tt.sumActive)))
		})
	}
}

func TestInvoice_RefreshPaymentStatus_EmitsPaidEventOnce(t *testing.T) {
	inv := newOpenInvoice("100")

	require.NoError(t, inv.RefreshPaymentStatus(decimal.NewFromInt(100)))
	assert.Len(t, inv.GetDomainEvents(), 1)
	inv.ClearDomainEvents()

	// Already paid, re-confirming the same sum emits nothing new
	require.NoError(t, inv.RefreshPaymentStatus(decimal.NewFromInt(100)))
	assert.Empty(t, inv.GetDomainEvents())
}

func TestInvoice_RefreshPaymentStatus_Bounds(t *testing.T) {
	inv := newOpenInvoice("100")
	assertDomainCode(t, inv.RefreshPaymentStatus(decimal.NewFromInt(-1)), "INVALID_APPLIED_AMOUNT")
	assertDomainCode(t, inv.RefreshPaymentStatus(decimal.NewFromInt(101)), "APPLIED_EXCEEDS_TOTAL")
}

// ============================================
// Overdue
// ============================================

func TestInvoice_IsOverdue(t *testing.T) {
	now := time.Now()
	pastDue := now.AddDate(0, 0, -10)
	futureDue := now.AddDate(0, 0, 10)

	noDueDate := newOpenInvoice("100")
	assert.False(t, noDueDate.IsOverdue(now))
	assert.Equal(t, 0, noDueDate.DaysOverdue(now))

	overdue := newOpenInvoice("100")
	overdue.DueDate = &pastDue
	assert.True(t, overdue.IsOverdue(now))
	assert.Equal(t, 10, overdue.DaysOverdue(now))

	current := newOpenInvoice("100")
	current.DueDate = &futureDue
	assert.False(t, current.IsOverdue(now))

	settled := newOpenInvoice("100")
	settled.DueDate = &pastDue
	settled.PaidAmount = decimal.NewFromInt(100)
	assert.False(t, settled.IsOverdue(now))
}
