package billing

import (
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the document status of an invoice. Invoice
// lifecycle management lives outside this context; the ledger only reads
// the status to decide whether an invoice may receive allocations.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusOpen      InvoiceStatus = "OPEN"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// IsValid returns true if the status is a known invoice status
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusOpen, InvoiceStatusCancelled:
		return true
	default:
		return false
	}
}

// CanReceiveAllocations returns true if allocations may target this status
func (s InvoiceStatus) CanReceiveAllocations() bool {
	return s == InvoiceStatusOpen
}

// InvoicePaymentStatus is the derived settlement state of an invoice
type InvoicePaymentStatus string

const (
	InvoiceUnpaid        InvoicePaymentStatus = "UNPAID"
	InvoicePartiallyPaid InvoicePaymentStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoicePaymentStatus = "PAID"
)

// Invoice is the payable target of the allocation ledger. Totals and line
// items are owned elsewhere; this context mutates only PaidAmount and
// PaymentStatus, derived from the set of active applications.
type Invoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	ClientID      uuid.UUID
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	Currency      valueobject.Currency
	Status        InvoiceStatus
	PaymentStatus InvoicePaymentStatus
	IssueDate     time.Time
	DueDate       *time.Time
}

// Balance returns the unpaid portion of the invoice total
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// IsOpenForAllocation returns true when the invoice can absorb an allocation
func (i *Invoice) IsOpenForAllocation() bool {
	return i.Status.CanReceiveAllocations() && i.Balance().IsPositive()
}

// ValidateAllocation checks that the amount fits within the open balance
func (i *Invoice) ValidateAllocation(amount decimal.Decimal) error {
	if !i.Status.CanReceiveAllocations() {
		return shared.NewDomainError("INVALID_STATE",
			"Invoice "+i.InvoiceNumber+" is "+string(i.Status)+" and cannot receive allocations")
	}
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.GreaterThan(i.Balance()) {
		return shared.NewDomainError("AMOUNT_EXCEEDS_BALANCE",
			"Amount "+amount.StringFixed(2)+" exceeds the balance "+i.Balance().StringFixed(2)+
				" of invoice "+i.InvoiceNumber)
	}
	return nil
}

// ValidateAllocationOf checks an allocation, currency included, against the
// open balance. The invoice currency defaults to USD when unset.
func (i *Invoice) ValidateAllocationOf(allocation valueobject.Money) error {
	currency := i.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if allocation.Currency() != currency {
		return shared.NewDomainError("CURRENCY_MISMATCH",
			"Cannot allocate "+allocation.String()+" against invoice "+i.InvoiceNumber+
				" held in "+string(currency))
	}
	return i.ValidateAllocation(allocation.Amount())
}

// RefreshPaymentStatus recomputes PaidAmount and PaymentStatus from the
// authoritative sum of active applications against this invoice (payment
// and credit applications combined). Called inside the same transaction as
// every allocation change.
func (i *Invoice) RefreshPaymentStatus(sumActive decimal.Decimal) error {
	if sumActive.IsNegative() {
		return shared.NewDomainError("INVALID_APPLIED_AMOUNT", "Applied amount cannot be negative")
	}
	if sumActive.GreaterThan(i.TotalAmount) {
		return shared.NewDomainError("APPLIED_EXCEEDS_TOTAL",
			"Active applications "+sumActive.StringFixed(2)+" exceed invoice total "+i.TotalAmount.StringFixed(2))
	}

	previous := i.PaymentStatus
	i.PaidAmount = sumActive
	switch {
	case sumActive.IsZero():
		i.PaymentStatus = InvoiceUnpaid
	case sumActive.Equal(i.TotalAmount):
		i.PaymentStatus = InvoicePaid
	default:
		i.PaymentStatus = InvoicePartiallyPaid
	}

	if i.PaymentStatus == InvoicePaid && previous != InvoicePaid {
		i.AddDomainEvent(NewInvoicePaidEvent(i))
	}
	i.IncrementVersion()
	return nil
}

// IsOverdue returns true if the invoice has an unpaid balance past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	if i.DueDate == nil || !i.Balance().IsPositive() {
		return false
	}
	return i.DueDate.Before(now)
}

// DaysOverdue returns the number of whole days past due, zero when not overdue
func (i *Invoice) DaysOverdue(now time.Time) int {
	if !i.IsOverdue(now) {
		return 0
	}
	return int(now.Sub(*i.DueDate).Hours() / 24)
}
