package billing

import (
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the lifecycle status of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// IsValid returns true if the status is a known payment status
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// CanApply returns true if payments in this status may be allocated
func (s PaymentStatus) CanApply() bool {
	return s == PaymentStatusCompleted
}

// PaymentSource indicates how the payment entered the system
type PaymentSource string

const (
	PaymentSourceGateway PaymentSource = "GATEWAY"
	PaymentSourceManual  PaymentSource = "MANUAL"
)

// IsValid returns true if the source is a known payment source
func (s PaymentSource) IsValid() bool {
	return s == PaymentSourceGateway || s == PaymentSourceManual
}

// Payment represents money received from a client. The amount is immutable
// once recorded; only the set of applications against it changes.
// AppliedAmount is denormalized from the sum of active applications and is
// refreshed inside the same transaction as every allocation change.
type Payment struct {
	shared.TenantAggregateRoot
	PaymentNumber   string
	ClientID        uuid.UUID
	Amount          decimal.Decimal
	AppliedAmount   decimal.Decimal
	CreditedAmount  decimal.Decimal
	Currency        valueobject.Currency
	Status          PaymentStatus
	Source          PaymentSource
	SourceReference string
	ReceivedAt      time.Time
	Notes           string
}

// NewPayment creates a new payment record
func NewPayment(
	tenantID uuid.UUID,
	paymentNumber string,
	clientID uuid.UUID,
	amount decimal.Decimal,
	currency valueobject.Currency,
	source PaymentSource,
	sourceReference string,
	receivedAt time.Time,
) (*Payment, error) {
	if paymentNumber == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID is required")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_SOURCE", "Unknown payment source")
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	p := &Payment{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentNumber:       paymentNumber,
		ClientID:            clientID,
		Amount:              amount,
		AppliedAmount:       decimal.Zero,
		CreditedAmount:      decimal.Zero,
		Currency:            currency,
		Status:              PaymentStatusPending,
		Source:              source,
		SourceReference:     sourceReference,
		ReceivedAt:          receivedAt,
	}
	p.AddDomainEvent(NewPaymentRecordedEvent(p))
	return p, nil
}

// AvailableAmount returns the portion of the payment neither allocated to
// invoices nor converted into client credit
func (p *Payment) AvailableAmount() decimal.Decimal {
	return p.Amount.Sub(p.AppliedAmount).Sub(p.CreditedAmount)
}

// CanApply returns true if the given amount could be allocated from this payment
func (p *Payment) CanApply(amount decimal.Decimal) bool {
	return p.ValidateApply(amount) == nil
}

// ValidateApply checks the allocation preconditions and returns a typed error
// naming the violated bound
func (p *Payment) ValidateApply(amount decimal.Decimal) error {
	if !p.Status.CanApply() {
		return shared.NewDomainError("INVALID_STATE",
			"Payment "+p.PaymentNumber+" is not completed and cannot be applied")
	}
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.GreaterThan(p.AvailableAmount()) {
		return shared.NewDomainError("INSUFFICIENT_AVAILABLE_AMOUNT",
			"Amount "+amount.StringFixed(2)+" exceeds the available amount "+p.AvailableAmount().StringFixed(2)+
				" of payment "+p.PaymentNumber)
	}
	return nil
}

// Complete marks the payment as successfully captured. Only pending payments
// can complete.
func (p *Payment) Complete() error {
	if p.Status != PaymentStatusPending {
		return shared.ErrInvalidState
	}
	p.Status = PaymentStatusCompleted
	p.AddDomainEvent(NewPaymentCompletedEvent(p))
	p.IncrementVersion()
	return nil
}

// Fail marks the payment as failed. Only pending payments can fail.
func (p *Payment) Fail() error {
	if p.Status != PaymentStatusPending {
		return shared.ErrInvalidState
	}
	p.Status = PaymentStatusFailed
	p.IncrementVersion()
	return nil
}

// RefreshAppliedAmount sets the applied amount from the authoritative sum of
// active applications. The caller must compute the sum inside the same
// transaction that changed the application set.
func (p *Payment) RefreshAppliedAmount(sumActive decimal.Decimal) error {
	if sumActive.IsNegative() {
		return shared.NewDomainError("INVALID_APPLIED_AMOUNT", "Applied amount cannot be negative")
	}
	if sumActive.Add(p.CreditedAmount).GreaterThan(p.Amount) {
		return shared.NewDomainError("APPLIED_EXCEEDS_AMOUNT",
			"Active applications "+sumActive.StringFixed(2)+" exceed payment amount "+p.Amount.StringFixed(2))
	}
	p.AppliedAmount = sumActive
	p.IncrementVersion()
	return nil
}

// ConvertToCredit reserves part of the available amount as converted into a
// client credit, so the same remainder cannot be allocated or converted again
func (p *Payment) ConvertToCredit(amount decimal.Decimal) error {
	if !p.Status.CanApply() {
		return shared.NewDomainError("INVALID_STATE",
			"Payment "+p.PaymentNumber+" is not completed and cannot be converted to credit")
	}
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.GreaterThan(p.AvailableAmount()) {
		return shared.NewDomainError("INSUFFICIENT_AVAILABLE_AMOUNT",
			"Amount "+amount.StringFixed(2)+" exceeds the available amount "+p.AvailableAmount().StringFixed(2)+
				" of payment "+p.PaymentNumber)
	}
	p.CreditedAmount = p.CreditedAmount.Add(amount)
	p.IncrementVersion()
	return nil
}

// IsFullyApplied returns true when no available amount remains
func (p *Payment) IsFullyApplied() bool {
	return p.AvailableAmount().IsZero()
}
