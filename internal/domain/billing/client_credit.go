package billing

import (
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditType indicates how a client credit was originated
type CreditType string

const (
	CreditTypeOverpayment CreditType = "OVERPAYMENT"
	CreditTypeCreditNote  CreditType = "CREDIT_NOTE"
	CreditTypeManual      CreditType = "MANUAL"
)

// IsValid returns true if the type is a known credit type
func (t CreditType) IsValid() bool {
	switch t {
	case CreditTypeOverpayment, CreditTypeCreditNote, CreditTypeManual:
		return true
	default:
		return false
	}
}

// CreditStatus represents the lifecycle status of a client credit
type CreditStatus string

const (
	CreditStatusActive  CreditStatus = "ACTIVE"
	CreditStatusExpired CreditStatus = "EXPIRED"
	CreditStatusVoided  CreditStatus = "VOIDED"
)

// IsValid returns true if the status is a known credit status
func (s CreditStatus) IsValid() bool {
	switch s {
	case CreditStatusActive, CreditStatusExpired, CreditStatusVoided:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for statuses that accept no further applications
func (s CreditStatus) IsTerminal() bool {
	return s == CreditStatusExpired || s == CreditStatusVoided
}

// CreditSourceType identifies the record a credit was created from
type CreditSourceType string

const (
	CreditSourcePayment    CreditSourceType = "PAYMENT"
	CreditSourceCreditNote CreditSourceType = "CREDIT_NOTE"
	CreditSourceNone       CreditSourceType = "NONE"
)

// ClientCredit represents non-cash value owed to a client. Amount is the
// original grant and never changes; AvailableAmount is denormalized from
// amount minus the sum of active applications.
type ClientCredit struct {
	shared.TenantAggregateRoot
	CreditNumber    string
	ClientID        uuid.UUID
	Type            CreditType
	Status          CreditStatus
	Amount          decimal.Decimal
	AvailableAmount decimal.Decimal
	Currency        valueobject.Currency
	CreditDate      time.Time
	ExpiryDate      *time.Time
	SourceType      CreditSourceType
	SourceID        *uuid.UUID
	Reason          string
	ExpiredAt       *time.Time
	VoidReason      string
	VoidedBy        *uuid.UUID
	VoidedAt        *time.Time
}

// NewClientCredit creates a new active credit with the full amount available
func NewClientCredit(
	tenantID uuid.UUID,
	creditNumber string,
	clientID uuid.UUID,
	creditType CreditType,
	amount decimal.Decimal,
	currency valueobject.Currency,
	sourceType CreditSourceType,
	sourceID *uuid.UUID,
	expiryDate *time.Time,
	reason string,
) (*ClientCredit, error) {
	if creditNumber == "" {
		return nil, shared.NewDomainError("INVALID_CREDIT_NUMBER", "Credit number cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID is required")
	}
	if !creditType.IsValid() {
		return nil, shared.NewDomainError("INVALID_CREDIT_TYPE", "Unknown credit type")
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	if sourceType == "" {
		sourceType = CreditSourceNone
	}
	if expiryDate != nil && !expiryDate.After(time.Now()) {
		return nil, shared.NewDomainError("INVALID_EXPIRY_DATE", "Expiry date must be in the future")
	}

	c := &ClientCredit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CreditNumber:        creditNumber,
		ClientID:            clientID,
		Type:                creditType,
		Status:              CreditStatusActive,
		Amount:              amount,
		AvailableAmount:     amount,
		Currency:            currency,
		CreditDate:          time.Now(),
		ExpiryDate:          expiryDate,
		SourceType:          sourceType,
		SourceID:            sourceID,
		Reason:              reason,
	}
	c.AddDomainEvent(NewCreditCreatedEvent(c))
	return c, nil
}

// CanApply returns true if the given amount could be consumed from this credit
func (c *ClientCredit) CanApply(amount decimal.Decimal) bool {
	return c.ValidateApply(amount) == nil
}

// ValidateApply checks the consumption preconditions and returns a typed error
// naming the violated bound
func (c *ClientCredit) ValidateApply(amount decimal.Decimal) error {
	if c.Status != CreditStatusActive {
		return shared.NewDomainError("INVALID_STATE",
			"Credit "+c.CreditNumber+" is "+string(c.Status)+" and cannot be applied")
	}
	if c.IsExpired(time.Now()) {
		return shared.NewDomainError("CREDIT_EXPIRED",
			"Credit "+c.CreditNumber+" has passed its expiry date")
	}
	if !amount.IsPositive() {
		return shared.ErrInvalidAmount
	}
	if amount.GreaterThan(c.AvailableAmount) {
		return shared.NewDomainError("INSUFFICIENT_AVAILABLE_AMOUNT",
			"Amount "+amount.StringFixed(2)+" exceeds the available amount "+c.AvailableAmount.StringFixed(2)+
				" of credit "+c.CreditNumber)
	}
	return nil
}

// IsExpired returns true if the credit has an expiry date in the past
func (c *ClientCredit) IsExpired(now time.Time) bool {
	return c.ExpiryDate != nil && c.ExpiryDate.Before(now)
}

// RefreshAvailableAmount sets the available amount from the authoritative sum
// of active applications, computed inside the current transaction.
func (c *ClientCredit) RefreshAvailableAmount(sumActive decimal.Decimal) error {
	if sumActive.IsNegative() {
		return shared.NewDomainError("INVALID_APPLIED_AMOUNT", "Applied amount cannot be negative")
	}
	if sumActive.GreaterThan(c.Amount) {
		return shared.NewDomainError("APPLIED_EXCEEDS_AMOUNT",
			"Active applications "+sumActive.StringFixed(2)+" exceed credit amount "+c.Amount.StringFixed(2))
	}
	c.AvailableAmount = c.Amount.Sub(sumActive)
	c.IncrementVersion()
	return nil
}

// Expire transitions an active credit to expired. Returns false without
// effect when the credit is not active, so time-driven sweeps can retry
// safely.
func (c *ClientCredit) Expire() bool {
	if c.Status != CreditStatusActive {
		return false
	}
	now := time.Now()
	c.Status = CreditStatusExpired
	c.ExpiredAt = &now
	c.AddDomainEvent(NewCreditExpiredEvent(c))
	c.IncrementVersion()
	return true
}

// Void transitions an active credit to voided. A reason is always required.
// Returns false without effect when the credit is not active.
func (c *ClientCredit) Void(reason string, voidedBy uuid.UUID) (bool, error) {
	if reason == "" {
		return false, shared.NewDomainError("VOID_REASON_REQUIRED", "A reason is required to void a credit")
	}
	if c.Status != CreditStatusActive {
		return false, nil
	}
	now := time.Now()
	c.Status = CreditStatusVoided
	c.VoidReason = reason
	c.VoidedBy = &voidedBy
	c.VoidedAt = &now
	c.AddDomainEvent(NewCreditVoidedEvent(c))
	c.IncrementVersion()
	return true, nil
}

// HasAvailableBalance returns true if any amount remains consumable
func (c *ClientCredit) HasAvailableBalance(now time.Time) bool {
	return c.Status == CreditStatusActive && !c.IsExpired(now) && c.AvailableAmount.IsPositive()
}
