package billing

import (
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationTargetType is the closed set of targets an allocation can pay
// down. Adding a target kind means adding an explicit case here.
type ApplicationTargetType string

const (
	TargetTypeInvoice ApplicationTargetType = "INVOICE"
)

// IsValid returns true if the target type is a known kind
func (t ApplicationTargetType) IsValid() bool {
	return t == TargetTypeInvoice
}

// ApplicationTargetRef identifies the record an allocation pays down
type ApplicationTargetRef struct {
	Type ApplicationTargetType `json:"type"`
	ID   uuid.UUID             `json:"id"`
}

// NewInvoiceTarget builds a target reference for an invoice
func NewInvoiceTarget(invoiceID uuid.UUID) ApplicationTargetRef {
	return ApplicationTargetRef{Type: TargetTypeInvoice, ID: invoiceID}
}

// Validate checks the target reference
func (r ApplicationTargetRef) Validate() error {
	if !r.Type.IsValid() {
		return shared.NewDomainError("INVALID_TARGET_TYPE", "Unknown application target type")
	}
	if r.ID == uuid.Nil {
		return shared.NewDomainError("INVALID_TARGET", "Target ID is required")
	}
	return nil
}

// ApplicationStatus represents the state of an allocation record
type ApplicationStatus string

const (
	ApplicationStatusActive    ApplicationStatus = "ACTIVE"
	ApplicationStatusUnapplied ApplicationStatus = "UNAPPLIED"
)

// IsValid returns true if the status is a known application status
func (s ApplicationStatus) IsValid() bool {
	return s == ApplicationStatusActive || s == ApplicationStatusUnapplied
}

// PaymentApplication links a payment to a target for a fixed amount.
// The amount never changes after creation; reversal flips the status to
// UNAPPLIED and stamps the audit columns, preserving the full history.
type PaymentApplication struct {
	shared.TenantAggregateRoot
	PaymentID       uuid.UUID
	TargetType      ApplicationTargetType
	TargetID        uuid.UUID
	Amount          decimal.Decimal
	Status          ApplicationStatus
	AppliedAt       time.Time
	AppliedBy       uuid.UUID
	Notes           string
	UnappliedReason string
	UnappliedBy     *uuid.UUID
	UnappliedAt     *time.Time
}

// NewPaymentApplication creates an active allocation record. Precondition
// checks against the payment and target balances are the caller's
// responsibility; this constructor validates only the record itself.
func NewPaymentApplication(
	tenantID uuid.UUID,
	paymentID uuid.UUID,
	target ApplicationTargetRef,
	amount decimal.Decimal,
	appliedBy uuid.UUID,
	notes string,
) (*PaymentApplication, error) {
	if paymentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Payment ID is required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if appliedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor ID is required")
	}

	a := &PaymentApplication{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentID:           paymentID,
		TargetType:          target.Type,
		TargetID:            target.ID,
		Amount:              amount,
		Status:              ApplicationStatusActive,
		AppliedAt:           time.Now(),
		AppliedBy:           appliedBy,
		Notes:               notes,
	}
	a.AddDomainEvent(NewPaymentAppliedEvent(a))
	return a, nil
}

// IsActive returns true while the allocation counts toward sums
func (a *PaymentApplication) IsActive() bool {
	return a.Status == ApplicationStatusActive
}

// Unapply reverses the allocation. Returns false without effect when the
// record is already unapplied; a reason is always required.
func (a *PaymentApplication) Unapply(reason string, unappliedBy uuid.UUID) (bool, error) {
	if reason == "" {
		return false, shared.NewDomainError("UNAPPLY_REASON_REQUIRED", "A reason is required to unapply an allocation")
	}
	if a.Status == ApplicationStatusUnapplied {
		return false, nil
	}
	now := time.Now()
	a.Status = ApplicationStatusUnapplied
	a.UnappliedReason = reason
	a.UnappliedBy = &unappliedBy
	a.UnappliedAt = &now
	a.AddDomainEvent(NewPaymentUnappliedEvent(a))
	a.IncrementVersion()
	return true, nil
}

// ClientCreditApplication links a client credit to a target for a fixed
// amount. Structurally the credit analogue of PaymentApplication with the
// same soft-reversal semantics.
type ClientCreditApplication struct {
	shared.TenantAggregateRoot
	CreditID        uuid.UUID
	TargetType      ApplicationTargetType
	TargetID        uuid.UUID
	Amount          decimal.Decimal
	Status          ApplicationStatus
	AppliedAt       time.Time
	AppliedBy       uuid.UUID
	Notes           string
	UnappliedReason string
	UnappliedBy     *uuid.UUID
	UnappliedAt     *time.Time
}

// NewClientCreditApplication creates an active credit allocation record
func NewClientCreditApplication(
	tenantID uuid.UUID,
	creditID uuid.UUID,
	target ApplicationTargetRef,
	amount decimal.Decimal,
	appliedBy uuid.UUID,
	notes string,
) (*ClientCreditApplication, error) {
	if creditID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Credit ID is required")
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}
	if appliedBy == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACTOR", "Actor ID is required")
	}

	a := &ClientCreditApplication{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CreditID:            creditID,
		TargetType:          target.Type,
		TargetID:            target.ID,
		Amount:              amount,
		Status:              ApplicationStatusActive,
		AppliedAt:           time.Now(),
		AppliedBy:           appliedBy,
		Notes:               notes,
	}
	a.AddDomainEvent(NewCreditAppliedEvent(a))
	return a, nil
}

// IsActive returns true while the allocation counts toward sums
func (a *ClientCreditApplication) IsActive() bool {
	return a.Status == ApplicationStatusActive
}

// Unapply reverses the credit allocation with the same idempotent contract
// as PaymentApplication.Unapply.
func (a *ClientCreditApplication) Unapply(reason string, unappliedBy uuid.UUID) (bool, error) {
	if reason == "" {
		return false, shared.NewDomainError("UNAPPLY_REASON_REQUIRED", "A reason is required to unapply an allocation")
	}
	if a.Status == ApplicationStatusUnapplied {
		return false, nil
	}
	now := time.Now()
	a.Status = ApplicationStatusUnapplied
	a.UnappliedReason = reason
	a.UnappliedBy = &unappliedBy
	a.UnappliedAt = &now
	a.AddDomainEvent(NewCreditUnappliedEvent(a))
	a.IncrementVersion()
	return true, nil
}
