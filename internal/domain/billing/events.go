package billing

import (
	"time"

	"github.com/billops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordedEvent is raised when a new payment enters the ledger
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
	Source        PaymentSource   `json:"source"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return "PaymentRecorded"
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentRecorded", "Payment", p.ID, p.TenantID),
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		ClientID:        p.ClientID,
		Amount:          p.Amount,
		Source:          p.Source,
		ReceivedAt:      p.ReceivedAt,
	}
}

// PaymentCompletedEvent is raised when a payment is marked captured
type PaymentCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentID     uuid.UUID       `json:"payment_id"`
	PaymentNumber string          `json:"payment_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *PaymentCompletedEvent) EventType() string {
	return "PaymentCompleted"
}

// NewPaymentCompletedEvent creates a new PaymentCompletedEvent
func NewPaymentCompletedEvent(p *Payment) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentCompleted", "Payment", p.ID, p.TenantID),
		PaymentID:       p.ID,
		PaymentNumber:   p.PaymentNumber,
		ClientID:        p.ClientID,
		Amount:          p.Amount,
	}
}

// PaymentAppliedEvent is raised when a payment allocation is created
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID             `json:"application_id"`
	PaymentID     uuid.UUID             `json:"payment_id"`
	TargetType    ApplicationTargetType `json:"target_type"`
	TargetID      uuid.UUID             `json:"target_id"`
	Amount        decimal.Decimal       `json:"amount"`
	ActorID       uuid.UUID             `json:"actor_id"`
	AppliedAt     time.Time             `json:"applied_at"`
}

// EventType returns the event type name
func (e *PaymentAppliedEvent) EventType() string {
	return "PaymentApplied"
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(a *PaymentApplication) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentApplied", "PaymentApplication", a.ID, a.TenantID),
		ApplicationID:   a.ID,
		PaymentID:       a.PaymentID,
		TargetType:      a.TargetType,
		TargetID:        a.TargetID,
		Amount:          a.Amount,
		ActorID:         a.AppliedBy,
		AppliedAt:       a.AppliedAt,
	}
}

// PaymentUnappliedEvent is raised when a payment allocation is reversed
type PaymentUnappliedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID             `json:"application_id"`
	PaymentID     uuid.UUID             `json:"payment_id"`
	TargetType    ApplicationTargetType `json:"target_type"`
	TargetID      uuid.UUID             `json:"target_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Reason        string                `json:"reason"`
	ActorID       uuid.UUID             `json:"actor_id"`
	UnappliedAt   time.Time             `json:"unapplied_at"`
}

// EventType returns the event type name
func (e *PaymentUnappliedEvent) EventType() string {
	return "PaymentUnapplied"
}

// NewPaymentUnappliedEvent creates a new PaymentUnappliedEvent
func NewPaymentUnappliedEvent(a *PaymentApplication) *PaymentUnappliedEvent {
	unappliedAt := time.Now()
	if a.UnappliedAt != nil {
		unappliedAt = *a.UnappliedAt
	}
	var actor uuid.UUID
	if a.UnappliedBy != nil {
		actor = *a.UnappliedBy
	}
	return &PaymentUnappliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PaymentUnapplied", "PaymentApplication", a.ID, a.TenantID),
		ApplicationID:   a.ID,
		PaymentID:       a.PaymentID,
		TargetType:      a.TargetType,
		TargetID:        a.TargetID,
		Amount:          a.Amount,
		Reason:          a.UnappliedReason,
		ActorID:         actor,
		UnappliedAt:     unappliedAt,
	}
}

// CreditCreatedEvent is raised when a client credit is granted
type CreditCreatedEvent struct {
	shared.BaseDomainEvent
	CreditID     uuid.UUID        `json:"credit_id"`
	CreditNumber string           `json:"credit_number"`
	ClientID     uuid.UUID        `json:"client_id"`
	CreditType   CreditType       `json:"credit_type"`
	Amount       decimal.Decimal  `json:"amount"`
	SourceType   CreditSourceType `json:"source_type"`
	SourceID     *uuid.UUID       `json:"source_id,omitempty"`
	ExpiryDate   *time.Time       `json:"expiry_date,omitempty"`
}

// EventType returns the event type name
func (e *CreditCreatedEvent) EventType() string {
	return "CreditCreated"
}

// NewCreditCreatedEvent creates a new CreditCreatedEvent
func NewCreditCreatedEvent(c *ClientCredit) *CreditCreatedEvent {
	return &CreditCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditCreated", "ClientCredit", c.ID, c.TenantID),
		CreditID:        c.ID,
		CreditNumber:    c.CreditNumber,
		ClientID:        c.ClientID,
		CreditType:      c.Type,
		Amount:          c.Amount,
		SourceType:      c.SourceType,
		SourceID:        c.SourceID,
		ExpiryDate:      c.ExpiryDate,
	}
}

// CreditAppliedEvent is raised when a credit allocation is created
type CreditAppliedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID             `json:"application_id"`
	CreditID      uuid.UUID             `json:"credit_id"`
	TargetType    ApplicationTargetType `json:"target_type"`
	TargetID      uuid.UUID             `json:"target_id"`
	Amount        decimal.Decimal       `json:"amount"`
	ActorID       uuid.UUID             `json:"actor_id"`
	AppliedAt     time.Time             `json:"applied_at"`
}

// EventType returns the event type name
func (e *CreditAppliedEvent) EventType() string {
	return "CreditApplied"
}

// NewCreditAppliedEvent creates a new CreditAppliedEvent
func NewCreditAppliedEvent(a *ClientCreditApplication) *CreditAppliedEvent {
	return &CreditAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditApplied", "ClientCreditApplication", a.ID, a.TenantID),
		ApplicationID:   a.ID,
		CreditID:        a.CreditID,
		TargetType:      a.TargetType,
		TargetID:        a.TargetID,
		Amount:          a.Amount,
		ActorID:         a.AppliedBy,
		AppliedAt:       a.AppliedAt,
	}
}

// CreditUnappliedEvent is raised when a credit allocation is reversed
type CreditUnappliedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID             `json:"application_id"`
	CreditID      uuid.UUID             `json:"credit_id"`
	TargetType    ApplicationTargetType `json:"target_type"`
	TargetID      uuid.UUID             `json:"target_id"`
	Amount        decimal.Decimal       `json:"amount"`
	Reason        string                `json:"reason"`
	ActorID       uuid.UUID             `json:"actor_id"`
	UnappliedAt   time.Time             `json:"unapplied_at"`
}

// EventType returns the event type name
func (e *CreditUnappliedEvent) EventType() string {
	return "CreditUnapplied"
}

// NewCreditUnappliedEvent creates a new CreditUnappliedEvent
func NewCreditUnappliedEvent(a *ClientCreditApplication) *CreditUnappliedEvent {
	unappliedAt := time.Now()
	if a.UnappliedAt != nil {
		unappliedAt = *a.UnappliedAt
	}
	var actor uuid.UUID
	if a.UnappliedBy != nil {
		actor = *a.UnappliedBy
	}
	return &CreditUnappliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditUnapplied", "ClientCreditApplication", a.ID, a.TenantID),
		ApplicationID:   a.ID,
		CreditID:        a.CreditID,
		TargetType:      a.TargetType,
		TargetID:        a.TargetID,
		Amount:          a.Amount,
		Reason:          a.UnappliedReason,
		ActorID:         actor,
		UnappliedAt:     unappliedAt,
	}
}

// CreditExpiredEvent is raised when a credit passes out of use by expiry
type CreditExpiredEvent struct {
	shared.BaseDomainEvent
	CreditID        uuid.UUID       `json:"credit_id"`
	CreditNumber    string          `json:"credit_number"`
	ClientID        uuid.UUID       `json:"client_id"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	ExpiredAt       time.Time       `json:"expired_at"`
}

// EventType returns the event type name
func (e *CreditExpiredEvent) EventType() string {
	return "CreditExpired"
}

// NewCreditExpiredEvent creates a new CreditExpiredEvent
func NewCreditExpiredEvent(c *ClientCredit) *CreditExpiredEvent {
	expiredAt := time.Now()
	if c.ExpiredAt != nil {
		expiredAt = *c.ExpiredAt
	}
	return &CreditExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditExpired", "ClientCredit", c.ID, c.TenantID),
		CreditID:        c.ID,
		CreditNumber:    c.CreditNumber,
		ClientID:        c.ClientID,
		AvailableAmount: c.AvailableAmount,
		ExpiredAt:       expiredAt,
	}
}

// CreditVoidedEvent is raised when a credit is explicitly voided
type CreditVoidedEvent struct {
	shared.BaseDomainEvent
	CreditID        uuid.UUID       `json:"credit_id"`
	CreditNumber    string          `json:"credit_number"`
	ClientID        uuid.UUID       `json:"client_id"`
	AvailableAmount decimal.Decimal `json:"available_amount"`
	Reason          string          `json:"reason"`
	ActorID         uuid.UUID       `json:"actor_id"`
	VoidedAt        time.Time       `json:"voided_at"`
}

// EventType returns the event type name
func (e *CreditVoidedEvent) EventType() string {
	return "CreditVoided"
}

// NewCreditVoidedEvent creates a new CreditVoidedEvent
func NewCreditVoidedEvent(c *ClientCredit) *CreditVoidedEvent {
	voidedAt := time.Now()
	if c.VoidedAt != nil {
		voidedAt = *c.VoidedAt
	}
	var actor uuid.UUID
	if c.VoidedBy != nil {
		actor = *c.VoidedBy
	}
	return &CreditVoidedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("CreditVoided", "ClientCredit", c.ID, c.TenantID),
		CreditID:        c.ID,
		CreditNumber:    c.CreditNumber,
		ClientID:        c.ClientID,
		AvailableAmount: c.AvailableAmount,
		Reason:          c.VoidReason,
		ActorID:         actor,
		VoidedAt:        voidedAt,
	}
}

// InvoicePaidEvent is raised when allocations fully settle an invoice
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// EventType returns the event type name
func (e *InvoicePaidEvent) EventType() string {
	return "InvoicePaid"
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(i *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoicePaid", "Invoice", i.ID, i.TenantID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.InvoiceNumber,
		ClientID:        i.ClientID,
		TotalAmount:     i.TotalAmount,
		PaidAmount:      i.PaidAmount,
	}
}
