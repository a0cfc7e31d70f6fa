package models

import (
	"time"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	TenantAggregateModel
	PaymentNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_tenant_number,priority:2"`
	ClientID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	AppliedAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CreditedAmount  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency        string                `gorm:"type:varchar(3);not null;default:'USD'"`
	Status          billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Source          billing.PaymentSource `gorm:"type:varchar(20);not null"`
	SourceReference string                `gorm:"type:varchar(100)"`
	ReceivedAt      time.Time             `gorm:"not null;index"`
	Notes           string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment entity.
func (m *PaymentModel) ToDomain() *billing.Payment {
	p := &billing.Payment{
		PaymentNumber:   m.PaymentNumber,
		ClientID:        m.ClientID,
		Amount:          m.Amount,
		AppliedAmount:   m.AppliedAmount,
		CreditedAmount:  m.CreditedAmount,
		Currency:        valueobject.Currency(m.Currency),
		Status:          m.Status,
		Source:          m.Source,
		SourceReference: m.SourceReference,
		ReceivedAt:      m.ReceivedAt,
		Notes:           m.Notes,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Payment entity.
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.PaymentNumber = p.PaymentNumber
	m.ClientID = p.ClientID
	m.Amount = p.Amount
	m.AppliedAmount = p.AppliedAmount
	m.CreditedAmount = p.CreditedAmount
	m.Currency = string(p.Currency)
	m.Status = p.Status
	m.Source = p.Source
	m.SourceReference = p.SourceReference
	m.ReceivedAt = p.ReceivedAt
	m.Notes = p.Notes
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// ClientCreditModel is the persistence model for the ClientCredit aggregate root.
type ClientCreditModel struct {
	TenantAggregateModel
	CreditNumber    string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_credit_tenant_number,priority:2"`
	ClientID        uuid.UUID                `gorm:"type:uuid;not null;index"`
	Type            billing.CreditType       `gorm:"type:varchar(20);not null;index"`
	Status          billing.CreditStatus     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Amount          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AvailableAmount decimal.Decimal          `gorm:"type:decimal(18,4);not null;index"`
	Currency        string                   `gorm:"type:varchar(3);not null;default:'USD'"`
	CreditDate      time.Time                `gorm:"not null;index"`
	ExpiryDate      *time.Time               `gorm:"index"`
	SourceType      billing.CreditSourceType `gorm:"type:varchar(20);not null;default:'NONE'"`
	SourceID        *uuid.UUID               `gorm:"type:uuid;index"`
	Reason          string                   `gorm:"type:text"`
	ExpiredAt       *time.Time
	VoidReason      string                   `gorm:"type:varchar(500)"`
	VoidedBy        *uuid.UUID               `gorm:"type:uuid"`
	VoidedAt        *time.Time
}

// TableName returns the table name for GORM
func (ClientCreditModel) TableName() string {
	return "client_credits"
}

// ToDomain converts the persistence model to a domain ClientCredit entity.
func (m *ClientCreditModel) ToDomain() *billing.ClientCredit {
	c := &billing.ClientCredit{
		CreditNumber:    m.CreditNumber,
		ClientID:        m.ClientID,
		Type:            m.Type,
		Status:          m.Status,
		Amount:          m.Amount,
		AvailableAmount: m.AvailableAmount,
		Currency:        valueobject.Currency(m.Currency),
		CreditDate:      m.CreditDate,
		ExpiryDate:      m.ExpiryDate,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
		Reason:          m.Reason,
		ExpiredAt:       m.ExpiredAt,
		VoidReason:      m.VoidReason,
		VoidedBy:        m.VoidedBy,
		VoidedAt:        m.VoidedAt,
	}
	m.PopulateTenantAggregateRoot(&c.TenantAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain ClientCredit entity.
func (m *ClientCreditModel) FromDomain(c *billing.ClientCredit) {
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	m.CreditNumber = c.CreditNumber
	m.ClientID = c.ClientID
	m.Type = c.Type
	m.Status = c.Status
	m.Amount = c.Amount
	m.AvailableAmount = c.AvailableAmount
	m.Currency = string(c.Currency)
	m.CreditDate = c.CreditDate
	m.ExpiryDate = c.ExpiryDate
	m.SourceType = c.SourceType
	m.SourceID = c.SourceID
	m.Reason = c.Reason
	m.ExpiredAt = c.ExpiredAt
	m.VoidReason = c.VoidReason
	m.VoidedBy = c.VoidedBy
	m.VoidedAt = c.VoidedAt
}

// ClientCreditModelFromDomain creates a new persistence model from a domain ClientCredit.
func ClientCreditModelFromDomain(c *billing.ClientCredit) *ClientCreditModel {
	m := &ClientCreditModel{}
	m.FromDomain(c)
	return m
}

// PaymentApplicationModel is the persistence model for the PaymentApplication aggregate root.
type PaymentApplicationModel struct {
	TenantAggregateModel
	PaymentID       uuid.UUID                     `gorm:"type:uuid;not null;index"`
	TargetType      billing.ApplicationTargetType `gorm:"type:varchar(20);not null"`
	TargetID        uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	Status          billing.ApplicationStatus     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	AppliedAt       time.Time                     `gorm:"not null"`
	AppliedBy       uuid.UUID                     `gorm:"type:uuid;not null"`
	Notes           string                        `gorm:"type:text"`
	UnappliedReason string                        `gorm:"type:varchar(500)"`
	UnappliedBy     *uuid.UUID                    `gorm:"type:uuid"`
	UnappliedAt     *time.Time
}

// TableName returns the table name for GORM
func (PaymentApplicationModel) TableName() string {
	return "payment_applications"
}

// ToDomain converts the persistence model to a domain PaymentApplication entity.
func (m *PaymentApplicationModel) ToDomain() *billing.PaymentApplication {
	a := &billing.PaymentApplication{
		PaymentID:       m.PaymentID,
		TargetType:      m.TargetType,
		TargetID:        m.TargetID,
		Amount:          m.Amount,
		Status:          m.Status,
		AppliedAt:       m.AppliedAt,
		AppliedBy:       m.AppliedBy,
		Notes:           m.Notes,
		UnappliedReason: m.UnappliedReason,
		UnappliedBy:     m.UnappliedBy,
		UnappliedAt:     m.UnappliedAt,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain PaymentApplication entity.
func (m *PaymentApplicationModel) FromDomain(a *billing.PaymentApplication) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.PaymentID = a.PaymentID
	m.TargetType = a.TargetType
	m.TargetID = a.TargetID
	m.Amount = a.Amount
	m.Status = a.Status
	m.AppliedAt = a.AppliedAt
	m.AppliedBy = a.AppliedBy
	m.Notes = a.Notes
	m.UnappliedReason = a.UnappliedReason
	m.UnappliedBy = a.UnappliedBy
	m.UnappliedAt = a.UnappliedAt
}

// PaymentApplicationModelFromDomain creates a new persistence model from a domain PaymentApplication.
func PaymentApplicationModelFromDomain(a *billing.PaymentApplication) *PaymentApplicationModel {
	m := &PaymentApplicationModel{}
	m.FromDomain(a)
	return m
}

// ClientCreditApplicationModel is the persistence model for the ClientCreditApplication aggregate root.
type ClientCreditApplicationModel struct {
	TenantAggregateModel
	CreditID        uuid.UUID                     `gorm:"type:uuid;not null;index"`
	TargetType      billing.ApplicationTargetType `gorm:"type:varchar(20);not null"`
	TargetID        uuid.UUID                     `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal               `gorm:"type:decimal(18,4);not null"`
	Status          billing.ApplicationStatus     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	AppliedAt       time.Time                     `gorm:"not null"`
	AppliedBy       uuid.UUID                     `gorm:"type:uuid;not null"`
	Notes           string                        `gorm:"type:text"`
	UnappliedReason string                        `gorm:"type:varchar(500)"`
	UnappliedBy     *uuid.UUID                    `gorm:"type:uuid"`
	UnappliedAt     *time.Time
}

// TableName returns the table name for GORM
func (ClientCreditApplicationModel) TableName() string {
	return "client_credit_applications"
}

// ToDomain converts the persistence model to a domain ClientCreditApplication entity.
func (m *ClientCreditApplicationModel) ToDomain() *billing.ClientCreditApplication {
	a := &billing.ClientCreditApplication{
		CreditID:        m.CreditID,
		TargetType:      m.TargetType,
		TargetID:        m.TargetID,
		Amount:          m.Amount,
		Status:          m.Status,
		AppliedAt:       m.AppliedAt,
		AppliedBy:       m.AppliedBy,
		Notes:           m.Notes,
		UnappliedReason: m.UnappliedReason,
		UnappliedBy:     m.UnappliedBy,
		UnappliedAt:     m.UnappliedAt,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain ClientCreditApplication entity.
func (m *ClientCreditApplicationModel) FromDomain(a *billing.ClientCreditApplication) {
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	m.CreditID = a.CreditID
	m.TargetType = a.TargetType
	m.TargetID = a.TargetID
	m.Amount = a.Amount
	m.Status = a.Status
	m.AppliedAt = a.AppliedAt
	m.AppliedBy = a.AppliedBy
	m.Notes = a.Notes
	m.UnappliedReason = a.UnappliedReason
	m.UnappliedBy = a.UnappliedBy
	m.UnappliedAt = a.UnappliedAt
}

// ClientCreditApplicationModelFromDomain creates a new persistence model from a domain ClientCreditApplication.
func ClientCreditApplicationModelFromDomain(a *billing.ClientCreditApplication) *ClientCreditApplicationModel {
	m := &ClientCreditApplicationModel{}
	m.FromDomain(a)
	return m
}

// InvoiceModel is the persistence model for the ledger-facing slice of invoices.
type InvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string                       `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoice_tenant_number,priority:2"`
	ClientID      uuid.UUID                    `gorm:"type:uuid;not null;index"`
	TotalAmount   decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	PaidAmount    decimal.Decimal              `gorm:"type:decimal(18,4);not null"`
	Currency      string                       `gorm:"type:varchar(3);not null;default:'USD'"`
	Status        billing.InvoiceStatus        `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	PaymentStatus billing.InvoicePaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	IssueDate     time.Time                    `gorm:"not null"`
	DueDate       *time.Time                   `gorm:"index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	i := &billing.Invoice{
		InvoiceNumber: m.InvoiceNumber,
		ClientID:      m.ClientID,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		Currency:      valueobject.Currency(m.Currency),
		Status:        m.Status,
		PaymentStatus: m.PaymentStatus,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
	}
	m.PopulateTenantAggregateRoot(&i.TenantAggregateRoot)
	return i
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(i *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(i.TenantAggregateRoot)
	m.InvoiceNumber = i.InvoiceNumber
	m.ClientID = i.ClientID
	m.TotalAmount = i.TotalAmount
	m.PaidAmount = i.PaidAmount
	m.Currency = string(i.Currency)
	m.Status = i.Status
	m.PaymentStatus = i.PaymentStatus
	m.IssueDate = i.IssueDate
	m.DueDate = i.DueDate
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(i *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}
