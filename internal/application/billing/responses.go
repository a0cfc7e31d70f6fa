package billing

import (
	"time"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentResponse is the API representation of a payment
type PaymentResponse struct {
	ID              uuid.UUID             `json:"id"`
	PaymentNumber   string                `json:"payment_number"`
	ClientID        uuid.UUID             `json:"client_id"`
	Amount          decimal.Decimal       `json:"amount"`
	AppliedAmount   decimal.Decimal       `json:"applied_amount"`
	CreditedAmount  decimal.Decimal       `json:"credited_amount"`
	AvailableAmount decimal.Decimal       `json:"available_amount"`
	Currency        string                `json:"currency"`
	Status          billing.PaymentStatus `json:"status"`
	Source          billing.PaymentSource `json:"source"`
	SourceReference string                `json:"source_reference,omitempty"`
	ReceivedAt      time.Time             `json:"received_at"`
	Notes           string                `json:"notes,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func toPaymentResponse(p *billing.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:              p.ID,
		PaymentNumber:   p.PaymentNumber,
		ClientID:        p.ClientID,
		Amount:          p.Amount,
		AppliedAmount:   p.AppliedAmount,
		CreditedAmount:  p.CreditedAmount,
		AvailableAmount: p.AvailableAmount(),
		Currency:        string(p.Currency),
		Status:          p.Status,
		Source:          p.Source,
		SourceReference: p.SourceReference,
		ReceivedAt:      p.ReceivedAt,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ClientCreditResponse is the API representation of a client credit
type ClientCreditResponse struct {
	ID              uuid.UUID                `json:"id"`
	CreditNumber    string                   `json:"credit_number"`
	ClientID        uuid.UUID                `json:"client_id"`
	Type            billing.CreditType       `json:"type"`
	Status          billing.CreditStatus     `json:"status"`
	Amount          decimal.Decimal          `json:"amount"`
	AvailableAmount decimal.Decimal          `json:"available_amount"`
	Currency        string                   `json:"currency"`
	CreditDate      time.Time                `json:"credit_date"`
	ExpiryDate      *time.Time               `json:"expiry_date,omitempty"`
	SourceType      billing.CreditSourceType `json:"source_type"`
	SourceID        *uuid.UUID               `json:"source_id,omitempty"`
	Reason          string                   `json:"reason,omitempty"`
	VoidReason      string                   `json:"void_reason,omitempty"`
	VoidedAt        *time.Time               `json:"voided_at,omitempty"`
	ExpiredAt       *time.Time               `json:"expired_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

func toClientCreditResponse(c *billing.ClientCredit) *ClientCreditResponse {
	return &ClientCreditResponse{
		ID:              c.ID,
		CreditNumber:    c.CreditNumber,
		ClientID:        c.ClientID,
		Type:            c.Type,
		Status:          c.Status,
		Amount:          c.Amount,
		AvailableAmount: c.AvailableAmount,
		Currency:        string(c.Currency),
		CreditDate:      c.CreditDate,
		ExpiryDate:      c.ExpiryDate,
		SourceType:      c.SourceType,
		SourceID:        c.SourceID,
		Reason:          c.Reason,
		VoidReason:      c.VoidReason,
		VoidedAt:        c.VoidedAt,
		ExpiredAt:       c.ExpiredAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// PaymentApplicationResponse is the API representation of a payment allocation
type PaymentApplicationResponse struct {
	ID              uuid.UUID                     `json:"id"`
	PaymentID       uuid.UUID                     `json:"payment_id"`
	TargetType      billing.ApplicationTargetType `json:"target_type"`
	TargetID        uuid.UUID                     `json:"target_id"`
	Amount          decimal.Decimal               `json:"amount"`
	Status          billing.ApplicationStatus     `json:"status"`
	AppliedAt       time.Time                     `json:"applied_at"`
	AppliedBy       uuid.UUID                     `json:"applied_by"`
	Notes           string                        `json:"notes,omitempty"`
	UnappliedReason string                        `json:"unapplied_reason,omitempty"`
	UnappliedBy     *uuid.UUID                    `json:"unapplied_by,omitempty"`
	UnappliedAt     *time.Time                    `json:"unapplied_at,omitempty"`
}

func toPaymentApplicationResponse(a *billing.PaymentApplication) *PaymentApplicationResponse {
	return &PaymentApplicationResponse{
		ID:              a.ID,
		PaymentID:       a.PaymentID,
		TargetType:      a.TargetType,
		TargetID:        a.TargetID,
		Amount:          a.Amount,
		Status:          a.Status,
		AppliedAt:       a.AppliedAt,
		AppliedBy:       a.AppliedBy,
		Notes:           a.Notes,
		UnappliedReason: a.UnappliedReason,
		UnappliedBy:     a.UnappliedBy,
		UnappliedAt:     a.UnappliedAt,
	}
}

// ClientCreditApplicationResponse is the API representation of a credit allocation
type ClientCreditApplicationResponse struct {
	ID              uuid.UUID                     `json:"id"`
	CreditID        uuid.UUID                     `json:"credit_id"`
	TargetType      billing.ApplicationTargetType `json:"target_type"`
	TargetID        uuid.UUID                     `json:"target_id"`
	Amount          decimal.Decimal               `json:"amount"`
	Status          billing.ApplicationStatus     `json:"status"`
	AppliedAt       time.Time                     `json:"applied_at"`
	AppliedBy       uuid.UUID                     `json:"applied_by"`
	Notes           string                        `json:"notes,omitempty"`
	UnappliedReason string                        `json:"unapplied_reason,omitempty"`
	UnappliedBy     *uuid.UUID                    `json:"unapplied_by,omitempty"`
	UnappliedAt     *time.Time                    `json:"unapplied_at,omitempty"`
}

func toClientCreditApplicationResponse(a *billing.ClientCreditApplication) *ClientCreditApplicationResponse {
	return &ClientCreditApplicationResponse{
		ID:              a.ID,
		CreditID:        a.CreditID,
		TargetType:      a.TargetType,
		TargetID:        a.TargetID,
		Amount:          a.Amount,
		Status:          a.Status,
		AppliedAt:       a.AppliedAt,
		AppliedBy:       a.AppliedBy,
		Notes:           a.Notes,
		UnappliedReason: a.UnappliedReason,
		UnappliedBy:     a.UnappliedBy,
		UnappliedAt:     a.UnappliedAt,
	}
}

// ApplicationTargetResponse is a read-only projection of an invoice that can
// receive allocations
type ApplicationTargetResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Balance       decimal.Decimal `json:"balance"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	Overdue       bool            `json:"overdue"`
	DaysOverdue   int             `json:"days_overdue"`
}

func toApplicationTargetResponse(inv *billing.Invoice, now time.Time) *ApplicationTargetResponse {
	return &ApplicationTargetResponse{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		TotalAmount:   inv.TotalAmount,
		Balance:       inv.Balance(),
		DueDate:       inv.DueDate,
		Overdue:       inv.IsOverdue(now),
		DaysOverdue:   inv.DaysOverdue(now),
	}
}

// AutoApplyResult reports the outcome of a strategy-driven allocation run.
// TotalApplied plus the overpayment credit amount always equals the
// payment's available amount at call time.
type AutoApplyResult struct {
	Applications      []PaymentApplicationResponse `json:"applications"`
	TotalApplied      decimal.Decimal              `json:"total_applied"`
	OverpaymentCredit *ClientCreditResponse        `json:"overpayment_credit,omitempty"`
	RemainingAmount   decimal.Decimal              `json:"remaining_amount"`
}
