package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/domain/shared"
	"github.com/billops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateCreditNoteCreditRequest is the input for granting a credit backed by
// an issued credit note
type CreateCreditNoteCreditRequest struct {
	ClientID     uuid.UUID       `json:"client_id" binding:"required"`
	CreditNoteID uuid.UUID       `json:"credit_note_id" binding:"required"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Currency     string          `json:"currency"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	Reason       string          `json:"reason"`
}

// CreateManualCreditRequest is the input for a discretionary credit grant
type CreateManualCreditRequest struct {
	ClientID   uuid.UUID       `json:"client_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Currency   string          `json:"currency"`
	ExpiryDate *time.Time      `json:"expiry_date"`
	Reason     string          `json:"reason" binding:"required"`
}

// ClientCreditService manages the grant, consumption, and retirement of
// client credits. Mutations follow the same transactional discipline as
// payment applications: row locks on the credit and invoice, denormalized
// amounts recomputed from in-transaction sums.
type ClientCreditService struct {
	txScope       TransactionScope
	creditRepo    billing.ClientCreditRepository
	creditAppRepo billing.ClientCreditApplicationRepository
	events        shared.EventPublisher
	logger        *zap.Logger
}

// ClientCreditServiceOption configures the service
type ClientCreditServiceOption func(*ClientCreditService)

// WithCreditEventPublisher sets the publisher that receives domain events
// after each committed mutation
func WithCreditEventPublisher(p shared.EventPublisher) ClientCreditServiceOption {
	return func(s *ClientCreditService) {
		s.events = p
	}
}

// NewClientCreditService creates a new ClientCreditService
func NewClientCreditService(
	txScope TransactionScope,
	creditRepo billing.ClientCreditRepository,
	creditAppRepo billing.ClientCreditApplicationRepository,
	logger *zap.Logger,
	opts ...ClientCreditServiceOption,
) *ClientCreditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ClientCreditService{
		txScope:       txScope,
		creditRepo:    creditRepo,
		creditAppRepo: creditAppRepo,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFromOverpayment converts part of a payment's unallocated amount into
// a client credit. The converted amount is reserved on the payment, so it can
// be neither allocated nor converted a second time.
func (s *ClientCreditService) CreateFromOverpayment(ctx context.Context, tenantID, actorID, paymentID uuid.UUID, amount decimal.Decimal) (*ClientCreditResponse, error) {
	var (
		resp   *ClientCreditResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		credit, err := s.createOverpaymentInTx(ctx, repos, tenantID, actorID, payment, amount)
		if err != nil {
			return err
		}
		events = collectEvents(credit, payment)
		resp = toClientCreditResponse(credit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.auditCredit(tenantID, actorID, "credit_created_from_overpayment", resp)
	return resp, nil
}

// CreateFromCreditNote grants a credit backed by an issued credit note
func (s *ClientCreditService) CreateFromCreditNote(ctx context.Context, tenantID, actorID uuid.UUID, req CreateCreditNoteCreditRequest) (*ClientCreditResponse, error) {
	sourceID := req.CreditNoteID
	return s.create(ctx, tenantID, actorID, "credit_created_from_note", createCreditParams{
		clientID:   req.ClientID,
		creditType: billing.CreditTypeCreditNote,
		amount:     req.Amount,
		currency:   valueobject.Currency(req.Currency),
		sourceType: billing.CreditSourceCreditNote,
		sourceID:   &sourceID,
		expiryDate: req.ExpiryDate,
		reason:     req.Reason,
	})
}

// CreateManual grants a discretionary credit. A reason is always required.
func (s *ClientCreditService) CreateManual(ctx context.Context, tenantID, actorID uuid.UUID, req CreateManualCreditRequest) (*ClientCreditResponse, error) {
	if req.Reason == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "A reason is required for a manual credit")
	}
	return s.create(ctx, tenantID, actorID, "credit_created_manual", createCreditParams{
		clientID:   req.ClientID,
		creditType: billing.CreditTypeManual,
		amount:     req.Amount,
		currency:   valueobject.Currency(req.Currency),
		sourceType: billing.CreditSourceNone,
		expiryDate: req.ExpiryDate,
		reason:     req.Reason,
	})
}

// GetCredit returns a single credit
func (s *ClientCreditService) GetCredit(ctx context.Context, tenantID, creditID uuid.UUID) (*ClientCreditResponse, error) {
	credit, err := s.creditRepo.FindByIDForTenant(ctx, tenantID, creditID)
	if err != nil {
		return nil, err
	}
	return toClientCreditResponse(credit), nil
}

// ListCredits returns credits matching the filter with pagination
func (s *ClientCreditService) ListCredits(ctx context.Context, tenantID uuid.UUID, filter billing.CreditFilter) (*shared.Paginated[ClientCreditResponse], error) {
	credits, err := s.creditRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.creditRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ClientCreditResponse, 0, len(credits))
	for i := range credits {
		items = append(items, *toClientCreditResponse(&credits[i]))
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// ApplyToInvoice consumes part of a credit against an invoice. The
// application record, the credit's available amount, and the invoice's
// payment status change in one atomic unit of work.
func (s *ClientCreditService) ApplyToInvoice(ctx context.Context, tenantID, actorID, creditID, invoiceID uuid.UUID, amount decimal.Decimal, notes string) (*ClientCreditApplicationResponse, error) {
	var (
		resp   *ClientCreditApplicationResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Lock order: credit, then invoice, then application rows.
		credit, err := repos.CreditRepo().FindByIDForUpdate(ctx, tenantID, creditID)
		if err != nil {
			return err
		}
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		if err := credit.ValidateApply(amount); err != nil {
			return err
		}
		allocation, err := valueobject.NewMoney(amount, credit.Currency)
		if err != nil {
			return err
		}
		if err := invoice.ValidateAllocationOf(allocation); err != nil {
			return err
		}

		app, err := billing.NewClientCreditApplication(tenantID, creditID, billing.NewInvoiceTarget(invoiceID), amount, actorID, notes)
		if err != nil {
			return err
		}
		if err := repos.CreditApplicationRepo().Save(ctx, app); err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}

		if err := s.refreshCredit(ctx, repos, credit); err != nil {
			return err
		}
		if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
			return err
		}

		events = collectEvents(app, credit, invoice)
		resp = toClientCreditApplicationResponse(app)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("credit_applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("source_type", "credit"),
		zap.String("source_id", creditID.String()),
		zap.String("target_type", "invoice"),
		zap.String("target_id", invoiceID.String()),
		zap.String("amount", amount.StringFixed(2)),
	)
	return resp, nil
}

// Unapply reverses an active credit application, keeping the record for
// audit. Returns false without effect when already unapplied.
func (s *ClientCreditService) Unapply(ctx context.Context, tenantID, actorID, applicationID uuid.UUID, reason string) (bool, error) {
	var (
		reversed bool
		events   []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		probe, err := repos.CreditApplicationRepo().FindByIDForTenant(ctx, tenantID, applicationID)
		if err != nil {
			return err
		}
		credit, err := repos.CreditRepo().FindByIDForUpdate(ctx, tenantID, probe.CreditID)
		if err != nil {
			return err
		}
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, probe.TargetID)
		if err != nil {
			return err
		}
		app, err := repos.CreditApplicationRepo().FindByIDForUpdate(ctx, tenantID, applicationID)
		if err != nil {
			return err
		}

		reversed, err = app.Unapply(reason, actorID)
		if err != nil {
			return err
		}
		if !reversed {
			return nil
		}

		if err := repos.CreditApplicationRepo().SaveWithLock(ctx, app); err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}
		if err := s.refreshCredit(ctx, repos, credit); err != nil {
			return err
		}
		if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
			return err
		}

		events = collectEvents(app, credit, invoice)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !reversed {
		return false, nil
	}

	s.publish(ctx, events)
	s.logger.Info("credit application unapplied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("application_id", applicationID.String()),
		zap.String("reason", reason),
	)
	return true, nil
}

// ExpireCredit retires a credit whose expiry date has passed or that should
// no longer be offered. Returns false without effect when the credit is not
// active, so repeated calls are safe.
func (s *ClientCreditService) ExpireCredit(ctx context.Context, tenantID, actorID, creditID uuid.UUID) (bool, error) {
	var (
		expired bool
		events  []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		credit, err := repos.CreditRepo().FindByIDForUpdate(ctx, tenantID, creditID)
		if err != nil {
			return err
		}
		expired = credit.Expire()
		if !expired {
			return nil
		}
		if err := repos.CreditRepo().SaveWithLock(ctx, credit); err != nil {
			return fmt.Errorf("failed to save credit: %w", err)
		}
		events = collectEvents(credit)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !expired {
		return false, nil
	}

	s.publish(ctx, events)
	s.logger.Info("credit expired",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("credit_id", creditID.String()),
	)
	return true, nil
}

// VoidCredit cancels a credit's remaining value. Applications already made
// from the credit stay in place; only further consumption is blocked.
// Returns false without effect when the credit is not active.
func (s *ClientCreditService) VoidCredit(ctx context.Context, tenantID, actorID, creditID uuid.UUID, reason string) (bool, error) {
	var (
		voided bool
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		credit, err := repos.CreditRepo().FindByIDForUpdate(ctx, tenantID, creditID)
		if err != nil {
			return err
		}
		voided, err = credit.Void(reason, actorID)
		if err != nil {
			return err
		}
		if !voided {
			return nil
		}
		if err := repos.CreditRepo().SaveWithLock(ctx, credit); err != nil {
			return fmt.Errorf("failed to save credit: %w", err)
		}
		events = collectEvents(credit)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !voided {
		return false, nil
	}

	s.publish(ctx, events)
	s.logger.Info("credit voided",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("credit_id", creditID.String()),
		zap.String("reason", reason),
	)
	return true, nil
}

// AutoExpireCredits sweeps all active credits whose expiry date has passed
// and expires them. Each credit is handled in its own transaction, so one
// contested row does not block the rest of the sweep. Returns the number of
// credits expired.
func (s *ClientCreditService) AutoExpireCredits(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error) {
	candidates, err := s.creditRepo.FindExpiredActive(ctx, tenantID, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired credits: %w", err)
	}

	expired := 0
	for i := range candidates {
		creditID := candidates[i].ID
		var events []shared.DomainEvent
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			credit, err := repos.CreditRepo().FindByIDForUpdate(ctx, tenantID, creditID)
			if err != nil {
				return err
			}
			// Recheck under lock; the credit may have been voided or
			// expired since the candidate list was built.
			if !credit.IsExpired(asOf) || !credit.Expire() {
				return nil
			}
			if err := repos.CreditRepo().SaveWithLock(ctx, credit); err != nil {
				return fmt.Errorf("failed to save credit: %w", err)
			}
			events = collectEvents(credit)
			return nil
		})
		if err != nil {
			s.logger.Warn("failed to expire credit",
				zap.String("tenant_id", tenantID.String()),
				zap.String("credit_id", creditID.String()),
				zap.Error(err),
			)
			continue
		}
		if len(events) > 0 {
			expired++
			s.publish(ctx, events)
		}
	}

	s.logger.Info("credit expiry sweep finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("expired", expired),
	)
	return expired, nil
}

// GetClientAvailableCredits returns the client's consumable credits ordered
// oldest first, the order in which they should be drawn down
func (s *ClientCreditService) GetClientAvailableCredits(ctx context.Context, tenantID, clientID uuid.UUID) ([]ClientCreditResponse, error) {
	credits, err := s.creditRepo.FindAvailableByClient(ctx, tenantID, clientID, time.Now())
	if err != nil {
		return nil, err
	}
	resps := make([]ClientCreditResponse, 0, len(credits))
	for i := range credits {
		resps = append(resps, *toClientCreditResponse(&credits[i]))
	}
	return resps, nil
}

// GetTotalAvailableCredit returns the sum of the client's consumable credit
func (s *ClientCreditService) GetTotalAvailableCredit(ctx context.Context, tenantID, clientID uuid.UUID) (decimal.Decimal, error) {
	return s.creditRepo.SumAvailableByClient(ctx, tenantID, clientID, time.Now())
}

// ListApplicationsForCredit returns all applications of a credit, active and
// unapplied
func (s *ClientCreditService) ListApplicationsForCredit(ctx context.Context, tenantID, creditID uuid.UUID) ([]ClientCreditApplicationResponse, error) {
	apps, err := s.creditAppRepo.FindByCredit(ctx, tenantID, creditID)
	if err != nil {
		return nil, err
	}
	resps := make([]ClientCreditApplicationResponse, 0, len(apps))
	for i := range apps {
		resps = append(resps, *toClientCreditApplicationResponse(&apps[i]))
	}
	return resps, nil
}

// ListApplicationsForInvoice returns all credit applications targeting an invoice
func (s *ClientCreditService) ListApplicationsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]ClientCreditApplicationResponse, error) {
	apps, err := s.creditAppRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	resps := make([]ClientCreditApplicationResponse, 0, len(apps))
	for i := range apps {
		resps = append(resps, *toClientCreditApplicationResponse(&apps[i]))
	}
	return resps, nil
}

type createCreditParams struct {
	clientID   uuid.UUID
	creditType billing.CreditType
	amount     decimal.Decimal
	currency   valueobject.Currency
	sourceType billing.CreditSourceType
	sourceID   *uuid.UUID
	expiryDate *time.Time
	reason     string
}

// create grants a credit inside a transaction and publishes its events
func (s *ClientCreditService) create(ctx context.Context, tenantID, actorID uuid.UUID, auditEvent string, params createCreditParams) (*ClientCreditResponse, error) {
	var (
		resp   *ClientCreditResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.CreditRepo().GenerateCreditNumber(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to generate credit number: %w", err)
		}
		credit, err := billing.NewClientCredit(
			tenantID,
			number,
			params.clientID,
			params.creditType,
			params.amount,
			params.currency,
			params.sourceType,
			params.sourceID,
			params.expiryDate,
			params.reason,
		)
		if err != nil {
			return err
		}
		if err := repos.CreditRepo().Save(ctx, credit); err != nil {
			return fmt.Errorf("failed to save credit: %w", err)
		}
		events = collectEvents(credit)
		resp = toClientCreditResponse(credit)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.auditCredit(tenantID, actorID, auditEvent, resp)
	return resp, nil
}

// createOverpaymentInTx grants an overpayment credit inside the caller's
// transaction. The caller must hold the payment's row lock.
func (s *ClientCreditService) createOverpaymentInTx(ctx context.Context, repos TransactionalRepositories, tenantID, actorID uuid.UUID, payment *billing.Payment, amount decimal.Decimal) (*billing.ClientCredit, error) {
	if err := payment.ConvertToCredit(amount); err != nil {
		return nil, err
	}
	if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	number, err := repos.CreditRepo().GenerateCreditNumber(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate credit number: %w", err)
	}
	sourceID := payment.ID
	credit, err := billing.NewClientCredit(
		tenantID,
		number,
		payment.ClientID,
		billing.CreditTypeOverpayment,
		amount,
		payment.Currency,
		billing.CreditSourcePayment,
		&sourceID,
		nil,
		"Overpayment on payment "+payment.PaymentNumber,
	)
	if err != nil {
		return nil, err
	}
	if err := repos.CreditRepo().Save(ctx, credit); err != nil {
		return nil, fmt.Errorf("failed to save credit: %w", err)
	}
	return credit, nil
}

// refreshCredit recomputes the credit's available amount from the active
// application sum inside the current transaction
func (s *ClientCreditService) refreshCredit(ctx context.Context, repos TransactionalRepositories, credit *billing.ClientCredit) error {
	sum, err := repos.CreditApplicationRepo().SumActiveByCredit(ctx, credit.TenantID, credit.ID)
	if err != nil {
		return fmt.Errorf("failed to sum active applications: %w", err)
	}
	if err := credit.RefreshAvailableAmount(sum); err != nil {
		return err
	}
	if err := repos.CreditRepo().SaveWithLock(ctx, credit); err != nil {
		return fmt.Errorf("failed to save credit: %w", err)
	}
	return nil
}

// refreshInvoice recomputes the invoice's paid amount and payment status
// from the combined active application sums inside the current transaction
func (s *ClientCreditService) refreshInvoice(ctx context.Context, repos TransactionalRepositories, invoice *billing.Invoice) error {
	fromPayments, err := repos.PaymentApplicationRepo().SumActiveByInvoice(ctx, invoice.TenantID, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to sum payment applications: %w", err)
	}
	fromCredits, err := repos.CreditApplicationRepo().SumActiveByInvoice(ctx, invoice.TenantID, invoice.ID)
	if err != nil {
		return fmt.Errorf("failed to sum credit applications: %w", err)
	}
	if err := invoice.RefreshPaymentStatus(fromPayments.Add(fromCredits)); err != nil {
		return err
	}
	if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

// publish forwards collected domain events to the configured publisher
func (s *ClientCreditService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events", zap.Error(err))
	}
}

// auditCredit writes the structured audit entry for a credit grant
func (s *ClientCreditService) auditCredit(tenantID, actorID uuid.UUID, event string, credit *ClientCreditResponse) {
	s.logger.Info(event,
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("credit_id", credit.ID.String()),
		zap.String("credit_number", credit.CreditNumber),
		zap.String("credit_type", string(credit.Type)),
		zap.String("amount", credit.Amount.StringFixed(2)),
	)
}
