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

// reallocationReason is stamped on applications reversed by Reallocate
const reallocationReason = "Reallocated to a new allocation set"

// eventRecorder is the slice of an aggregate the services need for
// collecting domain events after a successful transaction
type eventRecorder interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// RecordPaymentRequest is the input for manual payment entry
type RecordPaymentRequest struct {
	ClientID        uuid.UUID             `json:"client_id" binding:"required"`
	Amount          decimal.Decimal       `json:"amount" binding:"required"`
	Currency        string                `json:"currency"`
	Source          billing.PaymentSource `json:"source" binding:"required"`
	SourceReference string                `json:"source_reference"`
	ReceivedAt      *time.Time            `json:"received_at"`
	Notes           string                `json:"notes"`
	Completed       bool                  `json:"completed"`
}

// AllocationRequest is one requested allocation within a batch
type AllocationRequest struct {
	InvoiceID uuid.UUID       `json:"invoice_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Notes     string          `json:"notes"`
}

// AutoApplyOptions selects the allocation strategy for AutoApply. An empty
// strategy means the documented default; an unrecognized one is rejected.
type AutoApplyOptions struct {
	Strategy billing.AllocationStrategyType `json:"strategy"`
}

// PaymentApplicationService orchestrates creation, reversal, reallocation,
// and strategy-driven auto-allocation of payment applications. Every
// mutating operation runs in a single transaction with the involved
// payment, invoice, and application rows locked for the duration.
type PaymentApplicationService struct {
	txScope         TransactionScope
	paymentRepo     billing.PaymentRepository
	paymentAppRepo  billing.PaymentApplicationRepository
	creditAppRepo   billing.ClientCreditApplicationRepository
	invoiceRepo     billing.InvoiceRepository
	creditService   *ClientCreditService
	strategyFactory *billing.AllocationStrategyFactory
	events          shared.EventPublisher
	logger          *zap.Logger
}

// PaymentApplicationServiceOption configures the service
type PaymentApplicationServiceOption func(*PaymentApplicationService)

// WithAllocationStrategyFactory overrides the default strategy factory
func WithAllocationStrategyFactory(f *billing.AllocationStrategyFactory) PaymentApplicationServiceOption {
	return func(s *PaymentApplicationService) {
		s.strategyFactory = f
	}
}

// WithPaymentEventPublisher sets the publisher that receives domain events
// after each committed mutation
func WithPaymentEventPublisher(p shared.EventPublisher) PaymentApplicationServiceOption {
	return func(s *PaymentApplicationService) {
		s.events = p
	}
}

// NewPaymentApplicationService creates a new PaymentApplicationService
func NewPaymentApplicationService(
	txScope TransactionScope,
	paymentRepo billing.PaymentRepository,
	paymentAppRepo billing.PaymentApplicationRepository,
	creditAppRepo billing.ClientCreditApplicationRepository,
	invoiceRepo billing.InvoiceRepository,
	creditService *ClientCreditService,
	logger *zap.Logger,
	opts ...PaymentApplicationServiceOption,
) *PaymentApplicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PaymentApplicationService{
		txScope:         txScope,
		paymentRepo:     paymentRepo,
		paymentAppRepo:  paymentAppRepo,
		creditAppRepo:   creditAppRepo,
		invoiceRepo:     invoiceRepo,
		creditService:   creditService,
		strategyFactory: billing.NewAllocationStrategyFactory(),
		logger:          logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordPayment records a manually entered payment. Gateway captures arrive
// through the same path with Source set accordingly.
func (s *PaymentApplicationService) RecordPayment(ctx context.Context, tenantID, actorID uuid.UUID, req RecordPaymentRequest) (*PaymentResponse, error) {
	var (
		resp   *PaymentResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.PaymentRepo().GeneratePaymentNumber(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to generate payment number: %w", err)
		}

		receivedAt := time.Now()
		if req.ReceivedAt != nil {
			receivedAt = *req.ReceivedAt
		}
		payment, err := billing.NewPayment(
			tenantID,
			number,
			req.ClientID,
			req.Amount,
			valueobject.Currency(req.Currency),
			req.Source,
			req.SourceReference,
			receivedAt,
		)
		if err != nil {
			return err
		}
		payment.Notes = req.Notes
		if req.Completed {
			if err := payment.Complete(); err != nil {
				return err
			}
		}

		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		events = collectEvents(payment)
		resp = toPaymentResponse(payment)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("payment_id", resp.ID.String()),
		zap.String("payment_number", resp.PaymentNumber),
		zap.String("amount", resp.Amount.StringFixed(2)),
	)
	return resp, nil
}

// GetPayment returns a single payment
func (s *PaymentApplicationService) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	return toPaymentResponse(payment), nil
}

// ListPayments returns payments matching the filter with pagination
func (s *PaymentApplicationService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter billing.PaymentFilter) (*shared.Paginated[PaymentResponse], error) {
	payments, err := s.paymentRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.paymentRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, *toPaymentResponse(&payments[i]))
	}
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// ApplyToInvoice allocates part of a payment to a single invoice. The
// application record, the payment's applied amount, and the invoice's
// payment status all change in one atomic unit of work.
func (s *PaymentApplicationService) ApplyToInvoice(ctx context.Context, tenantID, actorID, paymentID, invoiceID uuid.UUID, amount decimal.Decimal, notes string) (*PaymentApplicationResponse, error) {
	var (
		resp   *PaymentApplicationResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Lock order: payment, then invoice, then application rows.
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}

		app, err := s.applyLocked(ctx, repos, payment, invoice, actorID, amount, notes)
		if err != nil {
			return err
		}
		if err := s.refreshPayment(ctx, repos, payment); err != nil {
			return err
		}
		if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
			return err
		}

		events = collectEvents(app, payment, invoice)
		resp = toPaymentApplicationResponse(app)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.auditAllocation(tenantID, actorID, "payment_applied", paymentID, invoiceID, amount)
	return resp, nil
}

// ApplyToMultipleInvoices allocates a payment across several invoices. The
// whole batch succeeds or none of it does.
func (s *PaymentApplicationService) ApplyToMultipleInvoices(ctx context.Context, tenantID, actorID, paymentID uuid.UUID, allocations []AllocationRequest) ([]PaymentApplicationResponse, error) {
	if len(allocations) == 0 {
		return nil, shared.NewDomainError("EMPTY_ALLOCATIONS", "At least one allocation is required")
	}

	var (
		resps  []PaymentApplicationResponse
		events []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, alloc := range allocations {
			total = total.Add(alloc.Amount)
		}
		if err := payment.ValidateApply(total); err != nil {
			return err
		}

		// An invoice may appear in the batch more than once; all of its
		// allocations must validate against and mutate one shared locked
		// aggregate, not a fresh copy per line.
		created := make([]*billing.PaymentApplication, 0, len(allocations))
		touched := make(map[uuid.UUID]*billing.Invoice)
		for _, alloc := range allocations {
			invoice, err := s.lockInvoiceOnce(ctx, repos, tenantID, alloc.InvoiceID, touched)
			if err != nil {
				return err
			}
			app, err := s.applyLocked(ctx, repos, payment, invoice, actorID, alloc.Amount, alloc.Notes)
			if err != nil {
				return err
			}
			created = append(created, app)
		}

		if err := s.refreshPayment(ctx, repos, payment); err != nil {
			return err
		}
		for _, invoice := range touched {
			if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
				return err
			}
		}

		carriers := make([]eventRecorder, 0, len(created)+len(touched)+1)
		resps = make([]PaymentApplicationResponse, 0, len(created))
		for _, app := range created {
			carriers = append(carriers, app)
			resps = append(resps, *toPaymentApplicationResponse(app))
		}
		carriers = append(carriers, payment)
		for _, invoice := range touched {
			carriers = append(carriers, invoice)
		}
		events = collectEvents(carriers...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("payment applied to multiple invoices",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.Int("allocation_count", len(resps)),
	)
	return resps, nil
}

// Unapply reverses an active application, keeping the record for audit.
// Returns false without effect when the application is already unapplied.
func (s *PaymentApplicationService) Unapply(ctx context.Context, tenantID, actorID, applicationID uuid.UUID, reason string) (bool, error) {
	var (
		reversed bool
		events   []shared.DomainEvent
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Resolve the source and target first so locks are taken in the
		// same order as the apply path.
		probe, err := repos.PaymentApplicationRepo().FindByIDForTenant(ctx, tenantID, applicationID)
		if err != nil {
			return err
		}
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, probe.PaymentID)
		if err != nil {
			return err
		}
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, probe.TargetID)
		if err != nil {
			return err
		}
		app, err := repos.PaymentApplicationRepo().FindByIDForUpdate(ctx, tenantID, applicationID)
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

		if err := repos.PaymentApplicationRepo().SaveWithLock(ctx, app); err != nil {
			return fmt.Errorf("failed to save application: %w", err)
		}
		if err := s.refreshPayment(ctx, repos, payment); err != nil {
			return err
		}
		if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
			return err
		}

		events = collectEvents(app, payment, invoice)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !reversed {
		return false, nil
	}

	s.publish(ctx, events)
	s.logger.Info("payment application unapplied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("application_id", applicationID.String()),
		zap.String("reason", reason),
	)
	return true, nil
}

// Reallocate atomically replaces all active applications of a payment with
// a new allocation set. If the new set is invalid nothing changes, the
// previously active applications included.
func (s *PaymentApplicationService) Reallocate(ctx context.Context, tenantID, actorID, paymentID uuid.UUID, newAllocations []AllocationRequest) (bool, error) {
	if len(newAllocations) == 0 {
		return false, shared.NewDomainError("EMPTY_ALLOCATIONS", "At least one allocation is required")
	}

	var events []shared.DomainEvent
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}

		active, err := repos.PaymentApplicationRepo().FindActiveByPayment(ctx, tenantID, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load active applications: %w", err)
		}

		carriers := make([]eventRecorder, 0, len(active)+len(newAllocations)*2+1)
		touched := make(map[uuid.UUID]*billing.Invoice)

		for i := range active {
			app := &active[i]
			if _, err := s.lockInvoiceOnce(ctx, repos, tenantID, app.TargetID, touched); err != nil {
				return err
			}
			reversed, err := app.Unapply(reallocationReason, actorID)
			if err != nil {
				return err
			}
			if !reversed {
				continue
			}
			if err := repos.PaymentApplicationRepo().SaveWithLock(ctx, app); err != nil {
				return fmt.Errorf("failed to save application: %w", err)
			}
			carriers = append(carriers, app)
		}

		// The old allocations are released; validate the new set against
		// the full payment state before creating anything.
		if err := s.refreshPayment(ctx, repos, payment); err != nil {
			return err
		}

		total := decimal.Zero
		for _, alloc := range newAllocations {
			total = total.Add(alloc.Amount)
		}
		if err := payment.ValidateApply(total); err != nil {
			return err
		}

		for _, alloc := range newAllocations {
			invoice, err := s.lockInvoiceOnce(ctx, repos, tenantID, alloc.InvoiceID, touched)
			if err != nil {
				return err
			}
			// Unapplied amounts from this same transaction must be released
			// from the invoice before its balance is rechecked.
			if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
				return err
			}
			app, err := s.applyLocked(ctx, repos, payment, invoice, actorID, alloc.Amount, alloc.Notes)
			if err != nil {
				return err
			}
			carriers = append(carriers, app)
		}

		if err := s.refreshPayment(ctx, repos, payment); err != nil {
			return err
		}
		for _, invoice := range touched {
			if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
				return err
			}
			carriers = append(carriers, invoice)
		}
		carriers = append(carriers, payment)

		events = collectEvents(carriers...)
		return nil
	})
	if err != nil {
		return false, err
	}

	s.publish(ctx, events)
	s.logger.Info("payment reallocated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.Int("allocation_count", len(newAllocations)),
	)
	return true, nil
}

// AutoApply allocates a payment's available amount across the client's open
// invoices using the selected strategy. Any remainder after exhausting the
// invoices becomes an overpayment credit, so the payment is never left
// unaccounted.
func (s *PaymentApplicationService) AutoApply(ctx context.Context, tenantID, actorID, paymentID uuid.UUID, options AutoApplyOptions) (*AutoApplyResult, error) {
	strategyType := options.Strategy
	if strategyType == "" {
		strategyType = billing.DefaultAllocationStrategy
	}
	strategy, err := s.strategyFactory.GetStrategy(strategyType)
	if err != nil {
		return nil, err
	}

	var (
		result *AutoApplyResult
		events []shared.DomainEvent
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByIDForUpdate(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if !payment.Status.CanApply() {
			return shared.NewDomainError("INVALID_STATE",
				"Payment "+payment.PaymentNumber+" is not completed and cannot be applied")
		}

		available := payment.AvailableAmount()
		if !available.IsPositive() {
			result = &AutoApplyResult{
				Applications:    []PaymentApplicationResponse{},
				TotalApplied:    decimal.Zero,
				RemainingAmount: decimal.Zero,
			}
			return nil
		}

		open, err := repos.InvoiceRepo().FindOpenByClient(ctx, tenantID, payment.ClientID)
		if err != nil {
			return fmt.Errorf("failed to load open invoices: %w", err)
		}
		targets := make([]billing.AllocationTarget, 0, len(open))
		for i := range open {
			inv := &open[i]
			targets = append(targets, billing.AllocationTarget{
				ID:        inv.ID,
				Number:    inv.InvoiceNumber,
				Balance:   inv.Balance(),
				DueDate:   inv.DueDate,
				CreatedAt: inv.CreatedAt,
			})
		}

		plan, err := strategy.Allocate(available, targets)
		if err != nil {
			return err
		}

		carriers := make([]eventRecorder, 0, len(plan.Allocations)*2+2)
		resps := make([]PaymentApplicationResponse, 0, len(plan.Allocations))
		for _, planned := range plan.Allocations {
			invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, planned.TargetID)
			if err != nil {
				return err
			}
			app, err := s.applyLocked(ctx, repos, payment, invoice, actorID, planned.Amount, "")
			if err != nil {
				return err
			}
			if err := s.refreshInvoice(ctx, repos, invoice); err != nil {
				return err
			}
			carriers = append(carriers, app, invoice)
			resps = append(resps, *toPaymentApplicationResponse(app))
		}

		if err := s.refreshPayment(ctx, repos, payment); err != nil {
			return err
		}
		carriers = append(carriers, payment)

		result = &AutoApplyResult{
			Applications:    resps,
			TotalApplied:    plan.TotalAllocated,
			RemainingAmount: plan.RemainingAmount,
		}

		if plan.RemainingAmount.IsPositive() {
			credit, err := s.creditService.createOverpaymentInTx(ctx, repos, tenantID, actorID, payment, plan.RemainingAmount)
			if err != nil {
				return err
			}
			carriers = append(carriers, credit)
			result.OverpaymentCredit = toClientCreditResponse(credit)
		}

		events = collectEvents(carriers...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	s.logger.Info("payment auto-applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("payment_id", paymentID.String()),
		zap.String("strategy", strategyType.String()),
		zap.String("total_applied", result.TotalApplied.StringFixed(2)),
		zap.String("remaining", result.RemainingAmount.StringFixed(2)),
	)
	return result, nil
}

// GetAvailableApplicationTargets returns the client's invoices that can
// receive allocations from the payment. Read-only, no side effects.
func (s *PaymentApplicationService) GetAvailableApplicationTargets(ctx context.Context, tenantID, paymentID uuid.UUID) ([]ApplicationTargetResponse, error) {
	payment, err := s.paymentRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	open, err := s.invoiceRepo.FindOpenByClient(ctx, tenantID, payment.ClientID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	targets := make([]ApplicationTargetResponse, 0, len(open))
	for i := range open {
		targets = append(targets, *toApplicationTargetResponse(&open[i], now))
	}
	return targets, nil
}

// GetTotalAppliedToInvoice returns the combined active payment and credit
// application amounts against an invoice
func (s *PaymentApplicationService) GetTotalAppliedToInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	fromPayments, err := s.paymentAppRepo.SumActiveByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	fromCredits, err := s.creditAppRepo.SumActiveByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	return fromPayments.Add(fromCredits), nil
}

// ListApplicationsForPayment returns all applications of a payment,
// active and unapplied, newest first as stored
func (s *PaymentApplicationService) ListApplicationsForPayment(ctx context.Context, tenantID, paymentID uuid.UUID) ([]PaymentApplicationResponse, error) {
	apps, err := s.paymentAppRepo.FindByPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	resps := make([]PaymentApplicationResponse, 0, len(apps))
	for i := range apps {
		resps = append(resps, *toPaymentApplicationResponse(&apps[i]))
	}
	return resps, nil
}

// ListApplicationsForInvoice returns all payment applications targeting an invoice
func (s *PaymentApplicationService) ListApplicationsForInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentApplicationResponse, error) {
	apps, err := s.paymentAppRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	resps := make([]PaymentApplicationResponse, 0, len(apps))
	for i := range apps {
		resps = append(resps, *toPaymentApplicationResponse(&apps[i]))
	}
	return resps, nil
}

// applyLocked creates one application record against rows the caller has
// already locked, after validating both bounds.
func (s *PaymentApplicationService) applyLocked(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment, invoice *billing.Invoice, actorID uuid.UUID, amount decimal.Decimal, notes string) (*billing.PaymentApplication, error) {
	if err := payment.ValidateApply(amount); err != nil {
		return nil, err
	}
	allocation, err := valueobject.NewMoney(amount, payment.Currency)
	if err != nil {
		return nil, err
	}
	if err := invoice.ValidateAllocationOf(allocation); err != nil {
		return nil, err
	}

	app, err := billing.NewPaymentApplication(payment.TenantID, payment.ID, billing.NewInvoiceTarget(invoice.ID), amount, actorID, notes)
	if err != nil {
		return nil, err
	}
	if err := repos.PaymentApplicationRepo().Save(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	// Track the consumed amount on the in-memory aggregates so later
	// allocations in the same transaction validate against the reduced
	// figures. The authoritative sums are re-read before commit.
	payment.AppliedAmount = payment.AppliedAmount.Add(amount)
	invoice.PaidAmount = invoice.PaidAmount.Add(amount)
	return app, nil
}

// refreshPayment recomputes the payment's applied amount from the active
// application sum inside the current transaction
func (s *PaymentApplicationService) refreshPayment(ctx context.Context, repos TransactionalRepositories, payment *billing.Payment) error {
	sum, err := repos.PaymentApplicationRepo().SumActiveByPayment(ctx, payment.TenantID, payment.ID)
	if err != nil {
		return fmt.Errorf("failed to sum active applications: %w", err)
	}
	if err := payment.RefreshAppliedAmount(sum); err != nil {
		return err
	}
	if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// refreshInvoice recomputes the invoice's paid amount and payment status
// from the combined active application sums inside the current transaction
func (s *PaymentApplicationService) refreshInvoice(ctx context.Context, repos TransactionalRepositories, invoice *billing.Invoice) error {
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

// lockInvoiceOnce locks an invoice row at most once per transaction,
// returning the already-locked aggregate on repeat access
func (s *PaymentApplicationService) lockInvoiceOnce(ctx context.Context, repos TransactionalRepositories, tenantID, invoiceID uuid.UUID, seen map[uuid.UUID]*billing.Invoice) (*billing.Invoice, error) {
	if invoice, ok := seen[invoiceID]; ok {
		return invoice, nil
	}
	invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	seen[invoiceID] = invoice
	return invoice, nil
}

// publish forwards collected domain events to the configured publisher
func (s *PaymentApplicationService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish domain events", zap.Error(err))
	}
}

// auditAllocation writes the structured audit entry for a single allocation
func (s *PaymentApplicationService) auditAllocation(tenantID, actorID uuid.UUID, event string, sourceID, targetID uuid.UUID, amount decimal.Decimal) {
	s.logger.Info(event,
		zap.String("tenant_id", tenantID.String()),
		zap.String("actor_id", actorID.String()),
		zap.String("source_type", "payment"),
		zap.String("source_id", sourceID.String()),
		zap.String("target_type", "invoice"),
		zap.String("target_id", targetID.String()),
		zap.String("amount", amount.StringFixed(2)),
	)
}

// collectEvents drains pending domain events from the given aggregates
func collectEvents(recorders ...eventRecorder) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, r := range recorders {
		events = append(events, r.GetDomainEvents()...)
		r.ClearDomainEvents()
	}
	return events
}

// normalizePage applies the default page bounds
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}
