package handler

import (
	"errors"
	"io"
	"time"

	appbilling "github.com/billops/backend/internal/application/billing"
	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler exposes payment recording and allocation endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *appbilling.PaymentApplicationService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *appbilling.PaymentApplicationService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RecordPaymentRequest represents a request to record an incoming payment
type RecordPaymentRequest struct {
	ClientID        string  `json:"client_id" binding:"required,uuid"`
	Amount          float64 `json:"amount" binding:"required,gt=0"`
	Currency        string  `json:"currency" binding:"omitempty,len=3"`
	Source          string  `json:"source" binding:"required,oneof=MANUAL GATEWAY"`
	SourceReference string  `json:"source_reference" binding:"omitempty,max=200"`
	ReceivedAt      string  `json:"received_at" binding:"omitempty"`
	Notes           string  `json:"notes" binding:"omitempty,max=1000"`
	Completed       bool    `json:"completed"`
}

// ApplyRequest represents a request to apply a payment to a single invoice
type ApplyRequest struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Notes     string  `json:"notes" binding:"omitempty,max=500"`
}

// AllocationInputRequest represents one allocation in a batch request
type AllocationInputRequest struct {
	InvoiceID string  `json:"invoice_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Notes     string  `json:"notes" binding:"omitempty,max=500"`
}

// BatchApplyRequest represents a request to apply a payment across invoices
type BatchApplyRequest struct {
	Allocations []AllocationInputRequest `json:"allocations" binding:"required,min=1,dive"`
}

// UnapplyRequest represents a request to reverse an allocation
type UnapplyRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// AutoApplyRequest represents a request to auto-allocate a payment
type AutoApplyRequest struct {
	Strategy string `json:"strategy" binding:"omitempty,oneof=oldest_first newest_first highest_first lowest_first"`
}

// PaymentListQuery represents payment list filter parameters
type PaymentListQuery struct {
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=PENDING COMPLETED FAILED"`
	Source    string `form:"source" binding:"omitempty,oneof=MANUAL GATEWAY"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// AppliedTotalResponse reports the active allocation total for an invoice
type AppliedTotalResponse struct {
	InvoiceID    uuid.UUID       `json:"invoice_id"`
	AppliedTotal decimal.Decimal `json:"applied_total"`
}

// RegisterRoutes registers payment routes on the API group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.GET("", h.ListPayments)
		payments.GET("/:id", h.GetPayment)
		payments.GET("/:id/applications", h.ListApplications)
		payments.GET("/:id/targets", h.GetApplicationTargets)
		payments.POST("/:id/applications", h.Apply)
		payments.POST("/:id/applications/batch", h.ApplyBatch)
		payments.POST("/:id/reallocate", h.Reallocate)
		payments.POST("/:id/auto-apply", h.AutoApply)
	}

	applications := rg.Group("/payment-applications")
	{
		applications.POST("/:id/unapply", h.Unapply)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.GET("/:id/payment-applications", h.ListApplicationsForInvoice)
		invoices.GET("/:id/applied-total", h.GetAppliedTotal)
	}
}

// RecordPayment records a new incoming payment
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing actor ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	appReq := appbilling.RecordPaymentRequest{
		ClientID:        clientID,
		Amount:          decimal.NewFromFloat(req.Amount),
		Currency:        req.Currency,
		Source:          billing.PaymentSource(req.Source),
		SourceReference: req.SourceReference,
		Notes:           req.Notes,
		Completed:       req.Completed,
	}
	if req.ReceivedAt != "" {
		receivedAt, err := parseDateTime(req.ReceivedAt)
		if err != nil {
			h.BadRequest(c, "Invalid received_at format")
			return
		}
		appReq.ReceivedAt = &receivedAt
	}

	payment, err := h.paymentService.RecordPayment(c.Request.Context(), tenantID, actorID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payment)
}

// GetPayment retrieves a payment by ID
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, payment)
}

// ListPayments retrieves a paginated list of payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query PaymentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.PaymentFilter{
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.ClientID != "" {
		clientID, err := uuid.Parse(query.ClientID)
		if err != nil {
			h.BadRequest(c, "Invalid client ID format")
			return
		}
		filter.ClientID = &clientID
	}
	if query.Status != "" {
		status := billing.PaymentStatus(query.Status)
		filter.Status = &status
	}
	if query.Source != "" {
		source := billing.PaymentSource(query.Source)
		filter.Source = &source
	}
	if query.DateFrom != "" {
		dateFrom, err := parseDateTime(query.DateFrom)
		if err != nil {
			h.BadRequest(c, "Invalid date_from format")
			return
		}
		filter.DateFrom = &dateFrom
	}
	if query.DateTo != "" {
		dateTo, err := parseDateTime(query.DateTo)
		if err != nil {
			h.BadRequest(c, "Invalid date_to format")
			return
		}
		filter.DateTo = &dateTo
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Apply applies part of a payment to a single invoice
func (h *PaymentHandler) Apply(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing actor ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	application, err := h.paymentService.ApplyToInvoice(
		c.Request.Context(), tenantID, actorID, paymentID, invoiceID,
		decimal.NewFromFloat(req.Amount), req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, application)
}

// ApplyBatch applies a payment across multiple invoices atomically
func (h *PaymentHandler) ApplyBatch(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing actor ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req BatchApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	allocations, err := toAllocationRequests(req.Allocations)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	applications, err := h.paymentService.ApplyToMultipleInvoices(
		c.Request.Context(), tenantID, actorID, paymentID, allocations)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, applications)
}

// Unapply reverses an active payment application
func (h *PaymentHandler) Unapply(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing actor ID")
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid application ID format")
		return
	}

	var req UnapplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	reversed, err := h.paymentService.Unapply(c.Request.Context(), tenantID, actorID, applicationID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"reversed": reversed})
}

// Reallocate atomically replaces the active allocation set of a payment
func (h *PaymentHandler) Reallocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing actor ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req BatchApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	allocations, err := toAllocationRequests(req.Allocations)
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	changed, err := h.paymentService.Reallocate(c.Request.Context(), tenantID, actorID, paymentID, allocations)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"reallocated": changed})
}

// AutoApply allocates the payment's available amount using a strategy
func (h *PaymentHandler) AutoApply(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}
	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing actor ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	// The body is optional; an absent strategy selects the default
	var req AutoApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.paymentService.AutoApply(c.Request.Context(), tenantID, actorID, paymentID,
		appbilling.AutoApplyOptions{Strategy: billing.AllocationStrategyType(req.Strategy)})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetApplicationTargets lists open invoices the payment could be applied to
func (h *PaymentHandler) GetApplicationTargets(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	targets, err := h.paymentService.GetAvailableApplicationTargets(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, targets)
}

// ListApplications lists all applications of a payment, including unapplied ones
func (h *PaymentHandler) ListApplications(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	applications, err := h.paymentService.ListApplicationsForPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, applications)
}

// ListApplicationsForInvoice lists payment applications targeting an invoice
func (h *PaymentHandler) ListApplicationsForInvoice(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	applications, err := h.paymentService.ListApplicationsForInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, applications)
}

// GetAppliedTotal returns the combined active payment and credit total for an invoice
func (h *PaymentHandler) GetAppliedTotal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID format")
		return
	}

	total, err := h.paymentService.GetTotalAppliedToInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AppliedTotalResponse{
		InvoiceID:    invoiceID,
		AppliedTotal: total,
	})
}

// toAllocationRequests converts request allocations to application-layer inputs
func toAllocationRequests(inputs []AllocationInputRequest) ([]appbilling.AllocationRequest, error) {
	allocations := make([]appbilling.AllocationRequest, 0, len(inputs))
	for _, in := range inputs {
		invoiceID, err := uuid.Parse(in.InvoiceID)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, appbilling.AllocationRequest{
			InvoiceID: invoiceID,
			Amount:    decimal.NewFromFloat(in.Amount),
			Notes:     in.Notes,
		})
	}
	return allocations, nil
}

// parseDateTime parses RFC 3339 timestamps and plain dates
func parseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
