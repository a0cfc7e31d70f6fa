package handler

import (
	appbilling "github.com/billops/backend/internal/application/billing"
	"github.com/billops/backend/internal/domain/billing"
	"github.com/billops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditHandler exposes client credit lifecycle and allocation endpoints
type CreditHandler struct {
	BaseHandler
	creditService *appbilling.ClientCreditService
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(creditService *appbilling.ClientCreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// CreateManualCreditRequest represents a request to grant a manual credit
type CreateManualCreditRequest struct {
	ClientID   string  `json:"client_id" binding:"required,uuid"`
	Amount     float64 `json:"amount" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"omitempty,len=3"`
	ExpiryDate string  `json:"expiry_date" binding:"omitempty"`
	Reason     string  `json:"reason" binding:"required,min=1,max=500"`
}

// CreateOverpaymentCreditRequest represents a request to convert a payment
// remainder into a client credit
type CreateOverpaymentCreditRequest struct {
	PaymentID string  `json:"payment_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

// CreateCreditNoteCreditRequest represents a request to issue a credit
// backed by a credit note
type CreateCreditNoteCreditRequest struct {
	ClientID     string  `json:"client_id" binding:"required,uuid"`
	CreditNoteID string  `json:"credit_note_id" binding:"required,uuid"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	Currency     string  `json:"currency" binding:"omitempty,len=3"`
	ExpiryDate   string  `json:"expiry_date" binding:"omitempty"`
	Reason       string  `json:"reason" binding:"omitempty,max=500"`
}

// VoidCreditRequest represents a request to void a credit
type VoidCreditRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CreditListQuery represents credit list filter parameters
type CreditListQuery struct {
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=ACTIVE EXPIRED VOIDED"`
	Type      string `form:"type" binding:"omitempty,oneof=OVERPAYMENT CREDIT_NOTE MANUAL"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}

// AvailableCreditTotalResponse reports a client's total spendable credit
type AvailableCreditTotalResponse struct {
	ClientID       uuid.UUID       `json:"client_id"`
	AvailableTotal decimal.Decimal `json:"available_total"`
}

// RegisterRoutes registers credit routes on the API group
func (h *CreditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	credits := rg.Group("/credits")
	{
		credits.POST("", h.CreateManual)
		credits.POST("/from-payment", h.CreateFromOverpayment)
		credits.POST("/from-credit-note", h.CreateFromCreditNote)
		credits.GET("", h.ListCredits)
		credits.GET("/:id", h.GetCredit)
		credits.GET("/:id/applications", h.ListApplications)
		credits.POST("/:id/applications", h.Apply)
		credits.POST("/:id/expire", h.Expire)
		credits.POST("/:id/void", h.Void)
	}

	applications := rg.Group("/credit-applications")
	{
		applications.POST("/:id/unapply", h.Unapply)
	}

	clients := rg.Group("/clients")
	{
		clients.GET("/:id/credits", h.ListAvailableForClient)
		clients.GET("/:id/credits/total", h.GetAvailableTotal)
	}

	invoices := rg.Group("/invoices")
	{
		invoices.GET("/:id/credit-applications", h.ListApplicationsForInvoice)
	}
}

// CreateManual grants a discretionary credit to a client
func (h *CreditHandler) CreateManual(c *gin.Context) {
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

	var req CreateManualCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	appReq := appbilling.CreateManualCreditRequest{
		ClientID: clientID,
		Amount:   decimal.NewFromFloat(req.Amount),
		Currency: req.Currency,
		Reason:   req.Reason,
	}
	if req.ExpiryDate != "" {
		expiryDate, err := parseDateTime(req.ExpiryDate)
		if err != nil {
			h.BadRequest(c, "Invalid expiry date format")
			return
		}
		appReq.ExpiryDate = &expiryDate
	}

	credit, err := h.creditService.CreateManual(c.Request.Context(), tenantID, actorID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, credit)
}

// CreateFromOverpayment converts a payment's unapplied remainder into credit
func (h *CreditHandler) CreateFromOverpayment(c *gin.Context) {
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

	var req CreateOverpaymentCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	paymentID, err := uuid.Parse(req.PaymentID)
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	credit, err := h.creditService.CreateFromOverpayment(
		c.Request.Context(), tenantID, actorID, paymentID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, credit)
}

// CreateFromCreditNote issues a credit backed by a credit note
func (h *CreditHandler) CreateFromCreditNote(c *gin.Context) {
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

	var req CreateCreditNoteCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}
	creditNoteID, err := uuid.Parse(req.CreditNoteID)
	if err != nil {
		h.BadRequest(c, "Invalid credit note ID format")
		return
	}

	appReq := appbilling.CreateCreditNoteCreditRequest{
		ClientID:     clientID,
		CreditNoteID: creditNoteID,
		Amount:       decimal.NewFromFloat(req.Amount),
		Currency:     req.Currency,
		Reason:       req.Reason,
	}
	if req.ExpiryDate != "" {
		expiryDate, err := parseDateTime(req.ExpiryDate)
		if err != nil {
			h.BadRequest(c, "Invalid expiry date format")
			return
		}
		appReq.ExpiryDate = &expiryDate
	}

	credit, err := h.creditService.CreateFromCreditNote(c.Request.Context(), tenantID, actorID, appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, credit)
}

// GetCredit retrieves a credit by ID
func (h *CreditHandler) GetCredit(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	creditID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid credit ID format")
		return
	}

	credit, err := h.creditService.GetCredit(c.Request.Context(), tenantID, creditID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, credit)
}

// ListCredits retrieves a paginated list of credits
func (h *CreditHandler) ListCredits(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	var query CreditListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	filter := billing.CreditFilter{
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
		status := billing.CreditStatus(query.Status)
		filter.Status = &status
	}
	if query.Type != "" {
		creditType := billing.CreditType(query.Type)
		filter.Type = &creditType
	}

	result, err := h.creditService.ListCredits(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Apply applies part of a credit to an invoice
func (h *CreditHandler) Apply(c *gin.Context) {
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

	creditID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid credit ID format")
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

	application, err := h.creditService.ApplyToInvoice(
		c.Request.Context(), tenantID, actorID, creditID, invoiceID,
		decimal.NewFromFloat(req.Amount), req.Notes)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, application)
}

// Unapply reverses an active credit application
func (h *CreditHandler) Unapply(c *gin.Context) {
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

	reversed, err := h.creditService.Unapply(c.Request.Context(), tenantID, actorID, applicationID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"reversed": reversed})
}

// Expire marks a credit as expired immediately
func (h *CreditHandler) Expire(c *gin.Context) {
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

	creditID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid credit ID format")
		return
	}

	expired, err := h.creditService.ExpireCredit(c.Request.Context(), tenantID, actorID, creditID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"expired": expired})
}

// Void voids a credit with a mandatory reason
func (h *CreditHandler) Void(c *gin.Context) {
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

	creditID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid credit ID format")
		return
	}

	var req VoidCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	voided, err := h.creditService.VoidCredit(c.Request.Context(), tenantID, actorID, creditID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"voided": voided})
}

// ListApplications lists all applications of a credit, including unapplied ones
func (h *CreditHandler) ListApplications(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	creditID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid credit ID format")
		return
	}

	applications, err := h.creditService.ListApplicationsForCredit(c.Request.Context(), tenantID, creditID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, applications)
}

// ListApplicationsForInvoice lists credit applications targeting an invoice
func (h *CreditHandler) ListApplicationsForInvoice(c *gin.Context) {
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

	applications, err := h.creditService.ListApplicationsForInvoice(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, applications)
}

// ListAvailableForClient lists a client's spendable credits, oldest first
func (h *CreditHandler) ListAvailableForClient(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	credits, err := h.creditService.GetClientAvailableCredits(c.Request.Context(), tenantID, clientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, credits)
}

// GetAvailableTotal returns a client's total spendable credit amount
func (h *CreditHandler) GetAvailableTotal(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant identification required")
		return
	}

	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	total, err := h.creditService.GetTotalAvailableCredit(c.Request.Context(), tenantID, clientID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, AvailableCreditTotalResponse{
		ClientID:       clientID,
		AvailableTotal: total,
	})
}
