package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/openbooks/backend/internal/application/ledger"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ObligationHandler serves invoice and bill endpoints, including the
// explicit posting operations of their lifecycle
type ObligationHandler struct {
	BaseHandler
	obligations *appledger.ObligationService
	posting     *appledger.DocumentPostingService
}

// NewObligationHandler creates a new ObligationHandler
func NewObligationHandler(obligations *appledger.ObligationService, posting *appledger.DocumentPostingService) *ObligationHandler {
	return &ObligationHandler{obligations: obligations, posting: posting}
}

// RegisterRoutes registers the obligation routes
func (h *ObligationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	obligations := rg.Group("/obligations")
	{
		obligations.POST("", h.Create)
		obligations.GET("", h.List)
		obligations.GET("/:id", h.Get)
		obligations.POST("/:id/send", h.Send)
		obligations.POST("/:id/pay", h.Pay)
		obligations.POST("/:id/void", h.Void)
		obligations.POST("/:id/postings", h.Post)
		obligations.POST("/:id/postings/remove", h.RemovePosting)
	}
}

type createObligationRequest struct {
	Kind        string          `json:"kind" binding:"required,oneof=INVOICE BILL"`
	Number      string          `json:"number" binding:"required,max=50"`
	ContactName string          `json:"contact_name" binding:"required,max=255"`
	IssueDate   string          `json:"issue_date" binding:"required"`
	DueDate     string          `json:"due_date"`
	Currency    string          `json:"currency" binding:"required,currency"`
	NetAmount   decimal.Decimal `json:"net_amount" binding:"required"`
}

// Create creates an invoice or bill in Draft status
func (h *ObligationHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req createObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		h.BadRequest(c, "Invalid issue_date")
		return
	}
	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		h.BadRequest(c, "Invalid due_date")
		return
	}

	obligation, err := h.obligations.CreateObligation(c.Request.Context(), appledger.CreateObligationRequest{
		TenantID:    tenantID,
		Kind:        ledger.ObligationKind(req.Kind),
		Number:      req.Number,
		ContactName: req.ContactName,
		IssueDate:   issueDate,
		DueDate:     dueDate,
		Currency:    req.Currency,
		NetAmount:   req.NetAmount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, obligation)
}

// Get fetches one obligation
func (h *ObligationHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	obligation, err := h.obligations.GetObligation(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, obligation)
}

type listObligationsRequest struct {
	dto.ListRequest
	Kind     string `form:"kind" binding:"omitempty,oneof=INVOICE BILL"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT SENT PARTIAL PAID VOID"`
	FromDate string `form:"from_date"`
	ToDate   string `form:"to_date"`
}

// List lists the tenant's obligations
func (h *ObligationHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req listObligationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.ObligationFilter{Filter: toFilter(req.ListRequest)}
	if req.Kind != "" {
		kind := ledger.ObligationKind(req.Kind)
		filter.Kind = &kind
	}
	if req.Status != "" {
		status := ledger.ObligationStatus(req.Status)
		filter.Status = &status
	}
	if filter.FromDate, err = parseOptionalDate(req.FromDate); err != nil {
		h.BadRequest(c, "Invalid from_date")
		return
	}
	if filter.ToDate, err = parseOptionalDate(req.ToDate); err != nil {
		h.BadRequest(c, "Invalid to_date")
		return
	}

	obligations, err := h.obligations.ListObligations(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, obligations)
}

// Send marks an invoice sent and posts its issue entry
func (h *ObligationHandler) Send(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	obligation, err := h.obligations.SendInvoice(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, obligation)
}

// Pay posts the payment entry for a bill settled outside the bank feed
func (h *ObligationHandler) Pay(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	entry, err := h.obligations.PayExpense(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

type voidObligationRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Void voids an unsettled obligation and reverses its postings
func (h *ObligationHandler) Void(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	var req voidObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.obligations.VoidObligation(c.Request.Context(), tenantID, id, req.Reason); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

type postEventRequest struct {
	EventKind string `json:"event_kind" binding:"required,oneof=INVOICE_ISSUED INVOICE_PAID EXPENSE_PAID"`
}

// Post posts the journal entry for a document event. Replaying an already
// posted event returns the existing entry.
func (h *ObligationHandler) Post(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	var req postEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entry, err := h.posting.PostDocumentEvent(c.Request.Context(), appledger.PostDocumentEventRequest{
		TenantID:     tenantID,
		ObligationID: id,
		EventKind:    ledger.PostingEventKind(req.EventKind),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

type removePostingRequest struct {
	EventKind string `json:"event_kind" binding:"required,oneof=INVOICE_ISSUED INVOICE_PAID EXPENSE_PAID"`
	Reason    string `json:"reason" binding:"required,max=500"`
}

// RemovePosting voids the entry posted for a document event
func (h *ObligationHandler) RemovePosting(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	var req removePostingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.posting.RemovePosting(c.Request.Context(), appledger.RemovePostingRequest{
		TenantID:     tenantID,
		ObligationID: id,
		EventKind:    ledger.PostingEventKind(req.EventKind),
		Reason:       req.Reason,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
