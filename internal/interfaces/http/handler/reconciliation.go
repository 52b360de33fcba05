package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appledger "github.com/openbooks/backend/internal/application/ledger"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// ReconciliationHandler serves allocation, candidate matching, and
// reconciliation session endpoints
type ReconciliationHandler struct {
	BaseHandler
	allocation     *appledger.BankAllocationService
	reconciliation *appledger.ReconciliationService
	queries        *appledger.JournalQueryService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(allocation *appledger.BankAllocationService, reconciliation *appledger.ReconciliationService, queries *appledger.JournalQueryService) *ReconciliationHandler {
	return &ReconciliationHandler{
		allocation:     allocation,
		reconciliation: reconciliation,
		queries:        queries,
	}
}

// RegisterRoutes registers the reconciliation routes
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	transactions := rg.Group("/bank-transactions")
	{
		transactions.POST("/:id/allocations", h.Allocate)
		transactions.GET("/:id/allocations", h.ListAllocations)
		transactions.GET("/:id/candidates", h.FindCandidates)
		transactions.POST("/:id/reconcile", h.Reconcile)
	}

	sessions := rg.Group("/reconciliation-sessions")
	{
		sessions.POST("", h.StartSession)
		sessions.POST("/:id/complete", h.CompleteSession)
	}

	rg.GET("/bank-accounts/:id/reconciliation-sessions", h.ListSessions)
}

// Allocate validates and executes one allocation plan against a bank
// transaction. Supplying the same operation_id again returns the original
// result instead of allocating twice.
func (h *ReconciliationHandler) Allocate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var plan ledger.AllocationPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.allocation.Allocate(c.Request.Context(), appledger.AllocateRequest{
		TenantID:          tenantID,
		BankTransactionID: id,
		Plan:              plan,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListAllocations lists the allocation records spawned by one statement line
func (h *ReconciliationHandler) ListAllocations(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	allocations, err := h.queries.ListAllocationsForTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocations)
}

// FindCandidates returns plausible ledger matches for one bank transaction.
// Read-only; nothing about the transaction changes.
func (h *ReconciliationHandler) FindCandidates(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	candidates, err := h.reconciliation.FindCandidates(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, candidates)
}

type reconcileRequest struct {
	JournalLineIDs []string `json:"journal_line_ids" binding:"required,min=1,dive,uuid"`
	SessionID      *string  `json:"session_id" binding:"omitempty,uuid"`
}

// Reconcile confirms a match between a bank transaction and existing
// journal lines
func (h *ReconciliationHandler) Reconcile(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lineIDs := make([]uuid.UUID, 0, len(req.JournalLineIDs))
	for _, raw := range req.JournalLineIDs {
		lineID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid journal line ID")
			return
		}
		lineIDs = append(lineIDs, lineID)
	}
	sessionID, err := parseOptionalUUID(req.SessionID)
	if err != nil {
		h.BadRequest(c, "Invalid session_id")
		return
	}

	if err := h.reconciliation.Reconcile(c.Request.Context(), appledger.ReconcileRequest{
		TenantID:          tenantID,
		BankTransactionID: id,
		JournalLineIDs:    lineIDs,
		SessionID:         sessionID,
	}); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

type startSessionRequest struct {
	BankAccountID  string          `json:"bank_account_id" binding:"required,uuid"`
	PeriodStart    string          `json:"period_start" binding:"required"`
	PeriodEnd      string          `json:"period_end" binding:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// StartSession opens a statement-period reconciliation session. At most one
// session exists per bank account and period start.
func (h *ReconciliationHandler) StartSession(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bankAccountID, err := parseOptionalUUID(&req.BankAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid bank_account_id")
		return
	}
	periodStart, err := parseDate(req.PeriodStart)
	if err != nil {
		h.BadRequest(c, "Invalid period_start")
		return
	}
	periodEnd, err := parseDate(req.PeriodEnd)
	if err != nil {
		h.BadRequest(c, "Invalid period_end")
		return
	}

	session, err := h.reconciliation.StartSession(c.Request.Context(), appledger.StartSessionRequest{
		TenantID:       tenantID,
		BankAccountID:  *bankAccountID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		OpeningBalance: req.OpeningBalance,
		ClosingBalance: req.ClosingBalance,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, session)
}

// CompleteSession closes a session; completed sessions are immutable
func (h *ReconciliationHandler) CompleteSession(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid session ID")
		return
	}

	session, err := h.reconciliation.CompleteSession(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// ListSessions lists the sessions of one bank account
func (h *ReconciliationHandler) ListSessions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	bankAccountID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid bank account ID")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	sessions, err := h.reconciliation.ListSessions(c.Request.Context(), tenantID, bankAccountID, toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sessions)
}
