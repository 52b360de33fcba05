package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/openbooks/backend/internal/application/ledger"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// BankHandler serves bank account and statement line endpoints
type BankHandler struct {
	BaseHandler
	statements *appledger.StatementService
}

// NewBankHandler creates a new BankHandler
func NewBankHandler(statements *appledger.StatementService) *BankHandler {
	return &BankHandler{statements: statements}
}

// RegisterRoutes registers the bank routes
func (h *BankHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bankAccounts := rg.Group("/bank-accounts")
	{
		bankAccounts.POST("", h.CreateBankAccount)
		bankAccounts.GET("", h.ListBankAccounts)
		bankAccounts.POST("/:id/import", h.ImportStatement)
	}

	transactions := rg.Group("/bank-transactions")
	{
		transactions.POST("", h.RegisterTransaction)
		transactions.GET("", h.ListTransactions)
		transactions.POST("/:id/exclude", h.ExcludeTransaction)
		transactions.POST("/:id/include", h.IncludeTransaction)
	}
}

type createBankAccountRequest struct {
	Name            string `json:"name" binding:"required,max=255"`
	Currency        string `json:"currency" binding:"required,currency"`
	LedgerAccountID string `json:"ledger_account_id" binding:"required,uuid"`
}

// CreateBankAccount registers a bank account linked to a ledger account
func (h *BankHandler) CreateBankAccount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req createBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ledgerAccountID, err := parseOptionalUUID(&req.LedgerAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid ledger_account_id")
		return
	}

	account, err := h.statements.CreateBankAccount(c.Request.Context(), appledger.CreateBankAccountRequest{
		TenantID:        tenantID,
		Name:            req.Name,
		Currency:        req.Currency,
		LedgerAccountID: *ledgerAccountID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// ListBankAccounts lists the tenant's bank accounts
func (h *BankHandler) ListBankAccounts(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	accounts, err := h.statements.ListBankAccounts(c.Request.Context(), tenantID, toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

type importStatementRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// ImportStatement pulls a period's lines from the statement feed. Lines
// already imported are counted as skipped.
func (h *BankHandler) ImportStatement(c *gin.Context) {
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

	var req importStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, err := parseDate(req.From)
	if err != nil {
		h.BadRequest(c, "Invalid from date")
		return
	}
	to, err := parseDate(req.To)
	if err != nil {
		h.BadRequest(c, "Invalid to date")
		return
	}

	result, err := h.statements.ImportStatement(c.Request.Context(), appledger.ImportStatementRequest{
		TenantID:      tenantID,
		BankAccountID: bankAccountID,
		From:          from,
		To:            to,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

type registerTransactionRequest struct {
	BankAccountID string          `json:"bank_account_id" binding:"required,uuid"`
	Date          string          `json:"date" binding:"required"`
	Description   string          `json:"description" binding:"required,max=500"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required,currency"`
}

// RegisterTransaction imports one statement line supplied directly. A line
// already imported returns the existing transaction.
func (h *BankHandler) RegisterTransaction(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req registerTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bankAccountID, err := parseOptionalUUID(&req.BankAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid bank_account_id")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date")
		return
	}

	transaction, err := h.statements.RegisterTransaction(c.Request.Context(), appledger.RegisterTransactionRequest{
		TenantID:      tenantID,
		BankAccountID: *bankAccountID,
		Date:          date,
		Description:   req.Description,
		Amount:        req.Amount,
		Currency:      req.Currency,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, transaction)
}

type listTransactionsRequest struct {
	dto.ListRequest
	BankAccountID string `form:"bank_account_id" binding:"omitempty,uuid"`
	Status        string `form:"status" binding:"omitempty,oneof=NEW SUGGESTED PARTIAL MATCHED_SINGLE MATCHED_MULTI RECONCILED EXCLUDED"`
	FromDate      string `form:"from_date"`
	ToDate        string `form:"to_date"`
}

// ListTransactions lists the tenant's statement lines
func (h *BankHandler) ListTransactions(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req listTransactionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.BankTransactionFilter{Filter: toFilter(req.ListRequest)}
	if filter.BankAccountID, err = parseOptionalUUID(&req.BankAccountID); err != nil {
		h.BadRequest(c, "Invalid bank_account_id")
		return
	}
	if req.Status != "" {
		status := ledger.BankTransactionStatus(req.Status)
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

	transactions, err := h.statements.ListTransactions(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transactions)
}

type excludeTransactionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ExcludeTransaction removes a statement line from the matching pool
func (h *BankHandler) ExcludeTransaction(c *gin.Context) {
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

	var req excludeTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	transaction, err := h.statements.ExcludeTransaction(c.Request.Context(), tenantID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transaction)
}

// IncludeTransaction returns an excluded line to the matching pool
func (h *BankHandler) IncludeTransaction(c *gin.Context) {
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

	transaction, err := h.statements.IncludeTransaction(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transaction)
}
