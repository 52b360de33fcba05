package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/openbooks/backend/internal/application/ledger"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
)

// AccountHandler serves the chart of accounts endpoints
type AccountHandler struct {
	BaseHandler
	accounts *appledger.ChartOfAccountsService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *appledger.ChartOfAccountsService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes registers the account routes
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.Create)
		accounts.GET("", h.List)
		accounts.GET("/:id", h.Get)
		accounts.PATCH("/:id", h.Rename)
		accounts.POST("/:id/archive", h.Archive)
	}
}

type createAccountRequest struct {
	Code     string  `json:"code" binding:"required,max=20"`
	Name     string  `json:"name" binding:"required,max=255"`
	Type     string  `json:"type" binding:"required"`
	ParentID *string `json:"parent_id" binding:"omitempty,uuid"`
}

// Create adds an account to the chart
func (h *AccountHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		h.BadRequest(c, "Invalid parent_id")
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), appledger.CreateAccountRequest{
		TenantID: tenantID,
		Code:     req.Code,
		Name:     req.Name,
		Type:     ledger.AccountType(req.Type),
		ParentID: parentID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Get fetches one account
func (h *AccountHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid account ID")
		return
	}

	account, err := h.accounts.GetAccount(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// List lists the tenant's accounts
func (h *AccountHandler) List(c *gin.Context) {
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

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), tenantID, toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, accounts)
}

type renameAccountRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// Rename changes an account's display name
func (h *AccountHandler) Rename(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid account ID")
		return
	}

	var req renameAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	account, err := h.accounts.RenameAccount(c.Request.Context(), tenantID, id, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Archive hides an account from new postings
func (h *AccountHandler) Archive(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid account ID")
		return
	}

	if err := h.accounts.ArchiveAccount(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
