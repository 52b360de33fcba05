package handler

import (
	"github.com/gin-gonic/gin"
	appledger "github.com/openbooks/backend/internal/application/ledger"
	"github.com/openbooks/backend/internal/domain/ledger"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
)

// JournalHandler serves read access to posted journal entries
type JournalHandler struct {
	BaseHandler
	queries *appledger.JournalQueryService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(queries *appledger.JournalQueryService) *JournalHandler {
	return &JournalHandler{queries: queries}
}

// RegisterRoutes registers the journal routes
func (h *JournalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	entries := rg.Group("/journal-entries")
	{
		entries.GET("", h.List)
		entries.GET("/:id", h.Get)
	}
}

// Get fetches one entry with its lines
func (h *JournalHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.queries.GetEntry(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

type listEntriesRequest struct {
	dto.ListRequest
	FromDate      string `form:"from_date"`
	ToDate        string `form:"to_date"`
	SourceType    string `form:"source_type" binding:"omitempty,oneof=INVOICE EXPENSE"`
	SourceID      string `form:"source_id" binding:"omitempty,uuid"`
	IncludeVoided bool   `form:"include_voided"`
}

// List lists the tenant's entries
func (h *JournalHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.Unauthorized(c, "Tenant context missing")
		return
	}

	var req listEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := ledger.JournalEntryFilter{
		Filter:        toFilter(req.ListRequest),
		IncludeVoided: req.IncludeVoided,
	}
	if filter.FromDate, err = parseOptionalDate(req.FromDate); err != nil {
		h.BadRequest(c, "Invalid from_date")
		return
	}
	if filter.ToDate, err = parseOptionalDate(req.ToDate); err != nil {
		h.BadRequest(c, "Invalid to_date")
		return
	}
	if req.SourceType != "" {
		sourceType := ledger.DocumentType(req.SourceType)
		filter.SourceType = &sourceType
	}
	if filter.SourceID, err = parseOptionalUUID(&req.SourceID); err != nil {
		h.BadRequest(c, "Invalid source_id")
		return
	}

	entries, err := h.queries.ListEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
