package handler

import (
	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the audit trail
type AuditHandler struct {
	BaseHandler
	audit *financeapp.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *financeapp.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// RegisterRoutes mounts the audit endpoints
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/audit-logs", h.List)
}

// List godoc
// @Summary      List audit entries
// @Tags         audit
// @Param        action query string false "Action, e.g. SETTLEMENT_CREATED"
// @Param        subject query string false "Record id, settlement short id or label"
// @Param        actor query string false "Actor name"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]finance.AuditEntry}
// @Router       /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var filter financeapp.AuditLogFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}
