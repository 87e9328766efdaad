package handler

import (
	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SettlementHandler handles settlement negotiation and installments
type SettlementHandler struct {
	BaseHandler
	settlements *financeapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlements *financeapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// RegisterRoutes mounts the settlement endpoints
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	settlements := rg.Group("/settlements")
	settlements.POST("", h.Create)
	settlements.GET("", h.List)
	settlements.GET("/:id", h.Get)
	settlements.POST("/:id/finalize", h.Finalize)
	settlements.POST("/:id/cancel", h.Cancel)

	rg.POST("/installments/liquidate", h.LiquidateInstallment)
}

// Create godoc
// @Summary      Negotiate receivables into a settlement
// @Tags         settlements
// @Param        request body dto.CreateSettlementRequest true "Settlement terms"
// @Success      201 {object} dto.Response{data=financeapp.SettlementResponse}
// @Router       /settlements [post]
func (h *SettlementHandler) Create(c *gin.Context) {
	var req dto.CreateSettlementRequest
	if !h.bindJSON(c, &req) {
		return
	}
	first, ok := h.parseDateParam(c, "first_date", req.FirstDate)
	if !ok {
		return
	}
	settlement, err := h.settlements.Create(c.Request.Context(), financeapp.CreateSettlementInput{
		Counterparty:     req.Counterparty,
		RecordIDs:        req.RecordIDs,
		AgreedAmount:     req.AgreedAmount,
		InstallmentCount: req.InstallmentCount,
		Frequency:        finance.Frequency(req.Frequency),
		FirstDate:        first,
		Actor:            middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, settlement)
}

// List godoc
// @Summary      List settlements
// @Tags         settlements
// @Param        status query string false "ACTIVE, LIQUIDATED or CANCELED"
// @Param        counterparty query string false "Client name"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]financeapp.SettlementResponse}
// @Router       /settlements [get]
func (h *SettlementHandler) List(c *gin.Context) {
	var filter financeapp.SettlementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.settlements.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @Summary      Get a settlement with its installments
// @Tags         settlements
// @Param        id path string true "Settlement ID"
// @Success      200 {object} dto.Response{data=financeapp.SettlementResponse}
// @Router       /settlements/{id} [get]
func (h *SettlementHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	settlement, err := h.settlements.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlement)
}

// Finalize godoc
// @Summary      Liquidate a fully paid settlement
// @Tags         settlements
// @Param        id path string true "Settlement ID"
// @Success      200 {object} dto.Response{data=financeapp.SettlementResponse}
// @Router       /settlements/{id}/finalize [post]
func (h *SettlementHandler) Finalize(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	settlement, err := h.settlements.Finalize(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlement)
}

// Cancel godoc
// @Summary      Cancel an active settlement
// @Tags         settlements
// @Param        id path string true "Settlement ID"
// @Success      200 {object} dto.Response{data=financeapp.SettlementResponse}
// @Router       /settlements/{id}/cancel [post]
func (h *SettlementHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	settlement, err := h.settlements.Cancel(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlement)
}

// LiquidateInstallment godoc
// @Summary      Mark an installment paid
// @Tags         settlements
// @Description  Installment ids contain a slash, so the id travels in the body
// @Param        request body dto.LiquidateInstallmentRequest true "Installment id, payment date and method"
// @Success      200 {object} dto.Response{data=finance.LedgerRecord}
// @Router       /installments/liquidate [post]
func (h *SettlementHandler) LiquidateInstallment(c *gin.Context) {
	var req dto.LiquidateInstallmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	date, ok := h.parseDateParam(c, "date", req.Date)
	if !ok {
		return
	}
	record, err := h.settlements.LiquidateInstallment(c.Request.Context(), req.ID, date, req.PaymentMethod, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}
