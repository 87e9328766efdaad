package handler

import (
	"strings"
	"time"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the income statement and the debtor summary
type ReportHandler struct {
	BaseHandler
	reports *financeapp.ReportService
	debtors *financeapp.DebtorService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *financeapp.ReportService, debtors *financeapp.DebtorService) *ReportHandler {
	return &ReportHandler{reports: reports, debtors: debtors}
}

// RegisterRoutes mounts the report endpoints
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	reports.GET("/dre", h.IncomeStatement)
	reports.GET("/debtors", h.Debtors)
}

// IncomeStatement godoc
// @Summary      Income statement (DRE)
// @Description  The window is either start/end dates or period_type with year and index
// @Tags         reports
// @Param        start query string false "Start date"
// @Param        end query string false "End date"
// @Param        period_type query string false "MONTH, QUARTER, SEMESTER or YEAR"
// @Param        year query int false "Year"
// @Param        index query int false "Month, quarter or semester number"
// @Success      200 {object} dto.Response{data=finance.IncomeStatement}
// @Router       /reports/dre [get]
func (h *ReportHandler) IncomeStatement(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}
	stmt, err := h.reports.Generate(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stmt)
}

// Debtors godoc
// @Summary      Debtor risk profiles
// @Tags         reports
// @Param        counterparty query string false "Return a single client's profile"
// @Success      200 {object} dto.Response{data=[]finance.DebtorProfile}
// @Router       /reports/debtors [get]
func (h *ReportHandler) Debtors(c *gin.Context) {
	if name := strings.TrimSpace(c.Query("counterparty")); name != "" {
		profile, found, err := h.debtors.Find(c.Request.Context(), name)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		if !found {
			h.NotFound(c, "no collectable records for "+name)
			return
		}
		h.Success(c, profile)
		return
	}

	profiles, err := h.debtors.Summarize(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if profiles == nil {
		profiles = []finance.DebtorProfile{}
	}
	h.Success(c, profiles)
}

// reportRange reads a report window from the query string. A period
// selector takes precedence over explicit dates.
func (h *BaseHandler) reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	var q dto.ReportQuery
	if !h.bindQuery(c, &q) {
		return time.Time{}, time.Time{}, false
	}
	if q.PeriodType != "" {
		if q.Year == 0 {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "year", Message: "This field is required"}})
			return time.Time{}, time.Time{}, false
		}
		start, end, err := finance.ResolvePeriod(finance.PeriodType(q.PeriodType), q.Year, q.Index)
		if err != nil {
			h.HandleError(c, err)
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}

	var missing []dto.ValidationDetail
	if strings.TrimSpace(q.Start) == "" {
		missing = append(missing, dto.ValidationDetail{Field: "start", Message: "This field is required"})
	}
	if strings.TrimSpace(q.End) == "" {
		missing = append(missing, dto.ValidationDetail{Field: "end", Message: "This field is required"})
	}
	if len(missing) > 0 {
		h.ValidationError(c, missing)
		return time.Time{}, time.Time{}, false
	}
	start, ok := h.parseDateParam(c, "start", q.Start)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := h.parseDateParam(c, "end", q.End)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
