package dto

import (
	"github.com/shopspring/decimal"
)

// ConfirmCategoryRequest assigns a DRE group to a category label
type ConfirmCategoryRequest struct {
	Label    string `json:"label" binding:"required,max=300"`
	Group    string `json:"group" binding:"required,oneof=REVENUE_GROSS DEDUCTIONS COGS OPERATING_EXPENSES"`
	Subgroup string `json:"subgroup" binding:"required,max=100"`
}

// DateRangeQuery selects a report window by explicit dates
type DateRangeQuery struct {
	Start string `form:"start" binding:"omitempty,max=10"`
	End   string `form:"end" binding:"omitempty,max=10"`
}

// ReportQuery selects a report window by dates or by period selector
type ReportQuery struct {
	DateRangeQuery
	PeriodType string `form:"period_type" binding:"omitempty,oneof=MONTH QUARTER SEMESTER YEAR month quarter semester year"`
	Year       int    `form:"year" binding:"omitempty,min=1900,max=9999"`
	Index      int    `form:"index" binding:"omitempty,min=1,max=12"`
}

// CreateSettlementRequest negotiates receivables into an installment plan
type CreateSettlementRequest struct {
	Counterparty     string          `json:"counterparty" binding:"required,max=200"`
	RecordIDs        []string        `json:"record_ids" binding:"required,min=1,dive,required,max=100"`
	AgreedAmount     decimal.Decimal `json:"agreed_amount"`
	InstallmentCount int             `json:"installment_count" binding:"required,min=1,max=360"`
	Frequency        string          `json:"frequency" binding:"required,oneof=WEEKLY BIWEEKLY MONTHLY weekly biweekly monthly"`
	FirstDate        string          `json:"first_date" binding:"required,max=25"`
}

// LiquidateInstallmentRequest marks an installment paid. An empty date means today.
type LiquidateInstallmentRequest struct {
	ID            string `json:"id" binding:"required,max=100"`
	Date          string `json:"date" binding:"omitempty,max=25"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,max=50"`
}

// HealthResponse reports the service and store state
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}
