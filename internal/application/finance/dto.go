package finance

import (
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementResponse represents a settlement in API responses
type SettlementResponse struct {
	ID                   uuid.UUID                  `json:"id"`
	ShortID              string                     `json:"short_id"`
	CounterpartyName     string                     `json:"counterparty_name"`
	OriginalAmount       decimal.Decimal            `json:"original_amount"`
	AgreedAmount         decimal.Decimal            `json:"agreed_amount"`
	InstallmentCount     int                        `json:"installment_count"`
	Frequency            finance.Frequency          `json:"frequency"`
	FirstInstallmentDate time.Time                  `json:"first_installment_date"`
	Status               finance.SettlementStatus   `json:"status"`
	NegotiatedRecords    []finance.NegotiatedRecord `json:"negotiated_records"`
	Installments         []finance.LedgerRecord     `json:"installments,omitempty"`
	CreatedBy            string                     `json:"created_by,omitempty"`
	LiquidatedAt         *time.Time                 `json:"liquidated_at,omitempty"`
	CanceledAt           *time.Time                 `json:"canceled_at,omitempty"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
	Version              int                        `json:"version"`
}

func toSettlementResponse(s *finance.Settlement, installments []finance.LedgerRecord) *SettlementResponse {
	return &SettlementResponse{
		ID:                   s.ID,
		ShortID:              s.ShortID(),
		CounterpartyName:     s.CounterpartyName,
		OriginalAmount:       s.OriginalAmount,
		AgreedAmount:         s.AgreedAmount,
		InstallmentCount:     s.InstallmentCount,
		Frequency:            s.Frequency,
		FirstInstallmentDate: s.FirstInstallmentDate,
		Status:               s.Status,
		NegotiatedRecords:    s.NegotiatedRecords,
		Installments:         installments,
		CreatedBy:            s.CreatedBy,
		LiquidatedAt:         s.LiquidatedAt,
		CanceledAt:           s.CanceledAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		Version:              s.Version,
	}
}

// ListQuery holds pagination and ordering shared by list filters
type ListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by" binding:"omitempty,max=50"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

func (q ListQuery) toShared(filters map[string]interface{}) shared.Filter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	f.OrderBy = q.OrderBy
	f.OrderDir = q.OrderDir
	for k, v := range filters {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		f.Filters[k] = v
	}
	return f
}

// normalized fills the page defaults so responses echo what was applied
func (q ListQuery) normalized() ListQuery {
	d := shared.DefaultFilter()
	if q.Page < 1 {
		q.Page = d.Page
	}
	if q.PageSize < 1 {
		q.PageSize = d.PageSize
	}
	return q
}

// SettlementListFilter defines filtering options for settlement list queries
type SettlementListFilter struct {
	ListQuery
	Status       string `form:"status" binding:"omitempty,oneof=ACTIVE LIQUIDATED CANCELED active liquidated canceled"`
	Counterparty string `form:"counterparty" binding:"omitempty,max=200"`
}

func (f *SettlementListFilter) toShared() shared.Filter {
	f.ListQuery = f.ListQuery.normalized()
	return f.ListQuery.toShared(map[string]interface{}{
		"status":       f.Status,
		"counterparty": f.Counterparty,
	})
}

// AuditLogFilter defines filtering options for audit trail queries
type AuditLogFilter struct {
	ListQuery
	Action  string `form:"action" binding:"omitempty,max=50"`
	Subject string `form:"subject" binding:"omitempty,max=300"`
	Actor   string `form:"actor" binding:"omitempty,max=200"`
}

func (f *AuditLogFilter) toShared() shared.Filter {
	f.ListQuery = f.ListQuery.normalized()
	filter := f.ListQuery.toShared(map[string]interface{}{
		"action":  strings.ToUpper(strings.TrimSpace(f.Action)),
		"subject": f.Subject,
		"actor":   f.Actor,
	})
	if filter.OrderBy == "" {
		filter.OrderBy = "timestamp"
	}
	return filter
}
