package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
)

// AuditService reads the audit trail
type AuditService struct {
	entries finance.AuditLogRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(entries finance.AuditLogRepository) *AuditService {
	return &AuditService{entries: entries}
}

// List returns a page of audit entries, newest first unless ordered otherwise
func (s *AuditService) List(ctx context.Context, filter AuditLogFilter) (*shared.Paginated[finance.AuditEntry], error) {
	entries, total, err := s.entries.List(ctx, filter.toShared())
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}
