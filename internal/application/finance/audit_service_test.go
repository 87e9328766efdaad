package finance

import (
	"context"
	"testing"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditService_List(t *testing.T) {
	repo := new(MockAuditLogRepository)
	svc := NewAuditService(repo)

	entries := []finance.AuditEntry{
		*finance.NewAuditEntry(shared.Actor{Name: "ana"}, finance.AuditImportCommit, "receivables.csv", "3 records", nil),
	}
	repo.On("List", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderBy == "timestamp" &&
			f.Filters["action"] == "IMPORT_COMMIT" && f.Filters["actor"] == "ana" &&
			f.Filters["subject"] == nil
	})).Return(entries, int64(41), nil)

	page, err := svc.List(context.Background(), AuditLogFilter{Action: " import_commit ", Actor: "ana"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	repo.AssertExpectations(t)
}
