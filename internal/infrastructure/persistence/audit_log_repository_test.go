package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormAuditLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormAuditLogRepository(newTestDB(t))
	actor := shared.Actor{Name: "ana", Email: "ana@example.com", Role: "finance"}

	amount := decimal.RequireFromString("1200.00")
	older := finance.NewAuditEntry(actor, finance.AuditImportCommit, "receivables.csv", "new=3 changed=1", &amount)
	older.Timestamp = time.Now().Add(-time.Hour)
	newer := finance.NewAuditEntry(actor, finance.AuditCategoryConfirmed, "Vendas", "REVENUE_GROSS/Sales", nil)
	require.NoError(t, repo.Append(ctx, older))
	require.NoError(t, repo.Append(ctx, newer))

	t.Run("newest first", func(t *testing.T) {
		entries, total, err := repo.List(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 2)
		assert.Equal(t, finance.AuditCategoryConfirmed, entries[0].Action)
		assert.Equal(t, actor, entries[1].Actor)
		require.NotNil(t, entries[1].Amount)
		assert.True(t, entries[1].Amount.Equal(amount))
	})

	t.Run("filter by action", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["action"] = string(finance.AuditImportCommit)
		entries, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.Equal(t, "receivables.csv", entries[0].Subject)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.PageSize = 1
		filter.Page = 2
		entries, total, err := repo.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, entries, 1)
		assert.Equal(t, finance.AuditImportCommit, entries[0].Action)
	})
}
