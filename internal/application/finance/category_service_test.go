package finance

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts a verified mapping", func(t *testing.T) {
		mappings := new(MockCategoryMappingRepository)
		audit := new(MockAuditLogRepository)
		cache := new(MockReportCache)
		svc := NewCategoryService(mappings, new(MockLedgerRecordRepository), WithAuditLog(audit), WithReportCache(cache))

		mappings.On("Upsert", mock.Anything, mock.MatchedBy(func(m *finance.CategoryMapping) bool {
			return m.Label == "Tarifa Bancária Mensal" && m.Verified && m.UpdatedBy == "ana"
		})).Return(nil).Once()
		cache.On("Invalidate", mock.Anything).Return(nil).Once()
		audit.On("Append", mock.Anything, mock.MatchedBy(func(e *finance.AuditEntry) bool {
			return e.Action == finance.AuditCategoryConfirmed && e.Subject == "Tarifa Bancária Mensal"
		})).Return(nil).Once()

		got, err := svc.Confirm(ctx, ConfirmCategoryInput{
			Label:    " Tarifa Bancária Mensal ",
			Group:    finance.GroupOperatingExpenses,
			Subgroup: finance.SubgroupFinancial,
			Actor:    shared.Actor{Name: "ana"},
		})
		require.NoError(t, err)
		assert.Equal(t, finance.GroupOperatingExpenses, got.Group)
		mappings.AssertExpectations(t)
		audit.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("unknown group is rejected before any write", func(t *testing.T) {
		mappings := new(MockCategoryMappingRepository)
		svc := NewCategoryService(mappings, new(MockLedgerRecordRepository))

		_, err := svc.Confirm(ctx, ConfirmCategoryInput{Label: "Frete", Group: "ASSETS", Subgroup: "x"})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		mappings.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		mappings := new(MockCategoryMappingRepository)
		svc := NewCategoryService(mappings, new(MockLedgerRecordRepository))
		mappings.On("Upsert", mock.Anything, mock.Anything).
			Return(shared.NewStoreError("upsert category mapping", errors.New("disk full")))

		_, err := svc.Confirm(ctx, ConfirmCategoryInput{Label: "Frete", Group: finance.GroupRevenueGross, Subgroup: "Sales"})
		var se *shared.StoreError
		assert.True(t, errors.As(err, &se))
	})
}

func TestCategoryService_Unmapped(t *testing.T) {
	ctx := context.Background()
	records := new(MockLedgerRecordRepository)
	mappings := new(MockCategoryMappingRepository)
	svc := NewCategoryService(mappings, records)

	sale := receivable("R-1", "ACME", "2024-01-10", "100")
	fee := receivable("P-1", "Banco", "2024-01-12", "15")
	fee.Variant = finance.VariantPayable
	fee.Category = "Tarifa Bancária Mensal"
	blank := receivable("P-2", "Banco", "2024-02-01", "5")
	blank.Variant = finance.VariantPayable
	blank.Category = ""
	canceled := receivable("P-3", "Outro", "2024-02-01", "5")
	canceled.Variant = finance.VariantPayable
	canceled.Category = "Brindes"
	canceled.Status = "Cancelado"
	ref := uuid.New()
	installment := receivable("ACD-1A2B3C4D-01/03", "ACME", "2024-02-10", "400")
	installment.Category = finance.CategoryCommercialAgreement
	installment.SettlementRef = &ref

	records.On("FindByPeriodRange", mock.Anything, finance.VariantReceivable, "2024-01", "2024-02").
		Return([]finance.LedgerRecord{sale, installment}, nil)
	records.On("FindByPeriodRange", mock.Anything, finance.VariantPayable, "2024-01", "2024-02").
		Return([]finance.LedgerRecord{fee, blank, canceled}, nil)
	mappings.On("FindAll", mock.Anything).Return([]finance.CategoryMapping{
		{Label: "Vendas", Group: finance.GroupRevenueGross, Subgroup: finance.SubgroupSales},
	}, nil)

	t.Run("sorted distinct labels", func(t *testing.T) {
		labels, err := svc.FindUnmapped(ctx, day("2024-01-01"), day("2024-02-29"))
		require.NoError(t, err)
		assert.Equal(t, []string{"Tarifa Bancária Mensal", finance.UncategorizedLabel}, labels)
	})

	t.Run("suggestions", func(t *testing.T) {
		got, err := svc.SuggestUnmapped(ctx, day("2024-01-01"), day("2024-02-29"))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, finance.GroupOperatingExpenses, got[0].Suggestion.Group)
		assert.Equal(t, finance.SubgroupFinancial, got[0].Suggestion.Subgroup)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := svc.FindUnmapped(ctx, day("2024-03-01"), day("2024-02-01"))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}
