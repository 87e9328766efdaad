package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportService_Generate(t *testing.T) {
	ctx := context.Background()
	start, end := day("2024-01-01"), day("2024-01-31")

	sale := receivable("R-1", "ACME", "2024-01-10", "1000")
	fee := receivable("P-1", "Banco", "2024-01-12", "40")
	fee.Variant = finance.VariantPayable
	fee.Category = "Tarifa Bancária"
	dictionary := []finance.CategoryMapping{
		{Label: "Vendas", Group: finance.GroupRevenueGross, Subgroup: finance.SubgroupSales},
		{Label: "Tarifa Bancária", Group: finance.GroupOperatingExpenses, Subgroup: finance.SubgroupFinancial},
	}

	t.Run("miss builds and caches", func(t *testing.T) {
		records := new(MockLedgerRecordRepository)
		mappings := new(MockCategoryMappingRepository)
		cache := new(MockReportCache)
		svc := NewReportService(records, mappings, WithReportCache(cache))

		cache.On("Get", mock.Anything, "2024-01", "2024-01").Return(nil, false, nil).Once()
		records.On("FindByPeriodRange", mock.Anything, finance.VariantReceivable, "2024-01", "2024-01").
			Return([]finance.LedgerRecord{sale}, nil)
		records.On("FindByPeriodRange", mock.Anything, finance.VariantPayable, "2024-01", "2024-01").
			Return([]finance.LedgerRecord{fee}, nil)
		mappings.On("FindAll", mock.Anything).Return(dictionary, nil)
		cache.On("Set", mock.Anything, "2024-01", "2024-01", mock.Anything).Return(nil).Once()

		stmt, err := svc.Generate(ctx, start, end)
		require.NoError(t, err)
		net, ok := stmt.Row(finance.LineNetResult)
		require.True(t, ok)
		assert.True(t, net.Total.Equal(decimal.NewFromInt(960)))
		ebitda, _ := stmt.Row(finance.LineEBITDA)
		assert.True(t, ebitda.Total.Equal(decimal.NewFromInt(1000)))
		cache.AssertExpectations(t)
	})

	t.Run("hit skips the store", func(t *testing.T) {
		records := new(MockLedgerRecordRepository)
		cache := new(MockReportCache)
		svc := NewReportService(records, new(MockCategoryMappingRepository), WithReportCache(cache))
		cached := &finance.IncomeStatement{Periods: []string{"2024-01"}}
		cache.On("Get", mock.Anything, "2024-01", "2024-01").Return(cached, true, nil)

		stmt, err := svc.Generate(ctx, start, end)
		require.NoError(t, err)
		assert.Same(t, cached, stmt)
		records.AssertNotCalled(t, "FindByPeriodRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache errors degrade to regeneration", func(t *testing.T) {
		records := new(MockLedgerRecordRepository)
		mappings := new(MockCategoryMappingRepository)
		cache := new(MockReportCache)
		svc := NewReportService(records, mappings, WithReportCache(cache))

		cache.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))
		cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
		records.On("FindByPeriodRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]finance.LedgerRecord{}, nil)
		mappings.On("FindAll", mock.Anything).Return([]finance.CategoryMapping{}, nil)

		stmt, err := svc.Generate(ctx, start, end)
		require.NoError(t, err)
		assert.Len(t, stmt.Rows, 9)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		records := new(MockLedgerRecordRepository)
		svc := NewReportService(records, new(MockCategoryMappingRepository))
		records.On("FindByPeriodRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]finance.LedgerRecord{}, errors.New("connection refused"))

		_, err := svc.Generate(ctx, start, end)
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestDebtorService_Summarize(t *testing.T) {
	records := new(MockLedgerRecordRepository)
	svc := NewDebtorService(records, WithClock(func() time.Time { return day("2024-03-20") }))

	late := receivable("R-1", "ACME", "2024-03-01", "300")
	recent := receivable("R-2", "ACME", "2024-03-10", "200")
	current := receivable("R-3", "Beta", "2024-04-10", "50")
	records.On("FindCollectionCandidates", mock.Anything).
		Return([]finance.LedgerRecord{late, recent, current}, nil)

	profiles, err := svc.Summarize(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "ACME", profiles[0].Counterparty)
	assert.Equal(t, finance.DebtorCollection, profiles[0].Status)
	assert.True(t, profiles[0].OverdueOver15.Equal(decimal.NewFromInt(300)))
	assert.True(t, profiles[0].OverdueUpTo15.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, finance.DebtorRegular, profiles[1].Status)

	found, ok, err := svc.Find(context.Background(), "acme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, found.TitleCount)
}
