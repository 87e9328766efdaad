package finance

import (
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal, label ...string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "%v want %s got %s", label, want, got.String())
}

func entry(id string, variant Variant, due time.Time, amount, category string) LedgerRecord {
	a := decimal.RequireFromString(amount)
	return LedgerRecord{
		ID:                 id,
		Variant:            variant,
		DueDate:            due,
		FaceAmount:         a,
		OutstandingBalance: a.Abs(),
		Status:             "OPEN",
		Category:           category,
		Period:             PeriodOf(due),
		CollectionStatus:   CollectionCollectable,
	}
}

func statementFixture() ([]LedgerRecord, MappingIndex) {
	idx := NewMappingIndex([]CategoryMapping{
		{Label: "Vendas", Group: GroupRevenueGross, Subgroup: SubgroupSales},
		{Label: "Devolucoes", Group: GroupDeductions, Subgroup: SubgroupReturns},
		{Label: "Compras", Group: GroupCOGS, Subgroup: SubgroupPurchases},
		{Label: "Tarifa", Group: GroupOperatingExpenses, Subgroup: SubgroupFinancial},
		{Label: "Aluguel", Group: GroupOperatingExpenses, Subgroup: SubgroupAdministrative},
	})
	canceled := entry("r9", VariantReceivable, date(2024, 2, 15), "999", "Vendas")
	canceled.Status = "Cancelado"
	records := []LedgerRecord{
		entry("r1", VariantReceivable, date(2024, 1, 10), "1000", "Vendas"),
		entry("p1", VariantPayable, date(2024, 1, 12), "100", "Devolucoes"),
		entry("p2", VariantPayable, date(2024, 1, 20), "300", "Compras"),
		entry("p3", VariantPayable, date(2024, 1, 25), "50", "Tarifa"),
		entry("p4", VariantPayable, date(2024, 1, 31), "200", "Aluguel"),
		entry("r2", VariantReceivable, date(2024, 2, 5), "500", "Vendas"),
		entry("p5", VariantPayable, date(2024, 2, 8), "-200", "Compras"),
		entry("p6", VariantPayable, date(2024, 2, 9), "10", "Brindes"),
		canceled,
		entry("p7", VariantPayable, date(2024, 4, 1), "70", "Outside"),
	}
	return records, idx
}

func TestBuildIncomeStatement(t *testing.T) {
	records, idx := statementFixture()
	st := BuildIncomeStatement(records, idx, date(2024, 1, 1), date(2024, 3, 31))

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, st.Periods)
	assert.Equal(t, []string{"Brindes"}, st.Unmapped)

	keys := make([]string, 0, len(st.Rows))
	for _, r := range st.Rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{
		LineRevenueGross, LineDeductions, LineNetRevenue, LineCOGS, LineGrossProfit,
		LineOperatingExpenses, LineNetResult, LineEBITDA, LineROI,
	}, keys)

	expect := map[string][4]string{
		LineRevenueGross:      {"1000", "500", "0", "1500"},
		LineDeductions:        {"100", "0", "0", "100"},
		LineNetRevenue:        {"900", "500", "0", "1400"},
		LineCOGS:              {"300", "200", "0", "500"},
		LineGrossProfit:       {"600", "300", "0", "900"},
		LineOperatingExpenses: {"250", "0", "0", "250"},
		LineNetResult:         {"350", "300", "0", "650"},
		LineEBITDA:            {"400", "300", "0", "700"},
		LineROI:               {"38.89", "60", "0", "46.43"},
	}
	for key, want := range expect {
		row, ok := st.Row(key)
		require.True(t, ok, key)
		assertDecimal(t, want[0], row.Values["2024-01"], key)
		assertDecimal(t, want[1], row.Values["2024-02"], key)
		assertDecimal(t, want[2], row.Values["2024-03"], key)
		assertDecimal(t, want[3], row.Total, key)
	}
}

func TestBuildIncomeStatement_SubItems(t *testing.T) {
	records, idx := statementFixture()
	st := BuildIncomeStatement(records, idx, date(2024, 1, 1), date(2024, 3, 31))

	opex, _ := st.Row(LineOperatingExpenses)
	require.Len(t, opex.SubItems, 2)
	assert.Equal(t, SubgroupAdministrative, opex.SubItems[0].Label)
	assert.Equal(t, SubgroupFinancial, opex.SubItems[1].Label)
	assert.Equal(t, RowKindSubgroup, opex.SubItems[0].Kind)

	netRevenue, _ := st.Row(LineNetRevenue)
	assert.Equal(t, RowKindDerived, netRevenue.Kind)
	assert.Empty(t, netRevenue.SubItems)
}

func TestBuildIncomeStatement_Additivity(t *testing.T) {
	records, idx := statementFixture()
	st := BuildIncomeStatement(records, idx, date(2024, 1, 1), date(2024, 2, 29))

	revenue, _ := st.Row(LineRevenueGross)
	deductions, _ := st.Row(LineDeductions)
	netRevenue, _ := st.Row(LineNetRevenue)
	grossProfit, _ := st.Row(LineGrossProfit)
	opex, _ := st.Row(LineOperatingExpenses)
	netResult, _ := st.Row(LineNetResult)

	assert.True(t, revenue.Total.Sub(deductions.Total).Equal(netRevenue.Total))
	assert.True(t, grossProfit.Total.Sub(opex.Total).Equal(netResult.Total))
	for _, row := range []ReportRow{revenue, deductions, opex} {
		sum := decimal.Zero
		for _, v := range row.Values {
			sum = sum.Add(v)
		}
		assert.True(t, sum.Equal(row.Total), row.Key)
		sub := decimal.Zero
		for _, s := range row.SubItems {
			sub = sub.Add(s.Total)
		}
		assert.True(t, sub.Equal(row.Total), row.Key)
	}
}

func TestBuildIncomeStatement_Settlements(t *testing.T) {
	idx := NewMappingIndex([]CategoryMapping{
		{Label: "Vendas", Group: GroupRevenueGross, Subgroup: SubgroupSales},
		{Label: CategoryCommercialAgreement, Group: GroupRevenueGross, Subgroup: SubgroupSales},
	})
	original := entry("r1", VariantReceivable, date(2024, 1, 10), "1200", "Vendas")
	s, err := NewSettlement(SettlementTerms{
		Counterparty:     "ACME",
		RecordIDs:        []string{"r1"},
		AgreedAmount:     decimal.NewFromInt(1200),
		InstallmentCount: 3,
		Frequency:        FrequencyMonthly,
		FirstDate:        date(2024, 1, 20),
	}, []LedgerRecord{original}, shared.Actor{Name: "ana"})
	require.NoError(t, err)
	s.Negotiate(&original)
	records := append([]LedgerRecord{original}, s.GenerateInstallments()...)

	st := BuildIncomeStatement(records, idx, date(2024, 1, 1), date(2024, 3, 31))
	row, ok := st.Row(LineRevenueGross)
	require.True(t, ok)
	assertDecimal(t, "1200", row.Values["2024-01"], "january")
	assertDecimal(t, "0", row.Values["2024-02"], "february")
	assertDecimal(t, "1200", row.Total, "total")
	assert.Empty(t, st.Unmapped)
}

func TestBuildIncomeStatement_Deterministic(t *testing.T) {
	records, idx := statementFixture()
	a := BuildIncomeStatement(records, idx, date(2024, 1, 1), date(2024, 3, 31))
	b := BuildIncomeStatement(records, idx, date(2024, 1, 1), date(2024, 3, 31))
	assert.Equal(t, a, b)
}

func TestROIPercent(t *testing.T) {
	assert.True(t, ROIPercent(decimal.NewFromInt(10), decimal.Zero).IsZero())
	assertDecimal(t, "-25", ROIPercent(decimal.NewFromInt(-25), decimal.NewFromInt(100)))
}
