package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RowKind tells the presentation layer how to render a report row
type RowKind string

const (
	RowKindGroup    RowKind = "GROUP"
	RowKindSubgroup RowKind = "SUBGROUP"
	RowKindDerived  RowKind = "DERIVED"
	RowKindPercent  RowKind = "PERCENT"
)

// Report line keys, in presentation order
const (
	LineRevenueGross      = "REVENUE_GROSS"
	LineDeductions        = "DEDUCTIONS"
	LineNetRevenue        = "NET_REVENUE"
	LineCOGS              = "COGS"
	LineGrossProfit       = "GROSS_PROFIT"
	LineOperatingExpenses = "OPERATING_EXPENSES"
	LineNetResult         = "NET_RESULT"
	LineEBITDA            = "EBITDA"
	LineROI               = "ROI"
)

var lineLabels = map[string]string{
	LineRevenueGross:      "Gross Revenue",
	LineDeductions:        "Deductions",
	LineNetRevenue:        "Net Revenue",
	LineCOGS:              "Cost of Goods Sold",
	LineGrossProfit:       "Gross Profit",
	LineOperatingExpenses: "Operating Expenses",
	LineNetResult:         "Net Result",
	LineEBITDA:            "EBITDA",
	LineROI:               "ROI (%)",
}

var hundred = decimal.NewFromInt(100)

// ReportRow is one line of the income statement
type ReportRow struct {
	Key      string                     `json:"key"`
	Label    string                     `json:"label"`
	Kind     RowKind                    `json:"kind"`
	Values   map[string]decimal.Decimal `json:"values"`
	Total    decimal.Decimal            `json:"total"`
	SubItems []ReportRow                `json:"sub_items,omitempty"`
}

// IncomeStatement is the DRE for a date range
type IncomeStatement struct {
	Start    time.Time   `json:"start"`
	End      time.Time   `json:"end"`
	Periods  []string    `json:"periods"`
	Rows     []ReportRow `json:"rows"`
	Unmapped []string    `json:"unmapped"`
}

// Row returns the top-level row with the given key
func (s *IncomeStatement) Row(key string) (ReportRow, bool) {
	for _, r := range s.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return ReportRow{}, false
}

// periodAmounts accumulates values per competency period
type periodAmounts map[string]decimal.Decimal

func (p periodAmounts) add(period string, v decimal.Decimal) {
	p[period] = p[period].Add(v)
}

type statementBuilder struct {
	periods   []string
	groups    map[CategoryGroup]periodAmounts
	subgroups map[CategoryGroup]map[string]periodAmounts
}

// BuildIncomeStatement aggregates records of both variants into a DRE.
// Records outside [start, end] by competency period and CANCELED records are
// ignored; records without a mapping are skipped and their labels reported.
// A negotiated original keeps its face amount in its own period, so the
// installments generated for it are left out.
func BuildIncomeStatement(records []LedgerRecord, idx MappingIndex, start, end time.Time) *IncomeStatement {
	b := &statementBuilder{
		periods:   PeriodsBetween(start, end),
		groups:    make(map[CategoryGroup]periodAmounts),
		subgroups: make(map[CategoryGroup]map[string]periodAmounts),
	}
	first, last := PeriodOf(start), PeriodOf(end)

	var included []LedgerRecord
	for _, r := range records {
		if r.Period < first || r.Period > last {
			continue
		}
		if !r.InStatement() {
			continue
		}
		included = append(included, r)
		m, ok := idx.Lookup(CategoryLabelOf(r))
		if !ok {
			continue
		}
		b.add(r.Period, m.Group, m.Subgroup, r.FaceAmount.Abs())
	}

	return &IncomeStatement{
		Start:    start,
		End:      end,
		Periods:  b.periods,
		Rows:     b.rows(),
		Unmapped: FindUnmapped(included, idx),
	}
}

func (b *statementBuilder) add(period string, group CategoryGroup, subgroup string, amount decimal.Decimal) {
	if b.groups[group] == nil {
		b.groups[group] = make(periodAmounts)
		b.subgroups[group] = make(map[string]periodAmounts)
	}
	b.groups[group].add(period, amount)
	if b.subgroups[group][subgroup] == nil {
		b.subgroups[group][subgroup] = make(periodAmounts)
	}
	b.subgroups[group][subgroup].add(period, amount)
}

// series returns a value per period (zero filled) and the sum across periods
func (b *statementBuilder) series(src periodAmounts) (map[string]decimal.Decimal, decimal.Decimal) {
	values := make(map[string]decimal.Decimal, len(b.periods))
	total := decimal.Zero
	for _, p := range b.periods {
		v := src[p]
		values[p] = v
		total = total.Add(v)
	}
	return values, total
}

func (b *statementBuilder) groupRow(group CategoryGroup) ReportRow {
	values, total := b.series(b.groups[group])
	row := ReportRow{
		Key:    string(group),
		Label:  lineLabels[string(group)],
		Kind:   RowKindGroup,
		Values: values,
		Total:  total,
	}
	for name, amounts := range b.subgroups[group] {
		v, t := b.series(amounts)
		row.SubItems = append(row.SubItems, ReportRow{
			Key:    string(group) + "/" + name,
			Label:  name,
			Kind:   RowKindSubgroup,
			Values: v,
			Total:  t,
		})
	}
	sort.SliceStable(row.SubItems, func(i, j int) bool {
		a, c := row.SubItems[i], row.SubItems[j]
		if !a.Total.Equal(c.Total) {
			return a.Total.GreaterThan(c.Total)
		}
		return a.Label < c.Label
	})
	return row
}

// financialExpenses sums the Financial subgroup of operating expenses
func (b *statementBuilder) financialExpenses() periodAmounts {
	out := make(periodAmounts)
	for name, amounts := range b.subgroups[GroupOperatingExpenses] {
		if !strings.EqualFold(name, SubgroupFinancial) {
			continue
		}
		for p, v := range amounts {
			out.add(p, v)
		}
	}
	return out
}

func derivedRow(key string, kind RowKind, periods []string, fn func(period string) decimal.Decimal, total decimal.Decimal) ReportRow {
	values := make(map[string]decimal.Decimal, len(periods))
	for _, p := range periods {
		values[p] = fn(p)
	}
	return ReportRow{Key: key, Label: lineLabels[key], Kind: kind, Values: values, Total: total}
}

// ROIPercent returns netResult / netRevenue * 100 rounded to 2 places, or 0
// when net revenue is zero.
func ROIPercent(netResult, netRevenue decimal.Decimal) decimal.Decimal {
	if netRevenue.IsZero() {
		return decimal.Zero
	}
	return netResult.Div(netRevenue).Mul(hundred).Round(2)
}

func (b *statementBuilder) rows() []ReportRow {
	revenue := b.groupRow(GroupRevenueGross)
	deductions := b.groupRow(GroupDeductions)
	cogs := b.groupRow(GroupCOGS)
	opex := b.groupRow(GroupOperatingExpenses)
	financial := b.financialExpenses()
	_, financialTotal := b.series(financial)

	netRevenue := func(p string) decimal.Decimal { return revenue.Values[p].Sub(deductions.Values[p]) }
	grossProfit := func(p string) decimal.Decimal { return netRevenue(p).Sub(cogs.Values[p]) }
	netResult := func(p string) decimal.Decimal { return grossProfit(p).Sub(opex.Values[p]) }

	netRevenueTotal := revenue.Total.Sub(deductions.Total)
	grossProfitTotal := netRevenueTotal.Sub(cogs.Total)
	netResultTotal := grossProfitTotal.Sub(opex.Total)

	return []ReportRow{
		revenue,
		deductions,
		derivedRow(LineNetRevenue, RowKindDerived, b.periods, netRevenue, netRevenueTotal),
		cogs,
		derivedRow(LineGrossProfit, RowKindDerived, b.periods, grossProfit, grossProfitTotal),
		opex,
		derivedRow(LineNetResult, RowKindDerived, b.periods, netResult, netResultTotal),
		derivedRow(LineEBITDA, RowKindDerived, b.periods, func(p string) decimal.Decimal {
			return netResult(p).Add(financial[p])
		}, netResultTotal.Add(financialTotal)),
		derivedRow(LineROI, RowKindPercent, b.periods, func(p string) decimal.Decimal {
			return ROIPercent(netResult(p), netRevenue(p))
		}, ROIPercent(netResultTotal, netRevenueTotal)),
	}
}
