package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// CategoryGroup is a top-level line of the income statement taxonomy
type CategoryGroup string

const (
	GroupRevenueGross      CategoryGroup = "REVENUE_GROSS"
	GroupDeductions        CategoryGroup = "DEDUCTIONS"
	GroupCOGS              CategoryGroup = "COGS"
	GroupOperatingExpenses CategoryGroup = "OPERATING_EXPENSES"
)

// IsValid checks if the group is part of the taxonomy
func (g CategoryGroup) IsValid() bool {
	switch g {
	case GroupRevenueGross, GroupDeductions, GroupCOGS, GroupOperatingExpenses:
		return true
	}
	return false
}

// Subgroups produced by the suggestion heuristic
const (
	SubgroupSales          = "Sales"
	SubgroupReturns        = "Returns"
	SubgroupTaxes          = "Taxes"
	SubgroupPurchases      = "Purchases"
	SubgroupFinancial      = "Financial"
	SubgroupAdministrative = "Administrative"
)

// UncategorizedLabel stands in for records that carry no category
const UncategorizedLabel = "UNCATEGORIZED"

// CategoryMapping translates a free-text category label into the taxonomy
type CategoryMapping struct {
	Label     string        `json:"label"`
	Group     CategoryGroup `json:"group"`
	Subgroup  string        `json:"subgroup"`
	Verified  bool          `json:"verified"`
	UpdatedBy string        `json:"updated_by,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewCategoryMapping creates a verified mapping for label
func NewCategoryMapping(label string, group CategoryGroup, subgroup string, actor shared.Actor) (*CategoryMapping, error) {
	label = strings.TrimSpace(label)
	subgroup = strings.TrimSpace(subgroup)
	if label == "" {
		return nil, shared.NewValidationError("category label is required")
	}
	if !group.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown category group %q", group))
	}
	if subgroup == "" {
		return nil, shared.NewValidationError("subgroup is required")
	}
	now := time.Now()
	return &CategoryMapping{
		Label:     label,
		Group:     group,
		Subgroup:  subgroup,
		Verified:  true,
		UpdatedBy: actor.OrSystem().Name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Suggestion is the heuristic classification of a label
type Suggestion struct {
	Group    CategoryGroup `json:"group"`
	Subgroup string        `json:"subgroup"`
	Keyword  string        `json:"keyword,omitempty"`
}

type categoryRule struct {
	keywords []string
	group    CategoryGroup
	subgroup string
}

// categoryRules are evaluated in order; the first keyword hit wins.
var categoryRules = []categoryRule{
	{[]string{"receita", "revenue", "venda", "pedido", "order", "frete", "freight"}, GroupRevenueGross, SubgroupSales},
	{[]string{"devolu", "return", "cancel", "estorno", "refund", "reembolso"}, GroupDeductions, SubgroupReturns},
	{[]string{"imposto", "tribut", "tax", "simples", "icms"}, GroupDeductions, SubgroupTaxes},
	{[]string{"import", "aduan", "customs", "compra", "purchase", "fornecedor", "supplier", "mercadoria"}, GroupCOGS, SubgroupPurchases},
	{[]string{"comiss", "commission", "marketing", "ads", "anuncio", "publicidade"}, GroupOperatingExpenses, SubgroupSales},
	{[]string{"tarif", "fee", "juros", "interest", "banc", "bank", "iof"}, GroupOperatingExpenses, SubgroupFinancial},
}

// SuggestCategory classifies a label with the keyword heuristic. Labels that
// match no rule fall back to OPERATING_EXPENSES/Administrative.
func SuggestCategory(label string) Suggestion {
	folded := FoldText(label)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(folded, kw) {
				return Suggestion{Group: rule.group, Subgroup: rule.subgroup, Keyword: kw}
			}
		}
	}
	return Suggestion{Group: GroupOperatingExpenses, Subgroup: SubgroupAdministrative}
}

// CategoryLabelOf returns the label used to resolve a record's category
func CategoryLabelOf(r LedgerRecord) string {
	label := strings.TrimSpace(r.Category)
	if label == "" {
		return UncategorizedLabel
	}
	return label
}

// MappingIndex is a lookup table of mappings keyed by label
type MappingIndex map[string]CategoryMapping

// NewMappingIndex indexes mappings by trimmed label
func NewMappingIndex(mappings []CategoryMapping) MappingIndex {
	idx := make(MappingIndex, len(mappings))
	for _, m := range mappings {
		idx[strings.TrimSpace(m.Label)] = m
	}
	return idx
}

// Lookup resolves a label
func (idx MappingIndex) Lookup(label string) (CategoryMapping, bool) {
	m, ok := idx[strings.TrimSpace(label)]
	return m, ok
}

// FindUnmapped returns the sorted distinct labels of records that have no mapping
func FindUnmapped(records []LedgerRecord, idx MappingIndex) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		label := CategoryLabelOf(r)
		if _, ok := idx.Lookup(label); ok {
			continue
		}
		seen[label] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}
