package csvimport

import (
	"errors"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/shopspring/decimal"
)

var (
	errNotAmount = errors.New("not an amount")
	errNotDate   = errors.New("not a date")
)

// dateLayouts are tried in order; day-first layouts win over month-first
var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"02/01/06",
	"02-01-2006",
	"02.01.2006",
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ParseDate reads a calendar date in ISO or day-first form
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errNotDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return finance.DateOf(t), nil
		}
	}
	return time.Time{}, errNotDate
}

// ParseAmount reads a money value written as "1.234,56", "1,234.56",
// "1234.56", "R$ 1.234,56" or "(10,00)". With a single separator, a comma
// is decimal and a lone dot is decimal; repeated separators group thousands.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("R$", "", "$", "", " ", "", "\u00a0", "").Replace(s)
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}
	if s == "" {
		return decimal.Zero, errNotAmount
	}

	dots, commas := strings.Count(s, "."), strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errNotAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}
