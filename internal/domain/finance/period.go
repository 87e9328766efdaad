package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// PeriodLayout is the layout of competency periods ("2024-01")
const PeriodLayout = "2006-01"

// PeriodOf returns the competency period of t
func PeriodOf(t time.Time) string {
	return t.Format(PeriodLayout)
}

// ParsePeriod accepts "2024-01", "01/2024" and "2024/01"
func ParsePeriod(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{PeriodLayout, "01/2006", "2006/01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.NewValidationError(fmt.Sprintf("invalid competency period %q", s))
}

// PeriodsBetween lists every month from start to end inclusive
func PeriodsBetween(start, end time.Time) []string {
	from := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	var periods []string
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		periods = append(periods, PeriodOf(m))
	}
	return periods
}

// PeriodType selects the width of a report window
type PeriodType string

const (
	PeriodMonth    PeriodType = "MONTH"
	PeriodQuarter  PeriodType = "QUARTER"
	PeriodSemester PeriodType = "SEMESTER"
	PeriodYear     PeriodType = "YEAR"
)

func (p PeriodType) months() int {
	switch p {
	case PeriodMonth:
		return 1
	case PeriodQuarter:
		return 3
	case PeriodSemester:
		return 6
	case PeriodYear:
		return 12
	}
	return 0
}

// ResolvePeriod turns a period selector into a concrete [start, end] date range.
// index is 1-based (month 1-12, quarter 1-4, semester 1-2) and ignored for YEAR.
func ResolvePeriod(pt PeriodType, year, index int) (time.Time, time.Time, error) {
	width := PeriodType(strings.ToUpper(string(pt))).months()
	if width == 0 {
		return time.Time{}, time.Time{}, shared.NewValidationError(fmt.Sprintf("unknown period type %q", pt))
	}
	if year < 1900 || year > 9999 {
		return time.Time{}, time.Time{}, shared.NewValidationError(fmt.Sprintf("invalid year %d", year))
	}
	if width == 12 {
		index = 1
	}
	if index < 1 || index > 12/width {
		return time.Time{}, time.Time{}, shared.NewValidationError(fmt.Sprintf("invalid %s index %d", strings.ToLower(string(pt)), index))
	}
	start := time.Date(year, time.Month((index-1)*width+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, width, -1)
	return start, end, nil
}
