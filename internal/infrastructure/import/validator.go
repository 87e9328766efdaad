package csvimport

import (
	"github.com/erp/ledger/internal/domain/finance"
)

// FieldType represents the expected type of a column value
type FieldType string

const (
	TypeString FieldType = "string"
	TypeAmount FieldType = "amount"
	TypeDate   FieldType = "date"
	TypePeriod FieldType = "period"
)

// FieldRule defines validation rules for a column
type FieldRule struct {
	Column      Column
	Type        FieldType
	Required    bool
	NonNegative bool
}

// ledgerRules applies to both variants
var ledgerRules = []FieldRule{
	{Column: ColID, Type: TypeString, Required: true},
	{Column: ColCounterparty, Type: TypeString, Required: true},
	{Column: ColDueDate, Type: TypeDate, Required: true},
	{Column: ColBalance, Type: TypeAmount, Required: true, NonNegative: true},
	{Column: ColDocumentAmount, Type: TypeAmount},
	{Column: ColPaidAmount, Type: TypeAmount},
	{Column: ColIssueDate, Type: TypeDate},
	{Column: ColSettlementDate, Type: TypeDate},
	{Column: ColCompetency, Type: TypePeriod},
}

// FieldValidator checks rows against rules and collects row errors
type FieldValidator struct {
	rules   []FieldRule
	variant finance.Variant
	errors  *ErrorCollection
}

// NewFieldValidator creates a validator that reports into errs
func NewFieldValidator(variant finance.Variant, rules []FieldRule, errs *ErrorCollection) *FieldValidator {
	return &FieldValidator{rules: rules, variant: variant, errors: errs}
}

// ValidateRow returns false when any rule fails; every failure is recorded
func (v *FieldValidator) ValidateRow(row *Row) bool {
	valid := true
	for _, rule := range v.rules {
		value := row.Get(rule.Column)
		label := v.label(rule.Column)
		if value == "" {
			if rule.Required {
				v.errors.AddRequired(row.LineNumber, label)
				valid = false
			}
			continue
		}
		if !v.checkType(row.LineNumber, label, value, rule) {
			valid = false
		}
	}
	return valid
}

func (v *FieldValidator) checkType(line int, label, value string, rule FieldRule) bool {
	switch rule.Type {
	case TypeAmount:
		d, err := ParseAmount(value)
		if err != nil {
			v.errors.AddType(line, label, "an amount", value)
			return false
		}
		if rule.NonNegative && d.IsNegative() {
			v.errors.Add(RowError{Row: line, Column: label, Code: ErrCodeImportInvalidRange,
				Message: "value cannot be negative", Value: value})
			return false
		}
	case TypeDate:
		if _, err := ParseDate(value); err != nil {
			v.errors.AddType(line, label, "a date (YYYY-MM-DD or DD/MM/YYYY)", value)
			return false
		}
	case TypePeriod:
		if _, err := finance.ParsePeriod(value); err != nil {
			v.errors.AddType(line, label, "a period (YYYY-MM or MM/YYYY)", value)
			return false
		}
	}
	return true
}

// label names a column in error messages the way the variant's export does
func (v *FieldValidator) label(col Column) string {
	if col == ColCounterparty {
		return counterpartyLabel(v.variant)
	}
	return string(col)
}
