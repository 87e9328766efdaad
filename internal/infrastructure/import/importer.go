package csvimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
)

const (
	DefaultMaxFileSize = 10 << 20
	DefaultMaxRows     = 50000
	DefaultMaxErrors   = 100
)

// Result is a batch of imported records ready for staging
type Result struct {
	Variant        finance.Variant
	Records        []finance.LedgerRecord
	TotalRows      int
	UnknownHeaders []string
}

// Importer turns CSV files or JSON rows into ledger records. Header and key
// aliases are resolved here, so nothing downstream sees export column names.
type Importer struct {
	maxFileSize int64
	maxRows     int
	maxErrors   int
}

// Option configures an Importer
type Option func(*Importer)

// WithMaxFileSize limits the bytes read from a file
func WithMaxFileSize(size int64) Option {
	return func(i *Importer) {
		if size > 0 {
			i.maxFileSize = size
		}
	}
}

// WithMaxRows limits the data rows per batch
func WithMaxRows(rows int) Option {
	return func(i *Importer) {
		if rows > 0 {
			i.maxRows = rows
		}
	}
}

// WithMaxErrors limits the row errors reported
func WithMaxErrors(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.maxErrors = n
		}
	}
}

// NewImporter creates an Importer
func NewImporter(opts ...Option) *Importer {
	i := &Importer{
		maxFileSize: DefaultMaxFileSize,
		maxRows:     DefaultMaxRows,
		maxErrors:   DefaultMaxErrors,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ReadCSV parses a receivable or payable export. Any invalid row rejects
// the batch with an *ImportError listing every offending line.
func (im *Importer) ReadCSV(r io.Reader, variant finance.Variant, opts ...ParserOption) (*Result, error) {
	if !variant.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", variant))
	}
	data, err := io.ReadAll(io.LimitReader(r, im.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	if int64(len(data)) > im.maxFileSize {
		return nil, ErrFileTooLarge
	}

	parser, err := NewCSVParser(bytes.NewReader(data), opts...)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}

	errs := NewErrorCollection(im.maxErrors)
	validator := NewFieldValidator(variant, ledgerRules, errs)
	if missing := parser.MissingColumns(requiredColumns); len(missing) > 0 {
		for _, col := range missing {
			errs.Add(RowError{Row: 1, Column: validator.label(col), Code: ErrCodeImportMissingHeader,
				Message: "required column is missing from the header"})
		}
		return nil, errs.Err()
	}

	rows, err := parser.ReadAllRows(errs)
	if err != nil {
		return nil, err
	}
	if len(rows) > im.maxRows {
		errs.Add(RowError{Row: rows[im.maxRows].LineNumber, Code: ErrCodeImportTooManyRows,
			Message: fmt.Sprintf("batch exceeds %d rows", im.maxRows)})
		return nil, errs.Err()
	}

	result := &Result{Variant: variant, TotalRows: len(rows), UnknownHeaders: parser.UnknownHeaders()}
	for _, row := range rows {
		if !validator.ValidateRow(row) {
			continue
		}
		result.Records = append(result.Records, toRecord(variant, row))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReadJSON parses a JSON array of row objects
func (im *Importer) ReadJSON(r io.Reader, variant finance.Variant) (*Result, error) {
	dec := json.NewDecoder(io.LimitReader(r, im.maxFileSize))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, shared.NewValidationError(fmt.Sprintf("invalid JSON rows: %v", err))
	}
	return im.MapRows(variant, rows)
}

// MapRows converts decoded row objects. Keys may be internal field names,
// English labels or Portuguese headers; Row numbers in errors are 1-based
// positions in rows.
func (im *Importer) MapRows(variant finance.Variant, rows []map[string]any) (*Result, error) {
	if !variant.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", variant))
	}
	errs := NewErrorCollection(im.maxErrors)
	if len(rows) > im.maxRows {
		errs.Add(RowError{Row: im.maxRows + 1, Code: ErrCodeImportTooManyRows,
			Message: fmt.Sprintf("batch exceeds %d rows", im.maxRows)})
		return nil, errs.Err()
	}

	validator := NewFieldValidator(variant, ledgerRules, errs)
	result := &Result{Variant: variant, TotalRows: len(rows)}
	unknown := make(map[string]bool)
	for i, obj := range rows {
		row := &Row{LineNumber: i + 1, Data: make(map[Column]string, len(obj))}
		for key, raw := range obj {
			col, ok := ResolveColumn(key)
			if !ok {
				if !unknown[key] {
					unknown[key] = true
					result.UnknownHeaders = append(result.UnknownHeaders, key)
				}
				continue
			}
			if _, seen := row.Data[col]; !seen || row.Data[col] == "" {
				row.Data[col] = stringValue(raw)
			}
		}
		if !validator.ValidateRow(row) {
			continue
		}
		result.Records = append(result.Records, toRecord(variant, row))
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// toRecord builds a record from a validated row. A missing document amount
// defaults to the balance; a missing status defaults to OPEN.
func toRecord(variant finance.Variant, row *Row) finance.LedgerRecord {
	due, _ := ParseDate(row.Get(ColDueDate))
	balance, _ := ParseAmount(row.Get(ColBalance))
	rec := finance.LedgerRecord{
		ID:                 row.Get(ColID),
		Variant:            variant,
		CounterpartyName:   row.Get(ColCounterparty),
		DueDate:            due,
		OutstandingBalance: balance,
		FaceAmount:         balance,
		Status:             row.Get(ColStatus),
		Category:           row.Get(ColCategory),
		PaymentMethod:      row.Get(ColPaymentMethod),
		DocumentNumber:     row.Get(ColDocumentNumber),
		History:            row.Get(ColHistory),
		PixKey:             row.Get(ColPixKey),
	}
	if rec.Status == "" {
		rec.Status = string(finance.StatusOpen)
	}
	if v := row.Get(ColDocumentAmount); v != "" {
		rec.FaceAmount, _ = ParseAmount(v)
	}
	if v := row.Get(ColPaidAmount); v != "" {
		rec.PaidAmount, _ = ParseAmount(v)
	}
	if v := row.Get(ColIssueDate); v != "" {
		d, _ := ParseDate(v)
		rec.IssueDate = &d
	}
	if v := row.Get(ColSettlementDate); v != "" {
		d, _ := ParseDate(v)
		rec.SettlementDate = &d
	}
	if v := row.Get(ColCompetency); v != "" {
		p, _ := finance.ParsePeriod(v)
		rec.Period = finance.PeriodOf(p)
	}
	return rec
}
