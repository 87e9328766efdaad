package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// CSVParser reads a ledger export whose headers are resolved to canonical
// columns. Unknown headers are ignored.
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	columns    map[Column]int
	headers    []string
	unknown    []string
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter fixes the field delimiter. Without it the delimiter is
// sniffed from the header line (';' or ',').
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// NewCSVParser creates a new CSV parser from a reader
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		lazyQuotes: true,
		columns:    make(map[Column]int),
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	bom, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	head, err := validateUTF8(parser.bufReader)
	if err != nil {
		return nil, err
	}
	if parser.delimiter == 0 {
		parser.delimiter = sniffDelimiter(head)
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1
	return parser, nil
}

// validateUTF8 checks the leading block of the input and returns it
func validateUTF8(r *bufio.Reader) ([]byte, error) {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, ErrEmptyFile
	}
	// a multi-byte rune may straddle the peek boundary
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax && !utf8.Valid(content); i++ {
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return nil, ErrInvalidEncoding
	}
	return content, nil
}

// sniffDelimiter picks ';' when the header line has more semicolons than
// commas, which is how spreadsheet exports with decimal commas are written.
func sniffDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	if bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{','}) {
		return '\t'
	}
	return ','
}

// ParseHeader reads the header row and resolves it to canonical columns.
// The first occurrence of a column wins.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	p.currentRow = 1

	p.headers = make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		p.headers[i] = h
		col, ok := ResolveColumn(h)
		if !ok {
			if h != "" {
				p.unknown = append(p.unknown, h)
			}
			continue
		}
		if _, seen := p.columns[col]; !seen {
			p.columns[col] = i
		}
	}
	if len(p.columns) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the raw header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// UnknownHeaders returns the headers that did not resolve to a column
func (p *CSVParser) UnknownHeaders() []string {
	return p.unknown
}

// HasColumn checks if the header resolved the column
func (p *CSVParser) HasColumn(col Column) bool {
	_, ok := p.columns[col]
	return ok
}

// MissingColumns returns the required columns absent from the header
func (p *CSVParser) MissingColumns(required []Column) []Column {
	var missing []Column
	for _, c := range required {
		if !p.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Row is one data line keyed by canonical column
type Row struct {
	LineNumber int
	Data       map[Column]string
}

// Get returns the value of a column, or "" when absent
func (r *Row) Get(col Column) string {
	return r.Data[col]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. It returns io.EOF after the last row.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, RowError{Row: p.currentRow, Code: ErrCodeImportMalformedRow, Message: err.Error()}
	}

	row := &Row{LineNumber: p.currentRow, Data: make(map[Column]string, len(p.columns))}
	for col, i := range p.columns {
		if i < len(record) {
			row.Data[col] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}

// ReadAllRows reads all remaining non-empty rows. Malformed lines are
// collected into errs and skipped.
func (p *CSVParser) ReadAllRows(errs *ErrorCollection) ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if rowErr, ok := err.(RowError); ok {
			errs.Add(rowErr)
			continue
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// CurrentRow returns the line number of the last row read (1-indexed)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}
