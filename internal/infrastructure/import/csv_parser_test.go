package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFID,Client,DueDate,Balance\nR-1,ACME,2024-01-05,10"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, "ID", parser.Headers()[0])
		assert.True(t, parser.HasColumn(ColID))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader(" \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("ID,Cliente\n\xff\xfe,1"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("semicolon delimiter is sniffed", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("Código;Cliente;Vencimento;Saldo\nR-1;ACME;05/01/2024;1.234,56"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "1.234,56", row.Get(ColBalance))
		assert.Equal(t, 2, row.LineNumber)
	})

	t.Run("explicit delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("ID|Client|DueDate|Balance\nR-1|ACME|2024-01-05|10"), WithDelimiter('|'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Empty(t, parser.MissingColumns(requiredColumns))
	})
}

func TestParseHeader(t *testing.T) {
	t.Run("aliases resolve and unknown headers are kept aside", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("Fornecedor,Data de Vencimento,Valor em Aberto,Centro de Custo,ID\nX,2024-01-01,1,Adm,P-1"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.True(t, parser.HasColumn(ColCounterparty))
		assert.True(t, parser.HasColumn(ColDueDate))
		assert.True(t, parser.HasColumn(ColBalance))
		assert.Equal(t, []string{"Centro de Custo"}, parser.UnknownHeaders())
	})

	t.Run("no recognizable column", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("name,age\nAlice,30"))
		require.NoError(t, err)
		assert.ErrorIs(t, parser.ParseHeader(), ErrMissingHeader)
	})

	t.Run("missing required columns", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("ID,Client\nR-1,ACME"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []Column{ColDueDate, ColBalance}, parser.MissingColumns(requiredColumns))
	})
}

func TestReadAllRows(t *testing.T) {
	csv := "ID,Client,DueDate,Balance\nR-1,ACME,2024-01-05,10\n,,,\nR-2,\"Beta, Ltd\",2024-01-06\n"
	parser, err := NewCSVParser(strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	errs := NewErrorCollection(10)
	rows, err := parser.ReadAllRows(errs)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 4, rows[1].LineNumber)
	assert.Equal(t, "Beta, Ltd", rows[1].Get(ColCounterparty))
	assert.Empty(t, rows[1].Get(ColBalance))
	assert.False(t, errs.HasErrors())

	_, err = parser.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestResolveColumn(t *testing.T) {
	cases := map[string]Column{
		"DueDate":             ColDueDate,
		"due_date":            ColDueDate,
		"Data Vencimento":     ColDueDate,
		"SUPPLIER":            ColCounterparty,
		"Nome do Cliente":     ColCounterparty,
		"Valor Pago":          ColPaidAmount,
		"Histórico":           ColHistory,
		"Competência":         ColCompetency,
		"Forma de Pagamento":  ColPaymentMethod,
		"Chave PIX":           ColPixKey,
		"Data de Liquidação":  ColSettlementDate,
		"Valor do Documento":  ColDocumentAmount,
		"Document-Number":     ColDocumentNumber,
		"SettlementDate":      ColSettlementDate,
		"Situação":            ColStatus,
		"outstanding balance": ColBalance,
	}
	for header, want := range cases {
		got, ok := ResolveColumn(header)
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}
	_, ok := ResolveColumn("Centro de Custo")
	assert.False(t, ok)
}
