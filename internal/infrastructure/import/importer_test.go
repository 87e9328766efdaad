package csvimport

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporter_ReadCSV(t *testing.T) {
	im := NewImporter()

	t.Run("portuguese payable export", func(t *testing.T) {
		csv := strings.Join([]string{
			"Código;Fornecedor;Emissão;Vencimento;Valor;Saldo;Situação;Categoria;Competência;Chave PIX",
			"P-1;Banco XP;01/01/2024;10/01/2024;1.500,00;1.234,56;Em aberto;Tarifa Bancária;12/2023;pix@banco",
			"P-2;Luz SA;;15/01/2024;;80,00;;;;",
		}, "\n")
		result, err := im.ReadCSV(strings.NewReader(csv), finance.VariantPayable)
		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.Equal(t, 2, result.TotalRows)

		p1 := result.Records[0]
		assert.Equal(t, "P-1", p1.ID)
		assert.Equal(t, finance.VariantPayable, p1.Variant)
		assert.Equal(t, "Banco XP", p1.CounterpartyName)
		assert.True(t, p1.FaceAmount.Equal(decimal.RequireFromString("1500")))
		assert.True(t, p1.OutstandingBalance.Equal(decimal.RequireFromString("1234.56")))
		assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), p1.DueDate)
		require.NotNil(t, p1.IssueDate)
		assert.Equal(t, "2023-12", p1.Period)
		assert.Equal(t, "pix@banco", p1.PixKey)

		p2 := result.Records[1]
		assert.Nil(t, p2.IssueDate)
		assert.True(t, p2.FaceAmount.Equal(p2.OutstandingBalance))
		assert.Equal(t, string(finance.StatusOpen), p2.Status)
		assert.Empty(t, p2.Period)
	})

	t.Run("row errors carry line numbers", func(t *testing.T) {
		csv := "ID,Client,DueDate,Balance\nR-1,ACME,2024-01-05,10\n,ACME,2024-02-30,-5\nR-3,,2024-01-05,abc\n"
		_, err := im.ReadCSV(strings.NewReader(csv), finance.VariantReceivable)
		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		assert.True(t, errors.Is(err, shared.ErrValidation))
		require.Equal(t, 5, ie.Total)

		assert.Equal(t, RowError{Row: 3, Column: "ID", Code: ErrCodeImportRequiredField, Message: "field 'ID' is required"}, ie.Rows[0])
		assert.Equal(t, 3, ie.Rows[1].Row)
		assert.Equal(t, string(ColDueDate), ie.Rows[1].Column)
		assert.Equal(t, ErrCodeImportInvalidRange, ie.Rows[2].Code)
		assert.Equal(t, "Client", ie.Rows[3].Column)
		assert.Equal(t, 4, ie.Rows[4].Row)
		assert.Contains(t, err.Error(), "row 4, column 'Balance'")
	})

	t.Run("missing required header", func(t *testing.T) {
		_, err := im.ReadCSV(strings.NewReader("ID,Fornecedor,Saldo\nP-1,X,1"), finance.VariantPayable)
		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		require.Len(t, ie.Rows, 1)
		assert.Equal(t, ErrCodeImportMissingHeader, ie.Rows[0].Code)
		assert.Equal(t, string(ColDueDate), ie.Rows[0].Column)
	})

	t.Run("row limit", func(t *testing.T) {
		small := NewImporter(WithMaxRows(1))
		_, err := small.ReadCSV(strings.NewReader("ID,Client,DueDate,Balance\nR-1,A,2024-01-01,1\nR-2,A,2024-01-01,1"), finance.VariantReceivable)
		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		assert.Equal(t, ErrCodeImportTooManyRows, ie.Rows[0].Code)
		assert.Equal(t, 3, ie.Rows[0].Row)
	})

	t.Run("size limit", func(t *testing.T) {
		small := NewImporter(WithMaxFileSize(16))
		_, err := small.ReadCSV(strings.NewReader("ID,Client,DueDate,Balance\n"), finance.VariantReceivable)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := im.ReadCSV(strings.NewReader("ID\n1"), finance.Variant("LOAN"))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestImporter_MapRows(t *testing.T) {
	im := NewImporter()

	t.Run("internal names, labels and numbers", func(t *testing.T) {
		result, err := im.MapRows(finance.VariantReceivable, []map[string]any{
			{"id": "R-1", "Client": "ACME", "due_date": "2024-03-10", "Balance": 100.5, "PaymentMethod": "boleto", "Observação": "x"},
			{"ID": "R-2", "cliente": "Beta", "vencimento": "10/03/2024", "saldo": "1.000,00", "status": "Pago", "data pagamento": "2024-03-09"},
		})
		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.True(t, result.Records[0].OutstandingBalance.Equal(decimal.RequireFromString("100.5")))
		assert.Equal(t, "boleto", result.Records[0].PaymentMethod)
		assert.True(t, result.Records[1].OutstandingBalance.Equal(decimal.NewFromInt(1000)))
		require.NotNil(t, result.Records[1].SettlementDate)
		assert.Equal(t, "Pago", result.Records[1].Status)
	})

	t.Run("errors use row positions", func(t *testing.T) {
		_, err := im.MapRows(finance.VariantPayable, []map[string]any{
			{"ID": "P-1", "Supplier": "X", "DueDate": "2024-01-01", "Balance": "1"},
			{"ID": "P-2", "Supplier": "X", "DueDate": "2024-01-01"},
		})
		var ie *ImportError
		require.True(t, errors.As(err, &ie))
		require.Len(t, ie.Rows, 1)
		assert.Equal(t, 2, ie.Rows[0].Row)
		assert.Equal(t, "Balance", ie.Rows[0].Column)
	})
}

func TestImporter_ReadJSON(t *testing.T) {
	result, err := NewImporter().ReadJSON(strings.NewReader(`[{"ID":"R-1","Client":"ACME","DueDate":"2024-01-05","Balance":12.34}]`), finance.VariantReceivable)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "12.34", result.Records[0].OutstandingBalance.String())

	_, err = NewImporter().ReadJSON(strings.NewReader(`{"ID":1}`), finance.VariantReceivable)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
