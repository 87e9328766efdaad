package csvimport

import (
	"strings"
	"unicode"

	"github.com/erp/ledger/internal/domain/finance"
)

// Column is the canonical name of an importable ledger field
type Column string

const (
	ColID             Column = "ID"
	ColCounterparty   Column = "Counterparty"
	ColIssueDate      Column = "IssueDate"
	ColDueDate        Column = "DueDate"
	ColSettlementDate Column = "SettlementDate"
	ColDocumentAmount Column = "DocumentAmount"
	ColBalance        Column = "Balance"
	ColStatus         Column = "Status"
	ColDocumentNumber Column = "DocumentNumber"
	ColCategory       Column = "Category"
	ColHistory        Column = "History"
	ColPaidAmount     Column = "PaidAmount"
	ColCompetency     Column = "Competency"
	ColPaymentMethod  Column = "PaymentMethod"
	ColPixKey         Column = "PixKey"
)

// columnAliases lists the accepted headers per column: the internal field
// name, the English label and the Portuguese export headers. Keys are
// compared after headerKey folding.
var columnAliases = map[Column][]string{
	ColID:             {"id", "record id", "title id", "codigo", "cod", "id titulo", "numero titulo"},
	ColCounterparty:   {"counterparty", "counterparty name", "client", "client name", "customer", "supplier", "supplier name", "vendor", "cliente", "nome cliente", "fornecedor", "nome fornecedor", "sacado", "favorecido"},
	ColIssueDate:      {"issuedate", "issue date", "issued", "emissao", "data emissao", "dt emissao"},
	ColDueDate:        {"duedate", "due date", "due", "vencimento", "data vencimento", "dt vencimento"},
	ColSettlementDate: {"settlementdate", "settlement date", "payment date", "paid on", "liquidacao", "data liquidacao", "data pagamento", "dt pagamento", "baixa", "data baixa"},
	ColDocumentAmount: {"documentamount", "document amount", "face amount", "amount", "valor", "valor documento", "valor titulo", "valor original"},
	ColBalance:        {"balance", "outstanding balance", "open balance", "saldo", "saldo devedor", "valor em aberto", "valor aberto"},
	ColStatus:         {"status", "situacao", "estado"},
	ColDocumentNumber: {"documentnumber", "document number", "document", "invoice", "nota fiscal", "nf", "documento", "numero documento"},
	ColCategory:       {"category", "categoria", "plano de contas", "conta"},
	ColHistory:        {"history", "description", "memo", "historico", "descricao", "observacao"},
	ColPaidAmount:     {"paidamount", "paid amount", "paid", "valor pago", "pago"},
	ColCompetency:     {"competency", "period", "competencia", "mes competencia"},
	ColPaymentMethod:  {"paymentmethod", "payment method", "method", "forma pagamento", "forma de pagamento", "meio pagamento"},
	ColPixKey:         {"pixkey", "pix key", "pix", "chave pix"},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]Column {
	idx := make(map[string]Column)
	for col, aliases := range columnAliases {
		idx[headerKey(string(col))] = col
		for _, a := range aliases {
			idx[headerKey(a)] = col
		}
	}
	return idx
}

// headerKey folds case and diacritics and turns punctuation into single
// spaces, so "Data de Vencimento", "data_vencimento" and "DueDate" compare
// on their letters.
func headerKey(h string) string {
	folded := finance.FoldText(h)
	var b strings.Builder
	space := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	key := b.String()
	// "data de vencimento" and "valor do titulo" match their short forms
	for _, filler := range []string{" de ", " do ", " da ", " of "} {
		key = strings.ReplaceAll(key, filler, " ")
	}
	return key
}

// ResolveColumn maps a header to its canonical column
func ResolveColumn(header string) (Column, bool) {
	col, ok := aliasIndex[headerKey(header)]
	if !ok {
		// internal field names written as one word ("duedate", "DueDate")
		col, ok = aliasIndex[strings.ReplaceAll(headerKey(header), " ", "")]
	}
	return col, ok
}

// requiredColumns must resolve from the header before any row is read
var requiredColumns = []Column{ColID, ColCounterparty, ColDueDate, ColBalance}

// counterpartyLabel names the counterparty column the way the variant's export does
func counterpartyLabel(v finance.Variant) string {
	if v == finance.VariantPayable {
		return "Supplier"
	}
	return "Client"
}
