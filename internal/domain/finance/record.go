package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Variant distinguishes the two ledger record families
type Variant string

const (
	VariantReceivable Variant = "RECEIVABLE"
	VariantPayable    Variant = "PAYABLE"
)

// IsValid checks if the variant is known
func (v Variant) IsValid() bool {
	return v == VariantReceivable || v == VariantPayable
}

// String returns the string representation
func (v Variant) String() string {
	return string(v)
}

// ParseVariant accepts the canonical names and the usual short forms
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "receivable", "receivables", "ar":
		return VariantReceivable, nil
	case "payable", "payables", "ap":
		return VariantPayable, nil
	}
	return "", shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", s))
}

// RecordStatus is the normalized form of a record's free-text status label
type RecordStatus string

const (
	StatusOpen       RecordStatus = "OPEN"
	StatusOverdue    RecordStatus = "OVERDUE"
	StatusPaid       RecordStatus = "PAID"
	StatusCanceled   RecordStatus = "CANCELED"
	StatusNegotiated RecordStatus = "NEGOTIATED"
	StatusAtNotary   RecordStatus = "AT_NOTARY"
)

// statusSynonyms maps folded labels to normalized statuses
var statusSynonyms = map[string]RecordStatus{
	"open":            StatusOpen,
	"aberto":          StatusOpen,
	"em aberto":       StatusOpen,
	"a vencer":        StatusOpen,
	"pendente":        StatusOpen,
	"overdue":         StatusOverdue,
	"vencido":         StatusOverdue,
	"atrasado":        StatusOverdue,
	"em atraso":       StatusOverdue,
	"paid":            StatusPaid,
	"pago":            StatusPaid,
	"liquidado":       StatusPaid,
	"quitado":         StatusPaid,
	"recebido":        StatusPaid,
	"canceled":        StatusCanceled,
	"cancelled":       StatusCanceled,
	"cancelado":       StatusCanceled,
	"negotiated":      StatusNegotiated,
	"negociado":       StatusNegotiated,
	"em acordo":       StatusNegotiated,
	"at_notary":       StatusAtNotary,
	"at notary":       StatusAtNotary,
	"cartorio":        StatusAtNotary,
	"em cartorio":     StatusAtNotary,
	"enviar cartorio": StatusAtNotary,
}

// NormalizeStatus folds a free-text status label into its normalized form.
// Unknown labels are returned upper-cased with diacritics removed.
func NormalizeStatus(label string) RecordStatus {
	folded := FoldText(label)
	if s, ok := statusSynonyms[folded]; ok {
		return s
	}
	return RecordStatus(strings.ToUpper(strings.ReplaceAll(folded, " ", "_")))
}

// IsSettled reports whether the status closes the record
func (s RecordStatus) IsSettled() bool {
	return s == StatusPaid || s == StatusCanceled
}

// CollectionStatus is the internal collection tag, independent of Status
type CollectionStatus string

const (
	CollectionCollectable        CollectionStatus = "COLLECTABLE"
	CollectionBlockedByAgreement CollectionStatus = "BLOCKED_BY_AGREEMENT"
	CollectionBlockedByNotary    CollectionStatus = "BLOCKED_BY_NOTARY"
	CollectionAtNotary           CollectionStatus = "AT_NOTARY"
	CollectionNonCollectable     CollectionStatus = "NON_COLLECTABLE"
)

// IsValid checks if the collection status is known
func (c CollectionStatus) IsValid() bool {
	switch c {
	case CollectionCollectable, CollectionBlockedByAgreement, CollectionBlockedByNotary,
		CollectionAtNotary, CollectionNonCollectable:
		return true
	}
	return false
}

const (
	// CategoryCommercialAgreement is the category of generated settlement installments
	CategoryCommercialAgreement = "COMMERCIAL_AGREEMENT"
	// PaymentMethodBoleto marks bank-slip receivables that are subject to collection
	PaymentMethodBoleto = "BOLETO"
)

// LedgerRecord is the canonical shape of a receivable or payable record.
// Variant-specific column names are resolved before a record reaches this type.
type LedgerRecord struct {
	ID                 string           `json:"id"`
	Variant            Variant          `json:"variant"`
	CounterpartyName   string           `json:"counterparty_name"`
	IssueDate          *time.Time       `json:"issue_date,omitempty"`
	DueDate            time.Time        `json:"due_date"`
	SettlementDate     *time.Time       `json:"settlement_date,omitempty"`
	FaceAmount         decimal.Decimal  `json:"face_amount"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	PaidAmount         decimal.Decimal  `json:"paid_amount"`
	Status             string           `json:"status"`
	Category           string           `json:"category"`
	PaymentMethod      string           `json:"payment_method"`
	DocumentNumber     string           `json:"document_number,omitempty"`
	History            string           `json:"history,omitempty"`
	PixKey             string           `json:"pix_key,omitempty"`
	Period             string           `json:"period"`
	CollectionStatus   CollectionStatus `json:"collection_status"`
	SettlementRef      *uuid.UUID       `json:"settlement_ref,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Normalize trims identifiers, derives the competency period and fills the
// collection status default. It rejects records that break ledger invariants.
func (r *LedgerRecord) Normalize() error {
	r.ID = strings.TrimSpace(r.ID)
	r.CounterpartyName = strings.TrimSpace(r.CounterpartyName)
	r.Category = strings.TrimSpace(r.Category)
	r.PaymentMethod = strings.ToUpper(strings.TrimSpace(r.PaymentMethod))
	r.Status = strings.TrimSpace(r.Status)

	if r.ID == "" {
		return shared.NewValidationError("record id is required")
	}
	if !r.Variant.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("record %s: unknown variant %q", r.ID, r.Variant))
	}
	if r.DueDate.IsZero() {
		return shared.NewValidationError(fmt.Sprintf("record %s: due date is required", r.ID))
	}
	if r.OutstandingBalance.IsNegative() {
		return shared.NewValidationError(fmt.Sprintf("record %s: outstanding balance cannot be negative", r.ID))
	}
	r.DueDate = DateOf(r.DueDate)
	if r.Period == "" {
		r.Period = PeriodOf(r.DueDate)
	}
	if r.CollectionStatus == "" {
		r.CollectionStatus = CollectionCollectable
	}
	return nil
}

// ClearInternal resets the columns owned by the settlement lifecycle.
// Imported records never carry them.
func (r *LedgerRecord) ClearInternal() {
	r.SettlementRef = nil
	r.CollectionStatus = CollectionCollectable
}

// NormalizedStatus returns the normalized status of the record
func (r *LedgerRecord) NormalizedStatus() RecordStatus {
	return NormalizeStatus(r.Status)
}

// IsLocked reports whether the record is referenced by a settlement
func (r *LedgerRecord) IsLocked() bool {
	return r.SettlementRef != nil
}

// IsAtNotary reports whether the record has been escalated to the notary
func (r *LedgerRecord) IsAtNotary() bool {
	return r.CollectionStatus == CollectionAtNotary || r.NormalizedStatus() == StatusAtNotary
}

// IsInstallment reports whether the record was generated by a settlement
func (r *LedgerRecord) IsInstallment() bool {
	return r.SettlementRef != nil && r.Category == CategoryCommercialAgreement
}

// InStatement reports whether the record counts in the income statement.
// Installments restate revenue already carried by the negotiated originals.
func (r *LedgerRecord) InStatement() bool {
	return r.NormalizedStatus() != StatusCanceled && !r.IsInstallment()
}

// IsPastDue reports whether the due date is strictly before today
func (r *LedgerRecord) IsPastDue(today time.Time) bool {
	return DateOf(r.DueDate).Before(DateOf(today))
}

// DaysOverdue returns the whole calendar days between due date and today, floored at 0
func (r *LedgerRecord) DaysOverdue(today time.Time) int {
	return DaysBetween(r.DueDate, today)
}

// Liquidate marks the record as paid. It returns false when the record was
// already paid.
func (r *LedgerRecord) Liquidate(date time.Time, method string) bool {
	if r.NormalizedStatus() == StatusPaid {
		return false
	}
	d := DateOf(date)
	r.Status = string(StatusPaid)
	r.PaidAmount = r.PaidAmount.Add(r.OutstandingBalance)
	r.OutstandingBalance = decimal.Zero
	r.SettlementDate = &d
	if m := strings.TrimSpace(method); m != "" {
		r.PaymentMethod = strings.ToUpper(m)
	}
	return true
}

// DateOf truncates t to its calendar day in UTC
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the ceiling of the calendar-day delta from..to, floored at 0
func DaysBetween(from, to time.Time) int {
	delta := DateOf(to).Sub(DateOf(from))
	if delta <= 0 {
		return 0
	}
	days := int(delta / (24 * time.Hour))
	if delta%(24*time.Hour) != 0 {
		days++
	}
	return days
}
