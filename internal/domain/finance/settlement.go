package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Frequency is the spacing between settlement installments
type Frequency string

const (
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

// Days returns the calendar days between two installments
func (f Frequency) Days() int {
	switch f {
	case FrequencyWeekly:
		return 7
	case FrequencyBiweekly:
		return 15
	case FrequencyMonthly:
		return 30
	}
	return 0
}

// IsValid checks if the frequency is known
func (f Frequency) IsValid() bool {
	return f.Days() > 0
}

// SettlementStatus represents the lifecycle state of a settlement
type SettlementStatus string

const (
	SettlementActive     SettlementStatus = "ACTIVE"
	SettlementLiquidated SettlementStatus = "LIQUIDATED"
	SettlementCanceled   SettlementStatus = "CANCELED"
)

// IsTerminal returns true if no transition leaves the status
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementLiquidated || s == SettlementCanceled
}

// NegotiatedRecord captures an original record superseded by a settlement
// together with the state needed to restore it on cancel.
type NegotiatedRecord struct {
	RecordID              string           `json:"record_id"`
	DueDate               time.Time        `json:"due_date"`
	PriorStatus           string           `json:"prior_status"`
	PriorBalance          decimal.Decimal  `json:"prior_balance"`
	PriorCollectionStatus CollectionStatus `json:"prior_collection_status"`
	NotaryBlocked         bool             `json:"notary_blocked"`
}

// Settlement is a negotiated multi-installment repayment plan
type Settlement struct {
	shared.BaseAggregateRoot
	CounterpartyName     string
	OriginalAmount       decimal.Decimal
	AgreedAmount         decimal.Decimal
	InstallmentCount     int
	Frequency            Frequency
	FirstInstallmentDate time.Time
	Status               SettlementStatus
	NegotiatedRecords    []NegotiatedRecord
	CreatedBy            string
	LiquidatedAt         *time.Time
	CanceledAt           *time.Time
}

// SettlementTerms are the negotiated conditions of a new settlement
type SettlementTerms struct {
	Counterparty     string
	RecordIDs        []string
	AgreedAmount     decimal.Decimal
	InstallmentCount int
	Frequency        Frequency
	FirstDate        time.Time
}

// Validate rejects malformed terms before anything is read or written
func (t SettlementTerms) Validate() error {
	if t.InstallmentCount < 1 {
		return shared.NewValidationError("installment count must be at least 1")
	}
	if !t.AgreedAmount.IsPositive() {
		return shared.NewValidationError("agreed amount must be greater than zero")
	}
	if !t.Frequency.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("unknown frequency %q", t.Frequency))
	}
	if len(t.RecordIDs) == 0 {
		return shared.NewValidationError("at least one record must be negotiated")
	}
	if strings.TrimSpace(t.Counterparty) == "" {
		return shared.NewValidationError("counterparty is required")
	}
	if t.FirstDate.IsZero() {
		return shared.NewValidationError("first installment date is required")
	}
	seen := make(map[string]bool, len(t.RecordIDs))
	for _, id := range t.RecordIDs {
		if seen[id] {
			return shared.NewValidationError(fmt.Sprintf("record %s listed twice", id))
		}
		seen[id] = true
	}
	return nil
}

// NewSettlement creates an ACTIVE settlement over the given original
// receivables. The records are not modified; see Negotiate.
func NewSettlement(terms SettlementTerms, records []LedgerRecord, actor shared.Actor) (*Settlement, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if len(records) != len(terms.RecordIDs) {
		return nil, shared.NewValidationError("negotiated records do not match requested ids")
	}

	s := &Settlement{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		CounterpartyName:     strings.TrimSpace(terms.Counterparty),
		OriginalAmount:       decimal.Zero,
		AgreedAmount:         terms.AgreedAmount,
		InstallmentCount:     terms.InstallmentCount,
		Frequency:            terms.Frequency,
		FirstInstallmentDate: DateOf(terms.FirstDate),
		Status:               SettlementActive,
		CreatedBy:            actor.OrSystem().Name,
	}
	for _, r := range records {
		if err := checkNegotiable(r, s.CounterpartyName); err != nil {
			return nil, err
		}
		s.OriginalAmount = s.OriginalAmount.Add(r.OutstandingBalance)
		s.NegotiatedRecords = append(s.NegotiatedRecords, NegotiatedRecord{
			RecordID:              r.ID,
			DueDate:               DateOf(r.DueDate),
			PriorStatus:           r.Status,
			PriorBalance:          r.OutstandingBalance,
			PriorCollectionStatus: r.CollectionStatus,
			NotaryBlocked:         r.IsAtNotary(),
		})
	}
	return s, nil
}

func checkNegotiable(r LedgerRecord, counterparty string) error {
	if r.Variant != VariantReceivable {
		return shared.NewValidationError(fmt.Sprintf("record %s is not a receivable", r.ID))
	}
	if r.IsLocked() {
		return shared.NewInvalidStateError(fmt.Sprintf("record %s already belongs to a settlement", r.ID))
	}
	if r.NormalizedStatus().IsSettled() {
		return shared.NewInvalidStateError(fmt.Sprintf("record %s is %s and cannot be negotiated", r.ID, r.NormalizedStatus()))
	}
	if !strings.EqualFold(strings.TrimSpace(r.CounterpartyName), counterparty) {
		return shared.NewValidationError(fmt.Sprintf("record %s belongs to %q, not %q", r.ID, r.CounterpartyName, counterparty))
	}
	return nil
}

// NegotiatedIDs returns the ids of the superseded records, in creation order
func (s *Settlement) NegotiatedIDs() []string {
	ids := make([]string, 0, len(s.NegotiatedRecords))
	for _, n := range s.NegotiatedRecords {
		ids = append(ids, n.RecordID)
	}
	return ids
}

// Snapshot returns the captured state of a negotiated record
func (s *Settlement) Snapshot(recordID string) (NegotiatedRecord, bool) {
	for _, n := range s.NegotiatedRecords {
		if n.RecordID == recordID {
			return n, true
		}
	}
	return NegotiatedRecord{}, false
}

// Negotiate blocks an original record under this settlement: status
// NEGOTIATED, balance zero, collection blocked by agreement or notary.
func (s *Settlement) Negotiate(r *LedgerRecord) {
	snap, _ := s.Snapshot(r.ID)
	r.Status = string(StatusNegotiated)
	r.OutstandingBalance = decimal.Zero
	if snap.NotaryBlocked {
		r.CollectionStatus = CollectionBlockedByNotary
	} else {
		r.CollectionStatus = CollectionBlockedByAgreement
	}
	id := s.ID
	r.SettlementRef = &id
}

// Restore puts an original record back into its pre-agreement state
func (s *Settlement) Restore(r *LedgerRecord, today time.Time) {
	snap, ok := s.Snapshot(r.ID)
	if !ok {
		return
	}
	switch {
	case snap.NotaryBlocked:
		r.Status = string(StatusAtNotary)
		r.CollectionStatus = CollectionAtNotary
	case r.IsPastDue(today):
		r.Status = string(StatusOverdue)
		r.CollectionStatus = CollectionCollectable
	default:
		r.Status = string(StatusOpen)
		r.CollectionStatus = CollectionCollectable
	}
	r.OutstandingBalance = snap.PriorBalance
	r.SettlementRef = nil
}

// SplitAmount divides total into n parts rounded to cents; the last part
// absorbs the rounding remainder so the parts sum to total exactly.
func SplitAmount(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		return nil
	}
	part := total.Div(decimal.NewFromInt(int64(n))).RoundDown(2)
	parts := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = part
		allocated = allocated.Add(part)
	}
	parts[n-1] = total.Sub(allocated)
	return parts
}

// InstallmentDueDate returns the due date of the i-th installment (1-based).
// Monthly plans keep the day of month, clamped to the month's last day.
func InstallmentDueDate(first time.Time, f Frequency, i int) time.Time {
	first = DateOf(first)
	if f == FrequencyMonthly {
		return addMonthsClamped(first, i-1)
	}
	return first.AddDate(0, 0, (i-1)*f.Days())
}

func addMonthsClamped(t time.Time, months int) time.Time {
	firstOfMonth := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfMonth.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfMonth.Year(), firstOfMonth.Month(), day, 0, 0, 0, 0, time.UTC)
}

// InstallmentID returns the ledger id of the i-th installment
func (s *Settlement) InstallmentID(i int) string {
	return fmt.Sprintf("ACD-%s-%02d/%02d", s.ShortID(), i, s.InstallmentCount)
}

// ShortID is the first block of the settlement uuid, upper-cased
func (s *Settlement) ShortID() string {
	return strings.ToUpper(strings.SplitN(s.ID.String(), "-", 2)[0])
}

// GenerateInstallments builds the receivable records that replace the
// negotiated originals.
func (s *Settlement) GenerateInstallments() []LedgerRecord {
	amounts := SplitAmount(s.AgreedAmount, s.InstallmentCount)
	issued := DateOf(s.CreatedAt)
	ref := s.ID
	out := make([]LedgerRecord, 0, s.InstallmentCount)
	for i := 1; i <= s.InstallmentCount; i++ {
		due := InstallmentDueDate(s.FirstInstallmentDate, s.Frequency, i)
		issue := issued
		settlementRef := ref
		out = append(out, LedgerRecord{
			ID:                 s.InstallmentID(i),
			Variant:            VariantReceivable,
			CounterpartyName:   s.CounterpartyName,
			IssueDate:          &issue,
			DueDate:            due,
			FaceAmount:         amounts[i-1],
			OutstandingBalance: amounts[i-1],
			PaidAmount:         decimal.Zero,
			Status:             string(StatusOpen),
			Category:           CategoryCommercialAgreement,
			DocumentNumber:     s.ShortID(),
			History:            fmt.Sprintf("Installment %d/%d of agreement %s", i, s.InstallmentCount, s.ShortID()),
			Period:             PeriodOf(due),
			CollectionStatus:   CollectionNonCollectable,
			SettlementRef:      &settlementRef,
		})
	}
	return out
}

// Liquidate moves the settlement to LIQUIDATED once every installment is paid
func (s *Settlement) Liquidate(installments []LedgerRecord, now time.Time) error {
	if s.Status != SettlementActive {
		return shared.NewInvalidStateError(fmt.Sprintf("cannot finalize settlement in %s status", s.Status))
	}
	for _, inst := range installments {
		if inst.NormalizedStatus() != StatusPaid {
			return shared.NewInvalidStateError(fmt.Sprintf("installment %s is still %s", inst.ID, inst.NormalizedStatus()))
		}
	}
	s.Status = SettlementLiquidated
	s.LiquidatedAt = &now
	s.UpdatedAt = now
	return nil
}

// Cancel moves the settlement to CANCELED
func (s *Settlement) Cancel(now time.Time) error {
	if s.Status != SettlementActive {
		return shared.NewInvalidStateError(fmt.Sprintf("cannot cancel settlement in %s status", s.Status))
	}
	s.Status = SettlementCanceled
	s.CanceledAt = &now
	s.UpdatedAt = now
	return nil
}

// SplitByOrigin separates a settlement's ledger records into the negotiated
// originals and the generated installments. Records that are neither a
// snapshot nor one of the settlement's installment ids are left out.
func (s *Settlement) SplitByOrigin(records []LedgerRecord) (originals, installments []LedgerRecord) {
	generated := make(map[string]bool, s.InstallmentCount)
	for i := 1; i <= s.InstallmentCount; i++ {
		generated[s.InstallmentID(i)] = true
	}
	for _, r := range records {
		if _, ok := s.Snapshot(r.ID); ok {
			originals = append(originals, r)
			continue
		}
		if generated[r.ID] {
			installments = append(installments, r)
		}
	}
	return originals, installments
}
