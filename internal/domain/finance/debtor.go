package finance

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DebtorStatus is the computed collection stance towards a counterparty
type DebtorStatus string

const (
	DebtorRegular    DebtorStatus = "REGULAR"
	DebtorCollection DebtorStatus = "COLLECTION"
	DebtorNotary     DebtorStatus = "NOTARY"
)

// AgingThresholdDays splits overdue amounts into the two aging buckets
const AgingThresholdDays = 15

// DebtorProfile is the aggregate risk picture of one client. It is derived
// from the ledger on every call and never stored.
type DebtorProfile struct {
	Counterparty        string          `json:"counterparty"`
	TotalOverdue        decimal.Decimal `json:"total_overdue"`
	OverdueUpTo15       decimal.Decimal `json:"overdue_up_to_15"`
	OverdueOver15       decimal.Decimal `json:"overdue_over_15"`
	AtNotary            decimal.Decimal `json:"at_notary"`
	InAgreement         decimal.Decimal `json:"in_agreement"`
	OverdueInstallments decimal.Decimal `json:"overdue_installments"`
	TitleCount          int             `json:"title_count"`
	Status              DebtorStatus    `json:"status"`
	NextActionDate      *time.Time      `json:"next_action_date,omitempty"`
}

var collectableStatuses = map[RecordStatus]bool{
	StatusOpen:       true,
	StatusOverdue:    true,
	StatusNegotiated: true,
	StatusAtNotary:   true,
}

// QualifiesForCollection reports whether a receivable takes part in debtor aggregation
func QualifiesForCollection(r LedgerRecord) bool {
	if r.Variant != VariantReceivable {
		return false
	}
	if !strings.EqualFold(r.PaymentMethod, PaymentMethodBoleto) && r.Category != CategoryCommercialAgreement {
		return false
	}
	return collectableStatuses[r.NormalizedStatus()] || r.CollectionStatus == CollectionAtNotary
}

// SummarizeDebtors builds one profile per counterparty of the qualifying
// receivables, sorted by total overdue descending and then by name.
func SummarizeDebtors(records []LedgerRecord, today time.Time) []DebtorProfile {
	today = DateOf(today)
	byName := make(map[string]*DebtorProfile)
	var order []string

	for _, r := range records {
		if !QualifiesForCollection(r) {
			continue
		}
		name := r.CounterpartyName
		p, ok := byName[name]
		if !ok {
			p = &DebtorProfile{Counterparty: name}
			byName[name] = p
			order = append(order, name)
		}
		p.apply(r, today)
	}

	out := make([]DebtorProfile, 0, len(order))
	for _, name := range order {
		p := byName[name]
		p.Status = p.computeStatus()
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].TotalOverdue.Equal(out[j].TotalOverdue) {
			return out[i].TotalOverdue.GreaterThan(out[j].TotalOverdue)
		}
		return out[i].Counterparty < out[j].Counterparty
	})
	return out
}

func (p *DebtorProfile) apply(r LedgerRecord, today time.Time) {
	balance := r.OutstandingBalance
	switch {
	case r.CollectionStatus == CollectionAtNotary:
		p.AtNotary = p.AtNotary.Add(balance)
		p.TotalOverdue = p.TotalOverdue.Add(balance)
	case r.SettlementRef != nil:
		p.InAgreement = p.InAgreement.Add(balance)
		if r.IsPastDue(today) {
			p.OverdueInstallments = p.OverdueInstallments.Add(balance)
		}
		if r.IsInstallment() && balance.IsPositive() && !r.IsPastDue(today) {
			p.noteAction(r.DueDate)
		}
	case balance.GreaterThan(BalanceTolerance) && r.IsPastDue(today):
		p.TotalOverdue = p.TotalOverdue.Add(balance)
		if r.DaysOverdue(today) <= AgingThresholdDays {
			p.OverdueUpTo15 = p.OverdueUpTo15.Add(balance)
		} else {
			p.OverdueOver15 = p.OverdueOver15.Add(balance)
		}
		p.TitleCount++
	}
}

func (p *DebtorProfile) noteAction(due time.Time) {
	d := DateOf(due)
	if p.NextActionDate == nil || d.Before(*p.NextActionDate) {
		p.NextActionDate = &d
	}
}

// computeStatus applies the precedence NOTARY > COLLECTION > REGULAR
func (p *DebtorProfile) computeStatus() DebtorStatus {
	switch {
	case p.AtNotary.IsPositive():
		return DebtorNotary
	case p.TotalOverdue.IsPositive() || p.OverdueInstallments.IsPositive():
		return DebtorCollection
	}
	return DebtorRegular
}
