package finance

import (
	"context"
	"strings"

	"github.com/erp/ledger/internal/domain/finance"
)

// DebtorService aggregates receivables into per-client collection profiles.
// Profiles are derived on every call and never cached.
type DebtorService struct {
	runtime
	records finance.LedgerRecordRepository
}

// NewDebtorService creates a new DebtorService
func NewDebtorService(records finance.LedgerRecordRepository, opts ...Option) *DebtorService {
	return &DebtorService{runtime: newRuntime(opts), records: records}
}

// Summarize returns one profile per debtor, worst first
func (s *DebtorService) Summarize(ctx context.Context) ([]finance.DebtorProfile, error) {
	records, err := s.records.FindCollectionCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return finance.SummarizeDebtors(records, s.today()), nil
}

// Find returns the profile of one counterparty, matched case-insensitively
func (s *DebtorService) Find(ctx context.Context, counterparty string) (*finance.DebtorProfile, bool, error) {
	profiles, err := s.Summarize(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range profiles {
		if strings.EqualFold(profiles[i].Counterparty, strings.TrimSpace(counterparty)) {
			return &profiles[i], true, nil
		}
	}
	return nil, false, nil
}
