package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StageResult is a classified import batch ready for review and commit
type StageResult struct {
	Variant finance.Variant        `json:"variant"`
	Items   []finance.StagedItem   `json:"items"`
	Summary finance.StagingSummary `json:"summary"`
}

// StagingService classifies imported records against the persisted ledger
type StagingService struct {
	records finance.LedgerRecordRepository
}

// NewStagingService creates a new StagingService
func NewStagingService(records finance.LedgerRecordRepository) *StagingService {
	return &StagingService{records: records}
}

// Stage normalizes imported, drops repeated ids (last one wins) and
// classifies each record as NEW, CHANGED or UNCHANGED. The current ledger
// state is read once, by the imported ids. Nothing is written.
func (s *StagingService) Stage(ctx context.Context, variant finance.Variant, imported []finance.LedgerRecord) (*StageResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.stage")
	defer span.End()
	span.SetAttributes(attribute.String("ledger.variant", variant.String()), attribute.Int("ledger.rows", len(imported)))

	batch, err := normalizeBatch(variant, imported)
	if err != nil {
		return nil, err
	}
	batch, duplicates := finance.DedupeBatch(batch)
	if duplicates > 0 {
		logger.L(ctx).Warn("Duplicate record ids in import batch, keeping the last occurrence",
			zap.String("variant", variant.String()),
			zap.Int("duplicates", duplicates),
		)
	}

	existing, err := s.records.FindByIDs(ctx, variant, recordIDs(batch))
	if err != nil {
		return nil, err
	}
	items := finance.DiffBatch(batch, indexRecords(existing))
	return &StageResult{
		Variant: variant,
		Items:   items,
		Summary: finance.SummarizeStaging(items, duplicates),
	}, nil
}

// Record returns the persisted state of one record
func (s *StagingService) Record(ctx context.Context, variant finance.Variant, id string) (*finance.LedgerRecord, error) {
	if !variant.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", variant))
	}
	return s.records.FindByID(ctx, variant, strings.TrimSpace(id))
}

// normalizeBatch returns normalized copies of records tagged with variant.
// Settlement-owned columns are cleared; only the settlement lifecycle sets them.
func normalizeBatch(variant finance.Variant, records []finance.LedgerRecord) ([]finance.LedgerRecord, error) {
	if !variant.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", variant))
	}
	out := make([]finance.LedgerRecord, len(records))
	for i, r := range records {
		r.Variant = variant
		r.ClearInternal()
		if err := r.Normalize(); err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
