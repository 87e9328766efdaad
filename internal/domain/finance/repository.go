package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerRecordRepository defines the persistence contract of the ledger store
type LedgerRecordRepository interface {
	// FindByID returns shared.ErrNotFound when the record does not exist
	FindByID(ctx context.Context, variant Variant, id string) (*LedgerRecord, error)
	// FindByIDs returns the existing records among ids; missing ids are skipped
	FindByIDs(ctx context.Context, variant Variant, ids []string) ([]LedgerRecord, error)
	// FindByPeriodRange returns records whose competency period is within [from, to]
	FindByPeriodRange(ctx context.Context, variant Variant, from, to string) ([]LedgerRecord, error)
	// FindCollectionCandidates returns receivables that may feed debtor aggregation
	FindCollectionCandidates(ctx context.Context) ([]LedgerRecord, error)
	// FindBySettlement returns every receivable referencing the settlement
	FindBySettlement(ctx context.Context, settlementID uuid.UUID) ([]LedgerRecord, error)
	// UpsertBatch inserts or updates records by id. Internal columns and rows
	// locked by a settlement are never overwritten.
	UpsertBatch(ctx context.Context, variant Variant, records []LedgerRecord) error
	// Save updates a single record
	Save(ctx context.Context, record *LedgerRecord) error
}

// CategoryMappingRepository defines the persistence contract of the mapping dictionary
type CategoryMappingRepository interface {
	FindAll(ctx context.Context) ([]CategoryMapping, error)
	FindByLabel(ctx context.Context, label string) (*CategoryMapping, error)
	// Upsert inserts or overwrites the mapping keyed by label
	Upsert(ctx context.Context, mapping *CategoryMapping) error
}

// SettlementRepository persists settlements together with the ledger rows they
// own. Every write method runs in a single store transaction.
type SettlementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Settlement, error)
	List(ctx context.Context, filter shared.Filter) ([]Settlement, int64, error)
	// Create inserts the settlement, blocks negotiated (compare-and-swap on
	// their previous collection status) and inserts installments.
	Create(ctx context.Context, settlement *Settlement, negotiated []LedgerRecord, installments []LedgerRecord) error
	// Finalize saves the LIQUIDATED settlement and the updated originals
	Finalize(ctx context.Context, settlement *Settlement, originals []LedgerRecord) error
	// Cancel deletes installments, saves restored originals and removes the
	// CANCELED settlement.
	Cancel(ctx context.Context, settlement *Settlement, restored []LedgerRecord, installmentIDs []string) error
}

// AuditLogRepository is the append-only audit trail
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, filter shared.Filter) ([]AuditEntry, int64, error)
}

// IncomeStatementCache keeps generated statements until the next ledger or
// dictionary write. Implementations bound entries with a TTL.
type IncomeStatementCache interface {
	Get(ctx context.Context, start, end string) (*IncomeStatement, bool, error)
	Set(ctx context.Context, start, end string, statement *IncomeStatement) error
	// Invalidate drops every cached statement
	Invalidate(ctx context.Context) error
}
