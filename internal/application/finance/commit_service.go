package finance

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Commit defaults, overridden by ledger.commit_batch_size and ledger.commit_concurrency
const (
	DefaultCommitBatchSize   = 100
	DefaultCommitConcurrency = 1
)

// CommitRequest carries a staged batch to persist
type CommitRequest struct {
	Variant    finance.Variant
	Items      []finance.StagedItem
	Actor      shared.Actor
	SourceName string
	// BatchSize overrides the service default when positive
	BatchSize int
}

// CommitResult summarizes a successful commit
type CommitResult struct {
	Variant   finance.Variant `json:"variant"`
	Committed int             `json:"committed"`
	New       int             `json:"new"`
	Changed   int             `json:"changed"`
	Skipped   int             `json:"skipped"`
	Locked    int             `json:"locked"`
	LockedIDs []string        `json:"locked_ids,omitempty"`
	Batches   int             `json:"batches"`
	Amount    decimal.Decimal `json:"amount"`
}

// CommitService writes staged records in chunks
type CommitService struct {
	runtime
	records     finance.LedgerRecordRepository
	batchSize   int
	concurrency int
}

// NewCommitService creates a CommitService. Non-positive batchSize and
// concurrency fall back to the defaults.
func NewCommitService(records finance.LedgerRecordRepository, batchSize, concurrency int, opts ...Option) *CommitService {
	if batchSize <= 0 {
		batchSize = DefaultCommitBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultCommitConcurrency
	}
	return &CommitService{
		runtime:     newRuntime(opts),
		records:     records,
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// Commit upserts every NEW and CHANGED item; UNCHANGED items are always
// skipped. Chunks are dispatched through a bounded errgroup and the first
// failure stops further dispatch. A failure after at least one dispatched
// chunk is reported as *finance.PartialCommitError; re-running the same
// request is safe.
func (s *CommitService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.commit")
	defer span.End()

	pending, err := normalizeBatch(req.Variant, finance.PendingWrites(req.Items))
	if err != nil {
		return nil, err
	}
	var locked []string
	if len(pending) > 0 {
		existing, err := s.records.FindByIDs(ctx, req.Variant, recordIDs(pending))
		if err != nil {
			return nil, err
		}
		pending, locked = finance.SplitLocked(pending, indexRecords(existing))
	}
	if len(locked) > 0 {
		logger.L(ctx).Warn("Records held by a settlement were not written",
			zap.String("variant", req.Variant.String()),
			zap.Strings("ids", locked),
		)
	}
	summary := finance.SummarizeStaging(req.Items, 0)
	batchSize := s.batchSize
	if req.BatchSize > 0 {
		batchSize = req.BatchSize
	}
	chunks := chunkRecords(pending, batchSize)
	span.SetAttributes(
		attribute.String("ledger.variant", req.Variant.String()),
		attribute.Int("ledger.pending", len(pending)),
		attribute.Int("ledger.chunks", len(chunks)),
	)

	var committed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, chunk := range chunks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := s.records.UpsertBatch(gctx, req.Variant, chunk); err != nil {
				return err
			}
			committed.Add(int64(len(chunk)))
			return nil
		})
	}
	waitErr := g.Wait()
	written := int(committed.Load())
	s.metrics.RecordsCommitted(req.Variant.String(), written)
	if written > 0 {
		s.invalidateReports(ctx)
	}

	if waitErr != nil {
		s.metrics.CommitFailed(req.Variant.String())
		span.RecordError(waitErr)
		span.SetStatus(codes.Error, "partial commit")
		logger.L(ctx).Error("Ledger commit stopped",
			zap.String("variant", req.Variant.String()),
			zap.Int("committed", written),
			zap.Int("total", len(pending)),
			zap.Error(waitErr),
		)
		return nil, &finance.PartialCommitError{Committed: written, Total: len(pending), Err: waitErr}
	}

	result := &CommitResult{
		Variant:   req.Variant,
		Committed: written,
		New:       summary.New,
		Changed:   summary.Changed,
		Skipped:   summary.Unchanged,
		Locked:    len(locked),
		LockedIDs: locked,
		Batches:   len(chunks),
		Amount:    sumBalances(pending),
	}
	if written > 0 {
		amount := result.Amount
		s.record(ctx, finance.NewAuditEntry(req.Actor, finance.AuditImportCommit, sourceName(req),
			fmt.Sprintf("%s: %d records committed (%d new, %d changed, %d unchanged skipped, %d locked)",
				req.Variant, written, result.New, result.Changed, result.Skipped, result.Locked),
			&amount))
	}
	logger.L(ctx).Info("Ledger commit completed",
		zap.String("variant", req.Variant.String()),
		zap.Int("committed", written),
		zap.Int("skipped", result.Skipped),
		zap.Int("locked", result.Locked),
		zap.Int("batches", result.Batches),
	)
	return result, nil
}

func sourceName(req CommitRequest) string {
	if name := strings.TrimSpace(req.SourceName); name != "" {
		return name
	}
	return strings.ToLower(req.Variant.String()) + " import"
}

func recordIDs(records []finance.LedgerRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func indexRecords(records []finance.LedgerRecord) map[string]finance.LedgerRecord {
	out := make(map[string]finance.LedgerRecord, len(records))
	for _, r := range records {
		out[r.ID] = r
	}
	return out
}

// chunkRecords splits records into consecutive slices of at most size
func chunkRecords(records []finance.LedgerRecord, size int) [][]finance.LedgerRecord {
	var chunks [][]finance.LedgerRecord
	for start := 0; start < len(records); start += size {
		chunks = append(chunks, records[start:min(start+size, len(records))])
	}
	return chunks
}

func sumBalances(records []finance.LedgerRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.OutstandingBalance)
	}
	return total
}
