package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CreateSettlementInput are the negotiated terms of a new settlement
type CreateSettlementInput struct {
	Counterparty     string
	RecordIDs        []string
	AgreedAmount     decimal.Decimal
	InstallmentCount int
	Frequency        finance.Frequency
	FirstDate        time.Time
	Actor            shared.Actor
}

// SettlementService drives the settlement lifecycle
type SettlementService struct {
	runtime
	settlements finance.SettlementRepository
	records     finance.LedgerRecordRepository
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(settlements finance.SettlementRepository, records finance.LedgerRecordRepository, opts ...Option) *SettlementService {
	return &SettlementService{
		runtime:     newRuntime(opts),
		settlements: settlements,
		records:     records,
	}
}

// Create negotiates the listed receivables into an ACTIVE settlement and
// generates its installments, atomically.
func (s *SettlementService) Create(ctx context.Context, in CreateSettlementInput) (*SettlementResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "ledger.settlement.create")
	defer span.End()

	terms := finance.SettlementTerms{
		Counterparty:     in.Counterparty,
		RecordIDs:        trimIDs(in.RecordIDs),
		AgreedAmount:     in.AgreedAmount,
		InstallmentCount: in.InstallmentCount,
		Frequency:        finance.Frequency(strings.ToUpper(string(in.Frequency))),
		FirstDate:        in.FirstDate,
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	originals, err := s.loadOriginals(ctx, terms.RecordIDs)
	if err != nil {
		return nil, err
	}
	settlement, err := finance.NewSettlement(terms, originals, in.Actor)
	if err != nil {
		return nil, err
	}
	for i := range originals {
		settlement.Negotiate(&originals[i])
	}
	installments := settlement.GenerateInstallments()
	span.SetAttributes(
		attribute.String("ledger.settlement_id", settlement.ID.String()),
		attribute.Int("ledger.installments", len(installments)),
	)

	if err := s.settlements.Create(ctx, settlement, originals, installments); err != nil {
		s.countConflict(err)
		return nil, err
	}
	s.metrics.Settlement(telemetry.OutcomeCreated)
	s.invalidateReports(ctx)
	agreed := settlement.AgreedAmount
	s.record(ctx, finance.NewAuditEntry(in.Actor, finance.AuditSettlementCreated, settlement.ShortID(),
		fmt.Sprintf("%s: %d records (%s) into %d %s installments from %s",
			settlement.CounterpartyName, len(originals), settlement.OriginalAmount.StringFixed(2),
			settlement.InstallmentCount, strings.ToLower(string(settlement.Frequency)),
			settlement.FirstInstallmentDate.Format(time.DateOnly)),
		&agreed))
	logger.L(ctx).Info("Settlement created",
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("counterparty", settlement.CounterpartyName),
		zap.Int("installments", len(installments)),
	)
	return toSettlementResponse(settlement, installments), nil
}

// loadOriginals returns the receivables in the order of ids, or NotFound
// listing every missing id.
func (s *SettlementService) loadOriginals(ctx context.Context, ids []string) ([]finance.LedgerRecord, error) {
	found, err := s.records.FindByIDs(ctx, finance.VariantReceivable, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]finance.LedgerRecord, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	out := make([]finance.LedgerRecord, 0, len(ids))
	var missing []string
	for _, id := range ids {
		r, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, r)
	}
	if len(missing) > 0 {
		return nil, shared.NewNotFoundError(fmt.Sprintf("receivables not found: %s", strings.Join(missing, ", ")))
	}
	return out, nil
}

// LiquidateInstallment marks a settlement installment as paid. Liquidating a
// paid installment succeeds without changes. The parent settlement is not
// transitioned; see Finalize.
func (s *SettlementService) LiquidateInstallment(ctx context.Context, id string, date time.Time, method string, actor shared.Actor) (*finance.LedgerRecord, error) {
	rec, err := s.records.FindByID(ctx, finance.VariantReceivable, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if !rec.IsInstallment() {
		return nil, shared.NewValidationError(fmt.Sprintf("record %s is not a settlement installment", rec.ID))
	}
	if date.IsZero() {
		date = s.today()
	}
	if !rec.Liquidate(date, method) {
		return rec, nil
	}
	if err := s.records.Save(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.InstallmentLiquidated()
	s.invalidateReports(ctx)
	paid := rec.PaidAmount
	s.record(ctx, finance.NewAuditEntry(actor, finance.AuditInstallmentLiquidated, rec.ID,
		fmt.Sprintf("paid on %s via %s", rec.SettlementDate.Format(time.DateOnly), rec.PaymentMethod), &paid))
	return rec, nil
}

// Finalize moves an ACTIVE settlement whose installments are all paid to
// LIQUIDATED and marks the negotiated originals NON_COLLECTABLE.
func (s *SettlementService) Finalize(ctx context.Context, id uuid.UUID, actor shared.Actor) (*SettlementResponse, error) {
	settlement, originals, installments, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := settlement.Liquidate(installments, s.now()); err != nil {
		return nil, err
	}
	settlement.IncrementVersion()
	for i := range originals {
		originals[i].CollectionStatus = finance.CollectionNonCollectable
	}
	if err := s.settlements.Finalize(ctx, settlement, originals); err != nil {
		s.countConflict(err)
		return nil, err
	}
	s.metrics.Settlement(telemetry.OutcomeFinalized)
	s.invalidateReports(ctx)
	agreed := settlement.AgreedAmount
	s.record(ctx, finance.NewAuditEntry(actor, finance.AuditSettlementFinalized, settlement.ShortID(),
		fmt.Sprintf("%s: %d installments paid", settlement.CounterpartyName, len(installments)), &agreed))
	return toSettlementResponse(settlement, installments), nil
}

// Cancel deletes the installments of an ACTIVE settlement, restores the
// negotiated originals to their pre-agreement state and cancels it.
func (s *SettlementService) Cancel(ctx context.Context, id uuid.UUID, actor shared.Actor) (*SettlementResponse, error) {
	settlement, originals, installments, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := settlement.Cancel(s.now()); err != nil {
		return nil, err
	}
	settlement.IncrementVersion()
	today := s.today()
	for i := range originals {
		settlement.Restore(&originals[i], today)
	}
	installmentIDs := make([]string, 0, len(installments))
	for _, inst := range installments {
		installmentIDs = append(installmentIDs, inst.ID)
	}
	if err := s.settlements.Cancel(ctx, settlement, originals, installmentIDs); err != nil {
		s.countConflict(err)
		return nil, err
	}
	s.metrics.Settlement(telemetry.OutcomeCanceled)
	s.invalidateReports(ctx)
	restored := settlement.OriginalAmount
	s.record(ctx, finance.NewAuditEntry(actor, finance.AuditSettlementCanceled, settlement.ShortID(),
		fmt.Sprintf("%s: %d installments removed, %d records restored",
			settlement.CounterpartyName, len(installmentIDs), len(originals)), &restored))
	return toSettlementResponse(settlement, nil), nil
}

// Get returns a settlement with its current installments
func (s *SettlementService) Get(ctx context.Context, id uuid.UUID) (*SettlementResponse, error) {
	settlement, _, installments, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSettlementResponse(settlement, installments), nil
}

// List returns a page of settlements. Canceled ones are listed only when
// filtered by status CANCELED.
func (s *SettlementService) List(ctx context.Context, filter SettlementListFilter) (*shared.Paginated[SettlementResponse], error) {
	items, total, err := s.settlements.List(ctx, filter.toShared())
	if err != nil {
		return nil, err
	}
	out := make([]SettlementResponse, 0, len(items))
	for i := range items {
		out = append(out, *toSettlementResponse(&items[i], nil))
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

func (s *SettlementService) load(ctx context.Context, id uuid.UUID) (*finance.Settlement, []finance.LedgerRecord, []finance.LedgerRecord, error) {
	settlement, err := s.settlements.FindByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	linked, err := s.records.FindBySettlement(ctx, settlement.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	originals, installments := settlement.SplitByOrigin(linked)
	return settlement, originals, installments, nil
}

func (s *SettlementService) countConflict(err error) {
	if errors.Is(err, shared.ErrConcurrencyConflict) {
		s.metrics.Settlement(telemetry.OutcomeConflicted)
	}
}

func trimIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
