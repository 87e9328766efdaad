package finance

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReportService generates the income statement (DRE)
type ReportService struct {
	runtime
	records  finance.LedgerRecordRepository
	mappings finance.CategoryMappingRepository
}

// NewReportService creates a new ReportService. Statements are cached only
// when WithReportCache is given.
func NewReportService(records finance.LedgerRecordRepository, mappings finance.CategoryMappingRepository, opts ...Option) *ReportService {
	return &ReportService{
		runtime:  newRuntime(opts),
		records:  records,
		mappings: mappings,
	}
}

// Generate builds the income statement for every competency period between
// the months of start and end, inclusive.
func (s *ReportService) Generate(ctx context.Context, start, end time.Time) (*finance.IncomeStatement, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartSpan(ctx, "ledger.report.dre")
	defer span.End()
	begin := s.now()
	from, to := finance.PeriodOf(start), finance.PeriodOf(end)
	span.SetAttributes(attribute.String("ledger.period_start", from), attribute.String("ledger.period_end", to))

	if stmt, ok := s.cached(ctx, from, to); ok {
		span.SetAttributes(attribute.Bool("ledger.cache_hit", true))
		s.metrics.ObserveReport(true, s.now().Sub(begin))
		return stmt, nil
	}

	records, err := loadBothVariants(ctx, s.records, start, end)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappings.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	stmt := finance.BuildIncomeStatement(records, finance.NewMappingIndex(mappings), start, end)

	if s.reports != nil {
		if err := s.reports.Set(ctx, from, to, stmt); err != nil {
			logger.L(ctx).Warn("Failed to cache income statement", zap.Error(err))
		}
	}
	if len(stmt.Unmapped) > 0 {
		logger.L(ctx).Info("Income statement skipped unmapped categories",
			zap.Strings("labels", stmt.Unmapped))
	}
	s.metrics.ObserveReport(false, s.now().Sub(begin))
	return stmt, nil
}

func (s *ReportService) cached(ctx context.Context, from, to string) (*finance.IncomeStatement, bool) {
	if s.reports == nil {
		return nil, false
	}
	stmt, ok, err := s.reports.Get(ctx, from, to)
	if err != nil {
		logger.L(ctx).Warn("Report cache read failed, regenerating", zap.Error(err))
		return nil, false
	}
	return stmt, ok
}

// loadBothVariants reads receivables and payables of [start, end] concurrently
func loadBothVariants(ctx context.Context, repo finance.LedgerRecordRepository, start, end time.Time) ([]finance.LedgerRecord, error) {
	from, to := finance.PeriodOf(start), finance.PeriodOf(end)
	var receivables, payables []finance.LedgerRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		receivables, err = repo.FindByPeriodRange(gctx, finance.VariantReceivable, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		payables, err = repo.FindByPeriodRange(gctx, finance.VariantPayable, from, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(receivables, payables...), nil
}
