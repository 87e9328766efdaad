package finance

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// runtime holds the collaborators shared by every ledger service
type runtime struct {
	now      func() time.Time
	location *time.Location
	metrics  *telemetry.LedgerMetrics
	reports  finance.IncomeStatementCache
	audit    finance.AuditLogRepository
}

// Option configures a ledger service
type Option func(*runtime)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(r *runtime) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLocation sets the timezone used to decide what "today" is
func WithLocation(loc *time.Location) Option {
	return func(r *runtime) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithMetrics records business counters on m
func WithMetrics(m *telemetry.LedgerMetrics) Option {
	return func(r *runtime) {
		r.metrics = m
	}
}

// WithReportCache invalidates (or, for ReportService, serves from) cache
func WithReportCache(cache finance.IncomeStatementCache) Option {
	return func(r *runtime) {
		r.reports = cache
	}
}

// WithAuditLog appends an audit entry for every mutating operation
func WithAuditLog(repo finance.AuditLogRepository) Option {
	return func(r *runtime) {
		r.audit = repo
	}
}

func newRuntime(opts []Option) runtime {
	r := runtime{now: time.Now, location: time.UTC}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// today returns the current calendar day in the configured timezone
func (r runtime) today() time.Time {
	return finance.DateOf(r.now().In(r.location))
}

// record appends entry to the audit trail. Failures are logged, never returned.
func (r runtime) record(ctx context.Context, entry *finance.AuditEntry) {
	if r.audit == nil {
		return
	}
	if err := r.audit.Append(ctx, entry); err != nil {
		logger.L(ctx).Warn("Failed to append audit entry",
			zap.String("action", string(entry.Action)),
			zap.String("subject", entry.Subject),
			zap.Error(err),
		)
	}
}

// invalidateReports drops cached statements after a ledger or dictionary write
func (r runtime) invalidateReports(ctx context.Context) {
	if r.reports == nil {
		return
	}
	if err := r.reports.Invalidate(ctx); err != nil {
		logger.L(ctx).Warn("Failed to invalidate report cache", zap.Error(err))
	}
}
