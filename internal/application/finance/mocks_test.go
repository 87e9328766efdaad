package finance

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockLedgerRecordRepository is a mock implementation of finance.LedgerRecordRepository
type MockLedgerRecordRepository struct {
	mock.Mock
}

func (m *MockLedgerRecordRepository) FindByID(ctx context.Context, variant finance.Variant, id string) (*finance.LedgerRecord, error) {
	args := m.Called(ctx, variant, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRecordRepository) FindByIDs(ctx context.Context, variant finance.Variant, ids []string) ([]finance.LedgerRecord, error) {
	args := m.Called(ctx, variant, ids)
	return args.Get(0).([]finance.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRecordRepository) FindByPeriodRange(ctx context.Context, variant finance.Variant, from, to string) ([]finance.LedgerRecord, error) {
	args := m.Called(ctx, variant, from, to)
	return args.Get(0).([]finance.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRecordRepository) FindCollectionCandidates(ctx context.Context) ([]finance.LedgerRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]finance.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRecordRepository) FindBySettlement(ctx context.Context, settlementID uuid.UUID) ([]finance.LedgerRecord, error) {
	args := m.Called(ctx, settlementID)
	return args.Get(0).([]finance.LedgerRecord), args.Error(1)
}

func (m *MockLedgerRecordRepository) UpsertBatch(ctx context.Context, variant finance.Variant, records []finance.LedgerRecord) error {
	args := m.Called(ctx, variant, records)
	return args.Error(0)
}

func (m *MockLedgerRecordRepository) Save(ctx context.Context, record *finance.LedgerRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockCategoryMappingRepository is a mock implementation of finance.CategoryMappingRepository
type MockCategoryMappingRepository struct {
	mock.Mock
}

func (m *MockCategoryMappingRepository) FindAll(ctx context.Context) ([]finance.CategoryMapping, error) {
	args := m.Called(ctx)
	return args.Get(0).([]finance.CategoryMapping), args.Error(1)
}

func (m *MockCategoryMappingRepository) FindByLabel(ctx context.Context, label string) (*finance.CategoryMapping, error) {
	args := m.Called(ctx, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.CategoryMapping), args.Error(1)
}

func (m *MockCategoryMappingRepository) Upsert(ctx context.Context, mapping *finance.CategoryMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

// MockSettlementRepository is a mock implementation of finance.SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) List(ctx context.Context, filter shared.Filter) ([]finance.Settlement, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.Settlement), args.Get(1).(int64), args.Error(2)
}

func (m *MockSettlementRepository) Create(ctx context.Context, settlement *finance.Settlement, negotiated []finance.LedgerRecord, installments []finance.LedgerRecord) error {
	args := m.Called(ctx, settlement, negotiated, installments)
	return args.Error(0)
}

func (m *MockSettlementRepository) Finalize(ctx context.Context, settlement *finance.Settlement, originals []finance.LedgerRecord) error {
	args := m.Called(ctx, settlement, originals)
	return args.Error(0)
}

func (m *MockSettlementRepository) Cancel(ctx context.Context, settlement *finance.Settlement, restored []finance.LedgerRecord, installmentIDs []string) error {
	args := m.Called(ctx, settlement, restored, installmentIDs)
	return args.Error(0)
}

// MockAuditLogRepository is a mock implementation of finance.AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Append(ctx context.Context, entry *finance.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditLogRepository) List(ctx context.Context, filter shared.Filter) ([]finance.AuditEntry, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]finance.AuditEntry), args.Get(1).(int64), args.Error(2)
}

// MockReportCache is a mock implementation of finance.IncomeStatementCache
type MockReportCache struct {
	mock.Mock
}

func (m *MockReportCache) Get(ctx context.Context, start, end string) (*finance.IncomeStatement, bool, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*finance.IncomeStatement), args.Bool(1), args.Error(2)
}

func (m *MockReportCache) Set(ctx context.Context, start, end string, statement *finance.IncomeStatement) error {
	args := m.Called(ctx, start, end, statement)
	return args.Error(0)
}

func (m *MockReportCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
