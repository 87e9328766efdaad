package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type settlementFixture struct {
	db          *gorm.DB
	records     *GormLedgerRecordRepository
	settlements *GormSettlementRepository
}

func newSettlementFixture(t *testing.T) settlementFixture {
	db := newTestDB(t)
	f := settlementFixture{
		db:          db,
		records:     NewGormLedgerRecordRepository(db),
		settlements: NewGormSettlementRepository(db),
	}
	originals := []finance.LedgerRecord{
		ledgerRecord(finance.VariantReceivable, "R-1", "ACME", "2024-01-05", "700"),
		ledgerRecord(finance.VariantReceivable, "R-2", "ACME", "2024-01-20", "500"),
	}
	require.NoError(t, f.records.UpsertBatch(context.Background(), finance.VariantReceivable, originals))
	return f
}

// create negotiates R-1 and R-2 into a 3x monthly plan
func (f settlementFixture) create(t *testing.T) (*finance.Settlement, []finance.LedgerRecord) {
	ctx := context.Background()
	originals, err := f.records.FindByIDs(ctx, finance.VariantReceivable, []string{"R-1", "R-2"})
	require.NoError(t, err)

	s, err := finance.NewSettlement(finance.SettlementTerms{
		Counterparty:     "ACME",
		RecordIDs:        []string{"R-1", "R-2"},
		AgreedAmount:     decimal.NewFromInt(1200),
		InstallmentCount: 3,
		Frequency:        finance.FrequencyMonthly,
		FirstDate:        day("2024-01-10"),
	}, originals, shared.Actor{Name: "ana"})
	require.NoError(t, err)

	for i := range originals {
		s.Negotiate(&originals[i])
	}
	installments := s.GenerateInstallments()
	require.NoError(t, f.settlements.Create(ctx, s, originals, installments))
	return s, installments
}

func TestGormSettlementRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("locks originals and inserts installments", func(t *testing.T) {
		f := newSettlementFixture(t)
		s, installments := f.create(t)

		linked, err := f.records.FindBySettlement(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, linked, 5)

		r1, err := f.records.FindByID(ctx, finance.VariantReceivable, "R-1")
		require.NoError(t, err)
		assert.Equal(t, "NEGOTIATED", r1.Status)
		assert.True(t, r1.OutstandingBalance.IsZero())
		assert.Equal(t, finance.CollectionBlockedByAgreement, r1.CollectionStatus)

		loaded, err := f.settlements.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"R-1", "R-2"}, loaded.NegotiatedIDs())
		assert.True(t, loaded.OriginalAmount.Equal(decimal.NewFromInt(1200)))
		assert.Equal(t, 1, loaded.Version)

		inst, err := f.records.FindByID(ctx, finance.VariantReceivable, installments[1].ID)
		require.NoError(t, err)
		assert.Equal(t, day("2024-02-10"), inst.DueDate)
		assert.Equal(t, finance.CollectionNonCollectable, inst.CollectionStatus)
	})

	t.Run("concurrent change rolls everything back", func(t *testing.T) {
		f := newSettlementFixture(t)
		ctx := context.Background()
		originals, err := f.records.FindByIDs(ctx, finance.VariantReceivable, []string{"R-1", "R-2"})
		require.NoError(t, err)

		s, err := finance.NewSettlement(finance.SettlementTerms{
			Counterparty:     "ACME",
			RecordIDs:        []string{"R-1", "R-2"},
			AgreedAmount:     decimal.NewFromInt(1000),
			InstallmentCount: 2,
			Frequency:        finance.FrequencyWeekly,
			FirstDate:        day("2024-02-01"),
		}, originals, shared.Actor{Name: "ana"})
		require.NoError(t, err)

		// another process escalates R-2 after it was read
		require.NoError(t, f.db.Model(&models.ReceivableModel{}).
			Where("id = ?", "R-2").
			Update("collection_status", finance.CollectionAtNotary).Error)

		for i := range originals {
			s.Negotiate(&originals[i])
		}
		err = f.settlements.Create(ctx, s, originals, s.GenerateInstallments())
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

		_, err = f.settlements.FindByID(ctx, s.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		r1, err := f.records.FindByID(ctx, finance.VariantReceivable, "R-1")
		require.NoError(t, err)
		assert.Nil(t, r1.SettlementRef)
		assert.Equal(t, "OPEN", r1.Status)
		linked, err := f.records.FindBySettlement(ctx, s.ID)
		require.NoError(t, err)
		assert.Empty(t, linked)
	})
}

func TestGormSettlementRepository_Cancel(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture(t)
	s, installments := f.create(t)

	linked, err := f.records.FindBySettlement(ctx, s.ID)
	require.NoError(t, err)
	originals, _ := s.SplitByOrigin(linked)
	today := day("2024-01-15")
	for i := range originals {
		s.Restore(&originals[i], today)
	}
	require.NoError(t, s.Cancel(today))
	s.IncrementVersion()

	ids := make([]string, 0, len(installments))
	for _, inst := range installments {
		ids = append(ids, inst.ID)
	}
	require.NoError(t, f.settlements.Cancel(ctx, s, originals, ids))

	r1, err := f.records.FindByID(ctx, finance.VariantReceivable, "R-1")
	require.NoError(t, err)
	assert.Equal(t, "OVERDUE", r1.Status)
	assert.True(t, r1.OutstandingBalance.Equal(decimal.NewFromInt(700)))
	assert.Nil(t, r1.SettlementRef)
	assert.Equal(t, finance.CollectionCollectable, r1.CollectionStatus)

	r2, err := f.records.FindByID(ctx, finance.VariantReceivable, "R-2")
	require.NoError(t, err)
	assert.Equal(t, "OPEN", r2.Status)

	_, err = f.records.FindByID(ctx, finance.VariantReceivable, installments[0].ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	loaded, err := f.settlements.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.SettlementCanceled, loaded.Status)
	assert.Equal(t, 2, loaded.Version)

	t.Run("canceled settlements are listed only on request", func(t *testing.T) {
		_, total, err := f.settlements.List(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Zero(t, total)

		filter := shared.DefaultFilter()
		filter.Filters["status"] = "canceled"
		items, total, err := f.settlements.List(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, items, 1)
		assert.Len(t, items[0].NegotiatedRecords, 2)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		stale := *s
		stale.Version = 2
		err := f.settlements.Finalize(ctx, &stale, nil)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}

func TestGormSettlementRepository_Finalize(t *testing.T) {
	ctx := context.Background()
	f := newSettlementFixture(t)
	s, _ := f.create(t)

	linked, err := f.records.FindBySettlement(ctx, s.ID)
	require.NoError(t, err)
	originals, installments := s.SplitByOrigin(linked)
	for i := range installments {
		installments[i].Liquidate(day("2024-03-10"), "PIX")
	}
	now := time.Now()
	require.NoError(t, s.Liquidate(installments, now))
	s.IncrementVersion()
	for i := range originals {
		originals[i].CollectionStatus = finance.CollectionNonCollectable
	}
	require.NoError(t, f.settlements.Finalize(ctx, s, originals))

	loaded, err := f.settlements.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.SettlementLiquidated, loaded.Status)
	require.NotNil(t, loaded.LiquidatedAt)

	r1, err := f.records.FindByID(ctx, finance.VariantReceivable, "R-1")
	require.NoError(t, err)
	assert.Equal(t, finance.CollectionNonCollectable, r1.CollectionStatus)

	items, total, err := f.settlements.List(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, s.ID, items[0].ID)
}
