package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// idChunkSize bounds the number of bind parameters of a single IN query
const idChunkSize = 500

// GormLedgerRecordRepository implements LedgerRecordRepository using GORM.
// Receivables and payables live in separate tables; the variant selects one.
type GormLedgerRecordRepository struct {
	db *gorm.DB
}

// NewGormLedgerRecordRepository creates a new GormLedgerRecordRepository
func NewGormLedgerRecordRepository(db *gorm.DB) *GormLedgerRecordRepository {
	return &GormLedgerRecordRepository{db: db}
}

// findLedgerRows runs scope against the table of M and converts the rows
func findLedgerRows[M models.LedgerRow](db *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]finance.LedgerRecord, error) {
	var rows []M
	if err := scope(db.Model(new(M))).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]finance.LedgerRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

func findByVariant(db *gorm.DB, variant finance.Variant, scope func(*gorm.DB) *gorm.DB) ([]finance.LedgerRecord, error) {
	switch variant {
	case finance.VariantReceivable:
		return findLedgerRows[models.ReceivableModel](db, scope)
	case finance.VariantPayable:
		return findLedgerRows[models.PayableModel](db, scope)
	}
	return nil, shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", variant))
}

// FindByID finds a ledger record by its id
func (r *GormLedgerRecordRepository) FindByID(ctx context.Context, variant finance.Variant, id string) (*finance.LedgerRecord, error) {
	records, err := findByVariant(r.db.WithContext(ctx), variant, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id).Limit(1)
	})
	if err != nil {
		return nil, shared.NewStoreError("find ledger record", err)
	}
	if len(records) == 0 {
		return nil, shared.NewNotFoundError(fmt.Sprintf("%s %s not found", variant, id))
	}
	return &records[0], nil
}

// FindByIDs returns the existing records among ids
func (r *GormLedgerRecordRepository) FindByIDs(ctx context.Context, variant finance.Variant, ids []string) ([]finance.LedgerRecord, error) {
	out := make([]finance.LedgerRecord, 0, len(ids))
	db := r.db.WithContext(ctx)
	for start := 0; start < len(ids); start += idChunkSize {
		end := min(start+idChunkSize, len(ids))
		chunk := ids[start:end]
		records, err := findByVariant(db, variant, func(db *gorm.DB) *gorm.DB {
			return db.Where("id IN ?", chunk)
		})
		if err != nil {
			return nil, shared.NewStoreError("find ledger records", err)
		}
		out = append(out, records...)
	}
	return out, nil
}

// FindByPeriodRange returns records whose period lies within [from, to]
func (r *GormLedgerRecordRepository) FindByPeriodRange(ctx context.Context, variant finance.Variant, from, to string) ([]finance.LedgerRecord, error) {
	records, err := findByVariant(r.db.WithContext(ctx), variant, func(db *gorm.DB) *gorm.DB {
		return db.Where("period BETWEEN ? AND ?", from, to).Order("period, due_date, id")
	})
	if err != nil {
		return nil, shared.NewStoreError("find ledger records by period", err)
	}
	return records, nil
}

// FindCollectionCandidates returns boleto, agreement and notary receivables
func (r *GormLedgerRecordRepository) FindCollectionCandidates(ctx context.Context) ([]finance.LedgerRecord, error) {
	records, err := findLedgerRows[models.ReceivableModel](r.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("UPPER(payment_method) = ? OR category = ? OR collection_status = ?",
			finance.PaymentMethodBoleto, finance.CategoryCommercialAgreement, finance.CollectionAtNotary).
			Order("client_name, due_date, id")
	})
	if err != nil {
		return nil, shared.NewStoreError("find collection candidates", err)
	}
	return records, nil
}

// FindBySettlement returns every receivable referencing the settlement
func (r *GormLedgerRecordRepository) FindBySettlement(ctx context.Context, settlementID uuid.UUID) ([]finance.LedgerRecord, error) {
	records, err := findLedgerRows[models.ReceivableModel](r.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("settlement_ref = ?", settlementID).Order("due_date, id")
	})
	if err != nil {
		return nil, shared.NewStoreError("find settlement records", err)
	}
	return records, nil
}

// UpsertBatch inserts new records and updates the imported columns of
// existing ones. Rows referenced by a settlement are left untouched.
func (r *GormLedgerRecordRepository) UpsertBatch(ctx context.Context, variant finance.Variant, records []finance.LedgerRecord) error {
	if len(records) == 0 {
		return nil
	}
	table, err := models.LedgerTable(variant)
	if err != nil {
		return shared.NewValidationError(err.Error())
	}
	rows, err := models.LedgerRowsFromDomain(variant, records)
	if err != nil {
		return shared.NewValidationError(err.Error())
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(models.ImportedColumns(variant)),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: table + ".settlement_ref IS NULL"},
			}},
		}).
		Create(rows).Error
	return shared.NewStoreError("upsert ledger records", err)
}

// Save updates every column of an existing record
func (r *GormLedgerRecordRepository) Save(ctx context.Context, record *finance.LedgerRecord) error {
	return saveLedgerRecord(r.db.WithContext(ctx), record)
}

// saveLedgerRecord writes a full record; shared by transactional callers
func saveLedgerRecord(db *gorm.DB, record *finance.LedgerRecord) error {
	var model interface{}
	switch record.Variant {
	case finance.VariantReceivable:
		model = models.ReceivableModelFromDomain(record)
	case finance.VariantPayable:
		model = models.PayableModelFromDomain(record)
	default:
		return shared.NewValidationError(fmt.Sprintf("unknown ledger variant %q", record.Variant))
	}

	result := db.Model(model).
		Where("id = ?", record.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return shared.NewStoreError("save ledger record", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(fmt.Sprintf("%s %s not found", record.Variant, record.ID))
	}
	record.UpdatedAt = time.Now()
	return nil
}

// insertReceivables creates new receivable rows; used for installments
func insertReceivables(db *gorm.DB, records []finance.LedgerRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows, err := models.LedgerRowsFromDomain(finance.VariantReceivable, records)
	if err != nil {
		return err
	}
	return db.Create(rows).Error
}

// isNotFound reports whether err is gorm's record-not-found
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
