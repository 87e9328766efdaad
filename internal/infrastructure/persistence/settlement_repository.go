package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettlementRepository implements SettlementRepository using GORM.
// Every write runs in one transaction together with the ledger rows it touches.
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

func preloadNegotiated(db *gorm.DB) *gorm.DB {
	return db.Preload("NegotiatedRecords", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

// FindByID finds a settlement by id, including canceled ones
func (r *GormSettlementRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Settlement, error) {
	var model models.SettlementModel
	if err := preloadNegotiated(r.db.WithContext(ctx).Unscoped()).
		First(&model, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("settlement %s not found", id))
		}
		return nil, shared.NewStoreError("find settlement", err)
	}
	return model.ToDomain(), nil
}

// List returns settlements matching the filter.
// Supported filters: status, counterparty. Canceled settlements are only
// listed when filtered by CANCELED status.
func (r *GormSettlementRepository) List(ctx context.Context, filter shared.Filter) ([]finance.Settlement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SettlementModel{})
	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		status = strings.ToUpper(status)
		if finance.SettlementStatus(status) == finance.SettlementCanceled {
			query = query.Unscoped()
		}
		query = query.Where("status = ?", status)
	}
	if counterparty, ok := filter.Filters["counterparty"].(string); ok && counterparty != "" {
		query = query.Where("LOWER(counterparty_name) = LOWER(?)", strings.TrimSpace(counterparty))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, shared.NewStoreError("count settlements", err)
	}

	var rows []models.SettlementModel
	err := preloadNegotiated(paginate(query, filter)).
		Order(orderClause(filter.OrderBy, filter.OrderDir, SettlementSortFields, "created_at")).
		Find(&rows).Error
	if err != nil {
		return nil, 0, shared.NewStoreError("list settlements", err)
	}

	out := make([]finance.Settlement, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].ToDomain())
	}
	return out, total, nil
}

// Create inserts the settlement, blocks the negotiated originals and inserts
// the installments. A negotiated row whose collection status changed since it
// was read, or that another settlement already references, aborts everything
// with a concurrency conflict.
func (r *GormSettlementRepository) Create(ctx context.Context, settlement *finance.Settlement, negotiated []finance.LedgerRecord, installments []finance.LedgerRecord) error {
	model := models.SettlementModelFromDomain(settlement)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return shared.NewStoreError("create settlement", err)
		}
		for i := range negotiated {
			if err := lockNegotiated(tx, settlement, &negotiated[i]); err != nil {
				return err
			}
		}
		if err := insertReceivables(tx, installments); err != nil {
			return shared.NewStoreError("create installments", err)
		}
		return nil
	})
}

// lockNegotiated compare-and-swaps an original receivable into the blocked state
func lockNegotiated(tx *gorm.DB, settlement *finance.Settlement, record *finance.LedgerRecord) error {
	snap, ok := settlement.Snapshot(record.ID)
	if !ok {
		return shared.NewValidationError(fmt.Sprintf("record %s is not negotiated by settlement %s", record.ID, settlement.ShortID()))
	}
	now := time.Now()
	result := tx.Model(&models.ReceivableModel{}).
		Where("id = ? AND collection_status = ? AND settlement_ref IS NULL", record.ID, snap.PriorCollectionStatus).
		Updates(map[string]interface{}{
			"status":              record.Status,
			"outstanding_balance": record.OutstandingBalance,
			"collection_status":   record.CollectionStatus,
			"settlement_ref":      settlement.ID,
			"updated_at":          now,
		})
	if result.Error != nil {
		return shared.NewStoreError("lock negotiated record", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("record %s was modified by another process", record.ID))
	}
	record.UpdatedAt = now
	return nil
}

// Finalize saves the LIQUIDATED settlement and its updated originals
func (r *GormSettlementRepository) Finalize(ctx context.Context, settlement *finance.Settlement, originals []finance.LedgerRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateSettlementVersioned(tx, settlement); err != nil {
			return err
		}
		for i := range originals {
			if err := saveLedgerRecord(tx, &originals[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Cancel deletes the installments, restores the originals and soft-deletes
// the CANCELED settlement.
func (r *GormSettlementRepository) Cancel(ctx context.Context, settlement *finance.Settlement, restored []finance.LedgerRecord, installmentIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(installmentIDs) > 0 {
			err := tx.Where("id IN ? AND settlement_ref = ?", installmentIDs, settlement.ID).
				Delete(&models.ReceivableModel{}).Error
			if err != nil {
				return shared.NewStoreError("delete installments", err)
			}
		}
		for i := range restored {
			if err := saveLedgerRecord(tx, &restored[i]); err != nil {
				return err
			}
		}
		if err := updateSettlementVersioned(tx, settlement); err != nil {
			return err
		}
		if err := tx.Delete(&models.SettlementModel{}, "id = ?", settlement.ID).Error; err != nil {
			return shared.NewStoreError("delete settlement", err)
		}
		return nil
	})
}

// updateSettlementVersioned writes the lifecycle columns when the stored
// version is the one preceding settlement.Version.
func updateSettlementVersioned(tx *gorm.DB, settlement *finance.Settlement) error {
	result := tx.Model(&models.SettlementModel{}).
		Where("id = ? AND version = ?", settlement.ID, settlement.Version-1).
		Updates(map[string]interface{}{
			"status":        settlement.Status,
			"liquidated_at": settlement.LiquidatedAt,
			"canceled_at":   settlement.CanceledAt,
			"version":       settlement.Version,
			"updated_at":    settlement.UpdatedAt,
		})
	if result.Error != nil {
		return shared.NewStoreError("update settlement", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("settlement %s was modified by another process", settlement.ShortID()))
	}
	return nil
}
