package persistence

import (
	"context"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Append stores a new audit entry
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *finance.AuditEntry) error {
	err := r.db.WithContext(ctx).Create(models.AuditLogModelFromDomain(entry)).Error
	return shared.NewStoreError("append audit entry", err)
}

// List returns audit entries, newest first by default.
// Supported filters: action, subject, actor.
func (r *GormAuditLogRepository) List(ctx context.Context, filter shared.Filter) ([]finance.AuditEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLogModel{})
	if action, ok := filter.Filters["action"].(string); ok && action != "" {
		query = query.Where("action = ?", action)
	}
	if subject, ok := filter.Filters["subject"].(string); ok && subject != "" {
		query = query.Where("subject = ?", subject)
	}
	if actor, ok := filter.Filters["actor"].(string); ok && actor != "" {
		query = query.Where("actor_name = ?", actor)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, shared.NewStoreError("count audit entries", err)
	}

	var rows []models.AuditLogModel
	err := paginate(query, filter).
		Order(orderClause(filter.OrderBy, filter.OrderDir, AuditLogSortFields, "timestamp")).
		Find(&rows).Error
	if err != nil {
		return nil, 0, shared.NewStoreError("list audit entries", err)
	}

	out := make([]finance.AuditEntry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, total, nil
}
