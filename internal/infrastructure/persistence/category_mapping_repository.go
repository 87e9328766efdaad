package persistence

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCategoryMappingRepository implements CategoryMappingRepository using GORM
type GormCategoryMappingRepository struct {
	db *gorm.DB
}

// NewGormCategoryMappingRepository creates a new GormCategoryMappingRepository
func NewGormCategoryMappingRepository(db *gorm.DB) *GormCategoryMappingRepository {
	return &GormCategoryMappingRepository{db: db}
}

// FindAll returns the whole dictionary ordered by label
func (r *GormCategoryMappingRepository) FindAll(ctx context.Context) ([]finance.CategoryMapping, error) {
	var rows []models.CategoryMappingModel
	if err := r.db.WithContext(ctx).Order("label").Find(&rows).Error; err != nil {
		return nil, shared.NewStoreError("list category mappings", err)
	}
	out := make([]finance.CategoryMapping, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

// FindByLabel finds the mapping of a category label
func (r *GormCategoryMappingRepository) FindByLabel(ctx context.Context, label string) (*finance.CategoryMapping, error) {
	var model models.CategoryMappingModel
	if err := r.db.WithContext(ctx).First(&model, "label = ?", label).Error; err != nil {
		if isNotFound(err) {
			return nil, shared.NewNotFoundError(fmt.Sprintf("category %q is not mapped", label))
		}
		return nil, shared.NewStoreError("find category mapping", err)
	}
	mapping := model.ToDomain()
	return &mapping, nil
}

// Upsert inserts the mapping or overwrites the existing one with the same label
func (r *GormCategoryMappingRepository) Upsert(ctx context.Context, mapping *finance.CategoryMapping) error {
	model := models.CategoryMappingModelFromDomain(mapping)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "label"}},
			DoUpdates: clause.AssignmentColumns([]string{"category_group", "subgroup", "verified", "updated_by", "updated_at"}),
		}).
		Create(model).Error
	return shared.NewStoreError("upsert category mapping", err)
}
