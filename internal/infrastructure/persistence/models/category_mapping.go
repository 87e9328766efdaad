package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
)

// CategoryMappingModel is the persistence model of the category mapping dictionary.
type CategoryMappingModel struct {
	Label     string                `gorm:"type:varchar(200);primaryKey"`
	Group     finance.CategoryGroup `gorm:"column:category_group;type:varchar(30);not null;index"`
	Subgroup  string                `gorm:"type:varchar(100);not null"`
	Verified  bool                  `gorm:"not null;default:false"`
	UpdatedBy string                `gorm:"type:varchar(200)"`
	CreatedAt time.Time             `gorm:"not null"`
	UpdatedAt time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryMappingModel) TableName() string {
	return "category_mappings"
}

// ToDomain converts the persistence model to a domain CategoryMapping.
func (m *CategoryMappingModel) ToDomain() finance.CategoryMapping {
	return finance.CategoryMapping{
		Label:     m.Label,
		Group:     m.Group,
		Subgroup:  m.Subgroup,
		Verified:  m.Verified,
		UpdatedBy: m.UpdatedBy,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CategoryMappingModelFromDomain creates a persistence model from a domain CategoryMapping.
func CategoryMappingModelFromDomain(c *finance.CategoryMapping) *CategoryMappingModel {
	return &CategoryMappingModel{
		Label:     c.Label,
		Group:     c.Group,
		Subgroup:  c.Subgroup,
		Verified:  c.Verified,
		UpdatedBy: c.UpdatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
