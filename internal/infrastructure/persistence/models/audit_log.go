package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditLogModel is the persistence model of the append-only audit trail.
type AuditLogModel struct {
	ID         uuid.UUID           `gorm:"type:uuid;primaryKey"`
	ActorName  string              `gorm:"type:varchar(200);not null"`
	ActorEmail string              `gorm:"type:varchar(200)"`
	ActorRole  string              `gorm:"type:varchar(100)"`
	Action     finance.AuditAction `gorm:"type:varchar(50);not null;index"`
	Subject    string              `gorm:"type:varchar(300);index"`
	Details    string              `gorm:"type:text"`
	Amount     *decimal.Decimal    `gorm:"type:decimal(18,4)"`
	Timestamp  time.Time           `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *AuditLogModel) ToDomain() finance.AuditEntry {
	return finance.AuditEntry{
		ID:        m.ID,
		Actor:     shared.Actor{Name: m.ActorName, Email: m.ActorEmail, Role: m.ActorRole},
		Action:    m.Action,
		Subject:   m.Subject,
		Details:   m.Details,
		Amount:    m.Amount,
		Timestamp: m.Timestamp,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain AuditEntry.
func AuditLogModelFromDomain(e *finance.AuditEntry) *AuditLogModel {
	return &AuditLogModel{
		ID:         e.ID,
		ActorName:  e.Actor.Name,
		ActorEmail: e.Actor.Email,
		ActorRole:  e.Actor.Role,
		Action:     e.Action,
		Subject:    e.Subject,
		Details:    e.Details,
		Amount:     e.Amount,
		Timestamp:  e.Timestamp,
	}
}

// AllModels lists every model of the ledger schema, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&ReceivableModel{},
		&PayableModel{},
		&CategoryMappingModel{},
		&SettlementModel{},
		&SettlementRecordModel{},
		&AuditLogModel{},
	}
}
