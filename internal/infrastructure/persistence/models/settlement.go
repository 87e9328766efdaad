package models

import (
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SettlementModel is the persistence model for the Settlement aggregate root.
type SettlementModel struct {
	AggregateModel
	CounterpartyName     string                   `gorm:"type:varchar(200);not null;index"`
	OriginalAmount       decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	AgreedAmount         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	InstallmentCount     int                      `gorm:"not null"`
	Frequency            finance.Frequency        `gorm:"type:varchar(20);not null"`
	FirstInstallmentDate time.Time                `gorm:"type:date;not null"`
	Status               finance.SettlementStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CreatedBy            string                   `gorm:"type:varchar(200)"`
	LiquidatedAt         *time.Time
	CanceledAt           *time.Time
	DeletedAt            gorm.DeletedAt          `gorm:"index"`
	NegotiatedRecords    []SettlementRecordModel `gorm:"foreignKey:SettlementID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SettlementModel) TableName() string {
	return "settlements"
}

// SettlementRecordModel stores an original record negotiated by a settlement
// and the state it had before the agreement.
type SettlementRecordModel struct {
	SettlementID          uuid.UUID                `gorm:"type:uuid;primaryKey"`
	RecordID              string                   `gorm:"type:varchar(100);primaryKey"`
	Position              int                      `gorm:"not null"`
	DueDate               time.Time                `gorm:"type:date;not null"`
	PriorStatus           string                   `gorm:"type:varchar(50);not null"`
	PriorBalance          decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	PriorCollectionStatus finance.CollectionStatus `gorm:"type:varchar(30);not null"`
	NotaryBlocked         bool                     `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SettlementRecordModel) TableName() string {
	return "settlement_records"
}

// ToDomain converts the persistence model to a domain Settlement.
func (m *SettlementModel) ToDomain() *finance.Settlement {
	s := &finance.Settlement{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		CounterpartyName:     m.CounterpartyName,
		OriginalAmount:       m.OriginalAmount,
		AgreedAmount:         m.AgreedAmount,
		InstallmentCount:     m.InstallmentCount,
		Frequency:            m.Frequency,
		FirstInstallmentDate: m.FirstInstallmentDate.UTC(),
		Status:               m.Status,
		CreatedBy:            m.CreatedBy,
		LiquidatedAt:         m.LiquidatedAt,
		CanceledAt:           m.CanceledAt,
	}
	for _, r := range m.NegotiatedRecords {
		s.NegotiatedRecords = append(s.NegotiatedRecords, finance.NegotiatedRecord{
			RecordID:              r.RecordID,
			DueDate:               r.DueDate.UTC(),
			PriorStatus:           r.PriorStatus,
			PriorBalance:          r.PriorBalance,
			PriorCollectionStatus: r.PriorCollectionStatus,
			NotaryBlocked:         r.NotaryBlocked,
		})
	}
	return s
}

// SettlementModelFromDomain creates a persistence model from a domain Settlement.
func SettlementModelFromDomain(s *finance.Settlement) *SettlementModel {
	m := &SettlementModel{
		CounterpartyName:     s.CounterpartyName,
		OriginalAmount:       s.OriginalAmount,
		AgreedAmount:         s.AgreedAmount,
		InstallmentCount:     s.InstallmentCount,
		Frequency:            s.Frequency,
		FirstInstallmentDate: s.FirstInstallmentDate,
		Status:               s.Status,
		CreatedBy:            s.CreatedBy,
		LiquidatedAt:         s.LiquidatedAt,
		CanceledAt:           s.CanceledAt,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, n := range s.NegotiatedRecords {
		m.NegotiatedRecords = append(m.NegotiatedRecords, SettlementRecordModel{
			SettlementID:          s.ID,
			RecordID:              n.RecordID,
			Position:              i,
			DueDate:               n.DueDate,
			PriorStatus:           n.PriorStatus,
			PriorBalance:          n.PriorBalance,
			PriorCollectionStatus: n.PriorCollectionStatus,
			NotaryBlocked:         n.NotaryBlocked,
		})
	}
	return m
}
