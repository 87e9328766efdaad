package models

import (
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerColumns holds the columns shared by the receivables and payables tables.
type LedgerColumns struct {
	ID                 string                   `gorm:"type:varchar(100);primaryKey"`
	IssueDate          *time.Time               `gorm:"type:date"`
	DueDate            time.Time                `gorm:"type:date;not null;index"`
	SettlementDate     *time.Time               `gorm:"type:date"`
	FaceAmount         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	OutstandingBalance decimal.Decimal          `gorm:"type:decimal(18,4);not null;check:outstanding_balance >= 0"`
	PaidAmount         decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Status             string                   `gorm:"type:varchar(50);not null;index"`
	Category           string                   `gorm:"type:varchar(200);index"`
	PaymentMethod      string                   `gorm:"type:varchar(50)"`
	DocumentNumber     string                   `gorm:"type:varchar(100)"`
	History            string                   `gorm:"type:text"`
	PixKey             string                   `gorm:"type:varchar(200)"`
	Period             string                   `gorm:"type:varchar(7);not null;index"`
	CollectionStatus   finance.CollectionStatus `gorm:"type:varchar(30);not null;default:'COLLECTABLE';index"`
	SettlementRef      *uuid.UUID               `gorm:"type:uuid;index"`
	CreatedAt          time.Time                `gorm:"not null"`
	UpdatedAt          time.Time                `gorm:"not null"`
}

func (c LedgerColumns) toDomain(variant finance.Variant, counterparty string) finance.LedgerRecord {
	return finance.LedgerRecord{
		ID:                 c.ID,
		Variant:            variant,
		CounterpartyName:   counterparty,
		IssueDate:          c.IssueDate,
		DueDate:            c.DueDate.UTC(),
		SettlementDate:     c.SettlementDate,
		FaceAmount:         c.FaceAmount,
		OutstandingBalance: c.OutstandingBalance,
		PaidAmount:         c.PaidAmount,
		Status:             c.Status,
		Category:           c.Category,
		PaymentMethod:      c.PaymentMethod,
		DocumentNumber:     c.DocumentNumber,
		History:            c.History,
		PixKey:             c.PixKey,
		Period:             c.Period,
		CollectionStatus:   c.CollectionStatus,
		SettlementRef:      c.SettlementRef,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func ledgerColumnsFromDomain(r *finance.LedgerRecord) LedgerColumns {
	now := time.Now()
	created := r.CreatedAt
	if created.IsZero() {
		created = now
	}
	return LedgerColumns{
		ID:                 r.ID,
		IssueDate:          r.IssueDate,
		DueDate:            r.DueDate,
		SettlementDate:     r.SettlementDate,
		FaceAmount:         r.FaceAmount,
		OutstandingBalance: r.OutstandingBalance,
		PaidAmount:         r.PaidAmount,
		Status:             r.Status,
		Category:           r.Category,
		PaymentMethod:      r.PaymentMethod,
		DocumentNumber:     r.DocumentNumber,
		History:            r.History,
		PixKey:             r.PixKey,
		Period:             r.Period,
		CollectionStatus:   r.CollectionStatus,
		SettlementRef:      r.SettlementRef,
		CreatedAt:          created,
		UpdatedAt:          now,
	}
}

// LedgerRow is implemented by both ledger table models
type LedgerRow interface {
	ToDomain() finance.LedgerRecord
}

// ReceivableModel is the persistence model of receivable records.
type ReceivableModel struct {
	LedgerColumns `gorm:"embedded"`
	ClientName    string `gorm:"type:varchar(200);not null;index"`
}

// TableName returns the table name for GORM
func (ReceivableModel) TableName() string {
	return "receivables"
}

// ToDomain converts the persistence model to the canonical ledger record.
func (m ReceivableModel) ToDomain() finance.LedgerRecord {
	return m.LedgerColumns.toDomain(finance.VariantReceivable, m.ClientName)
}

// ReceivableModelFromDomain creates a persistence model from a ledger record.
func ReceivableModelFromDomain(r *finance.LedgerRecord) *ReceivableModel {
	return &ReceivableModel{LedgerColumns: ledgerColumnsFromDomain(r), ClientName: r.CounterpartyName}
}

// PayableModel is the persistence model of payable records.
type PayableModel struct {
	LedgerColumns `gorm:"embedded"`
	SupplierName  string `gorm:"type:varchar(200);not null;index"`
}

// TableName returns the table name for GORM
func (PayableModel) TableName() string {
	return "payables"
}

// ToDomain converts the persistence model to the canonical ledger record.
func (m PayableModel) ToDomain() finance.LedgerRecord {
	return m.LedgerColumns.toDomain(finance.VariantPayable, m.SupplierName)
}

// PayableModelFromDomain creates a persistence model from a ledger record.
func PayableModelFromDomain(r *finance.LedgerRecord) *PayableModel {
	return &PayableModel{LedgerColumns: ledgerColumnsFromDomain(r), SupplierName: r.CounterpartyName}
}

// LedgerTable returns the table holding records of the variant.
func LedgerTable(variant finance.Variant) (string, error) {
	switch variant {
	case finance.VariantReceivable:
		return ReceivableModel{}.TableName(), nil
	case finance.VariantPayable:
		return PayableModel{}.TableName(), nil
	}
	return "", fmt.Errorf("unknown ledger variant %q", variant)
}

// CounterpartyColumn returns the variant-specific counterparty column.
func CounterpartyColumn(variant finance.Variant) string {
	if variant == finance.VariantPayable {
		return "supplier_name"
	}
	return "client_name"
}

// ImportedColumns lists the columns an import is allowed to overwrite.
// Internal columns (collection_status, settlement_ref, created_at) are left alone.
func ImportedColumns(variant finance.Variant) []string {
	return []string{
		CounterpartyColumn(variant),
		"issue_date", "due_date", "settlement_date",
		"face_amount", "outstanding_balance", "paid_amount",
		"status", "category", "payment_method",
		"document_number", "history", "pix_key", "period",
		"updated_at",
	}
}

// LedgerRowsFromDomain converts records into a slice of the variant's model,
// ready to be passed to gorm's Create.
func LedgerRowsFromDomain(variant finance.Variant, records []finance.LedgerRecord) (interface{}, error) {
	switch variant {
	case finance.VariantReceivable:
		rows := make([]ReceivableModel, 0, len(records))
		for i := range records {
			rows = append(rows, *ReceivableModelFromDomain(&records[i]))
		}
		return &rows, nil
	case finance.VariantPayable:
		rows := make([]PayableModel, 0, len(records))
		for i := range records {
			rows = append(rows, *PayableModelFromDomain(&records[i]))
		}
		return &rows, nil
	}
	return nil, fmt.Errorf("unknown ledger variant %q", variant)
}
