package finance

import (
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditAction names the operation recorded in an audit entry
type AuditAction string

const (
	AuditImportCommit          AuditAction = "IMPORT_COMMIT"
	AuditCategoryConfirmed     AuditAction = "CATEGORY_CONFIRMED"
	AuditSettlementCreated     AuditAction = "SETTLEMENT_CREATED"
	AuditInstallmentLiquidated AuditAction = "INSTALLMENT_LIQUIDATED"
	AuditSettlementFinalized   AuditAction = "SETTLEMENT_FINALIZED"
	AuditSettlementCanceled    AuditAction = "SETTLEMENT_CANCELED"
)

// AuditEntry is an append-only record of a mutating operation
type AuditEntry struct {
	ID        uuid.UUID        `json:"id"`
	Actor     shared.Actor     `json:"actor"`
	Action    AuditAction      `json:"action"`
	Subject   string           `json:"subject"`
	Details   string           `json:"details"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewAuditEntry creates an entry stamped with the current time
func NewAuditEntry(actor shared.Actor, action AuditAction, subject, details string, amount *decimal.Decimal) *AuditEntry {
	return &AuditEntry{
		ID:        uuid.New(),
		Actor:     actor.OrSystem(),
		Action:    action,
		Subject:   subject,
		Details:   details,
		Amount:    amount,
		Timestamp: time.Now(),
	}
}
