// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
//  1. Domain entities carry no GORM tags
//  2. Persistence models contain all GORM annotations and table mappings
//  3. Mappers convert between domain entities and persistence models
//  4. Variant-specific column names (client_name, supplier_name) are resolved here,
//     so the domain only ever sees the canonical finance.LedgerRecord
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - ledger.go: receivables and payables tables
// - category_mapping.go: category mapping dictionary
// - settlement.go: settlements and their negotiated-record snapshots
// - audit_log.go: append-only audit trail
package models
