package dto

import (
	"github.com/erp/ledger/internal/domain/finance"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
)

// StageRequest carries import rows as JSON objects. Keys may be internal
// field names, English labels or Portuguese export headers.
type StageRequest struct {
	Rows []map[string]any `json:"rows" binding:"required,min=1"`
}

// StageResponse is a classified batch plus import warnings
// @Description Staged import batch
type StageResponse struct {
	Variant  finance.Variant        `json:"variant"`
	Items    []finance.StagedItem   `json:"items"`
	Summary  finance.StagingSummary `json:"summary"`
	Warnings []string               `json:"warnings,omitempty"`
}

// CommitRequest sends reviewed staged items back for writing
type CommitRequest struct {
	Items      []finance.StagedItem `json:"items" binding:"required,min=1"`
	SourceName string               `json:"source_name" binding:"omitempty,max=200"`
	BatchSize  int                  `json:"batch_size" binding:"omitempty,min=1,max=5000"`
}

// ImportErrorDetails lists the rows that rejected an import batch
type ImportErrorDetails struct {
	Errors      []csvimport.RowError `json:"errors"`
	TotalErrors int                  `json:"total_errors"`
	IsTruncated bool                 `json:"is_truncated,omitempty"`
}

// NewImportErrorDetails converts an import error for the response body
func NewImportErrorDetails(err *csvimport.ImportError) ImportErrorDetails {
	return ImportErrorDetails{
		Errors:      err.Rows,
		TotalErrors: err.Total,
		IsTruncated: err.Total > len(err.Rows),
	}
}

// PartialCommitDetails reports how far a failed commit progressed
type PartialCommitDetails struct {
	Committed int `json:"committed"`
	Total     int `json:"total"`
}
