package finance

import (
	"github.com/shopspring/decimal"
)

// StageStatus classifies an imported record against the persisted ledger
type StageStatus string

const (
	StageNew       StageStatus = "NEW"
	StageChanged   StageStatus = "CHANGED"
	StageUnchanged StageStatus = "UNCHANGED"
)

// Field names reported in StagedItem.ChangedFields
const (
	FieldDueDate            = "dueDate"
	FieldOutstandingBalance = "outstandingBalance"
	FieldStatus             = "status"
)

// BalanceTolerance is the largest balance difference still treated as equal
var BalanceTolerance = decimal.New(1, -2)

// StagedItem is an imported record with its classification
type StagedItem struct {
	Record        LedgerRecord `json:"record"`
	Status        StageStatus  `json:"status"`
	ChangedFields []string     `json:"changed_fields,omitempty"`
	// Locked marks a record owned by a settlement; imports cannot change it
	Locked bool `json:"locked,omitempty"`
}

// StagingSummary counts staged items per classification
type StagingSummary struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Changed    int `json:"changed"`
	Unchanged  int `json:"unchanged"`
	Duplicates int `json:"duplicates"`
	Locked     int `json:"locked"`
}

// DedupeBatch drops earlier occurrences of a repeated id; the last one wins
// and keeps its position. It returns the number of dropped records.
func DedupeBatch(imported []LedgerRecord) ([]LedgerRecord, int) {
	last := make(map[string]int, len(imported))
	for i, r := range imported {
		last[r.ID] = i
	}
	out := make([]LedgerRecord, 0, len(last))
	for i, r := range imported {
		if last[r.ID] == i {
			out = append(out, r)
		}
	}
	return out, len(imported) - len(out)
}

// DiffRecord lists the compared fields that differ between imported and current
func DiffRecord(imported, current LedgerRecord) []string {
	var changed []string
	if !DateOf(imported.DueDate).Equal(DateOf(current.DueDate)) {
		changed = append(changed, FieldDueDate)
	}
	if imported.OutstandingBalance.Sub(current.OutstandingBalance).Abs().GreaterThan(BalanceTolerance) {
		changed = append(changed, FieldOutstandingBalance)
	}
	if imported.NormalizedStatus() != current.NormalizedStatus() {
		changed = append(changed, FieldStatus)
	}
	return changed
}

// DiffBatch classifies every imported record against the current ledger
// state, keyed by exact record id. It performs no I/O. Records referenced
// by a settlement are UNCHANGED and Locked whatever the import says.
func DiffBatch(imported []LedgerRecord, current map[string]LedgerRecord) []StagedItem {
	items := make([]StagedItem, 0, len(imported))
	for _, rec := range imported {
		existing, ok := current[rec.ID]
		if !ok {
			items = append(items, StagedItem{Record: rec, Status: StageNew})
			continue
		}
		if existing.IsLocked() {
			items = append(items, StagedItem{Record: rec, Status: StageUnchanged, Locked: true})
			continue
		}
		if changed := DiffRecord(rec, existing); len(changed) > 0 {
			items = append(items, StagedItem{Record: rec, Status: StageChanged, ChangedFields: changed})
			continue
		}
		items = append(items, StagedItem{Record: rec, Status: StageUnchanged})
	}
	return items
}

// SummarizeStaging counts the items of a staged batch
func SummarizeStaging(items []StagedItem, duplicates int) StagingSummary {
	s := StagingSummary{Total: len(items), Duplicates: duplicates}
	for _, it := range items {
		switch it.Status {
		case StageNew:
			s.New++
		case StageChanged:
			s.Changed++
		case StageUnchanged:
			s.Unchanged++
		}
		if it.Locked {
			s.Locked++
		}
	}
	return s
}

// PendingWrites returns the records of NEW and CHANGED items, in order
func PendingWrites(items []StagedItem) []LedgerRecord {
	out := make([]LedgerRecord, 0, len(items))
	for _, it := range items {
		if it.Status == StageUnchanged {
			continue
		}
		out = append(out, it.Record)
	}
	return out
}

// SplitLocked separates records whose stored row is referenced by a
// settlement from the ones an import may write.
func SplitLocked(records []LedgerRecord, current map[string]LedgerRecord) (writable []LedgerRecord, locked []string) {
	writable = make([]LedgerRecord, 0, len(records))
	for _, r := range records {
		if existing, ok := current[r.ID]; ok && existing.IsLocked() {
			locked = append(locked, r.ID)
			continue
		}
		writable = append(writable, r)
	}
	return writable, locked
}
