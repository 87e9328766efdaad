package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ConfirmCategoryInput is a user-confirmed classification of a label
type ConfirmCategoryInput struct {
	Label    string
	Group    finance.CategoryGroup
	Subgroup string
	Actor    shared.Actor
}

// UnmappedSuggestion pairs an unmapped label with its heuristic classification
type UnmappedSuggestion struct {
	Label      string             `json:"label"`
	Suggestion finance.Suggestion `json:"suggestion"`
}

// CategoryService maintains the category mapping dictionary
type CategoryService struct {
	runtime
	mappings finance.CategoryMappingRepository
	records  finance.LedgerRecordRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(mappings finance.CategoryMappingRepository, records finance.LedgerRecordRepository, opts ...Option) *CategoryService {
	return &CategoryService{
		runtime:  newRuntime(opts),
		mappings: mappings,
		records:  records,
	}
}

// Confirm stores a verified mapping for the label, replacing any previous
// one. Confirming the same mapping twice leaves the dictionary unchanged.
func (s *CategoryService) Confirm(ctx context.Context, in ConfirmCategoryInput) (*finance.CategoryMapping, error) {
	mapping, err := finance.NewCategoryMapping(in.Label, in.Group, in.Subgroup, in.Actor)
	if err != nil {
		return nil, err
	}
	if err := s.mappings.Upsert(ctx, mapping); err != nil {
		return nil, err
	}
	s.invalidateReports(ctx)
	s.record(ctx, finance.NewAuditEntry(in.Actor, finance.AuditCategoryConfirmed, mapping.Label,
		fmt.Sprintf("%s / %s", mapping.Group, mapping.Subgroup), nil))
	logger.L(ctx).Info("Category mapping confirmed",
		zap.String("label", mapping.Label),
		zap.String("group", string(mapping.Group)),
		zap.String("subgroup", mapping.Subgroup),
	)
	return mapping, nil
}

// List returns every mapping ordered by label
func (s *CategoryService) List(ctx context.Context) ([]finance.CategoryMapping, error) {
	return s.mappings.FindAll(ctx)
}

// Suggest classifies a label without touching the dictionary
func (s *CategoryService) Suggest(label string) finance.Suggestion {
	return finance.SuggestCategory(label)
}

// FindUnmapped returns the sorted distinct category labels of the
// non-canceled records of both variants in [start, end] that have no mapping.
func (s *CategoryService) FindUnmapped(ctx context.Context, start, end time.Time) ([]string, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	records, err := loadBothVariants(ctx, s.records, start, end)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappings.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return finance.FindUnmapped(statementRecords(records), finance.NewMappingIndex(mappings)), nil
}

// SuggestUnmapped suggests a classification for every unmapped label in range
func (s *CategoryService) SuggestUnmapped(ctx context.Context, start, end time.Time) ([]UnmappedSuggestion, error) {
	labels, err := s.FindUnmapped(ctx, start, end)
	if err != nil {
		return nil, err
	}
	out := make([]UnmappedSuggestion, 0, len(labels))
	for _, label := range labels {
		out = append(out, UnmappedSuggestion{Label: label, Suggestion: finance.SuggestCategory(label)})
	}
	return out, nil
}

func statementRecords(records []finance.LedgerRecord) []finance.LedgerRecord {
	out := records[:0:0]
	for _, r := range records {
		if r.InStatement() {
			out = append(out, r)
		}
	}
	return out
}

func checkRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return shared.NewValidationError("start and end dates are required")
	}
	if end.Before(start) {
		return shared.NewValidationError("end date must not be before start date")
	}
	return nil
}
