package finance

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
)

// CodePartialCommit is the error code of PartialCommitError
const CodePartialCommit = "PARTIAL_COMMIT"

// PartialCommitError reports a batch commit that stopped after some chunks
// were written. Committed records stay committed; re-running the commit on
// the same items is safe.
type PartialCommitError struct {
	Committed int
	Total     int
	Err       error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("commit stopped after %d of %d records: %v", e.Committed, e.Total, e.Err)
}

func (e *PartialCommitError) Unwrap() error {
	return e.Err
}

// DomainError exposes the failure through the shared error envelope
func (e *PartialCommitError) DomainError() *shared.DomainError {
	return shared.NewDomainError(CodePartialCommit, e.Error())
}
