package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals input rejected at the boundary.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing item in the primary store.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate signals a primary-store uniqueness violation.
	ErrDuplicate = errors.New("already exists")
	// ErrIndex marks any failure of a search index call made on the write path.
	ErrIndex = errors.New("index error")
	// ErrDocumentNotFound signals a missing document in the search index.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrSearchUnavailable signals that the search index could not serve a read.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrReconciliationPartial signals that some items failed to re-sync.
	ErrReconciliationPartial = errors.New("reconciliation partially failed")
)

// Index operations reported in IndexError.Op.
const (
	OpCreate      = "create"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpUpsert      = "upsert"
	OpEnsureIndex = "ensure_index"
	OpListIDs     = "list_ids"
)

// IndexError is a failed search index mutation. It matches both ErrIndex and
// the underlying cause under errors.Is.
type IndexError struct {
	Op  string
	ID  string
	Err error
}

func (e *IndexError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("index %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("index %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *IndexError) Unwrap() []error { return []error{ErrIndex, e.Err} }

// NewIndexError wraps err as an IndexError.
func NewIndexError(op, id string, err error) error {
	return &IndexError{Op: op, ID: id, Err: err}
}
