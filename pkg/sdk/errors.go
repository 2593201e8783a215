package itemdex

import "github.com/kailas-cloud/itemdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation            = domain.ErrValidation
	ErrNotFound              = domain.ErrNotFound
	ErrDuplicate             = domain.ErrDuplicate
	ErrIndex                 = domain.ErrIndex
	ErrSearchUnavailable     = domain.ErrSearchUnavailable
	ErrReconciliationPartial = domain.ErrReconciliationPartial
)
