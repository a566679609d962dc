package correlation

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoIdentity        = errors.New("assignment has no identity")
	ErrDuplicateIdentity = errors.New("assignment identity already tracked")
	ErrNotOpen           = errors.New("no open assignment with that identity")
	ErrNotReconciled     = errors.New("assignment is not reconciled")
)
