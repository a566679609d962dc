package rotation

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrRosterEmpty = errors.New("roster empty")
)
