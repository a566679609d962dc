package policy

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrMalformedPolicy = errors.New("malformed policy")
)
