package mailbox

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrHostUnavailable = errors.New("mailbox host unavailable")
)
