package activitylog

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrAppend = errors.New("activity log append failed")
	ErrRead   = errors.New("activity log read failed")
)
