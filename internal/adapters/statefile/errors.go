package statefile

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotExist = errors.New("state file does not exist")
	ErrRead     = errors.New("state file read failed")
	ErrWrite    = errors.New("state file write failed")
	ErrCorrupt  = errors.New("state file corrupt")
)
