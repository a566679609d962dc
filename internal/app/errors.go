package service

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoHost      = errors.New("no mailbox host configured")
	ErrStartFailed = errors.New("service start failed")
	ErrConfigWrite = errors.New("config write failed")
)
