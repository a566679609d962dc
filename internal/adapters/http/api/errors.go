package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBadTimeRange = errors.New("invalid time bound; use RFC3339 or YYYY-MM-DD")
	ErrEmptyReason  = errors.New("missing reason")
	ErrEmptyRoster  = errors.New("roster must list at least one address")
)
