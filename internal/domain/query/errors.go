package query

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrTimeout = errors.New("search timed out")
)
