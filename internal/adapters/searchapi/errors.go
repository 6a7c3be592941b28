package searchapi

import "errors"

// Sentinel kinds for API client errors.
var (
	ErrStatus = errors.New("unexpected response status")
)
