package storage

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound = errors.New("key not found")
	ErrClosed   = errors.New("store closed")
)
