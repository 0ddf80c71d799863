package ingest

import "errors"

// Sentinel error kinds for this package.
var (
	ErrRead             = errors.New("read input failed")
	ErrInvalidDelimiter = errors.New("invalid delimiter")
)
