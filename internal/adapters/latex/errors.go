package latex

import "errors"

// Sentinel error kinds for this package.
var (
	ErrUnsupportedKind = errors.New("unsupported document kind")
	ErrSectionShape    = errors.New("section table does not match document kind")
	ErrRender          = errors.New("render latex")
)
