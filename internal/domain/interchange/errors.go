package interchange

import "errors"

// Sentinel error kinds for this package.
var (
	ErrDecode             = errors.New("decode interchange file")
	ErrUnsupportedVersion = errors.New("unsupported interchange version")
)
