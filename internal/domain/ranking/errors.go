package ranking

import "errors"

// Sentinel error kinds for this package.
var (
	ErrNoCategories = errors.New("no categories found")
)
