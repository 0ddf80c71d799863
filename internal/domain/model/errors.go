package model

import "errors"

// Sentinel error kinds for domain input validation.
var (
	ErrNoAthletes = errors.New("no athletes in request")
)
