package service

import (
	"errors"

	"github.com/geku/kutu/internal/domain/model"
)

// Service error kinds.
var (
	ErrBackpressure = errors.New("compile queue is full")
	ErrNotStarted   = errors.New("service not started")
	ErrNoCompiler   = errors.New("no compiler configured")
	ErrNoGroups     = errors.New("no groups in input")
	ErrNoAthletes   = model.ErrNoAthletes
)
