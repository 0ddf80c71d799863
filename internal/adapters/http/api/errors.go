package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/geku/kutu/internal/app"
	"github.com/geku/kutu/internal/adapters/compiler"
	"github.com/geku/kutu/internal/adapters/latex"
	"github.com/geku/kutu/internal/domain/ingest"
	"github.com/geku/kutu/internal/domain/interchange"
	"github.com/geku/kutu/internal/domain/ranking"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// wrapKind tags err with the operation and an API error kind.
func wrapKind(op string, kind, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", op, kind)
	}
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// problem is the HTTP rendition of an error.
type problem struct {
	status int
	code   string
	title  string
}

// classify maps domain and adapter errors to HTTP problems. Unknown errors are 500.
func classify(err error) problem {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrNoAthletes),
		errors.Is(err, service.ErrNoGroups),
		errors.Is(err, ranking.ErrNoCategories),
		errors.Is(err, ingest.ErrRead),
		errors.Is(err, ingest.ErrInvalidDelimiter),
		errors.Is(err, interchange.ErrDecode),
		errors.Is(err, interchange.ErrUnsupportedVersion):
		return problem{http.StatusBadRequest, "bad_request", "Invalid input"}
	case errors.Is(err, ErrMethodNotAllowed):
		return problem{http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed"}
	case errors.Is(err, service.ErrBackpressure):
		return problem{http.StatusTooManyRequests, "backpressure", "Too many pending documents"}
	case errors.Is(err, compiler.ErrEngineNotFound):
		return problem{http.StatusServiceUnavailable, "engine_not_found", "Document engine unavailable"}
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrNoCompiler):
		return problem{http.StatusServiceUnavailable, "unavailable", "Service unavailable"}
	case errors.Is(err, compiler.ErrCompileFailed),
		errors.Is(err, compiler.ErrOutputMissing),
		errors.Is(err, compiler.ErrStart):
		return problem{http.StatusBadGateway, "compile_failed", "Document compilation failed"}
	case errors.Is(err, context.DeadlineExceeded):
		return problem{http.StatusGatewayTimeout, "timeout", "Document compilation timed out"}
	case errors.Is(err, compiler.ErrCanceled), errors.Is(err, context.Canceled):
		return problem{http.StatusServiceUnavailable, "canceled", "Request canceled"}
	case errors.Is(err, latex.ErrUnsupportedKind), errors.Is(err, latex.ErrSectionShape):
		return problem{http.StatusInternalServerError, "render_failed", "Document rendering failed"}
	default:
		return problem{http.StatusInternalServerError, "internal", "Internal error"}
	}
}

// diagnostics returns the engine output tail carried by a compile error.
func diagnostics(err error) string {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.Diagnostics
	}
	return ""
}
