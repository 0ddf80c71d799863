// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"io"
	"net/http"
	"strings"
)

// NotesheetGenerator builds merged notesheets from record text.
type NotesheetGenerator interface {
	Notesheets(ctx context.Context, r io.Reader, delimiter rune) (Artifact, error)
}

// NotesheetsHandler handles notesheet requests.
type NotesheetsHandler struct {
	base
	deps NotesheetGenerator
}

// HandleMerged handles POST /api/notesheets/merged. The record text is read
// from the multipart field "file" or, for other content types, the raw body.
func (h *NotesheetsHandler) HandleMerged(w http.ResponseWriter, r *http.Request) {
	const op = "api.notesheets"
	if r.Method != http.MethodPost {
		h.fail(w, r, wrapKind(op, ErrMethodNotAllowed, nil))
		return
	}

	delim, err := delimiter(r)
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	body := io.Reader(r.Body)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile("file")
		if err != nil {
			h.fail(w, r, wrapKind(op, ErrBadRequest, err))
			return
		}
		defer func() { _ = f.Close() }()
		body = f
	}

	art, err := h.deps.Notesheets(r.Context(), body, delim)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeArtifact(w, art)
}
