// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"io"
	"net/http"

	"github.com/geku/kutu/internal/domain/model"
)

// InterchangeConverter converts requests to and from the exchange formats.
type InterchangeConverter interface {
	Export(req model.RankingRequest) (Artifact, error)
	Import(data []byte) (model.RankingRequest, error)
	RecordText(req model.RankingRequest, delimiter rune) (Artifact, error)
	FromRecordText(r io.Reader, delimiter rune) (model.RankingRequest, error)
}

// InterchangeHandler handles import and export requests.
type InterchangeHandler struct {
	base
	deps InterchangeConverter
}

// HandleExport handles POST /api/interchange/export: JSON in, YAML out.
func (h *InterchangeHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	if r.Method != http.MethodPost {
		h.fail(w, r, wrapKind(op, ErrMethodNotAllowed, nil))
		return
	}
	req, err := h.decodeRequest(w, r)
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	art, err := h.deps.Export(req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeArtifact(w, art)
}

// HandleImport handles POST /api/interchange/import: YAML in, JSON out.
func (h *InterchangeHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"
	if r.Method != http.MethodPost {
		h.fail(w, r, wrapKind(op, ErrMethodNotAllowed, nil))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := h.deps.Import(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// HandleRecords handles POST /api/interchange/records: JSON in, scored record text out.
func (h *InterchangeHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.records"
	if r.Method != http.MethodPost {
		h.fail(w, r, wrapKind(op, ErrMethodNotAllowed, nil))
		return
	}
	delim, err := delimiter(r)
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := h.decodeRequest(w, r)
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	art, err := h.deps.RecordText(req, delim)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeArtifact(w, art)
}

// HandleParseRecords handles POST /api/interchange/records/parse: scored
// record text in, JSON out.
func (h *InterchangeHandler) HandleParseRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.records_parse"
	if r.Method != http.MethodPost {
		h.fail(w, r, wrapKind(op, ErrMethodNotAllowed, nil))
		return
	}
	delim, err := delimiter(r)
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	req, err := h.deps.FromRecordText(http.MaxBytesReader(w, r.Body, h.maxBodyBytes), delim)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
