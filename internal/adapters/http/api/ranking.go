// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/geku/kutu/internal/domain/model"
)

// RankingGenerator produces ranking documents and standings.
type RankingGenerator interface {
	Ranking(ctx context.Context, req model.RankingRequest) (Artifact, error)
	RankingBundle(ctx context.Context, req model.RankingRequest) (Artifact, error)
	Standings(ctx context.Context, req model.RankingRequest) ([]Standing, error)
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	base
	deps RankingGenerator
}

// HandleRanking handles POST /api/ranking.
func (h *RankingHandler) HandleRanking(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "api.ranking", h.deps.Ranking)
}

// HandleBundle handles POST /api/ranking/all.
func (h *RankingHandler) HandleBundle(w http.ResponseWriter, r *http.Request) {
	h.serveArtifact(w, r, "api.ranking_all", h.deps.RankingBundle)
}

// HandleStandings handles POST /api/ranking/standings.
func (h *RankingHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	const op = "api.standings"
	req, ok := h.request(w, r, op)
	if !ok {
		return
	}
	standings, err := h.deps.Standings(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (h *RankingHandler) serveArtifact(w http.ResponseWriter, r *http.Request, op string, produce func(context.Context, model.RankingRequest) (Artifact, error)) {
	req, ok := h.request(w, r, op)
	if !ok {
		return
	}
	art, err := produce(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeArtifact(w, art)
}

func (h *RankingHandler) request(w http.ResponseWriter, r *http.Request, op string) (model.RankingRequest, bool) {
	if r.Method != http.MethodPost {
		h.fail(w, r, wrapKind(op, ErrMethodNotAllowed, nil))
		return model.RankingRequest{}, false
	}
	req, err := h.decodeRequest(w, r)
	if err != nil {
		h.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return model.RankingRequest{}, false
	}
	return req, true
}
