// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	service "github.com/geku/kutu/internal/app"
	"github.com/geku/kutu/internal/domain/ingest"
	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/types"
	"github.com/geku/kutu/pkg/logger"
)

const defaultMaxBodyBytes = 16 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	NotesheetGenerator
	RankingGenerator
	InterchangeConverter
}

// Artifact is a produced file.
type Artifact = service.Artifact

// Standing mirrors the JSON shape returned by standings queries.
type Standing = types.Standing

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	notesheetsHandler  *NotesheetsHandler
	rankingHandler     *RankingHandler
	interchangeHandler *InterchangeHandler

	cors bool
}

// Option configures the Server.
type Option func(*options)

type options struct {
	maxBodyBytes int64
	cors         bool
	logger       logger.Logger
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithCORS enables permissive cross-origin headers.
func WithCORS(enabled bool) Option {
	return func(o *options) { o.cors = enabled }
}

// WithLogger sets the logger handlers report failures to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := options{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	b := base{maxBodyBytes: o.maxBodyBytes, logger: o.logger}

	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		notesheetsHandler:  &NotesheetsHandler{base: b, deps: deps},
		rankingHandler:     &RankingHandler{base: b, deps: deps},
		interchangeHandler: &InterchangeHandler{base: b, deps: deps},
		cors:               o.cors,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	handle := func(path, endpoint string, h http.HandlerFunc) {
		h = MetricsMiddleware(h, endpoint)
		if s.cors {
			h = CORSMiddleware(h)
		}
		mux.HandleFunc(path, h)
	}

	handle("/healthz", "healthz", s.healthHandler.HandleHealth)
	handle("/stats", "stats", s.statsHandler.HandleStats)
	handle("/api/notesheets/merged", "notesheets", s.notesheetsHandler.HandleMerged)
	handle("/api/ranking", "ranking", s.rankingHandler.HandleRanking)
	handle("/api/ranking/all", "ranking_all", s.rankingHandler.HandleBundle)
	handle("/api/ranking/standings", "standings", s.rankingHandler.HandleStandings)
	handle("/api/interchange/export", "export", s.interchangeHandler.HandleExport)
	handle("/api/interchange/import", "import", s.interchangeHandler.HandleImport)
	handle("/api/interchange/records", "records", s.interchangeHandler.HandleRecords)
	handle("/api/interchange/records/parse", "records_parse", s.interchangeHandler.HandleParseRecords)
}

// base holds what every handler needs to decode requests and report errors.
type base struct {
	maxBodyBytes int64
	logger       logger.Logger
}

func (b base) decodeRequest(w http.ResponseWriter, r *http.Request) (model.RankingRequest, error) {
	var req model.RankingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, b.maxBodyBytes)).Decode(&req); err != nil {
		return model.RankingRequest{}, err
	}
	return req, nil
}

// fail writes err as a JSON problem and logs server-side failures.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := classify(err)
	if p.status >= http.StatusInternalServerError {
		b.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", p.status),
			logger.Error(err),
		)
	} else {
		b.logger.Debug(r.Context(), "request rejected",
			logger.String("path", r.URL.Path),
			logger.Int("status", p.status),
			logger.Error(err),
		)
	}
	writeProblem(w, p, err)
}

// delimiter reads the optional ?delimiter= query parameter. Zero means default.
func delimiter(r *http.Request) (rune, error) {
	raw, ok := r.URL.Query()["delimiter"]
	if !ok || len(raw) == 0 || raw[0] == "" {
		return 0, nil
	}
	return ingest.ParseDelimiter(raw[0])
}

type errorResponse struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, p problem, err error) {
	msg := http.StatusText(p.status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, p.status, errorResponse{Code: p.code, Title: p.title, Message: msg, Diagnostics: diagnostics(err)})
}

func writeArtifact(w http.ResponseWriter, a Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}
