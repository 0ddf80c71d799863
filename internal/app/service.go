// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/geku/kutu/internal/adapters/cache"
	"github.com/geku/kutu/internal/adapters/latex"
	"github.com/geku/kutu/internal/adapters/mq/queue"
	"github.com/geku/kutu/internal/adapters/mq/worker"
	"github.com/geku/kutu/internal/domain/document"
	"github.com/geku/kutu/internal/domain/ingest"
	"github.com/geku/kutu/internal/domain/interchange"
	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/ranking"
	"github.com/geku/kutu/internal/domain/types"
	"github.com/geku/kutu/pkg/logger"
	"github.com/geku/kutu/pkg/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Content types of produced artifacts.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeZip  = "application/zip"
	ContentTypeYAML = "application/yaml"
	ContentTypeCSV  = "text/csv; charset=utf-8"
)

const (
	defaultQueueSize         = 64
	defaultArtifactCacheSize = 32
	bundleFilename           = "Rankings.zip"
	rankingFilename          = "Ranking.pdf"
)

// Compiler turns document source into compiled bytes.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// Artifact is a produced file.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service wires ingestion, ranking, document synthesis and compilation.
type Service struct {
	mu sync.RWMutex

	// Core components
	compiler Compiler
	cache    cache.Cache
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	workerCount       int
	queueSize         int
	artifactCacheSize int
	apparatus         []string
	delimiter         rune

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of compile workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the compile job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithArtifactCacheSize bounds the artifact cache. Zero disables it.
func WithArtifactCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.artifactCacheSize = size
		}
	}
}

// WithApparatus sets the apparatus labels used for notesheets. Lists that do
// not hold exactly model.ApparatusCount labels are ignored.
func WithApparatus(labels []string) Option {
	return func(s *Service) {
		if len(labels) == model.ApparatusCount {
			s.apparatus = append([]string(nil), labels...)
		}
	}
}

// WithDefaultDelimiter sets the delimiter used when a caller passes zero.
func WithDefaultDelimiter(d rune) Option {
	return func(s *Service) {
		if d != 0 {
			s.delimiter = d
		}
	}
}

// WithCompiler sets the document compiler.
func WithCompiler(c Compiler) Option {
	return func(s *Service) {
		if c != nil {
			s.compiler = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         defaultQueueSize,
		artifactCacheSize: defaultArtifactCacheSize,
		apparatus:         append([]string(nil), model.DefaultApparatus...),
		delimiter:         ingest.DefaultDelimiter,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start creates the queue, cache and worker pool. Calling it twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.compiler == nil {
		return ErrNoCompiler
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.cache = cache.New(cache.WithMaxEntries(s.artifactCacheSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.compiler)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "document service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("artifactCacheSize", s.artifactCacheSize),
	)

	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping document service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "document service stopped")
}

// Notesheets parses group-delimited record text and returns the merged
// notesheet PDF with one page per group and apparatus.
func (s *Service) Notesheets(ctx context.Context, r io.Reader, delimiter rune) (Artifact, error) {
	groups, err := ingest.ParseGroups(r, s.delimiterOr(delimiter))
	if err != nil {
		return Artifact{}, err
	}
	if len(groups) == 0 {
		return Artifact{}, ErrNoGroups
	}

	doc := document.Notesheets(groups, s.apparatus)
	data, err := s.compile(ctx, doc)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{
		Filename:    fmt.Sprintf("Notesheets_%dGroups_x%d_merged.pdf", len(groups), len(s.apparatus)),
		ContentType: ContentTypePDF,
		Data:        data,
	}, nil
}

// Ranking returns the ranking PDF of the first category in req.
func (s *Service) Ranking(ctx context.Context, req model.RankingRequest) (Artifact, error) {
	apparatus, standings, err := s.rank(req)
	if err != nil {
		return Artifact{}, err
	}

	categories := ranking.Categories(req.Athletes)
	doc := document.Ranking(document.RankingTitle(categories), strings.TrimSpace(req.CompetitionName), apparatus, standings[0])
	data, err := s.compile(ctx, doc)
	if err != nil {
		return Artifact{}, err
	}

	filename := rankingFilename
	if len(categories) == 1 {
		filename = rankingFilenameFor(categories[0])
	}

	return Artifact{Filename: filename, ContentType: ContentTypePDF, Data: data}, nil
}

// RankingBundle compiles one ranking per category concurrently and packs
// them into a zip archive in category order.
func (s *Service) RankingBundle(ctx context.Context, req model.RankingRequest) (Artifact, error) {
	apparatus, standings, err := s.rank(req)
	if err != nil {
		return Artifact{}, err
	}

	footer := strings.TrimSpace(req.CompetitionName)
	pdfs := make([][]byte, len(standings))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range standings {
		i, st := i, st
		g.Go(func() error {
			doc := document.Ranking(document.RankingTitle([]string{st.Category}), footer, apparatus, st)
			data, err := s.compile(gctx, doc)
			if err != nil {
				return fmt.Errorf("category %q: %w", st.Category, err)
			}
			pdfs[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Artifact{}, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, st := range standings {
		w, err := zw.Create(rankingFilenameFor(st.Category))
		if err != nil {
			return Artifact{}, fmt.Errorf("write archive: %w", err)
		}
		if _, err := w.Write(pdfs[i]); err != nil {
			return Artifact{}, fmt.Errorf("write archive: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return Artifact{}, fmt.Errorf("write archive: %w", err)
	}

	return Artifact{Filename: bundleFilename, ContentType: ContentTypeZip, Data: buf.Bytes()}, nil
}

// Standings ranks req without compiling anything.
func (s *Service) Standings(_ context.Context, req model.RankingRequest) ([]types.Standing, error) {
	_, standings, err := s.rank(req)
	if err != nil {
		return nil, err
	}
	return types.FromStandings(standings), nil
}

// Export encodes req as a YAML interchange file.
func (s *Service) Export(req model.RankingRequest) (Artifact, error) {
	data, err := interchange.Export(req)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Filename: "competition.yaml", ContentType: ContentTypeYAML, Data: data}, nil
}

// Import decodes a YAML interchange file.
func (s *Service) Import(data []byte) (model.RankingRequest, error) {
	return interchange.Import(data)
}

// RecordText renders req as scored group-delimited record text.
func (s *Service) RecordText(req model.RankingRequest, delimiter rune) (Artifact, error) {
	text, err := interchange.RecordText(req, s.delimiterOr(delimiter))
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Filename: "competition.csv", ContentType: ContentTypeCSV, Data: []byte(text)}, nil
}

// FromRecordText reads scored record text back into a request.
func (s *Service) FromRecordText(r io.Reader, delimiter rune) (model.RankingRequest, error) {
	return interchange.FromRecordText(r, s.delimiterOr(delimiter), s.apparatus)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"artifactCacheSize": s.artifactCacheSize,
		"apparatus":         s.apparatus,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["cachedArtifacts"] = s.cache.Len()
		stats["workers"] = s.pool.Stats()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateCacheEntries(s.cache.Len())
	}

	return stats
}

func (s *Service) rank(req model.RankingRequest) ([]string, []ranking.Standing, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	apparatus := req.ApparatusOrDefault()
	standings, err := ranking.Rank(req.Athletes, len(apparatus))
	if err != nil {
		return nil, nil, err
	}

	rows := 0
	for _, st := range standings {
		rows += len(st.Rows)
	}
	metrics.RecordRankedRows(rows)

	return apparatus, standings, nil
}

// compile serialises doc and returns the compiled bytes, from the artifact
// cache when the same source was compiled before.
func (s *Service) compile(ctx context.Context, doc document.Document) ([]byte, error) {
	s.mu.RLock()
	started, c, q := s.started, s.cache, s.queue
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	source, err := latex.Render(doc)
	if err != nil {
		return nil, err
	}
	metrics.RecordDocumentRendered(doc.Kind.String())

	return c.GetOrCompute(ctx, cache.Key(source), func(ctx context.Context) ([]byte, error) {
		return s.submit(ctx, q, doc.Kind.String(), source)
	})
}

func (s *Service) submit(ctx context.Context, q queue.Queue, kind, source string) ([]byte, error) {
	job := queue.NewJob(ctx, uuid.NewString(), kind, source)
	if err := q.Enqueue(ctx, job); err != nil {
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return nil, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return nil, err
	}

	select {
	case r := <-job.Done:
		return r.Data, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) delimiterOr(d rune) rune {
	if d == 0 {
		return s.delimiter
	}
	return d
}

// rankingFilenameFor keeps the category readable while dropping characters
// that are unsafe in file names.
func rankingFilenameFor(category string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(category))
	return "Ranking_" + safe + ".pdf"
}
