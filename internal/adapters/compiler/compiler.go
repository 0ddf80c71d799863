// Package compiler runs the external document engine on serialised sources.
//
// Every job gets a fresh work directory holding a single source file. The
// engine runs there with a persistent cache directory passed through its
// environment. The work directory is removed on every exit path.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/geku/kutu/pkg/logger"
	"github.com/geku/kutu/pkg/metrics"
	"github.com/google/uuid"
)

// Engine defaults.
const (
	DefaultEngine    = "tectonic"
	DefaultCacheEnv  = "TECTONIC_CACHE_DIR"
	SourceFile       = "document.tex"
	OutputFile       = "document.pdf"
	defaultMaxOutput = 64 << 10
	defaultWaitDelay = 2 * time.Second
	workDirPrefix    = "kutu-"
	cacheDirPerm     = 0o755
	sourceFilePerm   = 0o600
)

// DefaultArgs are passed to the engine unless replaced with WithArgs.
var DefaultArgs = []string{SourceFile, "--keep-logs", "--keep-intermediates"} //nolint:gochecknoglobals // read-only defaults

// Compiler turns document source text into compiled bytes.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// Tectonic invokes a tectonic-compatible engine as a child process.
type Tectonic struct {
	resolver  Resolver
	args      []string
	cacheDir  string
	cacheEnv  string
	timeout   time.Duration
	waitDelay time.Duration
	serialize bool
	tempDir   string
	maxOutput int
	locks     *keyedLock
	logger    logger.Logger
}

// New creates a compiler that locates its engine through resolver.
func New(resolver Resolver, opts ...Option) *Tectonic {
	t := &Tectonic{
		resolver:  resolver,
		args:      append([]string(nil), DefaultArgs...),
		cacheEnv:  DefaultCacheEnv,
		waitDelay: defaultWaitDelay,
		maxOutput: defaultMaxOutput,
		locks:     newKeyedLock(),
		logger:    logger.Get().Named("compiler"),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// PlatformCacheDir returns <base>/<engine>-cache/<platform>.
func PlatformCacheDir(base, engine string) string {
	return filepath.Join(base, engine+"-cache", Platform())
}

// Compile runs one job. Cancelling ctx kills the engine process.
func (t *Tectonic) Compile(ctx context.Context, source string) ([]byte, error) {
	engine, err := t.resolver.Resolve(ctx)
	if err != nil {
		metrics.RecordCompileFailure("engine_not_found")
		return nil, err
	}

	jobID := uuid.NewString()
	log := logger.FromContext(ctx, t.logger).With(logger.String("job_id", jobID))

	// The timeout bounds the whole job, including the wait for the cache lock.
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp(t.tempDir, workDirPrefix+jobID+"-")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkDir, err)
	}
	defer t.cleanup(ctx, log, dir)

	if err := os.WriteFile(filepath.Join(dir, SourceFile), []byte(source), sourceFilePerm); err != nil {
		return nil, fmt.Errorf("%w: write source: %w", ErrWorkDir, err)
	}
	if t.cacheDir != "" {
		if err := os.MkdirAll(t.cacheDir, cacheDirPerm); err != nil {
			return nil, fmt.Errorf("%w: cache dir: %w", ErrWorkDir, err)
		}
		if t.serialize {
			unlock, err := t.locks.Lock(ctx, t.cacheDir)
			if err != nil {
				metrics.RecordCompileFailure("canceled")
				return nil, fmt.Errorf("%w: job %s: waiting for cache lock: %w", ErrCanceled, jobID, err)
			}
			defer unlock()
		}
	}

	data, err := t.run(ctx, log, jobID, engine, dir)
	if err != nil {
		metrics.RecordCompileJob("failure")
		return nil, err
	}
	metrics.RecordCompileJob("success")
	return data, nil
}

func (t *Tectonic) run(ctx context.Context, log logger.Logger, jobID, engine, dir string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, engine, t.args...)
	cmd.Dir = dir
	cmd.Env = t.environ()
	cmd.WaitDelay = t.waitDelay
	stdout, stderr := newTailBuffer(t.maxOutput), newTailBuffer(t.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Debug(ctx, "starting engine", logger.String("engine", engine), logger.String("dir", dir))
	start := time.Now()
	metrics.AddCompileInFlight(1)
	runErr := cmd.Run()
	metrics.AddCompileInFlight(-1)
	elapsed := time.Since(start)
	metrics.RecordCompileDuration(float64(elapsed.Milliseconds()))

	log.Debug(ctx, "engine finished",
		logger.Int("duration_ms", int(elapsed.Milliseconds())),
		logger.String("stdout", stdout.String()),
		logger.String("stderr", stderr.String()),
		logger.Int("discarded_bytes", stdout.Discarded()+stderr.Discarded()),
	)

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.RecordCompileFailure("canceled")
			log.Warn(ctx, "engine stopped by context", logger.Error(ctxErr))
			return nil, fmt.Errorf("%w: job %s: %w", ErrCanceled, jobID, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			metrics.RecordCompileFailure("exit_code")
			cerr := &CompileError{
				JobID:       jobID,
				ExitCode:    exitErr.ExitCode(),
				Diagnostics: diagnostics(stdout, stderr),
				Err:         ErrCompileFailed,
			}
			log.Warn(ctx, "engine failed", logger.Int("exit_code", cerr.ExitCode), logger.String("diagnostics", cerr.Diagnostics))
			return nil, cerr
		}
		metrics.RecordCompileFailure("start")
		return nil, fmt.Errorf("%w: %w", ErrStart, runErr)
	}

	data, err := os.ReadFile(filepath.Join(dir, OutputFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.RecordCompileFailure("output_missing")
			return nil, &CompileError{JobID: jobID, Diagnostics: diagnostics(stdout, stderr), Err: ErrOutputMissing}
		}
		metrics.RecordCompileFailure("read_output")
		return nil, fmt.Errorf("read %s: %w", OutputFile, err)
	}

	log.Info(ctx, "compiled document", logger.Int("bytes", len(data)), logger.Int("duration_ms", int(elapsed.Milliseconds())))
	return data, nil
}

// environ returns the process environment with the cache variable replaced.
func (t *Tectonic) environ() []string {
	env := os.Environ()
	if t.cacheDir == "" {
		return env
	}
	prefix := t.cacheEnv + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+t.cacheDir)
}

// cleanup removes the work directory. Failures are logged only.
func (t *Tectonic) cleanup(ctx context.Context, log logger.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		log.Warn(ctx, "failed to remove work dir", logger.String("dir", dir), logger.Error(err))
	}
}

func diagnostics(stdout, stderr *tailBuffer) string {
	out := strings.TrimSpace(stdout.String())
	errOut := strings.TrimSpace(stderr.String())
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}
