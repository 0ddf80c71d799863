package compiler

import (
	"time"

	"github.com/geku/kutu/pkg/logger"
)

// Option applies a configuration option to the Tectonic compiler.
type Option func(*Tectonic)

// WithArgs replaces the engine arguments.
func WithArgs(args ...string) Option {
	return func(t *Tectonic) {
		if len(args) > 0 {
			t.args = append([]string(nil), args...)
		}
	}
}

// WithCacheDir sets the persistent engine cache directory shared by all jobs.
func WithCacheDir(dir string) Option {
	return func(t *Tectonic) {
		t.cacheDir = dir
	}
}

// WithCacheEnv sets the environment variable that carries the cache dir.
func WithCacheEnv(name string) Option {
	return func(t *Tectonic) {
		if name != "" {
			t.cacheEnv = name
		}
	}
}

// WithTimeout bounds each engine run. Zero means no limit besides the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(t *Tectonic) {
		if d >= 0 {
			t.timeout = d
		}
	}
}

// WithWaitDelay bounds how long I/O is drained after the engine is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(t *Tectonic) {
		if d > 0 {
			t.waitDelay = d
		}
	}
}

// WithSerializedCache runs at most one engine per cache directory at a time.
func WithSerializedCache(enabled bool) Option {
	return func(t *Tectonic) {
		t.serialize = enabled
	}
}

// WithTempDir sets the parent of the per-job work directories.
func WithTempDir(dir string) Option {
	return func(t *Tectonic) {
		t.tempDir = dir
	}
}

// WithMaxOutput bounds the engine output kept per stream.
func WithMaxOutput(n int) Option {
	return func(t *Tectonic) {
		if n > 0 {
			t.maxOutput = n
		}
	}
}

// WithLogger sets a custom logger for the compiler.
func WithLogger(l logger.Logger) Option {
	return func(t *Tectonic) {
		if l != nil {
			t.logger = l
		}
	}
}
