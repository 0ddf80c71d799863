// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and KUTU_* env vars.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/geku/kutu/internal/domain/ingest"
	"github.com/geku/kutu/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EngineName is the document engine executable name without extension.
	EngineName string `koanf:"engine_name"`

	// EnginePath, when set, is used instead of discovering the engine.
	EnginePath string `koanf:"engine_path"`

	// BaseDir is searched for a bundled engine before the default locations.
	BaseDir string `koanf:"base_dir"`

	// CacheDir is the persistent engine cache. Empty derives one from the user cache dir.
	CacheDir string `koanf:"cache_dir"`

	// CacheEnv names the environment variable the engine reads its cache dir from.
	CacheEnv string `koanf:"cache_env"`

	// EngineArgs replaces the engine's default arguments when non-empty.
	EngineArgs []string `koanf:"engine_args"`

	// CompileTimeoutMS bounds a single compilation. Zero disables the bound.
	CompileTimeoutMS int `koanf:"compile_timeout_ms"`

	// WorkerCount sets the number of compile workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the compile job queue.
	QueueSize int `koanf:"queue_size"`

	// ArtifactCacheSize bounds cached compiled documents. Zero disables the cache.
	ArtifactCacheSize int `koanf:"artifact_cache_size"`

	// SerializeCache runs compilations sharing a cache dir one at a time.
	SerializeCache bool `koanf:"serialize_cache"`

	// CORS enables permissive cross-origin headers on the API.
	CORS bool `koanf:"cors"`

	// DefaultDelimiter is used when a request names no delimiter.
	DefaultDelimiter string `koanf:"default_delimiter"`

	// Apparatus lists the apparatus labels in rotation order.
	Apparatus []string `koanf:"apparatus"`

	// MetricsNamespace prefixes every exported metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`

	// MetricsBucketsMS replaces the latency histogram buckets when non-empty.
	MetricsBucketsMS []float64 `koanf:"metrics_buckets_ms"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		EngineName:        "tectonic",
		CacheEnv:          "TECTONIC_CACHE_DIR",
		CompileTimeoutMS:  120_000,
		WorkerCount:       runtime.NumCPU(),
		QueueSize:         64,
		ArtifactCacheSize: 32,
		CORS:              true,
		DefaultDelimiter:  ";",
		Apparatus:         append([]string(nil), model.DefaultApparatus...),
		MetricsNamespace:  "kutu",
	}
}

// CompileTimeout returns the compile bound as a duration.
func (c *Config) CompileTimeout() time.Duration {
	return time.Duration(c.CompileTimeoutMS) * time.Millisecond
}

// Delimiter returns the parsed default delimiter.
func (c *Config) Delimiter() rune {
	d, err := ingest.ParseDelimiter(c.DefaultDelimiter)
	if err != nil {
		return ingest.DefaultDelimiter
	}
	return d
}

// Validate reports the first invalid setting wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.EngineName) == "":
		return fmt.Errorf("%w: engine_name must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.CacheEnv) == "":
		return fmt.Errorf("%w: cache_env must not be empty", ErrInvalidConfig)
	case c.CompileTimeoutMS < 0:
		return fmt.Errorf("%w: compile_timeout_ms must not be negative", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ArtifactCacheSize < 0:
		return fmt.Errorf("%w: artifact_cache_size must not be negative", ErrInvalidConfig)
	case len(c.Apparatus) != model.ApparatusCount:
		return fmt.Errorf("%w: apparatus needs %d labels, got %d", ErrInvalidConfig, model.ApparatusCount, len(c.Apparatus))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := ingest.ParseDelimiter(c.DefaultDelimiter); err != nil {
		return fmt.Errorf("%w: default_delimiter: %w", ErrInvalidConfig, err)
	}
	if !validMetricName(c.MetricsNamespace) {
		return fmt.Errorf("%w: invalid metrics_namespace %q", ErrInvalidConfig, c.MetricsNamespace)
	}
	for i := 1; i < len(c.MetricsBucketsMS); i++ {
		if c.MetricsBucketsMS[i] <= c.MetricsBucketsMS[i-1] {
			return fmt.Errorf("%w: metrics_buckets_ms must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// validMetricName reports whether s is a usable prometheus name prefix.
func validMetricName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
