package service

import (
	"os"
	"path/filepath"

	"github.com/geku/kutu/internal/adapters/compiler"
	"github.com/geku/kutu/internal/config"
	"github.com/geku/kutu/pkg/logger"
)

// EngineCacheDir returns the configured cache dir, or one below the user
// cache directory (falling back to the temp dir) split by platform.
func EngineCacheDir(cfg *config.Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return compiler.PlatformCacheDir(filepath.Join(base, "kutu"), cfg.EngineName)
}

// NewCompiler builds the engine adapter described by cfg.
func NewCompiler(cfg *config.Config, l logger.Logger) *compiler.Tectonic {
	baseDirs := compiler.DefaultBaseDirs()
	if cfg.BaseDir != "" {
		baseDirs = append([]string{cfg.BaseDir}, baseDirs...)
	}

	opts := []compiler.Option{
		compiler.WithCacheDir(EngineCacheDir(cfg)),
		compiler.WithCacheEnv(cfg.CacheEnv),
		compiler.WithTimeout(cfg.CompileTimeout()),
		compiler.WithSerializedCache(cfg.SerializeCache),
		compiler.WithLogger(l),
	}
	if len(cfg.EngineArgs) > 0 {
		opts = append(opts, compiler.WithArgs(cfg.EngineArgs...))
	}

	return compiler.New(compiler.Discover(cfg.EngineName, cfg.EnginePath, baseDirs...), opts...)
}

// NewFromConfig builds a Service from cfg. c replaces the engine adapter when not nil.
func NewFromConfig(cfg *config.Config, l logger.Logger, c Compiler) *Service {
	if c == nil {
		c = NewCompiler(cfg, l.Named("compiler"))
	}
	return New(
		WithLogger(l),
		WithCompiler(c),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithArtifactCacheSize(cfg.ArtifactCacheSize),
		WithApparatus(cfg.Apparatus),
		WithDefaultDelimiter(cfg.Delimiter()),
	)
}
