package compiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Resolver locates the engine executable.
type Resolver interface {
	Resolve(ctx context.Context) (string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context) (string, error) { return f(ctx) }

// Platform returns the bundled binary directory name for the running OS,
// or "" when no binaries are bundled for it.
func Platform() string {
	return platformFor(runtime.GOOS)
}

func platformFor(goos string) string {
	switch goos {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	case "linux":
		return "linux"
	default:
		return ""
	}
}

// ExecutableName appends the platform executable suffix to engine.
func ExecutableName(engine string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(engine), ".exe") {
		return engine + ".exe"
	}
	return engine
}

// DefaultBaseDirs returns the directory of the running executable and the
// working directory, without duplicates.
func DefaultBaseDirs() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil && (len(dirs) == 0 || dirs[0] != wd) {
		dirs = append(dirs, wd)
	}
	return dirs
}

// Explicit resolves to path when it names an existing file.
func Explicit(path string) Resolver {
	return ResolverFunc(func(context.Context) (string, error) {
		if path == "" {
			return "", fmt.Errorf("%w: no explicit path configured", ErrEngineNotFound)
		}
		if !isFile(path) {
			return "", fmt.Errorf("%w: %s", ErrEngineNotFound, path)
		}
		return path, nil
	})
}

// Bundled looks for <base>/<engine>/<platform>/<exe> under each base dir.
// It never matches on systems without a bundle platform.
func Bundled(engine string, baseDirs ...string) Resolver {
	return bundled(engine, Platform(), baseDirs)
}

func bundled(engine, platform string, baseDirs []string) Resolver {
	return ResolverFunc(func(context.Context) (string, error) {
		if platform == "" {
			return "", fmt.Errorf("%w: no bundled %s for this system", ErrEngineNotFound, engine)
		}
		for _, base := range baseDirs {
			candidate := filepath.Join(base, engine, platform, ExecutableName(engine))
			if isFile(candidate) {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("%w: no bundled %s for %s", ErrEngineNotFound, engine, platform)
	})
}

// Probe walks each base dir for the first executable whose name starts with engine.
// Unreadable directories are skipped.
func Probe(engine string, baseDirs ...string) Resolver {
	prefix := strings.ToLower(engine)
	return ResolverFunc(func(ctx context.Context) (string, error) {
		for _, base := range baseDirs {
			var found string
			_ = filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
				if ctx.Err() != nil {
					return fs.SkipAll
				}
				if err != nil {
					if d != nil && d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				if strings.HasPrefix(strings.ToLower(d.Name()), prefix) && isExecutable(d) {
					found = path
					return fs.SkipAll
				}
				return nil
			})
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if found != "" {
				return found, nil
			}
		}
		return "", fmt.Errorf("%w: no file named %s* below base directories", ErrEngineNotFound, engine)
	})
}

// SearchPath resolves engine through PATH.
func SearchPath(engine string) Resolver {
	return ResolverFunc(func(context.Context) (string, error) {
		path, err := exec.LookPath(engine)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrEngineNotFound, err)
		}
		return path, nil
	})
}

// Chain tries resolvers in order and returns the first match.
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(ctx context.Context) (string, error) {
		errs := make([]error, 0, len(resolvers))
		for _, r := range resolvers {
			path, err := r.Resolve(ctx)
			if err == nil {
				return path, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			errs = append(errs, err)
		}
		if len(errs) == 0 {
			return "", ErrEngineNotFound
		}
		return "", errors.Join(errs...)
	})
}

// Once memoises the first successful resolution. Failures are not cached so
// an engine installed later is still picked up.
func Once(r Resolver) Resolver {
	var (
		mu   sync.Mutex
		path string
	)
	return ResolverFunc(func(ctx context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if path != "" {
			return path, nil
		}
		p, err := r.Resolve(ctx)
		if err != nil {
			return "", err
		}
		path = p
		return path, nil
	})
}

// Discover builds the standard resolution order: explicit path, bundled
// binary, recursive probe, then PATH. The result is memoised.
func Discover(engine, explicitPath string, baseDirs ...string) Resolver {
	var chain []Resolver
	if explicitPath != "" {
		chain = append(chain, Explicit(explicitPath))
	}
	chain = append(chain,
		Bundled(engine, baseDirs...),
		Probe(engine, baseDirs...),
		SearchPath(engine),
	)
	return Once(Chain(chain...))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isExecutable(d fs.DirEntry) bool {
	if !d.Type().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return strings.HasSuffix(strings.ToLower(d.Name()), ".exe")
	}
	info, err := d.Info()
	return err == nil && info.Mode().Perm()&0o111 != 0
}
