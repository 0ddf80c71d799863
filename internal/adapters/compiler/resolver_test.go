package compiler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/geku/kutu/internal/adapters/compiler"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolvers(t *testing.T) {
	ctx := context.Background()

	Convey("Platform is one of the known directory names", t, func() {
		So(compiler.Platform(), ShouldBeIn, []string{"windows", "macos", "linux", ""})
	})

	Convey("Given a bundled engine layout", t, func() {
		base := t.TempDir()
		dir := filepath.Join(base, "tectonic", compiler.Platform())
		So(os.MkdirAll(dir, 0o755), ShouldBeNil)
		exe := filepath.Join(dir, compiler.ExecutableName("tectonic"))
		So(os.WriteFile(exe, []byte("bin"), 0o755), ShouldBeNil)

		Convey("Then Bundled finds it under any base dir", func() {
			path, err := compiler.Bundled("tectonic", t.TempDir(), base).Resolve(ctx)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, exe)
		})

		Convey("Then Explicit accepts it and rejects directories", func() {
			path, err := compiler.Explicit(exe).Resolve(ctx)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, exe)

			_, err = compiler.Explicit(dir).Resolve(ctx)
			So(errors.Is(err, compiler.ErrEngineNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an engine nested somewhere below a base dir", t, func() {
		skipOnWindows(t)
		base := t.TempDir()
		nested := filepath.Join(base, "vendor", "bin")
		So(os.MkdirAll(nested, 0o755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(base, "tectonic.log"), []byte("log"), 0o644), ShouldBeNil)
		exe := filepath.Join(nested, "tectonic-0.15")
		So(os.WriteFile(exe, []byte("bin"), 0o755), ShouldBeNil)

		Convey("Then Probe finds the executable and skips plain files", func() {
			path, err := compiler.Probe("tectonic", base).Resolve(ctx)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, exe)
		})

		Convey("Then Probe reports a miss for another engine", func() {
			_, err := compiler.Probe("xelatex", base).Resolve(ctx)
			So(errors.Is(err, compiler.ErrEngineNotFound), ShouldBeTrue)
		})
	})

	Convey("Given an engine on PATH", t, func() {
		dir := t.TempDir()
		exe := fakeEngine(t, dir)
		t.Setenv("PATH", dir)

		Convey("Then SearchPath resolves it", func() {
			path, err := compiler.SearchPath("tectonic").Resolve(ctx)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, exe)
		})

		Convey("Then Discover falls through to PATH", func() {
			path, err := compiler.Discover("tectonic", "", t.TempDir()).Resolve(ctx)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, exe)
		})
	})

	Convey("Given a chain of resolvers", t, func() {
		miss := compiler.ResolverFunc(func(context.Context) (string, error) { return "", compiler.ErrEngineNotFound })
		hit := compiler.ResolverFunc(func(context.Context) (string, error) { return "/opt/tectonic", nil })

		Convey("Then the first match wins", func() {
			path, err := compiler.Chain(miss, hit, miss).Resolve(ctx)
			So(err, ShouldBeNil)
			So(path, ShouldEqual, "/opt/tectonic")
		})

		Convey("Then an all-miss chain is a configuration error", func() {
			_, err := compiler.Chain(miss, miss).Resolve(ctx)
			So(errors.Is(err, compiler.ErrEngineNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a memoised resolver", t, func() {
		calls := 0
		fail := true
		r := compiler.Once(compiler.ResolverFunc(func(context.Context) (string, error) {
			calls++
			if fail {
				return "", compiler.ErrEngineNotFound
			}
			return "/opt/tectonic", nil
		}))

		Convey("Then failures are retried and success is cached", func() {
			_, err := r.Resolve(ctx)
			So(err, ShouldNotBeNil)
			fail = false
			for i := 0; i < 3; i++ {
				path, err := r.Resolve(ctx)
				So(err, ShouldBeNil)
				So(path, ShouldEqual, "/opt/tectonic")
			}
			So(calls, ShouldEqual, 2)
		})
	})
}
