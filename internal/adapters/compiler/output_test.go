package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTailBuffer(t *testing.T) {
	Convey("Given a small tail buffer", t, func() {
		b := newTailBuffer(4)

		Convey("When more than its size is written", func() {
			n, err := b.Write([]byte("abcdef"))
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 6)
			_, _ = b.Write([]byte("g"))

			Convey("Then only the tail is kept", func() {
				So(b.String(), ShouldEqual, "defg")
				So(b.Discarded(), ShouldEqual, 3)
			})
		})
	})
}

func TestPlatformFor(t *testing.T) {
	Convey("GOOS maps to bundle directory names", t, func() {
		So(platformFor("windows"), ShouldEqual, "windows")
		So(platformFor("darwin"), ShouldEqual, "macos")
		So(platformFor("linux"), ShouldEqual, "linux")
		So(platformFor("plan9"), ShouldEqual, "")
	})
}

func TestBundledUnknownPlatform(t *testing.T) {
	Convey("Given a bundle directory without a known platform", t, func() {
		base := t.TempDir()
		dir := filepath.Join(base, "tectonic")
		So(os.MkdirAll(dir, 0o755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, ExecutableName("tectonic")), []byte("#!/bin/sh\n"), 0o755), ShouldBeNil)

		Convey("Then the bundled lookup is skipped", func() {
			_, err := bundled("tectonic", "", []string{base}).Resolve(context.Background())
			So(errors.Is(err, ErrEngineNotFound), ShouldBeTrue)
		})
	})
}

func TestKeyedLock(t *testing.T) {
	ctx := context.Background()

	Convey("Locks are per key", t, func() {
		k := newKeyedLock()
		unlockA, err := k.Lock(ctx, "a")
		So(err, ShouldBeNil)
		unlockB, err := k.Lock(ctx, "b")
		So(err, ShouldBeNil)
		unlockB()
		unlockA()
		unlockA, err = k.Lock(ctx, "a")
		So(err, ShouldBeNil)
		unlockA()
		So(len(k.slots), ShouldEqual, 2)
	})

	Convey("A waiter gives up when its context ends", t, func() {
		k := newKeyedLock()
		unlock, err := k.Lock(ctx, "a")
		So(err, ShouldBeNil)

		wctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = k.Lock(wctx, "a")
		So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)

		unlock()
		unlock, err = k.Lock(ctx, "a")
		So(err, ShouldBeNil)
		unlock()
	})
}
