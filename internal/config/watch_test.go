package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geku/kutu/internal/config"
	"github.com/geku/kutu/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestWatch(t *testing.T) {
	convey.Convey("Given a watched config file", t, func() {
		convey.So(logger.Init(), convey.ShouldBeNil)
		clearConfigEnvVars()
		path := createTempConfigFile(t, "log_level: info\n")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reloaded := make(chan *config.Config, 4)
		done := make(chan error, 1)
		go func() {
			done <- config.Watch(ctx, path, func(c *config.Config) { reloaded <- c })
		}()

		convey.Convey("When the file is rewritten", func() {
			var got *config.Config
			deadline := time.After(5 * time.Second)
			tick := time.NewTicker(50 * time.Millisecond)
			defer tick.Stop()
		loop:
			for {
				select {
				case got = <-reloaded:
					// A reload can observe the truncated file before the new content.
					if got.LogLevel == "debug" {
						break loop
					}
				case <-tick.C:
					_ = os.WriteFile(path, []byte("log_level: debug\n"), 0o600)
				case <-deadline:
					break loop
				}
			}

			convey.Convey("Then onChange receives the new config", func() {
				convey.So(got, convey.ShouldNotBeNil)
				convey.So(got.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		cancel()
		convey.So(<-done, convey.ShouldBeNil)
	})
}
