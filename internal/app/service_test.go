package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	service "github.com/geku/kutu/internal/app"
	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/ranking"
	"github.com/geku/kutu/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeCompiler records every source and returns it prefixed, optionally
// blocking until release is closed.
type fakeCompiler struct {
	mu      sync.Mutex
	sources []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	f.mu.Lock()
	f.sources = append(f.sources, source)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PDF\n" + source), nil
}

func (f *fakeCompiler) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sources)
}

const groupsInput = "Muster;Max;2010;TV Nord;P1\n---\nMeier;Anna;2011;TV Süd;P2\n"

func sampleRequest() model.RankingRequest {
	return model.RankingRequest{
		CompetitionName: "Kreismeisterschaft",
		Athletes: []model.Athlete{
			{LastName: "Muster", FirstName: "Max", Category: "P1", Group: 1, Scores: []model.ScorePair{{Execution: "9.5"}}},
			{LastName: "Adler", FirstName: "Eva", Category: "P1", Group: 1, Scores: []model.ScorePair{{Execution: "9.0"}}},
			{LastName: "Meier", FirstName: "Anna", Category: "P2", Group: 2, Scores: []model.ScorePair{{Execution: "8.0"}}},
		},
	}
}

func startService(compiler service.Compiler, opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithCompiler(compiler)}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service without a compiler", t, func() {
		svc := service.New()

		Convey("Then starting it fails", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrNoCompiler)
		})

		Convey("Then compiling operations report that it is not started", func() {
			_, err := svc.Notesheets(context.Background(), strings.NewReader(groupsInput), 0)
			So(err, ShouldEqual, service.ErrNotStarted)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService(&fakeCompiler{}, service.WithWorkerCount(2), service.WithQueueSize(8))

		Convey("Then stats report it as started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueLength"], ShouldEqual, 0)
		})

		Convey("When stopping the service twice", func() {
			svc.Stop(context.Background())
			svc.Stop(context.Background())

			Convey("Then it is marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Reset(func() { svc.Stop(context.Background()) })
	})
}

func TestService_Notesheets(t *testing.T) {
	Convey("Given a started service", t, func() {
		fc := &fakeCompiler{}
		svc := startService(fc)
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("When generating notesheets for two groups", func() {
			art, err := svc.Notesheets(ctx, strings.NewReader(groupsInput), ';')

			Convey("Then a merged PDF named after groups and apparatus is returned", func() {
				So(err, ShouldBeNil)
				So(art.Filename, ShouldEqual, "Notesheets_2Groups_x6_merged.pdf")
				So(art.ContentType, ShouldEqual, service.ContentTypePDF)
				So(string(art.Data), ShouldStartWith, "PDF\n")
				So(string(art.Data), ShouldContainSubstring, "TV Süd")
			})

			Convey("And the same input is served from the artifact cache", func() {
				again, err := svc.Notesheets(ctx, strings.NewReader(groupsInput), ';')
				So(err, ShouldBeNil)
				So(again.Data, ShouldResemble, art.Data)
				So(fc.calls(), ShouldEqual, 1)
			})
		})

		Convey("When the input holds no records", func() {
			_, err := svc.Notesheets(ctx, strings.NewReader(""), 0)

			Convey("Then ErrNoGroups is returned", func() {
				So(err, ShouldEqual, service.ErrNoGroups)
				So(fc.calls(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Ranking(t *testing.T) {
	Convey("Given a started service", t, func() {
		fc := &fakeCompiler{}
		svc := startService(fc, service.WithArtifactCacheSize(0))
		defer svc.Stop(context.Background())
		ctx := context.Background()

		Convey("When ranking a request with two categories", func() {
			art, err := svc.Ranking(ctx, sampleRequest())

			Convey("Then the first category is compiled under a generic name", func() {
				So(err, ShouldBeNil)
				So(art.Filename, ShouldEqual, "Ranking.pdf")
				So(string(art.Data), ShouldContainSubstring, "Rangliste Kutu P1, P2")
				So(string(art.Data), ShouldContainSubstring, "Kreismeisterschaft")
				So(string(art.Data), ShouldContainSubstring, "Adler")
				So(string(art.Data), ShouldNotContainSubstring, "Meier")
			})
		})

		Convey("When ranking a single category", func() {
			req := sampleRequest()
			req.Athletes = req.Athletes[:2]
			art, err := svc.Ranking(ctx, req)

			Convey("Then the file is named after the category", func() {
				So(err, ShouldBeNil)
				So(art.Filename, ShouldEqual, "Ranking_P1.pdf")
			})
		})

		Convey("When the request is empty", func() {
			_, err := svc.Ranking(ctx, model.RankingRequest{})

			Convey("Then ErrNoAthletes is returned", func() {
				So(errors.Is(err, service.ErrNoAthletes), ShouldBeTrue)
			})
		})

		Convey("When no athlete has a category", func() {
			_, err := svc.Ranking(ctx, model.RankingRequest{Athletes: []model.Athlete{{LastName: "X"}}})

			Convey("Then ErrNoCategories is returned", func() {
				So(errors.Is(err, ranking.ErrNoCategories), ShouldBeTrue)
			})
		})

		Convey("When the compiler fails", func() {
			fc.err = errors.New("engine exploded")
			_, err := svc.Ranking(ctx, sampleRequest())

			Convey("Then the error is returned to the caller", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "engine exploded")
			})
		})
	})
}

func TestService_RankingBundle(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(&fakeCompiler{}, service.WithWorkerCount(2))
		defer svc.Stop(context.Background())

		Convey("When bundling all categories", func() {
			art, err := svc.RankingBundle(context.Background(), sampleRequest())
			So(err, ShouldBeNil)

			Convey("Then a zip holds one PDF per category in category order", func() {
				So(art.Filename, ShouldEqual, "Rankings.zip")
				So(art.ContentType, ShouldEqual, service.ContentTypeZip)

				zr, err := zip.NewReader(bytes.NewReader(art.Data), int64(len(art.Data)))
				So(err, ShouldBeNil)
				So(len(zr.File), ShouldEqual, 2)
				So(zr.File[0].Name, ShouldEqual, "Ranking_P1.pdf")
				So(zr.File[1].Name, ShouldEqual, "Ranking_P2.pdf")

				rc, err := zr.File[1].Open()
				So(err, ShouldBeNil)
				data, err := io.ReadAll(rc)
				So(rc.Close(), ShouldBeNil)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "Rangliste Kutu P2")
				So(string(data), ShouldContainSubstring, "Meier")
			})
		})
	})
}

func TestService_Standings(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()

		Convey("When ranking without compilation", func() {
			standings, err := svc.Standings(context.Background(), sampleRequest())

			Convey("Then standings are returned per category", func() {
				So(err, ShouldBeNil)
				So(len(standings), ShouldEqual, 2)
				So(standings[0].Category, ShouldEqual, "P1")
				So(standings[0].Entries[0].LastName, ShouldEqual, "Muster")
				So(standings[0].Entries[0].Total, ShouldEqual, "9.50")
				So(standings[0].Entries[1].Rank, ShouldEqual, 2)
			})
		})
	})
}

func TestService_Interchange(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()

		Convey("When exporting and importing a request", func() {
			art, err := svc.Export(sampleRequest())
			So(err, ShouldBeNil)
			back, err := svc.Import(art.Data)

			Convey("Then the athletes survive", func() {
				So(err, ShouldBeNil)
				So(art.ContentType, ShouldEqual, service.ContentTypeYAML)
				So(back.CompetitionName, ShouldEqual, "Kreismeisterschaft")
				So(len(back.Athletes), ShouldEqual, 3)
				So(back.Athletes[0].Score(0).Execution, ShouldEqual, "9.5")
			})
		})

		Convey("When writing record text with the default delimiter", func() {
			art, err := svc.RecordText(sampleRequest(), 0)
			So(err, ShouldBeNil)
			back, err := svc.FromRecordText(bytes.NewReader(art.Data), 0)

			Convey("Then it reads back into the same groups", func() {
				So(err, ShouldBeNil)
				So(string(art.Data), ShouldStartWith, "Gruppe;Nachname;")
				So(len(back.Athletes), ShouldEqual, 3)
				So(back.Athletes[2].LastName, ShouldEqual, "Meier")
				So(back.Athletes[2].Group, ShouldEqual, 2)
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a single worker with a one-slot queue and a blocked compiler", t, func() {
		fc := &fakeCompiler{started: make(chan struct{}, 4), release: make(chan struct{})}
		svc := startService(fc, service.WithWorkerCount(1), service.WithQueueSize(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		errs := make(chan error, 2)
		submit := func(input string) {
			_, err := svc.Notesheets(ctx, strings.NewReader(input), ';')
			errs <- err
		}

		go submit("A;a;2010;X;P1\n")
		<-fc.started
		go submit("B;b;2010;X;P1\n")
		deadline := time.Now().Add(5 * time.Second)
		for svc.GetStats()["queueLength"] != 1 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		Convey("When a third distinct document is submitted", func() {
			_, err := svc.Notesheets(ctx, strings.NewReader("C;c;2010;X;P1\n"), ';')

			Convey("Then it is rejected with ErrBackpressure", func() {
				So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)
			})
		})

		close(fc.release)
		So(<-errs, ShouldBeNil)
		So(<-errs, ShouldBeNil)
		svc.Stop(context.Background())
	})
}
