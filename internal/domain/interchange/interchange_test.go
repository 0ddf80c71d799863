package interchange_test

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/geku/kutu/internal/domain/interchange"
	"github.com/geku/kutu/internal/domain/model"
	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

var tokens = []string{"Muster", "Anna-Lena", "O'Neil", `Say "hi"`, "TV; Nord", "Zürich", "a,b", "", "P1", "2012"} //nolint:gochecknoglobals // test data

func randomRequest(rng *rand.Rand) model.RankingRequest {
	req := model.RankingRequest{CompetitionName: "Cup " + fmt.Sprint(rng.Intn(9))}
	pick := func() string { return tokens[rng.Intn(len(tokens))] }
	scores := []string{"", "9.35", "9,35", "12.5", "0", "1"}
	for i := 0; i < 1+rng.Intn(12); i++ {
		a := model.Athlete{
			LastName:  "L" + pick(),
			FirstName: pick(),
			BirthYear: pick(),
			Club:      pick(),
			Category:  pick(),
			Group:     1 + rng.Intn(4),
		}
		for s := 0; s < model.ApparatusCount; s++ {
			a.Scores = append(a.Scores, model.ScorePair{
				Execution:  scores[rng.Intn(len(scores))],
				Difficulty: scores[rng.Intn(len(scores))],
			})
		}
		req.Athletes = append(req.Athletes, a)
	}
	return req
}

// byGroup orders athletes the way record text re-derives them.
func byGroup(athletes []model.Athlete) []model.Athlete {
	var out []model.Athlete
	for g := 1; g <= 4; g++ {
		for _, a := range athletes {
			if a.Group == g {
				out = append(out, a)
			}
		}
	}
	return out
}

func TestYAMLRoundTrip(t *testing.T) {
	Convey("Given random ranking requests", t, func() {
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 25; i++ {
			req := interchange.Normalize(randomRequest(rng))

			data, err := interchange.Export(req)
			So(err, ShouldBeNil)
			back, err := interchange.Import(data)
			So(err, ShouldBeNil)

			So(cmp.Diff(req, back), ShouldBeEmpty)
		}
	})

	Convey("Given an exported file", t, func() {
		data, err := interchange.Export(model.RankingRequest{
			CompetitionName: "Cup",
			Athletes:        []model.Athlete{{LastName: "Muster", Category: "P1", Group: 2, Scores: []model.ScorePair{{Execution: "9,35"}}}},
		})
		So(err, ShouldBeNil)
		text := string(data)

		Convey("Then it is versioned YAML with English keys and the default apparatus", func() {
			So(text, ShouldStartWith, "version: 1\n")
			So(text, ShouldContainSubstring, "competition_name: Cup")
			So(text, ShouldContainSubstring, "last_name: Muster")
			So(text, ShouldContainSubstring, "- Boden")
			So(text, ShouldContainSubstring, "execution: 9,35")
		})
	})

	Convey("Given invalid files", t, func() {
		_, err := interchange.Import([]byte("version: 2\nathletes: []\n"))
		So(errors.Is(err, interchange.ErrUnsupportedVersion), ShouldBeTrue)

		_, err = interchange.Import([]byte("version: 1\nsurprise: true\n"))
		So(errors.Is(err, interchange.ErrDecode), ShouldBeTrue)

		_, err = interchange.Import(nil)
		So(errors.Is(err, interchange.ErrDecode), ShouldBeTrue)
	})
}

func TestRecordTextRoundTrip(t *testing.T) {
	Convey("Given random ranking requests", t, func() {
		rng := rand.New(rand.NewSource(7))
		for _, delim := range []rune{';', ',', '\t'} {
			for i := 0; i < 25; i++ {
				req := interchange.Normalize(randomRequest(rng))

				text, err := interchange.RecordText(req, delim)
				So(err, ShouldBeNil)
				back, err := interchange.FromRecordText(strings.NewReader(text), delim, req.Apparatus)
				So(err, ShouldBeNil)

				So(cmp.Diff(byGroup(req.Athletes), back.Athletes), ShouldBeEmpty)
			}
		}
	})

	Convey("Given a small request", t, func() {
		text, err := interchange.RecordText(model.RankingRequest{
			Apparatus: []string{"A", "B", "C", "D", "E", "F"},
			Athletes: []model.Athlete{
				{LastName: "Two", Group: 2},
				{LastName: "One", Group: 0, Scores: []model.ScorePair{{Execution: "9,5", Difficulty: "3"}}},
			},
		}, ';')
		So(err, ShouldBeNil)
		lines := strings.Split(strings.TrimSpace(text), "\n")

		Convey("Then a header precedes rows ordered by group", func() {
			So(lines[0], ShouldEqual, "Gruppe;Nachname;Vorname;JG;Verein;Kat;A E;A D;B E;B D;C E;C D;D E;D D;E E;E D;F E;F D")
			So(lines[1], ShouldStartWith, "1;One;;;;;9,5;3;")
			So(lines[2], ShouldStartWith, "2;Two;")
		})
	})
}
