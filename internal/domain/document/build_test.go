package document_test

import (
	"testing"

	"github.com/geku/kutu/internal/domain/document"
	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/ranking"
	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNotesheets(t *testing.T) {
	Convey("Given two groups and six apparatus", t, func() {
		groups := [][]model.Athlete{
			{{LastName: "Muster", FirstName: "Max", BirthYear: "2012", Club: "TV", Category: "P1"}},
			{},
		}
		doc := document.Notesheets(groups, model.DefaultApparatus)

		Convey("Then there is one section per group and rotation", func() {
			So(doc.Kind, ShouldEqual, document.KindNotesheets)
			So(len(doc.Sections), ShouldEqual, 12)
		})

		Convey("Then apparatus rotate by group offset", func() {
			So(doc.Sections[0].Title, ShouldEqual, "Boden")
			So(doc.Sections[5].Title, ShouldEqual, "Reck")
			So(doc.Sections[6].Title, ShouldEqual, "Pferd")
			So(doc.Sections[11].Title, ShouldEqual, "Boden")
			So(doc.Sections[7].Subtitle, ShouldEqual, "Durchgang 2 — Gruppe 2")
		})

		Convey("Then every group meets every apparatus exactly once", func() {
			for g := 0; g < 2; g++ {
				seen := map[string]int{}
				for d := 0; d < 6; d++ {
					seen[doc.Sections[g*6+d].Title]++
				}
				So(len(seen), ShouldEqual, 6)
			}
		})

		Convey("Then rows carry identity only and empty groups a placeholder", func() {
			first := doc.Sections[0].Flat
			So(len(first.Columns), ShouldEqual, 7)
			So(first.Rows[0][0].Text, ShouldEqual, "Muster")
			So(first.Rows[0][5].Text, ShouldEqual, "")
			So(first.Rows[0][6].Text, ShouldEqual, "")

			empty := doc.Sections[6].Flat
			So(len(empty.Rows), ShouldEqual, 0)
			So(empty.Placeholder, ShouldEqual, document.EmptyGroupPlaceholder)
		})
	})

	Convey("Given no groups", t, func() {
		doc := document.Notesheets(nil, model.DefaultApparatus)

		Convey("Then the document has no sections", func() {
			So(doc.Sections, ShouldBeEmpty)
		})
	})
}

func TestRanking(t *testing.T) {
	Convey("Given a ranked category", t, func() {
		athletes := []model.Athlete{
			{LastName: "Zeller", FirstName: "Max", Club: "TV", Category: "P1", Scores: []model.ScorePair{{Execution: "9"}, {Difficulty: "0,5"}}},
			{LastName: "Adler", FirstName: "Tim", Club: "TV", Category: "P1", Scores: []model.ScorePair{{Execution: "9.5"}}},
		}
		standings, err := ranking.Rank(athletes, 2)
		So(err, ShouldBeNil)

		doc := document.Ranking("Rangliste Kutu P1", "Cup", []string{"Boden", "Pferd"}, standings[0])

		Convey("Then there is one ranked section", func() {
			So(doc.Kind, ShouldEqual, document.KindRanking)
			So(len(doc.Sections), ShouldEqual, 1)
			So(doc.Sections[0].Flat, ShouldBeNil)
			So(doc.Footer, ShouldEqual, "Cup")
		})

		Convey("Then lines are formatted with blanks for zero values", func() {
			lines := doc.Sections[0].Ranked.Lines
			want := []document.RankedLine{
				{
					Awarded: true, Rank: 1, LastName: "Adler", FirstName: "Tim", Club: "TV",
					Apparatus: []document.ApparatusCell{{Execution: "9.50", Rank: 1}, {}},
					Total:     "9.50",
				},
				{
					Awarded: true, Rank: 1, LastName: "Zeller", FirstName: "Max", Club: "TV",
					Apparatus: []document.ApparatusCell{{Execution: "9.00", Rank: 2}, {Difficulty: "0.50", Rank: 1}},
					Total:     "9.50",
				},
			}
			So(cmp.Diff(want, lines), ShouldBeEmpty)
		})
	})

	Convey("RankingTitle joins categories", t, func() {
		So(document.RankingTitle([]string{"P1", "P2"}), ShouldEqual, "Rangliste Kutu P1, P2")
		So(document.RankingTitle(nil), ShouldEqual, "Rangliste Kutu")
	})
}
