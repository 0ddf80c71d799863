package model_test

import (
	"testing"

	model "github.com/geku/kutu/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseScore(t *testing.T) {
	convey.Convey("Given score tokens", t, func() {
		convey.Convey("When a comma decimal is used", func() {
			comma := model.ParseScore("9,35")
			dot := model.ParseScore("9.35")

			convey.Convey("Then it parses to the same value as the dot form", func() {
				convey.So(comma.Equal(dot), convey.ShouldBeTrue)
				convey.So(model.FormatScore(comma), convey.ShouldEqual, "9.35")
			})
		})

		convey.Convey("When the token is blank or garbage", func() {
			convey.So(model.ParseScore("").IsZero(), convey.ShouldBeTrue)
			convey.So(model.ParseScore("   ").IsZero(), convey.ShouldBeTrue)
			convey.So(model.ParseScore("n/a").IsZero(), convey.ShouldBeTrue)
		})

		convey.Convey("When the token uses exponent notation", func() {
			convey.So(model.ParseScore("1e1").IsZero(), convey.ShouldBeTrue)
			convey.So(model.ParseScore("9.5E0").IsZero(), convey.ShouldBeTrue)
		})

		convey.Convey("When the token has surrounding whitespace", func() {
			convey.So(model.ParseScore(" 12.5 ").Equal(decimal.RequireFromString("12.5")), convey.ShouldBeTrue)
		})
	})
}

func TestScorePair_Used(t *testing.T) {
	convey.Convey("Given score pairs", t, func() {
		convey.Convey("Then execution wins when non-zero", func() {
			p := model.ScorePair{Execution: "9.10", Difficulty: "3.2"}
			convey.So(model.FormatScore(p.Used()), convey.ShouldEqual, "9.10")
		})

		convey.Convey("Then difficulty is used when execution is zero or absent", func() {
			convey.So(model.FormatScore(model.ScorePair{Execution: "0", Difficulty: "3,2"}.Used()), convey.ShouldEqual, "3.20")
			convey.So(model.FormatScore(model.ScorePair{Difficulty: "4"}.Used()), convey.ShouldEqual, "4.00")
		})

		convey.Convey("Then an empty pair is zero", func() {
			convey.So(model.ScorePair{}.Used().IsZero(), convey.ShouldBeTrue)
		})
	})
}

func TestAthlete_Normalized(t *testing.T) {
	convey.Convey("Given an athlete with untrimmed fields and too few scores", t, func() {
		a := model.Athlete{
			LastName: " Muster ", FirstName: "Max ", Category: " P1",
			Group:  2,
			Scores: []model.ScorePair{{Execution: " 9.5 "}},
		}

		n := a.Normalized(model.ApparatusCount)

		convey.Convey("Then fields are trimmed and scores padded", func() {
			convey.So(n.LastName, convey.ShouldEqual, "Muster")
			convey.So(n.FirstName, convey.ShouldEqual, "Max")
			convey.So(n.Category, convey.ShouldEqual, "P1")
			convey.So(n.Group, convey.ShouldEqual, 2)
			convey.So(len(n.Scores), convey.ShouldEqual, model.ApparatusCount)
			convey.So(n.Scores[0].Execution, convey.ShouldEqual, "9.5")
			convey.So(n.Score(10), convey.ShouldResemble, model.ScorePair{})
		})

		convey.Convey("And the original is untouched", func() {
			convey.So(a.LastName, convey.ShouldEqual, " Muster ")
			convey.So(len(a.Scores), convey.ShouldEqual, 1)
		})
	})
}

func TestRankingRequest(t *testing.T) {
	convey.Convey("Given ranking requests", t, func() {
		convey.Convey("When apparatus has the wrong length", func() {
			r := model.RankingRequest{Apparatus: []string{"Floor"}}
			convey.So(r.ApparatusOrDefault(), convey.ShouldResemble, model.DefaultApparatus)
		})

		convey.Convey("When apparatus has exactly six entries", func() {
			labels := []string{"A", "B", "C", "D", "E", "F"}
			r := model.RankingRequest{Apparatus: labels}
			convey.So(r.ApparatusOrDefault(), convey.ShouldResemble, labels)
		})

		convey.Convey("When no athletes are present", func() {
			convey.So(model.RankingRequest{}.Validate(), convey.ShouldEqual, model.ErrNoAthletes)
		})
	})
}

func TestFlatten(t *testing.T) {
	convey.Convey("Given two groups", t, func() {
		groups := [][]model.Athlete{
			{{LastName: "A"}, {LastName: "B"}},
			{},
			{{LastName: "C"}},
		}

		flat := model.Flatten(groups)

		convey.Convey("Then group indices are 1-based and order is kept", func() {
			convey.So(len(flat), convey.ShouldEqual, 3)
			convey.So(flat[0].Group, convey.ShouldEqual, 1)
			convey.So(flat[1].Group, convey.ShouldEqual, 1)
			convey.So(flat[2].Group, convey.ShouldEqual, 3)
			convey.So(flat[2].LastName, convey.ShouldEqual, "C")
		})
	})
}
