package ranking_test

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/ranking"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func athlete(last, first, category string, scores ...string) model.Athlete {
	a := model.Athlete{LastName: last, FirstName: first, Category: category}
	for _, s := range scores {
		a.Scores = append(a.Scores, model.ScorePair{Execution: s})
	}
	return a
}

func ranks(rows []ranking.Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Rank
	}
	return out
}

func TestAwardCount(t *testing.T) {
	Convey("AwardCount is ceil(n*0.4)", t, func() {
		for n, want := range map[int]int{0: 0, 1: 1, 2: 1, 3: 2, 4: 2, 5: 2, 6: 3, 10: 4, 11: 5} {
			So(ranking.AwardCount(n), ShouldEqual, want)
		}
	})
}

func TestRank(t *testing.T) {
	Convey("Given three athletes with totals 10, 10 and 9", t, func() {
		in := []model.Athlete{
			athlete("Zeller", "Max", "P1", "9"),
			athlete("Bauer", "Anna", "P1", "10"),
			athlete("Adler", "Tim", "P1", "10"),
		}

		standings, err := ranking.Rank(in, 1)
		So(err, ShouldBeNil)
		So(len(standings), ShouldEqual, 1)
		rows := standings[0].Rows

		Convey("Then ties share a rank and the next rank skips", func() {
			So(ranks(rows), ShouldResemble, []int{1, 1, 3})
			So(rows[0].Athlete.LastName, ShouldEqual, "Adler")
			So(rows[1].Athlete.LastName, ShouldEqual, "Bauer")
		})

		Convey("Then the award band extends to everyone tied with the boundary", func() {
			So(rows[0].Awarded, ShouldBeTrue)
			So(rows[1].Awarded, ShouldBeTrue)
			So(rows[2].Awarded, ShouldBeFalse)
		})

		Convey("Then the input is left untouched", func() {
			So(in[0].LastName, ShouldEqual, "Zeller")
			So(len(in[0].Scores), ShouldEqual, 1)
		})
	})

	Convey("Given comma decimals and difficulty fallback", t, func() {
		in := []model.Athlete{
			{LastName: "A", Category: "K", Scores: []model.ScorePair{{Execution: "8,5"}, {Difficulty: "2,25"}}},
			{LastName: "B", Category: "K", Scores: []model.ScorePair{{Execution: "8.5", Difficulty: "4"}, {Execution: "0", Difficulty: "2.25"}}},
		}
		standings, err := ranking.Rank(in, 2)
		So(err, ShouldBeNil)
		rows := standings[0].Rows

		Convey("Then totals are exact and equal", func() {
			So(rows[0].Total.Equal(decimal.RequireFromString("10.75")), ShouldBeTrue)
			So(rows[1].Total.Equal(rows[0].Total), ShouldBeTrue)
			So(ranks(rows), ShouldResemble, []int{1, 1})
		})

		Convey("Then apparatus ranks are shared as well", func() {
			So(rows[0].ApparatusRanks, ShouldResemble, []int{1, 1})
			So(rows[1].ApparatusRanks, ShouldResemble, []int{1, 1})
		})
	})

	Convey("Given athletes without scores on an apparatus", t, func() {
		in := []model.Athlete{
			athlete("A", "", "K", "5", "0"),
			athlete("B", "", "K", "6", ""),
			athlete("C", "", "K", "", "3"),
		}
		standings, err := ranking.Rank(in, 2)
		So(err, ShouldBeNil)
		rows := standings[0].Rows

		Convey("Then only positive scores are ranked per apparatus", func() {
			So(rows[0].Athlete.LastName, ShouldEqual, "B")
			So(rows[0].ApparatusRanks, ShouldResemble, []int{1, 0})
			So(rows[1].Athlete.LastName, ShouldEqual, "A")
			So(rows[1].ApparatusRanks, ShouldResemble, []int{2, 0})
			So(rows[2].Athlete.LastName, ShouldEqual, "C")
			So(rows[2].ApparatusRanks, ShouldResemble, []int{0, 1})
		})
	})

	Convey("Given several categories", t, func() {
		in := []model.Athlete{
			athlete("A", "", "p2", "1"),
			athlete("B", "", "P1", "1"),
			athlete("C", "", "  ", "1"),
			athlete("D", "", "M", "1"),
		}
		standings, err := ranking.Rank(in, 1)
		So(err, ShouldBeNil)

		Convey("Then categories are ordered case-insensitively and blanks dropped", func() {
			var cats []string
			for _, s := range standings {
				cats = append(cats, s.Category)
			}
			So(cats, ShouldResemble, []string{"M", "P1", "p2"})
			So(ranking.Categories(in), ShouldResemble, cats)
		})

		Convey("Then Find locates a category", func() {
			s, ok := ranking.Find(standings, "P1")
			So(ok, ShouldBeTrue)
			So(s.Rows[0].Athlete.LastName, ShouldEqual, "B")
			_, ok = ranking.Find(standings, "X")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given no categorised athlete", t, func() {
		_, err := ranking.Rank([]model.Athlete{athlete("A", "", "", "1")}, 1)

		Convey("Then ErrNoCategories is returned", func() {
			So(errors.Is(err, ranking.ErrNoCategories), ShouldBeTrue)
		})
	})
}

func TestRankProperties(t *testing.T) {
	Convey("Given random categories", t, func() {
		rng := rand.New(rand.NewSource(7))
		for round := 0; round < 50; round++ {
			n := 1 + rng.Intn(25)
			in := make([]model.Athlete, n)
			for i := range in {
				a := model.Athlete{LastName: fmt.Sprintf("L%02d", rng.Intn(10)), FirstName: fmt.Sprintf("F%d", i), Category: "K"}
				for s := 0; s < 3; s++ {
					a.Scores = append(a.Scores, model.ScorePair{Execution: fmt.Sprintf("%d.%d", rng.Intn(3), rng.Intn(2)*5)})
				}
				in[i] = a
			}

			standings, err := ranking.Rank(in, 3)
			So(err, ShouldBeNil)
			rows := standings[0].Rows
			So(len(rows), ShouldEqual, n)

			awarded := 0
			for i, r := range rows {
				So(r.Rank, ShouldBeGreaterThanOrEqualTo, 1)
				So(r.Rank, ShouldBeLessThanOrEqualTo, n)
				if i == 0 {
					So(r.Rank, ShouldEqual, 1)
				} else {
					prev := rows[i-1]
					So(prev.Total.GreaterThanOrEqual(r.Total), ShouldBeTrue)
					if prev.Total.Equal(r.Total) {
						So(r.Rank, ShouldEqual, prev.Rank)
					} else {
						So(r.Rank, ShouldEqual, i+1)
					}
				}
				if r.Awarded {
					awarded++
				}
				for s, ar := range r.ApparatusRanks {
					if r.Used[s].IsPositive() {
						So(ar, ShouldBeGreaterThanOrEqualTo, 1)
					} else {
						So(ar, ShouldEqual, 0)
					}
				}
			}
			So(awarded, ShouldBeGreaterThanOrEqualTo, ranking.AwardCount(n))
			for _, r := range rows {
				if r.Rank == rows[ranking.AwardCount(n)-1].Rank {
					So(r.Awarded, ShouldBeTrue)
				}
			}
		}
	})
}
