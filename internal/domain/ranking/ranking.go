// Package ranking computes tie-aware standings per category.
//
// Rows are ordered by total descending, then by last and first name using
// ordinal comparison. Equal totals share a rank and the next distinct total
// resumes at its position ("1, 1, 3"). The top 40% of a category, extended
// to everyone tied with the boundary row, is awarded. Each apparatus is
// ranked independently over the athletes with a positive score on it.
package ranking

import (
	"sort"
	"strings"

	"github.com/geku/kutu/internal/domain/model"
	"github.com/shopspring/decimal"
)

// AwardRatio is the share of a category that receives an award.
const AwardRatio = 0.4

// AwardRatio as an exact fraction.
const (
	awardNumerator   = 2
	awardDenominator = 5
)

// Row is one ranked athlete. ApparatusRanks[i] is 0 when the athlete has no
// positive score on apparatus i.
type Row struct {
	Athlete        model.Athlete
	Total          decimal.Decimal
	Used           []decimal.Decimal
	Rank           int
	Awarded        bool
	ApparatusRanks []int
}

// Standing is the ranked table of one category.
type Standing struct {
	Category string
	Rows     []Row
}

// AwardCount returns ceil(size*AwardRatio), the number of sorted positions
// that fall into the award band.
func AwardCount(size int) int {
	if size <= 0 {
		return 0
	}
	return (size*awardNumerator + awardDenominator - 1) / awardDenominator
}

// Rank partitions athletes by category and ranks every category.
// Athletes without a category are skipped. The input is not modified.
// It returns ErrNoCategories when no category has any athlete.
func Rank(athletes []model.Athlete, slots int) ([]Standing, error) {
	byCategory := make(map[string][]Row)
	for _, a := range athletes {
		a = a.Normalized(slots)
		if a.Category == "" {
			continue
		}
		byCategory[a.Category] = append(byCategory[a.Category], newRow(a, slots))
	}
	if len(byCategory) == 0 {
		return nil, ErrNoCategories
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	SortCategories(categories)

	standings := make([]Standing, 0, len(categories))
	for _, c := range categories {
		rows := byCategory[c]
		rankOverall(rows)
		for slot := 0; slot < slots; slot++ {
			rankApparatus(rows, slot)
		}
		standings = append(standings, Standing{Category: c, Rows: rows})
	}
	return standings, nil
}

// Categories returns the distinct non-blank categories of athletes in
// standings order.
func Categories(athletes []model.Athlete) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range athletes {
		c := strings.TrimSpace(a.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	SortCategories(out)
	return out
}

// SortCategories orders categories case-insensitively, ties broken ordinally.
func SortCategories(categories []string) {
	sort.Slice(categories, func(i, j int) bool {
		li, lj := strings.ToLower(categories[i]), strings.ToLower(categories[j])
		if li != lj {
			return li < lj
		}
		return categories[i] < categories[j]
	})
}

// Find returns the standing of category, if present.
func Find(standings []Standing, category string) (Standing, bool) {
	for _, s := range standings {
		if s.Category == category {
			return s, true
		}
	}
	return Standing{}, false
}

func newRow(a model.Athlete, slots int) Row {
	r := Row{
		Athlete:        a,
		Total:          decimal.Zero,
		Used:           make([]decimal.Decimal, slots),
		ApparatusRanks: make([]int, slots),
	}
	for i := 0; i < slots; i++ {
		r.Used[i] = a.Score(i).Used()
		r.Total = r.Total.Add(r.Used[i])
	}
	return r
}

// rankOverall sorts rows in place and assigns overall ranks and awards.
func rankOverall(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].Total.Cmp(rows[j].Total); c != 0 {
			return c > 0
		}
		return nameLess(rows[i].Athlete, rows[j].Athlete)
	})

	totals := make([]decimal.Decimal, len(rows))
	for i := range rows {
		totals[i] = rows[i].Total
	}
	for i, rank := range competitionRanks(totals) {
		rows[i].Rank = rank
	}

	n := AwardCount(len(rows))
	if n == 0 {
		return
	}
	cutoff := rows[n-1].Rank
	for i := range rows {
		rows[i].Awarded = rows[i].Rank <= cutoff
	}
}

// rankApparatus ranks rows with a positive used score on slot. Others keep 0.
func rankApparatus(rows []Row, slot int) {
	idx := make([]int, 0, len(rows))
	for i := range rows {
		if rows[i].Used[slot].IsPositive() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := rows[idx[a]], rows[idx[b]]
		if c := ra.Used[slot].Cmp(rb.Used[slot]); c != 0 {
			return c > 0
		}
		return nameLess(ra.Athlete, rb.Athlete)
	})

	values := make([]decimal.Decimal, len(idx))
	for k, i := range idx {
		values[k] = rows[i].Used[slot]
	}
	for k, rank := range competitionRanks(values) {
		rows[idx[k]].ApparatusRanks[slot] = rank
	}
}

// competitionRanks assigns ranks to values sorted in descending order.
func competitionRanks(values []decimal.Decimal) []int {
	ranks := make([]int, len(values))
	for i := range values {
		if i > 0 && values[i].Equal(values[i-1]) {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

func nameLess(a, b model.Athlete) bool {
	if a.LastName != b.LastName {
		return a.LastName < b.LastName
	}
	return a.FirstName < b.FirstName
}
