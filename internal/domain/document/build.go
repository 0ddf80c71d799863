package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/ranking"
	"github.com/shopspring/decimal"
)

// EmptyGroupPlaceholder is the single row shown for a group without athletes.
const EmptyGroupPlaceholder = "(keine Einträge)"

// RankingTitlePrefix starts every ranking document title.
const RankingTitlePrefix = "Rangliste Kutu"

// notesheetColumns are the identity columns plus blank score columns to fill in by hand.
var notesheetColumns = []Column{ //nolint:gochecknoglobals // fixed layout
	{Label: "Nachname", Width: 3.5},
	{Label: "Vorname", Width: 3.5},
	{Label: "JG", Width: 1.2},
	{Label: "Verein", Width: 6.0},
	{Label: "Kat.", Width: 1.4},
	{Label: "D-Note", Width: 1.7},
	{Label: "END-Note", Width: 2.2},
}

// Notesheets returns one section per group and rotation. Section (g, d) is
// labelled apparatus[(d+g) mod N], so each group meets every apparatus once
// starting at its own offset.
func Notesheets(groups [][]model.Athlete, apparatus []string) Document {
	n := len(apparatus)
	doc := Document{Kind: KindNotesheets, Sections: make([]Section, 0, len(groups)*n)}
	for g, group := range groups {
		table := notesheetTable(group)
		for d := 0; d < n; d++ {
			doc.Sections = append(doc.Sections, Section{
				Title:    apparatus[(d+g)%n],
				Subtitle: fmt.Sprintf("Durchgang %d — Gruppe %d", d+1, g+1),
				Flat:     table,
			})
		}
	}
	return doc
}

func notesheetTable(group []model.Athlete) *FlatTable {
	t := &FlatTable{
		Columns:     notesheetColumns,
		Rows:        make([][]Cell, 0, len(group)),
		Placeholder: EmptyGroupPlaceholder,
	}
	for _, a := range group {
		t.Rows = append(t.Rows, []Cell{
			Text(a.LastName),
			Text(a.FirstName),
			Text(a.BirthYear),
			Text(a.Club),
			Text(a.Category),
			Text(""),
			Text(""),
		})
	}
	return t
}

// RankingTitle returns the document title listing all categories.
func RankingTitle(categories []string) string {
	if len(categories) == 0 {
		return RankingTitlePrefix
	}
	return RankingTitlePrefix + " " + strings.Join(categories, ", ")
}

// Ranking returns a single-section document for one category standing.
// Lines are ordered by rank, then last and first name.
func Ranking(title, footer string, apparatus []string, standing ranking.Standing) Document {
	rows := append([]ranking.Row(nil), standing.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rank != rows[j].Rank {
			return rows[i].Rank < rows[j].Rank
		}
		if rows[i].Athlete.LastName != rows[j].Athlete.LastName {
			return rows[i].Athlete.LastName < rows[j].Athlete.LastName
		}
		return rows[i].Athlete.FirstName < rows[j].Athlete.FirstName
	})

	table := &RankedTable{
		Apparatus: append([]string(nil), apparatus...),
		Lines:     make([]RankedLine, 0, len(rows)),
	}
	for _, r := range rows {
		table.Lines = append(table.Lines, rankedLine(r, len(apparatus)))
	}

	return Document{
		Kind:     KindRanking,
		Title:    title,
		Footer:   footer,
		Sections: []Section{{Title: title, Ranked: table}},
	}
}

func rankedLine(r ranking.Row, slots int) RankedLine {
	line := RankedLine{
		Awarded:   r.Awarded,
		Rank:      r.Rank,
		LastName:  r.Athlete.LastName,
		FirstName: r.Athlete.FirstName,
		Club:      r.Athlete.Club,
		BirthYear: r.Athlete.BirthYear,
		Apparatus: make([]ApparatusCell, slots),
		Total:     model.FormatScore(r.Total),
	}
	for i := 0; i < slots; i++ {
		score := r.Athlete.Score(i)
		cell := ApparatusCell{
			Execution:  blankZero(score.ExecutionValue()),
			Difficulty: blankZero(score.DifficultyValue()),
		}
		if i < len(r.ApparatusRanks) {
			cell.Rank = r.ApparatusRanks[i]
		}
		line.Apparatus[i] = cell
	}
	return line
}

func blankZero(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return model.FormatScore(d)
}
