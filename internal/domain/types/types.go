// Package types contains the JSON views returned by the API.
package types

import (
	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/internal/domain/ranking"
)

// ApparatusEntry is one apparatus of a ranked row. Scores are 2-decimal strings.
type ApparatusEntry struct {
	Execution  string `json:"endNote"`
	Difficulty string `json:"dNote"`
	Used       string `json:"used"`
	Rank       int    `json:"rank"`
}

// Entry is one ranked athlete.
type Entry struct {
	Rank      int              `json:"rank"`
	Awarded   bool             `json:"awarded"`
	LastName  string           `json:"nachname"`
	FirstName string           `json:"vorname"`
	BirthYear string           `json:"jg"`
	Club      string           `json:"verein"`
	Group     int              `json:"groupIndex"`
	Total     string           `json:"total"`
	Apparatus []ApparatusEntry `json:"apparatus"`
}

// Standing is the ranked table of one category.
type Standing struct {
	Category string  `json:"kat"`
	Entries  []Entry `json:"entries"`
}

// FromStandings converts ranking output into its JSON view.
func FromStandings(standings []ranking.Standing) []Standing {
	out := make([]Standing, len(standings))
	for i, s := range standings {
		out[i] = Standing{Category: s.Category, Entries: make([]Entry, len(s.Rows))}
		for j, r := range s.Rows {
			out[i].Entries[j] = entry(r)
		}
	}
	return out
}

func entry(r ranking.Row) Entry {
	e := Entry{
		Rank:      r.Rank,
		Awarded:   r.Awarded,
		LastName:  r.Athlete.LastName,
		FirstName: r.Athlete.FirstName,
		BirthYear: r.Athlete.BirthYear,
		Club:      r.Athlete.Club,
		Group:     r.Athlete.Group,
		Total:     model.FormatScore(r.Total),
		Apparatus: make([]ApparatusEntry, len(r.Used)),
	}
	for i := range r.Used {
		score := r.Athlete.Score(i)
		e.Apparatus[i] = ApparatusEntry{
			Execution:  model.FormatScore(score.ExecutionValue()),
			Difficulty: model.FormatScore(score.DifficultyValue()),
			Used:       model.FormatScore(r.Used[i]),
			Rank:       r.ApparatusRanks[i],
		}
	}
	return e
}
