// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ApparatusCount is the number of apparatus slots in the reference deployment.
const ApparatusCount = 6

// DefaultApparatus is the canonical apparatus order, index 0..5 maps to rotation slots D1..D6.
var DefaultApparatus = []string{"Boden", "Pferd", "Ring", "Sprung", "Barren", "Reck"} //nolint:gochecknoglobals // read-only canonical list

// ScorePair holds the raw score text of one apparatus slot.
// Either value may be blank. A comma is accepted as decimal separator.
type ScorePair struct {
	Execution  string `json:"endNote,omitempty" yaml:"execution,omitempty"`
	Difficulty string `json:"dNote,omitempty" yaml:"difficulty,omitempty"`
}

// ExecutionValue returns the parsed execution score (zero when absent).
func (p ScorePair) ExecutionValue() decimal.Decimal { return ParseScore(p.Execution) }

// DifficultyValue returns the parsed difficulty score (zero when absent).
func (p ScorePair) DifficultyValue() decimal.Decimal { return ParseScore(p.Difficulty) }

// Used returns the score that counts towards totals: execution if non-zero,
// else difficulty, else zero.
func (p ScorePair) Used() decimal.Decimal {
	if e := p.ExecutionValue(); !e.IsZero() {
		return e
	}
	return p.DifficultyValue()
}

// Athlete is a competitor record: identity fields, a group (rotation) index
// and one score pair per apparatus slot.
type Athlete struct {
	LastName  string      `json:"nachname" yaml:"last_name"`
	FirstName string      `json:"vorname" yaml:"first_name"`
	BirthYear string      `json:"jg" yaml:"birth_year"`
	Club      string      `json:"verein" yaml:"club"`
	Category  string      `json:"kat" yaml:"category"`
	Group     int         `json:"groupIndex" yaml:"group"`
	Scores    []ScorePair `json:"notes" yaml:"scores"`
}

// Score returns the pair for slot i, or an empty pair when the slot is absent.
func (a Athlete) Score(i int) ScorePair {
	if i < 0 || i >= len(a.Scores) {
		return ScorePair{}
	}
	return a.Scores[i]
}

// IsBlank reports whether all identity fields are empty after trimming.
func (a Athlete) IsBlank() bool {
	return strings.TrimSpace(a.LastName) == "" &&
		strings.TrimSpace(a.FirstName) == "" &&
		strings.TrimSpace(a.BirthYear) == "" &&
		strings.TrimSpace(a.Club) == "" &&
		strings.TrimSpace(a.Category) == ""
}

// Normalized returns a copy with trimmed identity fields and exactly slots score pairs.
func (a Athlete) Normalized(slots int) Athlete {
	out := Athlete{
		LastName:  strings.TrimSpace(a.LastName),
		FirstName: strings.TrimSpace(a.FirstName),
		BirthYear: strings.TrimSpace(a.BirthYear),
		Club:      strings.TrimSpace(a.Club),
		Category:  strings.TrimSpace(a.Category),
		Group:     a.Group,
		Scores:    make([]ScorePair, slots),
	}
	for i := 0; i < slots && i < len(a.Scores); i++ {
		out.Scores[i] = ScorePair{
			Execution:  strings.TrimSpace(a.Scores[i].Execution),
			Difficulty: strings.TrimSpace(a.Scores[i].Difficulty),
		}
	}
	return out
}

// ParseScore parses a plain decimal score token. Blank or unparsable input
// yields zero, and so does exponent notation such as "1e1".
func ParseScore(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eE") {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatScore renders d with two decimals and a dot separator.
func FormatScore(d decimal.Decimal) string {
	return d.StringFixed(2)
}
