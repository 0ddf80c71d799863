// Package ingest parses delimited competitor lists into ordered groups.
//
// Two layouts are understood:
//   - the header-less notesheet list, one athlete per line with groups
//     separated by a line of dashes;
//   - the scored list, with an optional header row, an explicit group column
//     and trailing execution/difficulty pairs per apparatus.
//
// Malformed rows are dropped and counted in metrics, never returned as errors.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/geku/kutu/internal/domain/model"
	"github.com/geku/kutu/pkg/metrics"
)

// DefaultDelimiter separates fields when the caller does not choose one.
const DefaultDelimiter = ';'

const (
	identityFields  = 5
	scoredMinFields = identityFields + 1
	utf8BOM         = "\ufeff"
)

// groupHeaderTokens mark the first column of a scored header row.
var groupHeaderTokens = map[string]struct{}{ //nolint:gochecknoglobals // read-only lookup
	"group":  {},
	"gruppe": {},
	"grp":    {},
}

// ParseDelimiter converts a user-supplied delimiter into a rune.
// An empty string selects DefaultDelimiter; "tab" and `\t` select a tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return DefaultDelimiter, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r, nil
}

// ParseGroups reads the header-less notesheet layout.
//
// Every separator line starts a new group, even when the current one is
// empty; only an empty group at the very end is dropped. Empty input yields
// no groups. The returned error is only ever a read error of r.
func ParseGroups(r io.Reader, delimiter rune) ([][]model.Athlete, error) {
	groups := [][]model.Athlete{nil}

	dropped, err := readRecords(r, delimiter, func(rec []string) {
		if isSeparator(rec) {
			groups = append(groups, nil)
			return
		}
		a := identity(rec, 0)
		if a.IsBlank() {
			return
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], a)
	})
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		metrics.RecordInputRowsDropped(dropped)
	}

	if len(groups[len(groups)-1]) == 0 {
		groups = groups[:len(groups)-1]
	}
	return groups, nil
}

// ParseScored reads the scored layout:
//
//	group;last name;first name;birth year;club;category;E1;D1;...;EN;DN
//
// A header row whose first field is a group token is skipped. Rows shorter
// than six fields, rows with a non-positive group and blank rows are dropped.
// Group g of the result holds the athletes of group column g+1 in input
// order; gaps become empty groups. Empty input yields a single empty group.
func ParseScored(r io.Reader, delimiter rune, slots int) ([][]model.Athlete, error) {
	byGroup := make(map[int][]model.Athlete)
	maxGroup := 0
	dropped := 0
	first := true

	malformed, err := readRecords(r, delimiter, func(rec []string) {
		if first {
			first = false
			if isGroupHeader(rec) {
				return
			}
		}
		if len(rec) < scoredMinFields {
			dropped++
			return
		}
		g, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil || g < 1 {
			dropped++
			return
		}
		a := identity(rec, 1)
		if a.IsBlank() {
			return
		}
		a.Group = g
		a.Scores = make([]model.ScorePair, slots)
		for i := 0; i < slots; i++ {
			a.Scores[i] = model.ScorePair{
				Execution:  field(rec, scoredMinFields+2*i),
				Difficulty: field(rec, scoredMinFields+2*i+1),
			}
		}
		byGroup[g] = append(byGroup[g], a)
		if g > maxGroup {
			maxGroup = g
		}
	})
	if err != nil {
		return nil, err
	}
	if dropped += malformed; dropped > 0 {
		metrics.RecordInputRowsDropped(dropped)
	}

	if maxGroup == 0 {
		return [][]model.Athlete{{}}, nil
	}
	groups := make([][]model.Athlete, maxGroup)
	for g := 1; g <= maxGroup; g++ {
		groups[g-1] = byGroup[g]
	}
	return groups, nil
}

// readRecords feeds every well-formed record to fn and returns how many
// records it skipped. Skipped are records the CSV reader rejects and records
// whose last field spans a line break, which is what an unterminated quote
// leaves behind after swallowing the following lines.
//
// Leading space is not trimmed by the reader: with a whitespace delimiter
// that would merge empty fields. field trims every value instead.
func readRecords(r io.Reader, delimiter rune, fn func([]string)) (int, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && string(bom) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			return skipped, fmt.Errorf("%w: %w", ErrRead, err)
		}
		if len(rec) > 0 && strings.ContainsAny(rec[len(rec)-1], "\r\n") {
			skipped++
			continue
		}
		fn(rec)
	}
}

// isSeparator reports whether rec is a group separator: a first field made
// only of dashes or em-dashes and nothing else on the line.
func isSeparator(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	head := strings.TrimSpace(rec[0])
	if head == "" {
		return false
	}
	for _, r := range head {
		if r != '-' && r != '—' {
			return false
		}
	}
	for _, f := range rec[1:] {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func isGroupHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, ok := groupHeaderTokens[strings.ToLower(strings.TrimSpace(rec[0]))]
	return ok
}

// identity builds an athlete from the five identity fields starting at offset.
func identity(rec []string, offset int) model.Athlete {
	return model.Athlete{
		LastName:  field(rec, offset),
		FirstName: field(rec, offset+1),
		BirthYear: field(rec, offset+2),
		Club:      field(rec, offset+3),
		Category:  field(rec, offset+4),
	}
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
