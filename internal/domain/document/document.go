// Package document builds the engine-agnostic document model for
// notesheets and ranking lists. Serialisation lives in adapters/latex.
package document

// Kind selects the page layout of a document.
type Kind int

const (
	// KindNotesheets is a set of blank score sheets, one per group and rotation.
	KindNotesheets Kind = iota
	// KindRanking is a ranked result list of one category.
	KindRanking
)

func (k Kind) String() string {
	switch k {
	case KindNotesheets:
		return "notesheets"
	case KindRanking:
		return "ranking"
	default:
		return "unknown"
	}
}

// Style is the emphasis of a cell.
type Style int

const (
	StyleNormal Style = iota
	StyleBold
	StyleEmphasis
)

// Cell is one table cell. Numeric cells are produced by this package and are
// never escaped by serializers; every other cell is free text.
type Cell struct {
	Text    string
	Style   Style
	Numeric bool
}

// Text returns a free-text cell.
func Text(s string) Cell { return Cell{Text: s} }

// Number returns a numeric cell.
func Number(s string) Cell { return Cell{Text: s, Numeric: true} }

// Column is a flat table header with a width hint in centimetres.
type Column struct {
	Label string
	Width float64
}

// FlatTable is a plain grid. Placeholder is shown when Rows is empty.
type FlatTable struct {
	Columns     []Column
	Rows        [][]Cell
	Placeholder string
}

// ApparatusCell is the score triplet of one apparatus in a ranked line.
// Execution and Difficulty are preformatted and blank when zero. Rank 0
// means unranked.
type ApparatusCell struct {
	Execution  string
	Difficulty string
	Rank       int
}

// RankedLine is one row of a ranked table.
type RankedLine struct {
	Awarded   bool
	Rank      int
	LastName  string
	FirstName string
	Club      string
	BirthYear string
	Apparatus []ApparatusCell
	Total     string
}

// RankedTable is a ranking grid with one score triplet per apparatus.
type RankedTable struct {
	Apparatus []string
	Lines     []RankedLine
}

// Section is a titled block holding exactly one of Flat or Ranked.
type Section struct {
	Title    string
	Subtitle string
	Flat     *FlatTable
	Ranked   *RankedTable
}

// Document is an ordered list of sections.
type Document struct {
	Kind     Kind
	Title    string
	Footer   string
	Sections []Section
}
