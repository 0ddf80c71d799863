// Package latex serialises document models into LaTeX source for the
// tectonic engine.
package latex

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/geku/kutu/internal/domain/document"
)

// Angle-bracket delimiters keep template actions apart from LaTeX braces.
const (
	leftDelim  = "<<"
	rightDelim = ">>"
)

var templates = template.Must( //nolint:gochecknoglobals // parsed once
	template.New("latex").
		Delims(leftDelim, rightDelim).
		Funcs(template.FuncMap{
			"esc":         Escape,
			"heading":     heading,
			"colspec":     colspec,
			"header":      header,
			"cells":       cells,
			"placeholder": placeholder,
			"triplet":     triplet,
			"repeat":      strings.Repeat,
			"mul":         func(a, b int) int { return a * b },
		}).
		Parse(notesheetsTemplate + rankingTemplate),
)

const notesheetsTemplate = `<<define "notesheets">>\documentclass[a4paper,10pt,landscape]{article}
\usepackage[margin=12mm]{geometry}
\usepackage{booktabs,longtable}
\usepackage[T1]{fontenc}
\usepackage[utf8]{inputenc}
\usepackage[ngerman]{babel}
\usepackage{helvet}
\renewcommand\familydefault{\sfdefault}
\setlength{\parindent}{0pt}
\renewcommand\arraystretch{1.8}
\setlength\tabcolsep{7pt}

\begin{document}
<<range $i, $s := .Sections>><<if $i>>\newpage
<<end>>
<<heading $s>>\par\vspace{6mm}

\begin{longtable}{<<colspec $s.Flat.Columns>>}
\hline
<<header $s.Flat.Columns>> \\
\hline
\endhead
<<if $s.Flat.Rows>><<range $s.Flat.Rows>><<cells .>> \\ \hline
<<end>><<else>><<placeholder $s.Flat>>
<<end>>\hline
\end{longtable}
<<end>>\end{document}
<<end>>`

const rankingTemplate = `<<define "ranking">>\documentclass[10pt]{article}
\usepackage[a4paper,landscape,top=12mm,bottom=18mm,left=10mm,right=10mm,includefoot]{geometry}
\usepackage[T1]{fontenc}
\usepackage[utf8]{inputenc}
\usepackage[ngerman]{babel}
\usepackage{helvet}
\usepackage{wasysym}
\usepackage{booktabs}
\usepackage{array}
\usepackage[table]{xcolor}
\usepackage{fancyhdr}
\setlength{\footskip}{10mm}
\renewcommand{\arraystretch}{1.3}
\renewcommand\familydefault{\sfdefault}

\newcommand{\smallD}[1]{{\fontsize{6pt}{7pt}\selectfont #1}}
\newcommand{\smallR}[1]{{\fontsize{6pt}{7pt}\selectfont (#1)}}
\definecolor{rowgray}{RGB}{215,215,215}

\pagestyle{fancy}
\fancyhf{}
\renewcommand{\headrulewidth}{0pt}
\renewcommand{\footrulewidth}{0pt}
\lfoot{\small <<if .Footer>><<esc .Footer>><<else>>Rangliste<<end>>}
\cfoot{\small Kutu}
\rfoot{\small \thepage}

\begin{document}
<<range .Sections>><<$t := .Ranked>>\section*{<<esc .Title>>}
{\fontsize{8pt}{8.5pt}\selectfont
\rowcolors{3}{rowgray}{white}
\begin{tabular}{c l l l l l<<repeat "r" (mul (len $t.Apparatus) 3)>> >{\bfseries}r}
 & \textbf{Rang} & \textbf{Nachname} & \textbf{Vorname} & \textbf{Verein} & \textbf{JG}<<range $t.Apparatus>> & \multicolumn{3}{l}{\textbf{<<esc .>>}}<<end>> & \textbf{Total} \\
 &  &  &  &  & <<range $t.Apparatus>> & E & {\fontsize{6pt}{7pt}\selectfont D} & {\fontsize{6pt}{7pt}\selectfont (R)}<<end>> & \\
\hline
<<range $t.Lines>><<if .Awarded>>$\smiley$<<end>> & <<.Rank>> & <<esc .LastName>> & <<esc .FirstName>> & <<esc .Club>> & <<esc .BirthYear>><<range .Apparatus>><<triplet .>><<end>> & \textbf{<<.Total>>} \\
<<end>>\end{tabular}
}
<<end>>\end{document}
<<end>>`

// Render serialises doc into a complete LaTeX document.
func Render(doc document.Document) (string, error) {
	name, err := templateFor(doc)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, doc); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return b.String(), nil
}

func templateFor(doc document.Document) (string, error) {
	switch doc.Kind {
	case document.KindNotesheets:
		for i, s := range doc.Sections {
			if s.Flat == nil {
				return "", fmt.Errorf("%w: section %d has no flat table", ErrSectionShape, i)
			}
		}
		return "notesheets", nil
	case document.KindRanking:
		for i, s := range doc.Sections {
			if s.Ranked == nil {
				return "", fmt.Errorf("%w: section %d has no ranked table", ErrSectionShape, i)
			}
		}
		return "ranking", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, doc.Kind)
	}
}

// heading renders a large bold title with an optional smaller second line.
func heading(s document.Section) string {
	title := `{\LARGE \textbf{` + Escape(s.Title) + `}}`
	if s.Subtitle == "" {
		return title
	}
	return title + `\\[3mm]{\Large ` + Escape(s.Subtitle) + `}`
}

func colspec(cols []document.Column) string {
	var b strings.Builder
	b.WriteByte('|')
	for _, c := range cols {
		b.WriteString(`p{` + strconv.FormatFloat(c.Width, 'f', 1, 64) + `cm}|`)
	}
	return b.String()
}

func header(cols []document.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = `\textbf{` + Escape(c.Label) + `}`
	}
	return strings.Join(parts, " & ")
}

func cells(row []document.Cell) string {
	parts := make([]string, len(row))
	for i, c := range row {
		parts[i] = cell(c)
	}
	return strings.Join(parts, " & ")
}

func cell(c document.Cell) string {
	text := c.Text
	if !c.Numeric {
		text = Escape(text)
	}
	if text == "" {
		return ""
	}
	switch c.Style {
	case document.StyleBold:
		return `\textbf{` + text + `}`
	case document.StyleEmphasis:
		return `\emph{` + text + `}`
	default:
		return text
	}
}

func placeholder(t *document.FlatTable) string {
	return fmt.Sprintf(`\multicolumn{%d}{|c|}{%s} \\ \hline`,
		len(t.Columns), cell(document.Cell{Text: t.Placeholder, Style: document.StyleEmphasis}))
}

// triplet renders the execution, difficulty and rank sub-cells of one apparatus.
func triplet(c document.ApparatusCell) string {
	d, r := "", ""
	if c.Difficulty != "" {
		d = `\smallD{` + c.Difficulty + `}`
	}
	if c.Rank > 0 {
		r = `\smallR{` + strconv.Itoa(c.Rank) + `}`
	}
	return " & " + c.Execution + " & " + d + " & " + r
}
