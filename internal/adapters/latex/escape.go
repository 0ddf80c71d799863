package latex

import "strings"

// escaper rewrites LaTeX control characters in a single pass so replacements
// are never re-escaped.
var escaper = strings.NewReplacer( //nolint:gochecknoglobals // immutable replacer
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes free text safe for inclusion in a LaTeX document.
func Escape(s string) string {
	if s == "" {
		return ""
	}
	return escaper.Replace(s)
}
