// Package citation renders metadata into Wiktionary quotation templates.
package citation

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ParagraphMark replaces line breaks inside a passage.
const ParagraphMark = "¶"

var (
	breakRun = regexp.MustCompile(`[\s\p{Z}]*\n[\s\p{Z}]*`)
	spaceRun = regexp.MustCompile(`[\s\p{Z}]+`)

	typography = strings.NewReplacer(
		"‘", "'",
		"’", "'",
		"“", `"`,
		"”", `"`,
		"…", "...",
	)
	pipeEscaper = strings.NewReplacer("|", "{{!}}")
)

// Normalize prepares free text for a template field. Whitespace runs that
// contain a line break become a paragraph mark, other runs a single space.
// Typographic quotes and ellipses are flattened and pipes escaped.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	s = breakRun.ReplaceAllString(s, " "+ParagraphMark+" ")
	s = spaceRun.ReplaceAllString(s, " ")
	s = typography.Replace(s)
	return escape(s)
}

// escape protects the field separator without touching anything else. Used
// for values such as URLs that must otherwise pass through verbatim.
func escape(s string) string {
	return pipeEscaper.Replace(strings.TrimSpace(s))
}
