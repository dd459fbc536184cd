package extract

import (
	"regexp"
	"strings"
)

var (
	runsOfSpaces   = regexp.MustCompile(`[ ]{2,}`)
	runsOfNewlines = regexp.MustCompile(`\n{3,}`)
)

// TextCleaner normalizes whitespace in extracted text before generation.
// Clean is idempotent.
type TextCleaner struct{}

func NewTextCleaner() *TextCleaner { return &TextCleaner{} }

// Clean drops carriage returns, turns tabs and non-breaking spaces into
// spaces, collapses space runs, trims every line, caps blank-line runs at
// one and trims the result.
func (c *TextCleaner) Clean(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = runsOfSpaces.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")

	text = runsOfNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
