package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

// wrappingQuotes are the opening/closing pairs stripped from summary text.
var wrappingQuotes = [][2]string{
	{`"`, `"`},
	{"“", "”"},
	{"'", "'"},
	{"‘", "’"},
}

// Sanitize cleans model-produced summary text. It trims whitespace, removes
// quotes wrapping the whole text or individual lines, strips stray double
// quotes at line ends, turns remaining double quotes into single quotes and
// collapses runs of blank lines. The cleanup is repeated until the text
// stops changing, so Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(text string) string {
	s := text
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(unwrap(s))

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		l := strings.TrimSpace(line)
		l = strings.TrimSpace(unwrap(l))
		l = strings.Trim(l, "\"“”")
		l = strings.NewReplacer(`"`, "'", "“", "'", "”", "'").Replace(l)
		lines[i] = l
	}
	s = strings.Join(lines, "\n")

	s = excessBlankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// unwrap removes one matching pair of quotes surrounding s.
func unwrap(s string) string {
	for _, q := range wrappingQuotes {
		if !strings.HasPrefix(s, q[0]) || !strings.HasSuffix(s, q[1]) {
			continue
		}
		if len(s) < len(q[0])+len(q[1]) {
			// a lone quote character is both prefix and suffix
			if utf8.RuneCountInString(s) == 1 {
				return ""
			}
			continue
		}
		return s[len(q[0]) : len(s)-len(q[1])]
	}
	return s
}
