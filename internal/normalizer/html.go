package normalizer

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Applied one after another, so "&amp;lt;" decodes to "<".
	entities = [][2]string{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
		{"&#39;", "'"},
	}
)

// CleanHTML turns an HTML body into plain text. It is best effort: tags are
// dropped, a handful of common entities are decoded and whitespace runs are
// collapsed. Malformed markup may leave stray characters behind.
func CleanHTML(content string) string {
	text := tagPattern.ReplaceAllString(content, "")
	for _, entity := range entities {
		text = strings.ReplaceAll(text, entity[0], entity[1])
	}
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
