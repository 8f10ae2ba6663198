package search

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	exactPhraseScore = 10.0
	termScore        = 2.0
	subjectTermScore = 3.0

	minTermLength = 3
	headerWindow  = 100
	subjectMarker = "subject:"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize splits an already lowercased query into word tokens.
func Tokenize(query string) []string {
	return tokenPattern.FindAllString(query, -1)
}

// Score rates how well a searchable text matches query. The text is expected
// to be lowercase already (see BuildSearchableText).
//
//   - +10 when the whole lowercased query occurs in the text
//   - +2 per occurrence of each query token of three or more characters
//   - +3 per query token found in the first 100 characters, when those
//     characters contain "subject:"
//
// An empty query is contained in every text and therefore scores 10.
func Score(searchableText, query string) float64 {
	q := strings.ToLower(query)
	tokens := Tokenize(q)

	score := 0.0
	if strings.Contains(searchableText, q) {
		score += exactPhraseScore
	}

	for _, token := range tokens {
		if utf8.RuneCountInString(token) >= minTermLength {
			score += termScore * float64(strings.Count(searchableText, token))
		}
	}

	head := headOf(searchableText, headerWindow)
	if strings.Contains(head, subjectMarker) {
		for _, token := range tokens {
			if strings.Contains(head, token) {
				score += subjectTermScore
			}
		}
	}

	return score
}

func headOf(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
