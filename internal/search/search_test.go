package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"mailqa/internal/model"
)

func budgetEmail(subject, body string) *model.Email {
	return &model.Email{
		ID:            subject,
		Subject:       subject,
		SenderName:    "Alice",
		SenderAddress: "alice@x.com",
		BodyText:      body,
	}
}

func TestBuildSearchableText(t *testing.T) {
	email := &model.Email{
		Subject:       "Quarterly Plan",
		SenderName:    "Alice",
		SenderAddress: "Alice@X.com",
		ToRecipients:  []model.Recipient{{Name: "Bob", Address: "bob@x.com"}, {Name: "Carol", Address: "carol@x.com"}},
		CcRecipients:  []model.Recipient{{Name: "Dan", Address: "dan@x.com"}},
		BodyText:      "See the PLAN",
	}

	want := "subject: quarterly plan\n\n" +
		"from: alice <alice@x.com>\n\n" +
		"to: bob <bob@x.com>; carol <carol@x.com>\n\n" +
		"cc: dan <dan@x.com>\n\n" +
		"content: see the plan"
	assert.Equal(t, want, BuildSearchableText(email))
}

func TestBuildSearchableTextOmitsEmptySections(t *testing.T) {
	email := &model.Email{Subject: "Hi", SenderName: "Unknown", SenderAddress: "Unknown"}
	assert.Equal(t, "subject: hi\n\nfrom: unknown <unknown>", BuildSearchableText(email))

	email.BodyPreview = "preview only"
	assert.Equal(t, "subject: hi\n\nfrom: unknown <unknown>\n\ncontent: preview only", BuildSearchableText(email))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "s", "the", "q3", "budget"}, Tokenize("what's the q3 budget?"))
	assert.Empty(t, Tokenize("?!"))
}

func TestScoreBudgetScenario(t *testing.T) {
	a := BuildSearchableText(budgetEmail("Budget Review", "Please review the Q3 budget numbers"))
	b := BuildSearchableText(budgetEmail("Lunch", "Want to grab lunch?"))
	c := BuildSearchableText(budgetEmail("Budget numbers", "See attached budget numbers"))

	assert.Equal(t, 22.0, Score(a, "budget numbers"))
	assert.Equal(t, 0.0, Score(b, "budget numbers"))
	assert.Equal(t, 24.0, Score(c, "Budget Numbers"))
}

func TestScoreShortTokensOnlyCountInSubjectWindow(t *testing.T) {
	text := BuildSearchableText(budgetEmail("Budget Review", "Please review the Q3 budget numbers"))
	assert.Equal(t, 13.0, Score(text, "q3"))
}

func TestScoreExactPhraseAtLeastTen(t *testing.T) {
	text := BuildSearchableText(budgetEmail("Team offsite", strings.Repeat("filler ", 40)+"meet at the harbour"))
	assert.GreaterOrEqual(t, Score(text, "meet at the harbour"), 10.0)
}

func TestScoreIgnoresSubjectBonusWhenMarkerOutsideWindow(t *testing.T) {
	text := strings.Repeat("x", 100) + "subject: budget"
	assert.Equal(t, 10.0+2.0, Score(text, "budget"))
}

func TestScoreSubjectWindowCountsRunesNotBytes(t *testing.T) {
	// 95 runes but 180 bytes: the token ends past byte 100, inside rune 100.
	inside := "subject: " + strings.Repeat("é", 80) + " отчёт"
	assert.Equal(t, 10.0+2.0+3.0, Score(inside, "отчёт"))

	outside := "subject: " + strings.Repeat("é", 95) + " отчёт"
	assert.Equal(t, 10.0+2.0, Score(outside, "отчёт"))

	assert.Equal(t, "éé", headOf("ééé", 2))
	assert.Equal(t, "ab", headOf("ab", 100))
}

func TestScoreEmptyQueryMatchesEverything(t *testing.T) {
	assert.Equal(t, 10.0, Score("subject: anything", ""))
	assert.Equal(t, 10.0, Score("", ""))
}

func TestScoreZeroWhenNothingMatches(t *testing.T) {
	text := BuildSearchableText(budgetEmail("Lunch", "Want to grab lunch?"))
	assert.Zero(t, Score(text, "invoice overdue"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "héé...", Truncate("hééllo", 3))

	exact := strings.Repeat("a", PreviewLength)
	assert.Equal(t, exact, Preview(exact))
	assert.Equal(t, exact+"...", Preview(exact+"b"))
}
