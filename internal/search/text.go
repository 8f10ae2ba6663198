package search

import (
	"strings"

	"mailqa/internal/model"
)

const (
	PreviewLength = 200
	ellipsis      = "..."
)

// BuildSearchableText renders the lowercase text the scorer runs against.
// Sections appear in a fixed order separated by a blank line; To, CC and
// Content are left out when they have nothing to show.
func BuildSearchableText(email *model.Email) string {
	sections := []string{
		"Subject: " + email.Subject,
		"From: " + formatParticipant(email.SenderName, email.SenderAddress),
	}
	if len(email.ToRecipients) > 0 {
		sections = append(sections, "To: "+formatRecipients(email.ToRecipients))
	}
	if len(email.CcRecipients) > 0 {
		sections = append(sections, "CC: "+formatRecipients(email.CcRecipients))
	}
	if content := email.Content(); content != "" {
		sections = append(sections, "Content: "+content)
	}
	return strings.ToLower(strings.Join(sections, "\n\n"))
}

func formatParticipant(name, address string) string {
	return name + " <" + address + ">"
}

func formatRecipients(recipients []model.Recipient) string {
	parts := make([]string, 0, len(recipients))
	for _, r := range recipients {
		parts = append(parts, formatParticipant(r.Name, r.Address))
	}
	return strings.Join(parts, "; ")
}

// Truncate keeps the first n characters of s and marks the cut with "...".
// Strings that already fit are returned unchanged.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + ellipsis
}

func Preview(searchableText string) string {
	return Truncate(searchableText, PreviewLength)
}
