package model

import "strings"

type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceNormal Importance = "normal"
	ImportanceHigh   Importance = "high"
)

// ParseImportance maps a provider importance value onto the three known
// levels. Anything unrecognised is normal.
func ParseImportance(value string) Importance {
	switch Importance(strings.ToLower(strings.TrimSpace(value))) {
	case ImportanceLow:
		return ImportanceLow
	case ImportanceHigh:
		return ImportanceHigh
	default:
		return ImportanceNormal
	}
}

type Recipient struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Email is the canonical form of one fetched message. It is not modified
// after normalization.
type Email struct {
	ID             string      `json:"id"`
	Subject        string      `json:"subject"`
	SenderName     string      `json:"sender_name"`
	SenderAddress  string      `json:"sender_address"`
	ToRecipients   []Recipient `json:"to_recipients"`
	CcRecipients   []Recipient `json:"cc_recipients"`
	BodyText       string      `json:"body_text"`
	BodyPreview    string      `json:"body_preview"`
	BodyType       string      `json:"body_type"`
	ReceivedAt     string      `json:"received_at"`
	Importance     Importance  `json:"importance"`
	HasAttachments bool        `json:"has_attachments"`
}

// Content returns the body text, falling back to the preview.
func (e *Email) Content() string {
	if e.BodyText != "" {
		return e.BodyText
	}
	return e.BodyPreview
}
