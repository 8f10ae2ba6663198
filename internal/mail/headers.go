package mail

import (
	"strings"

	gomail "github.com/emersion/go-message/mail"

	"mailqa/internal/model"
)

// importanceFromHeaders maps the Importance header, or failing that the
// X-Priority header, onto low/normal/high.
func importanceFromHeaders(importance, priority string) string {
	switch strings.ToLower(strings.TrimSpace(importance)) {
	case "high":
		return string(model.ImportanceHigh)
	case "low":
		return string(model.ImportanceLow)
	}

	// X-Priority: 1 (Highest) ... 5 (Lowest), often followed by a label.
	priority = strings.TrimSpace(priority)
	if priority != "" {
		switch priority[0] {
		case '1', '2':
			return string(model.ImportanceHigh)
		case '4', '5':
			return string(model.ImportanceLow)
		}
	}
	return string(model.ImportanceNormal)
}

func recipientFromHeader(value string) *model.RawRecipient {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	addr, err := gomail.ParseAddress(value)
	if err != nil {
		// Keep what the header said so the sender is not lost entirely.
		r := model.NewRawRecipient(strings.TrimSpace(value), strings.TrimSpace(value))
		return &r
	}
	r := rawRecipient(addr.Name, addr.Address)
	return &r
}

func recipientsFromHeader(value string) []model.RawRecipient {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	list, err := gomail.ParseAddressList(value)
	if err != nil {
		return nil
	}
	result := make([]model.RawRecipient, 0, len(list))
	for _, addr := range list {
		result = append(result, rawRecipient(addr.Name, addr.Address))
	}
	return result
}

// rawRecipient falls back to the address for a missing display name, as
// Graph does.
func rawRecipient(name, address string) model.RawRecipient {
	if name == "" {
		name = address
	}
	return model.NewRawRecipient(name, address)
}
