package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"mailqa/internal/logger"
	"mailqa/internal/model"
)

var ErrMalformedRecord = errors.New("malformed mail record")

type Normalizer struct {
	logger *logger.Logger
}

func New(logger *logger.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts one provider record into its canonical form. Absent
// fields take the RawMessage defaults; HTML bodies are reduced to text.
func Normalize(raw *model.RawMessage) (*model.Email, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil record", ErrMalformedRecord)
	}
	id := raw.GetID()
	if id == "" {
		return nil, fmt.Errorf("%w: missing id (subject %q)", ErrMalformedRecord, raw.GetSubject())
	}

	bodyType := raw.GetBodyType()
	bodyText := raw.GetBodyContent()
	if strings.EqualFold(bodyType, "html") {
		bodyText = CleanHTML(bodyText)
	}

	return &model.Email{
		ID:             id,
		Subject:        raw.GetSubject(),
		SenderName:     raw.GetSenderName(),
		SenderAddress:  raw.GetSenderAddress(),
		ToRecipients:   recipients(raw.ToRecipients),
		CcRecipients:   recipients(raw.CcRecipients),
		BodyText:       bodyText,
		BodyPreview:    raw.GetBodyPreview(),
		BodyType:       bodyType,
		ReceivedAt:     raw.GetReceivedDateTime(),
		Importance:     model.ParseImportance(raw.GetImportance()),
		HasAttachments: raw.GetHasAttachments(),
	}, nil
}

func recipients(raws []model.RawRecipient) []model.Recipient {
	if len(raws) == 0 {
		return nil
	}
	result := make([]model.Recipient, 0, len(raws))
	for i := range raws {
		result = append(result, model.Recipient{
			Name:    raws[i].GetName(),
			Address: raws[i].GetAddress(),
		})
	}
	return result
}

// NormalizeBatch normalizes raws in order. A record that fails, or that
// repeats an id already seen in the batch, is logged and dropped; the rest of
// the batch is still processed.
func (n *Normalizer) NormalizeBatch(raws []*model.RawMessage) ([]*model.Email, int) {
	emails := make([]*model.Email, 0, len(raws))
	seen := make(map[string]struct{}, len(raws))
	dropped := 0

	for i, raw := range raws {
		email, err := Normalize(raw)
		if err != nil {
			n.logger.Warnf("Dropping record %d: %v", i, err)
			dropped++
			continue
		}
		if _, ok := seen[email.ID]; ok {
			n.logger.Warnf("Dropping duplicate record %d with id %s", i, email.ID)
			dropped++
			continue
		}
		seen[email.ID] = struct{}{}
		emails = append(emails, email)
	}

	if dropped > 0 {
		n.logger.Info("Normalized", len(emails), "emails, dropped", dropped)
	}
	return emails, dropped
}
