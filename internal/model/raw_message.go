package model

// RawMessage is one provider record before normalization. Its shape follows
// the Microsoft Graph message resource so Graph responses decode into it
// directly; the Gmail and IMAP clients map their own records onto it.
//
// Every field is optional. The Get accessors supply the default used when a
// field is absent; a present but empty value is returned as is.
type RawMessage struct {
	ID               *string        `json:"id,omitempty"`
	Subject          *string        `json:"subject,omitempty"`
	BodyPreview      *string        `json:"bodyPreview,omitempty"`
	Body             *ItemBody      `json:"body,omitempty"`
	From             *RawRecipient  `json:"from,omitempty"`
	ToRecipients     []RawRecipient `json:"toRecipients,omitempty"`
	CcRecipients     []RawRecipient `json:"ccRecipients,omitempty"`
	ReceivedDateTime *string        `json:"receivedDateTime,omitempty"`
	Importance       *string        `json:"importance,omitempty"`
	HasAttachments   *bool          `json:"hasAttachments,omitempty"`
}

type ItemBody struct {
	ContentType *string `json:"contentType,omitempty"`
	Content     *string `json:"content,omitempty"`
}

type RawRecipient struct {
	EmailAddress *EmailAddress `json:"emailAddress,omitempty"`
}

type EmailAddress struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
}

const (
	DefaultSubject     = "No Subject"
	DefaultParticipant = "Unknown"
	DefaultBodyType    = "text"
)

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

// String returns a pointer to s. Provider clients use it to fill RawMessage.
func String(s string) *string {
	return &s
}

func Bool(b bool) *bool {
	return &b
}

func (m *RawMessage) GetID() string {
	return stringOr(m.ID, "")
}

func (m *RawMessage) GetSubject() string {
	return stringOr(m.Subject, DefaultSubject)
}

func (m *RawMessage) GetBodyPreview() string {
	return stringOr(m.BodyPreview, "")
}

func (m *RawMessage) GetBodyContent() string {
	if m.Body == nil {
		return ""
	}
	return stringOr(m.Body.Content, "")
}

func (m *RawMessage) GetBodyType() string {
	if m.Body == nil {
		return DefaultBodyType
	}
	return stringOr(m.Body.ContentType, DefaultBodyType)
}

func (m *RawMessage) GetSenderName() string {
	return m.From.GetName()
}

func (m *RawMessage) GetSenderAddress() string {
	return m.From.GetAddress()
}

func (m *RawMessage) GetReceivedDateTime() string {
	return stringOr(m.ReceivedDateTime, "")
}

func (m *RawMessage) GetImportance() string {
	return stringOr(m.Importance, string(ImportanceNormal))
}

func (m *RawMessage) GetHasAttachments() bool {
	if m.HasAttachments == nil {
		return false
	}
	return *m.HasAttachments
}

func (r *RawRecipient) GetName() string {
	if r == nil || r.EmailAddress == nil {
		return DefaultParticipant
	}
	return stringOr(r.EmailAddress.Name, DefaultParticipant)
}

func (r *RawRecipient) GetAddress() string {
	if r == nil || r.EmailAddress == nil {
		return DefaultParticipant
	}
	return stringOr(r.EmailAddress.Address, DefaultParticipant)
}

// NewRawRecipient builds a recipient with both name and address present.
func NewRawRecipient(name, address string) RawRecipient {
	return RawRecipient{EmailAddress: &EmailAddress{Name: String(name), Address: String(address)}}
}
