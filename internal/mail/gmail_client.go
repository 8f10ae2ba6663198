package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailqa/internal/logger"
	"mailqa/internal/model"
	"mailqa/internal/service"
)

const (
	gmailUser          = "me"
	gmailPageSize      = 500
	gmailFetchParallel = 8
)

type gmailClient struct {
	client *gmail.Service
	logger *logger.Logger
}

func NewGmailClient(ctx context.Context, tokens oauth2.TokenSource, logger *logger.Logger, opts ...option.ClientOption) (service.MailClient, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(tokens)}, opts...)

	gmailService, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &gmailClient{
		client: gmailService,
		logger: logger,
	}, nil
}

func (g *gmailClient) FetchEmailsByDate(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	query := fmt.Sprintf("after:%d before:%d", start.Unix(), start.AddDate(0, 0, 1).Unix())

	var ids []string
	pageToken := ""
	for {
		call := g.client.Users.Messages.List(gmailUser).Q(query).MaxResults(gmailPageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		for _, msg := range list.Messages {
			ids = append(ids, msg.Id)
		}
		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}

	// Full gets run concurrently; results keep list order.
	slots := make([]*model.RawMessage, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(gmailFetchParallel)
	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			message, err := g.client.Users.Messages.Get(gmailUser, id).Format("full").Context(groupCtx).Do()
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				g.logger.Error("Failed to get message:", id, err)
				return nil
			}
			slots[i] = toRawMessage(message)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]*model.RawMessage, 0, len(slots))
	for _, msg := range slots {
		if msg != nil {
			messages = append(messages, msg)
		}
	}

	g.logger.Info("Fetched", len(messages), "emails from Gmail for", start.Format("2006-01-02"))
	return messages, nil
}

func toRawMessage(message *gmail.Message) *model.RawMessage {
	raw := &model.RawMessage{
		ID:               model.String(message.Id),
		BodyPreview:      model.String(html.UnescapeString(message.Snippet)),
		ReceivedDateTime: model.String(time.UnixMilli(message.InternalDate).UTC().Format(time.RFC3339)),
	}
	if message.Payload == nil {
		return raw
	}

	headers := make(map[string]string)
	for _, header := range message.Payload.Headers {
		headers[strings.ToLower(header.Name)] = header.Value
	}

	if subject, ok := headers["subject"]; ok {
		raw.Subject = model.String(subject)
	}
	raw.From = recipientFromHeader(headers["from"])
	raw.ToRecipients = recipientsFromHeader(headers["to"])
	raw.CcRecipients = recipientsFromHeader(headers["cc"])
	raw.Importance = model.String(importanceFromHeaders(headers["importance"], headers["x-priority"]))
	raw.HasAttachments = model.Bool(hasAttachment(message.Payload))

	content, contentType := extractBody(message.Payload)
	if content != "" {
		raw.Body = &model.ItemBody{ContentType: model.String(contentType), Content: model.String(content)}
	}
	return raw
}

// extractBody prefers an HTML part and falls back to plain text.
func extractBody(payload *gmail.MessagePart) (string, string) {
	var htmlBody, textBody string
	walkParts(payload, func(part *gmail.MessagePart) {
		if part.Body == nil || part.Body.Data == "" || part.Filename != "" {
			return
		}
		switch {
		case strings.HasPrefix(part.MimeType, "text/html") && htmlBody == "":
			htmlBody = decodeBody(part.Body.Data)
		case strings.HasPrefix(part.MimeType, "text/plain") && textBody == "":
			textBody = decodeBody(part.Body.Data)
		}
	})

	if htmlBody != "" {
		return htmlBody, "html"
	}
	return textBody, "text"
}

func hasAttachment(payload *gmail.MessagePart) bool {
	found := false
	walkParts(payload, func(part *gmail.MessagePart) {
		if part.Filename != "" {
			found = true
		}
	})
	return found
}

func walkParts(part *gmail.MessagePart, visit func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	visit(part)
	for _, child := range part.Parts {
		walkParts(child, visit)
	}
}

// Gmail bodies are base64url, sometimes without padding.
func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
	}
	return string(decoded)
}
