package mail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"

	"mailqa/internal/logger"
	"mailqa/internal/model"
	"mailqa/internal/service"
)

type IMAPOptions struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool
}

// imapClient reads one fixed mailbox; the userID argument is ignored.
type imapClient struct {
	opts   IMAPOptions
	logger *logger.Logger
}

func NewIMAPClient(opts IMAPOptions, logger *logger.Logger) service.MailClient {
	return &imapClient{opts: opts, logger: logger}
}

func (c *imapClient) connect(ctx context.Context) (*imapclient.Client, error) {
	addr := c.opts.Host + ":" + c.opts.Port

	var client *imapclient.Client
	var err error
	if c.opts.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	// The client API has no context support; closing the connection unblocks
	// any pending command when ctx ends.
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	if err := client.Login(c.opts.Username, c.opts.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", c.opts.Username, err)
	}
	return client, nil
}

func (c *imapClient) FetchEmailsByDate(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		Since:  start,
		Before: start.AddDate(0, 0, 1),
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:     true,
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []*model.RawMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			c.logger.Warn("Skipping IMAP message:", err)
			continue
		}
		messages = append(messages, rawMessageFromIMAP(buf, buf.FindBodySection(bodySection)))
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}

	// Newest first, matching the other providers.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	c.logger.Info("Fetched", len(messages), "emails from IMAP for", start.Format("2006-01-02"))
	return messages, nil
}

func rawMessageFromIMAP(buf *imapclient.FetchMessageBuffer, body []byte) *model.RawMessage {
	raw := &model.RawMessage{
		ID: model.String(strconv.FormatUint(uint64(buf.UID), 10)),
	}
	if !buf.InternalDate.IsZero() {
		raw.ReceivedDateTime = model.String(buf.InternalDate.UTC().Format(time.RFC3339))
	}

	if env := buf.Envelope; env != nil {
		raw.Subject = model.String(env.Subject)
		if len(env.From) > 0 {
			from := rawRecipient(env.From[0].Name, env.From[0].Addr())
			raw.From = &from
		}
		raw.ToRecipients = imapRecipients(env.To)
		raw.CcRecipients = imapRecipients(env.Cc)
	}

	if body != nil {
		applyMIMEBody(raw, body)
	}
	return raw
}

func imapRecipients(addrs []imap.Address) []model.RawRecipient {
	if len(addrs) == 0 {
		return nil
	}
	result := make([]model.RawRecipient, 0, len(addrs))
	for _, addr := range addrs {
		result = append(result, rawRecipient(addr.Name, addr.Addr()))
	}
	return result
}

// applyMIMEBody parses an RFC 5322 message and fills body, importance and
// attachment fields. HTML is preferred over plain text.
func applyMIMEBody(raw *model.RawMessage, body []byte) {
	mr, err := gomail.CreateReader(bytes.NewReader(body))
	if err != nil {
		raw.Body = &model.ItemBody{ContentType: model.String("text"), Content: model.String(string(body))}
		return
	}
	defer mr.Close()

	raw.Importance = model.String(importanceFromHeaders(mr.Header.Get("Importance"), mr.Header.Get("X-Priority")))

	var textBody, htmlBody string
	hasAttachments := false
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			contentType, _, _ := h.ContentType()
			data, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
				htmlBody = string(data)
			case strings.HasPrefix(contentType, "text/plain") && textBody == "":
				textBody = string(data)
			}
		case *gomail.AttachmentHeader:
			hasAttachments = true
		}
	}

	raw.HasAttachments = model.Bool(hasAttachments)
	switch {
	case htmlBody != "":
		raw.Body = &model.ItemBody{ContentType: model.String("html"), Content: model.String(htmlBody)}
	case textBody != "":
		raw.Body = &model.ItemBody{ContentType: model.String("text"), Content: model.String(textBody)}
	}
}
