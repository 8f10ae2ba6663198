package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"mailqa/internal/logger"
	"mailqa/internal/model"
	"mailqa/internal/service"
)

const (
	graphSelect   = "id,subject,bodyPreview,body,from,toRecipients,ccRecipients,receivedDateTime,importance,hasAttachments"
	graphPageSize = "999"
)

type graphClient struct {
	endpoint   string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	logger     *logger.Logger
}

// NewGraphClient reads the signed-in user's mailbox through Microsoft Graph.
func NewGraphClient(endpoint string, tokens oauth2.TokenSource, httpClient *http.Client, logger *logger.Logger) service.MailClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &graphClient{
		endpoint:   endpoint,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}
}

type graphPage struct {
	Value    []json.RawMessage `json:"value"`
	NextLink string            `json:"@odata.nextLink"`
}

func (g *graphClient) FetchEmailsByDate(ctx context.Context, userID string, day time.Time) ([]*model.RawMessage, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("receivedDateTime ge %sT00:00:00Z and receivedDateTime lt %sT00:00:00Z",
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	params.Set("$select", graphSelect)
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$top", graphPageSize)

	// The next link already carries the query, so params go on the first request only.
	next := g.endpoint + "/me/messages?" + params.Encode()

	var messages []*model.RawMessage
	for pageNum := 1; next != ""; pageNum++ {
		page, err := g.getPage(ctx, next)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", pageNum, err)
		}

		for i, item := range page.Value {
			var msg model.RawMessage
			if err := json.Unmarshal(item, &msg); err != nil {
				g.logger.Warnf("Skipping undecodable message %d on page %d: %v", i, pageNum, err)
				continue
			}
			messages = append(messages, &msg)
		}
		next = page.NextLink
	}

	g.logger.Info("Fetched", len(messages), "emails from Microsoft Graph for", start.Format("2006-01-02"))
	return messages, nil
}

func (g *graphClient) getPage(ctx context.Context, pageURL string) (*graphPage, error) {
	token, err := g.tokens.Token()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Graph API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var page graphPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}
