package model

type SearchResult struct {
	Email   *Email  `json:"email"`
	Score   float64 `json:"score"`
	Preview string  `json:"preview"`
}

type SourceRef struct {
	Subject        string `json:"subject"`
	Sender         string `json:"sender"`
	ReceivedDate   string `json:"received_date"`
	ContentPreview string `json:"content_preview"`
}

type Answer struct {
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Sources  []SourceRef `json:"sources"`
}

type SenderCount struct {
	Sender string `json:"sender"`
	Count  int    `json:"count"`
}

type EmailSummary struct {
	TotalEmails         int            `json:"total_emails"`
	Senders             []SenderCount  `json:"senders"`
	Subjects            []string       `json:"subjects"`
	ImportanceBreakdown map[string]int `json:"importance_breakdown"`
}

// FetchResult reports one fetch-and-store run for a day.
type FetchResult struct {
	Date    string `json:"date"`
	Fetched int    `json:"fetched"`
	Stored  int    `json:"stored"`
	Dropped int    `json:"dropped"`
}
