package model

// CompletionRequest is one single-turn LLM call.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}
