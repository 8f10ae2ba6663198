package service

import (
	"encoding/json"
	"fmt"
	"os"
)

var defaultSampleQuestions = []string{
	"What are the most important emails I received?",
	"Who sent me the most emails today?",
	"Are there any meeting invitations?",
	"What emails require my immediate attention?",
	"Summarize the main topics discussed in my emails",
	"Are there any urgent requests or deadlines mentioned?",
	"What emails are from my manager or colleagues?",
	"Are there any emails about projects or tasks?",
}

// LoadSampleQuestions reads a JSON array of strings from path. An empty path
// yields the built-in list.
func LoadSampleQuestions(path string) ([]string, error) {
	if path == "" {
		return DefaultSampleQuestions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample questions: %w", err)
	}

	var questions []string
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse sample questions: %w", err)
	}
	if len(questions) == 0 {
		return DefaultSampleQuestions(), nil
	}
	return questions, nil
}

func DefaultSampleQuestions() []string {
	return append([]string(nil), defaultSampleQuestions...)
}
