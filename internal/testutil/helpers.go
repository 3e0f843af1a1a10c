package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// TestTimeout provides a standard timeout for test contexts
const TestTimeout = 5 * time.Second

// NewTestContext creates a context with standard test timeout
func NewTestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	t.Cleanup(cancel)
	return ctx
}

// NewTestQuery creates a research query for tests
func NewTestQuery(text string) domain.ResearchQuery {
	return domain.ResearchQuery{
		ID:        "test-query-1",
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewTestOpinion creates an opinion for tests
func NewTestOpinion(title, citation string) domain.Opinion {
	return domain.Opinion{
		Title:    title,
		Citation: citation,
		Court:    "scotus",
		Date:     time.Date(2020, 6, 15, 0, 0, 0, 0, time.UTC),
		Summary:  "Test opinion summary",
		URL:      "https://example.com/opinion/1",
	}
}

// TextResponse builds a plain text completion response
func TextResponse(text string) *domain.CompletionResponse {
	return &domain.CompletionResponse{
		Text:         text,
		Usage:        domain.TokenUsage{PromptTokens: 50, CompletionTokens: 50, TotalTokens: 100},
		FinishReason: "stop",
	}
}

// ToolCallResponse builds a completion response requesting one tool call
func ToolCallResponse(name string, params map[string]interface{}) *domain.CompletionResponse {
	return &domain.CompletionResponse{
		ToolCalls: []domain.ToolCall{
			{ID: "call-1", Name: name, Params: params},
		},
		Usage:        domain.TokenUsage{PromptTokens: 50, CompletionTokens: 20, TotalTokens: 70},
		FinishReason: "tool_use",
	}
}
