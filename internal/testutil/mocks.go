// Package testutil provides shared mocks and helpers for tests
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// MockCompletionClient scripts completion responses round by round. When
// the script runs out it returns a plain text response so loops terminate.
type MockCompletionClient struct {
	mu           sync.Mutex
	Script       []*domain.CompletionResponse
	CallCount    int
	LastMessages []domain.Message
	ShouldError  bool
	ErrorMessage string
	// CompleteFunc overrides the scripted behavior when set
	CompleteFunc func(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition, opts domain.CompletionOptions) (*domain.CompletionResponse, error)
}

// NewMockCompletionClient creates an unscripted mock client
func NewMockCompletionClient() *MockCompletionClient {
	return &MockCompletionClient{}
}

// Complete implements domain.CompletionClient
func (m *MockCompletionClient) Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition, opts domain.CompletionOptions) (*domain.CompletionResponse, error) {
	if m.CompleteFunc != nil {
		m.mu.Lock()
		m.CallCount++
		m.LastMessages = messages
		m.mu.Unlock()
		return m.CompleteFunc(ctx, messages, tools, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	call := m.CallCount
	m.CallCount++
	m.LastMessages = messages

	if m.ShouldError {
		return nil, fmt.Errorf("%s", m.ErrorMessage)
	}

	if call < len(m.Script) {
		return m.Script[call], nil
	}

	return &domain.CompletionResponse{
		Text: "Mock answer",
		Usage: domain.TokenUsage{
			PromptTokens:     50,
			CompletionTokens: 50,
			TotalTokens:      100,
		},
		FinishReason: "stop",
	}, nil
}

// Calls returns the number of Complete invocations so far
func (m *MockCompletionClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// MockCaseLawService serves canned opinions for tests
type MockCaseLawService struct {
	mu          sync.Mutex
	Opinions    []domain.Opinion
	CallCount   int
	LastQuery   string
	ShouldError bool
	// SearchFunc overrides the canned behavior when set
	SearchFunc func(ctx context.Context, query, jurisdiction string, from, to time.Time) ([]domain.Opinion, error)
}

// NewMockCaseLawService creates a mock case-law service with no opinions
func NewMockCaseLawService() *MockCaseLawService {
	return &MockCaseLawService{}
}

// SearchOpinions implements domain.CaseLawService
func (m *MockCaseLawService) SearchOpinions(ctx context.Context, query, jurisdiction string, from, to time.Time) ([]domain.Opinion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	m.LastQuery = query

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, jurisdiction, from, to)
	}
	if m.ShouldError {
		return nil, fmt.Errorf("case-law service unavailable")
	}
	return m.Opinions, nil
}

// MockRegulationService serves canned regulation text for tests
type MockRegulationService struct {
	mu          sync.Mutex
	Text        string
	CallCount   int
	ShouldError bool
}

// NewMockRegulationService creates a mock regulation service
func NewMockRegulationService() *MockRegulationService {
	return &MockRegulationService{Text: "Mock regulation text"}
}

// GetRegulationText implements domain.RegulationService
func (m *MockRegulationService) GetRegulationText(ctx context.Context, title int, part, section string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	if m.ShouldError {
		return "", fmt.Errorf("regulation service unavailable")
	}
	return m.Text, nil
}

// MockCitationVerifier resolves citations from a fixed table
type MockCitationVerifier struct {
	mu        sync.Mutex
	Known     map[string]*domain.CitationVerification
	CallCount int
}

// NewMockCitationVerifier creates an empty verifier; every citation reports
// not found until added to Known
func NewMockCitationVerifier() *MockCitationVerifier {
	return &MockCitationVerifier{Known: make(map[string]*domain.CitationVerification)}
}

// VerifyCitation implements domain.CitationVerifier
func (m *MockCitationVerifier) VerifyCitation(ctx context.Context, citation, caseName string) (*domain.CitationVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++
	if v, ok := m.Known[citation]; ok {
		return v, nil
	}
	return &domain.CitationVerification{Citation: citation, Found: false}, nil
}

// MockTool is a configurable tool for dispatcher and workflow tests
type MockTool struct {
	ToolName    string
	ToolDesc    string
	Result      string
	Err         error
	CallCount   int
	LastParams  map[string]interface{}
	ExecuteFunc func(ctx context.Context, params map[string]interface{}) (string, error)
	mu          sync.Mutex
}

// Name implements domain.Tool
func (m *MockTool) Name() string { return m.ToolName }

// Description implements domain.Tool
func (m *MockTool) Description() string { return m.ToolDesc }

// Schema implements domain.Tool
func (m *MockTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{Type: "object", Properties: map[string]domain.SchemaProperty{}}
}

// Execute implements domain.Tool
func (m *MockTool) Execute(ctx context.Context, params map[string]interface{}) (string, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastParams = params
	m.mu.Unlock()

	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, params)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Result, nil
}
