package domain

import (
	"context"
	"time"
)

// CompletionClient defines the narrow text-completion capability the engine
// consumes. Tool definitions and tool results are embedded in the
// conversation; the client reports back any tool-use requests the model made.
type CompletionClient interface {
	// Complete sends the conversation to the model and returns its response
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition, opts CompletionOptions) (*CompletionResponse, error)
}

// CompletionOptions provides options for completion calls
type CompletionOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
}

// CompletionResponse represents a completion response, with any tool-use
// requests the model produced this round
type CompletionResponse struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	Usage        TokenUsage `json:"usage"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// CaseLawService defines the external case-law database capability
type CaseLawService interface {
	// SearchOpinions searches judicial opinions matching the query within
	// the jurisdiction and date range
	SearchOpinions(ctx context.Context, query, jurisdiction string, from, to time.Time) ([]Opinion, error)
}

// RegulationService defines the external regulation text capability
type RegulationService interface {
	// GetRegulationText fetches the text of a CFR section
	GetRegulationText(ctx context.Context, title int, part, section string) (string, error)
}

// Tool defines a single dispatchable research tool
type Tool interface {
	// Name returns the tool name (unique registry key)
	Name() string

	// Description returns the tool description shown to the model
	Description() string

	// Schema returns the tool's parameter schema
	Schema() ToolSchema

	// Execute runs the tool against supplied parameters
	Execute(ctx context.Context, params map[string]interface{}) (string, error)
}

// ToolRegistry manages the fixed set of callable tools
type ToolRegistry interface {
	// Register registers a new tool
	Register(tool Tool) error

	// Get retrieves a tool by name
	Get(name string) (Tool, error)

	// Definitions returns the definitions of all registered tools, sorted
	// by name, for handing to the completion capability
	Definitions() []ToolDefinition
}

// ToolDispatcher executes named tools with caching and per-call failure
// capture
type ToolDispatcher interface {
	// Definitions returns the registered tool definitions
	Definitions() []ToolDefinition

	// Execute runs a named tool. Failures are returned inside the
	// ToolResult, never as a hard error.
	Execute(ctx context.Context, call ToolCall) ToolResult
}

// ToolCache memoizes expensive tool results keyed by tool name plus
// canonicalized parameters. Implementations must be safe for concurrent use
// by independent research sessions.
type ToolCache interface {
	// Get returns the cached value for the call, if present and unexpired
	Get(toolName string, params map[string]interface{}) (string, bool)

	// Put stores a value with a tool-specific TTL
	Put(toolName string, params map[string]interface{}, value string, ttl time.Duration)

	// Evict removes the entry for the call, if present
	Evict(toolName string, params map[string]interface{})

	// Len returns the number of live entries
	Len() int
}

// CitationVerifier resolves citation strings against real case law
type CitationVerifier interface {
	// VerifyCitation confirms a citation resolves to a real, specific case
	VerifyCitation(ctx context.Context, citation, caseName string) (*CitationVerification, error)
}
