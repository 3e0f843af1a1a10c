// Package llm implements the text-completion capability against an
// Ollama-compatible chat API, with tool definitions embedded in the system
// prompt and tool-call requests parsed out of the model's reply.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// Options configures the completion client
type Options struct {
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Timeout     time.Duration `json:"timeout"`
}

// Client implements domain.CompletionClient against an Ollama-compatible
// chat endpoint
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	options    Options
}

// chatRequest is the wire format of a chat completion request
type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Options  map[string]interface{} `json:"options,omitempty"`
	Stream   bool                   `json:"stream"`
}

// chatMessage is the wire format of one conversation message
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the wire format of a chat completion response
type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	PromptEvalCount int         `json:"prompt_eval_count"`
	EvalCount       int         `json:"eval_count"`
}

// NewClient creates a completion client. A nil options pointer selects
// defaults suited to multi-round tool use.
func NewClient(baseURL, model string, options *Options) *Client {
	if options == nil {
		options = &Options{
			Temperature: 0.2,
			MaxTokens:   4096,
			TopP:        0.9,
			Timeout:     2 * time.Minute,
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: options.Timeout,
		},
		options: *options,
	}
}

// Complete sends the conversation to the model. When tool definitions are
// supplied they are rendered into the system prompt and any tool-call
// requests are parsed out of the reply.
func (c *Client) Complete(ctx context.Context, messages []domain.Message, tools []domain.ToolDefinition, opts domain.CompletionOptions) (*domain.CompletionResponse, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: c.convertMessages(messages, tools),
		Options:  c.buildOptions(opts),
		Stream:   false,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		"POST",
		fmt.Sprintf("%s/api/chat", c.baseURL),
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion service returned status %d: %s", resp.StatusCode, string(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	parsed := ParseResponse(cr.Message.Content)

	response := &domain.CompletionResponse{
		Text:      parsed.Text,
		ToolCalls: parsed.ToolCalls,
		Usage: domain.TokenUsage{
			PromptTokens:     cr.PromptEvalCount,
			CompletionTokens: cr.EvalCount,
			TotalTokens:      cr.PromptEvalCount + cr.EvalCount,
		},
		FinishReason: finishReason(parsed),
	}

	return response, nil
}

// CheckHealth verifies the completion service is reachable
func (c *Client) CheckHealth(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(
		ctx,
		"GET",
		fmt.Sprintf("%s/api/tags", c.baseURL),
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("completion service unhealthy: status %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) convertMessages(messages []domain.Message, tools []domain.ToolDefinition) []chatMessage {
	out := make([]chatMessage, 0, len(messages)+1)

	if len(tools) > 0 {
		out = append(out, chatMessage{Role: "system", Content: BuildToolPrompt(tools)})
	}

	for _, msg := range messages {
		cm := chatMessage{Role: msg.Role, Content: msg.Content}
		if msg.Role == "tool" {
			cm.Role = "user"
			cm.Content = fmt.Sprintf("Tool %q returned:\n%s", msg.ToolName, msg.Content)
		}
		out = append(out, cm)
	}
	return out
}

func (c *Client) buildOptions(opts domain.CompletionOptions) map[string]interface{} {
	options := make(map[string]interface{})

	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	} else {
		options["temperature"] = c.options.Temperature
	}

	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	} else {
		options["num_predict"] = c.options.MaxTokens
	}

	if c.options.TopP > 0 {
		options["top_p"] = c.options.TopP
	}

	return options
}

func finishReason(parsed ParsedResponse) string {
	if len(parsed.ToolCalls) > 0 {
		return "tool_use"
	}
	return "stop"
}

// BuildToolPrompt renders tool definitions into the system prompt that
// instructs the model how to request tool calls
func BuildToolPrompt(tools []domain.ToolDefinition) string {
	var sb strings.Builder
	sb.WriteString("You are a legal research assistant. You may call the following tools.\n\n")
	sb.WriteString("Available tools:\n")

	for _, tool := range tools {
		schema, _ := json.Marshal(tool.Schema)
		sb.WriteString(fmt.Sprintf("- %s: %s\n  parameters: %s\n", tool.Name, tool.Description, schema))
	}

	sb.WriteString(`
To call tools, respond with ONLY a JSON object of this exact shape:
{"tool_calls": [{"name": "<tool name>", "params": {...}}]}

When you have enough information, respond with your final answer as plain text, citing authorities precisely. Never invent citations.
`)
	return sb.String()
}
