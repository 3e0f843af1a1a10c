package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// ParseKind names which parsing variant produced a ParsedResponse
type ParseKind string

const (
	// ParseStructured means the reply deserialized cleanly as the
	// tool-call JSON shape.
	ParseStructured ParseKind = "structured"
	// ParseText means structured parsing failed and the reply was treated
	// as answer text, with a best-effort scan for embedded tool calls.
	ParseText ParseKind = "text"
)

// ParsedResponse is the outcome of interpreting one model reply. Exactly
// one variant applies: structured JSON parsing is always attempted first
// and the text fallback only engages when deserialization fails.
type ParsedResponse struct {
	Kind      ParseKind
	Text      string
	ToolCalls []domain.ToolCall
}

// toolCallEnvelope is the JSON shape the system prompt asks the model to
// emit when requesting tools
type toolCallEnvelope struct {
	ToolCalls []struct {
		Name   string                 `json:"name"`
		Params map[string]interface{} `json:"params"`
	} `json:"tool_calls"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseResponse interprets a model reply. The reply body, or a fenced JSON
// block inside it, is first tried as the structured tool-call envelope.
// Only when that fails is the reply treated as plain answer text.
func ParseResponse(content string) ParsedResponse {
	trimmed := strings.TrimSpace(content)

	if calls, ok := parseEnvelope(trimmed); ok {
		return ParsedResponse{Kind: ParseStructured, ToolCalls: calls}
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
		if calls, ok := parseEnvelope(m[1]); ok {
			text := strings.TrimSpace(fencedJSONRe.ReplaceAllString(trimmed, ""))
			return ParsedResponse{Kind: ParseStructured, Text: text, ToolCalls: calls}
		}
	}

	return ParsedResponse{Kind: ParseText, Text: trimmed}
}

// parseEnvelope attempts the structured variant. It succeeds only when the
// input is a JSON object carrying at least one named tool call.
func parseEnvelope(s string) ([]domain.ToolCall, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}

	var env toolCallEnvelope
	if err := json.Unmarshal([]byte(s), &env); err != nil {
		return nil, false
	}
	if len(env.ToolCalls) == 0 {
		return nil, false
	}

	calls := make([]domain.ToolCall, 0, len(env.ToolCalls))
	for _, tc := range env.ToolCalls {
		if tc.Name == "" {
			continue
		}
		params := tc.Params
		if params == nil {
			params = map[string]interface{}{}
		}
		calls = append(calls, domain.ToolCall{
			ID:     uuid.NewString(),
			Name:   tc.Name,
			Params: params,
		})
	}
	if len(calls) == 0 {
		return nil, false
	}
	return calls, true
}
