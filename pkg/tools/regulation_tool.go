package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/counselflow/legal-research-agent/pkg/cache"
	"github.com/counselflow/legal-research-agent/pkg/domain"
)

// GetCFRTextTool fetches the text of a Code of Federal Regulations section.
// Regulations change infrequently, so results cache for 90 days.
type GetCFRTextTool struct {
	service domain.RegulationService
}

// NewGetCFRTextTool creates the regulation text tool
func NewGetCFRTextTool(service domain.RegulationService) *GetCFRTextTool {
	return &GetCFRTextTool{service: service}
}

// Name returns the tool name
func (t *GetCFRTextTool) Name() string { return "get_cfr_text" }

// Description returns the tool description
func (t *GetCFRTextTool) Description() string {
	return "Fetch the current text of a Code of Federal Regulations section, e.g. title 29, part 1614, section 105."
}

// Schema returns the tool's parameter schema
func (t *GetCFRTextTool) Schema() domain.ToolSchema {
	return domain.ToolSchema{
		Type: "object",
		Properties: map[string]domain.SchemaProperty{
			"title": {
				Type:        "integer",
				Description: "CFR title number, 1 through 50",
			},
			"part": {
				Type:        "string",
				Description: "Part number, e.g. '1614'",
			},
			"section": {
				Type:        "string",
				Description: "Section number within the part, e.g. '105'. Optional.",
			},
		},
		Required: []string{"title", "part"},
	}
}

// Execute fetches the regulation text
func (t *GetCFRTextTool) Execute(ctx context.Context, params map[string]interface{}) (string, error) {
	title, err := intParam(params, "title")
	if err != nil {
		return "", err
	}
	part, err := stringParam(params, "part")
	if err != nil {
		return "", err
	}
	section := optionalStringParam(params, "section", "")

	text, err := t.service.GetRegulationText(ctx, title, part, section)
	if err != nil {
		return "", fmt.Errorf("fetching %d CFR %s: %w", title, part, err)
	}

	ref := fmt.Sprintf("%d CFR %s", title, part)
	if section != "" {
		ref += "." + section
	}
	return fmt.Sprintf("%s:\n\n%s", ref, text), nil
}

// CacheTTL keeps regulation text for 90 days
func (t *GetCFRTextTool) CacheTTL(string) time.Duration {
	return cache.TTLRegulation
}
